package bundle

import (
	"bytes"
	"strings"
)

// StripStatements removes every line of script whose trimmed text equals one
// of statements and returns the result with the number of removed lines.
// All other bytes are kept as they are.
func StripStatements(script []byte, statements []string) ([]byte, int) {
	drop := map[string]struct{}{}
	for _, s := range statements {
		if s = strings.TrimSpace(s); s != "" {
			drop[s] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return script, 0
	}

	out := bytes.Buffer{}
	out.Grow(len(script))
	n := 0
	for _, line := range bytes.SplitAfter(script, []byte("\n")) {
		if _, ok := drop[string(bytes.TrimSpace(line))]; ok {
			n++
			continue
		}
		out.Write(line)
	}
	return out.Bytes(), n
}
