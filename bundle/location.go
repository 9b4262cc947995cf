package bundle

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const utf8BOM = "\xef\xbb\xbf"

// Position is a line:column location inside a template. Columns count runes.
type Position struct {
	Line      int // 1-based
	Column    int // 1-based
	LineStart int // byte offset where the line begins
}

// PositionAt maps a byte offset in buf to a Position. A leading BOM is not
// counted and CR, LF and CRLF all end a line.
func PositionAt(buf string, offset int) Position {
	start := 0
	if strings.HasPrefix(buf, utf8BOM) {
		start = len(utf8BOM)
	}
	offset = max(start, min(offset, len(buf)))

	head := buf[start:offset]
	line := 1 + strings.Count(head, "\n") + strings.Count(head, "\r") - strings.Count(head, "\r\n")
	if i := strings.LastIndexAny(head, "\r\n"); i >= 0 {
		start += i + 1
	}
	return Position{
		Line:      line,
		Column:    1 + utf8.RuneCountInString(buf[start:offset]),
		LineStart: start,
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineText returns the text of the line p points into, without its ending.
func (p Position) LineText(buf string) string {
	rest := buf[p.LineStart:]
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		return rest[:i]
	}
	return rest
}
