package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Wildcards are template fragments of the form `$<kind:name>$`.
var reWildcard = regexp.MustCompile(`\$<((?:[^>\$])*)>\$`)

var ErrInvalidWildcardSyntax = errors.New("unsupported syntax")

type Wildcard struct {
	Kind   string
	Name   string
	Offset int // byte offset of the opening `$<`
	End    int // byte offset just past the closing `>$`
}

func (w Wildcard) String() string {
	return "$<" + w.Kind + ":" + w.Name + ">$"
}

// WildcardError reports a wildcard that could not be parsed or resolved.
type WildcardError struct {
	Position Position
	Text     string
	Err      error
}

func (e *WildcardError) Error() string {
	return fmt.Sprintf("[%s] invalid wildcard %s: %v", e.Position, e.Text, e.Err)
}

func (e *WildcardError) Unwrap() error {
	return e.Err
}

func parseWildcardContent(s string) (kind, name string, err error) {
	kind, name, ok := strings.Cut(s, ":")
	if !ok || kind == "" || name == "" {
		return "", "", ErrInvalidWildcardSyntax
	}
	return kind, name, nil
}

// ForAllWildcards calls handler for every wildcard in buf, in order.
func ForAllWildcards(buf []byte, handler func(w Wildcard) error) error {
	for _, m := range reWildcard.FindAllSubmatchIndex(buf, -1) {
		kind, name, err := parseWildcardContent(string(buf[m[2]:m[3]]))
		if err == nil {
			err = handler(Wildcard{Kind: kind, Name: name, Offset: m[0], End: m[1]})
		}
		if err != nil {
			return &WildcardError{
				Position: PositionAt(string(buf), m[0]),
				Text:     string(buf[m[0]:m[1]]),
				Err:      err,
			}
		}
	}
	return nil
}

// ReplaceWildcards substitutes every wildcard with the handler's result.
// Substituted text is not rescanned. The first error stops the replacement.
func ReplaceWildcards(buf []byte, handler func(w Wildcard) (string, error)) ([]byte, error) {
	out := bytes.Buffer{}
	out.Grow(len(buf))
	last := 0
	err := ForAllWildcards(buf, func(w Wildcard) error {
		s, err := handler(w)
		if err != nil {
			return err
		}
		out.Write(buf[last:w.Offset])
		out.WriteString(s)
		last = w.End
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Write(buf[last:])
	return out.Bytes(), nil
}
