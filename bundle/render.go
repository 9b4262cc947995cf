package bundle

import (
	"fmt"
)

// Input is one named substitution value.
type Input struct {
	Name  string
	Value string
}

// Inputs is the ordered record of values a template consumes.
type Inputs []Input

// Wildcard kinds understood by Render.
const (
	KindText = "text" // escaped for a template literal
	KindCode = "code" // inserted verbatim
)

func (in Inputs) lookup() (map[string]string, error) {
	m := make(map[string]string, len(in))
	for _, v := range in {
		if _, dup := m[v.Name]; dup {
			return nil, fmt.Errorf("duplicate input '%s'", v.Name)
		}
		m[v.Name] = v.Value
	}
	return m, nil
}

// Render substitutes the inputs into tmpl. `$<text:NAME>$` receives the
// escaped value, `$<code:NAME>$` the value as is.
func Render(tmpl []byte, inputs Inputs) ([]byte, error) {
	values, err := inputs.lookup()
	if err != nil {
		return nil, err
	}
	return ReplaceWildcards(tmpl, func(w Wildcard) (string, error) {
		v, ok := values[w.Name]
		if !ok {
			return "", fmt.Errorf("unknown input '%s'", w.Name)
		}
		switch w.Kind {
		case KindText:
			return EscapeTemplateLiteral(v), nil
		case KindCode:
			return v, nil
		default:
			return "", fmt.Errorf("unsupported kind '%s'", w.Kind)
		}
	})
}

// Unreferenced returns the names of inputs that tmpl never mentions.
func Unreferenced(tmpl []byte, inputs Inputs) ([]string, error) {
	used := map[string]struct{}{}
	err := ForAllWildcards(tmpl, func(w Wildcard) error {
		used[w.Name] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ret := []string{}
	for _, in := range inputs {
		if _, ok := used[in.Name]; !ok {
			ret = append(ret, in.Name)
		}
	}
	return ret, nil
}
