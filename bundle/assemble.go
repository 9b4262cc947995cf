package bundle

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/adnsv/go-utils/fs"
	"github.com/adnsv/tsplay/config"
	"github.com/dustin/go-humanize"
	"github.com/evanw/esbuild/pkg/api"
)

//go:embed templates/bundle.js.tmpl
var defaultTemplate []byte

// RuntimeInput is the input name the stripped runtime script is bound to.
const RuntimeInput = "runtime"

// DefaultTemplate returns the built-in bundle template.
func DefaultTemplate() []byte {
	return append([]byte(nil), defaultTemplate...)
}

// Spec lists the files that make up one bundle. Paths are absolute.
type Spec struct {
	Template string // empty: DefaultTemplate
	Runtime  string
	Strip    []string
	Inputs   []config.Input
	Output   string
	Minify   bool
}

func SpecFromConfig(cfg *config.Config) Spec {
	s := Spec{
		Template: cfg.Path(cfg.Build.Template),
		Runtime:  cfg.Path(cfg.Build.Runtime),
		Strip:    cfg.Build.Strip,
		Output:   cfg.Path(cfg.Build.Output),
		Minify:   cfg.Build.Minify,
	}
	for _, in := range cfg.Build.Inputs {
		s.Inputs = append(s.Inputs, config.Input{Name: in.Name, File: cfg.Path(in.File)})
	}
	return s
}

// OpenTemplate reads the template at fn, or the built-in one when fn is empty.
func OpenTemplate(fn string) ([]byte, error) {
	if fn == "" {
		return DefaultTemplate(), nil
	}
	log.Printf("loading template %s\n", fn)
	return os.ReadFile(fn)
}

// Assemble reads every input, strips the runtime script, renders the
// template and checks that the result parses as JavaScript.
func Assemble(spec Spec) ([]byte, error) {
	tmpl, err := OpenTemplate(spec.Template)
	if err != nil {
		return nil, err
	}

	inputs := Inputs{}
	for _, in := range spec.Inputs {
		log.Printf("loading %s\n", in.File)
		buf, err := os.ReadFile(in.File)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, Input{Name: in.Name, Value: string(buf)})
	}

	log.Printf("loading %s\n", spec.Runtime)
	script, err := os.ReadFile(spec.Runtime)
	if err != nil {
		return nil, err
	}
	script, n := StripStatements(script, spec.Strip)
	if n == 0 && len(spec.Strip) > 0 {
		log.Printf("[warning] none of the strip statements were found in %s\n", spec.Runtime)
	}
	inputs = append(inputs, Input{Name: RuntimeInput, Value: string(script)})

	unused, err := Unreferenced(tmpl, inputs)
	if err != nil {
		return nil, err
	}
	for _, name := range unused {
		log.Printf("[warning] input '%s' is not referenced by the template\n", name)
	}

	out, err := Render(tmpl, inputs)
	if err != nil {
		return nil, err
	}
	return Check(out, filepath.Base(spec.Output), spec.Minify)
}

// Check parses js with esbuild and fails on syntax errors. With minify the
// minified code is returned, otherwise js is returned untouched.
func Check(js []byte, name string, minify bool) ([]byte, error) {
	result := api.Transform(string(js), api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        name,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
	})
	for _, w := range result.Warnings {
		log.Printf("[warning] %s\n", formatMessage(w))
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, formatMessage(e))
		}
		return nil, fmt.Errorf("invalid javascript:\n%s", strings.Join(msgs, "\n"))
	}
	if minify {
		return result.Code, nil
	}
	return js, nil
}

func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	// esbuild columns are 0-based
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column+1, m.Text)
}

// Build assembles spec and writes the bundle.
func Build(spec Spec) error {
	out, err := Assemble(spec)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(spec.Output), 0755); err != nil {
		return err
	}
	log.Printf("- writing %s (%s)\n", spec.Output, humanize.Bytes(uint64(len(out))))
	return fs.WriteFileIfChanged(spec.Output, out)
}
