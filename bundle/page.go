package bundle

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/adnsv/go-utils/fs"
	"github.com/adnsv/tsplay/config"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Page is an HTML template processed with `$<var:KEY>$` and
// `$<markdown:FILE>$` wildcards. Markdown paths resolve against the
// template's directory.
type Page struct {
	Template string
	Output   string
	Def      map[string]string
}

// PageFromConfig returns the configured page; ok is false when no page
// template is set.
func PageFromConfig(cfg *config.Config) (p Page, ok bool) {
	if cfg.Page.Template == "" {
		return Page{}, false
	}
	return Page{
		Template: cfg.Path(cfg.Page.Template),
		Output:   cfg.Path(cfg.Page.Output),
		Def:      cfg.Page.Def,
	}, true
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var sanitizer = bluemonday.UGCPolicy()

// MarkdownToHTML converts markdown to sanitized HTML.
func MarkdownToHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, err
	}
	return sanitizer.SanitizeBytes(buf.Bytes()), nil
}

func (p *Page) Render() ([]byte, error) {
	log.Printf("loading page template %s\n", p.Template)
	tmpl, err := os.ReadFile(p.Template)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(p.Template)

	return ReplaceWildcards(tmpl, func(w Wildcard) (string, error) {
		switch w.Kind {
		case "var":
			v, ok := p.Def[w.Name]
			if !ok {
				return "", fmt.Errorf("unknown variable: %s", w.Name)
			}
			return EscapeHTML(v), nil
		case "markdown":
			fn := config.NormalizePath(dir, w.Name)
			log.Printf("- converting %s\n", fn)
			src, err := os.ReadFile(fn)
			if err != nil {
				return "", err
			}
			out, err := MarkdownToHTML(src)
			if err != nil {
				return "", fmt.Errorf("%s: %w", fn, err)
			}
			return string(out), nil
		default:
			return "", fmt.Errorf("unsupported kind '%s'", w.Kind)
		}
	})
}

func (p *Page) Build() error {
	out, err := p.Render()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p.Output), 0755); err != nil {
		return err
	}
	log.Printf("- writing %s\n", p.Output)
	return fs.WriteFileIfChanged(p.Output, out)
}
