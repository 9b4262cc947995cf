package defs

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/adnsv/go-utils/fs"
	"github.com/adnsv/tsplay/config"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Source is one declaration listing and the local file it is cached in.
type Source struct {
	Name    string
	Listing string
	Match   *regexp.Regexp
	Output  string // absolute
}

// Blob is the text of one fetched declaration file.
type Blob struct {
	Name string
	Text []byte
}

func SourceFromConfig(cfg *config.Config, name string) (Source, error) {
	s, err := cfg.Source(name)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Name:    name,
		Listing: s.Listing,
		Match:   s.Pattern(),
		Output:  cfg.Path(s.Output),
	}, nil
}

// NewClientFromConfig builds a Client from the api section of cfg and an
// explicitly supplied token.
func NewClientFromConfig(cfg *config.Config, token string) (*Client, error) {
	return NewClient(Options{
		BaseURL:   cfg.API.BaseURL,
		Token:     token,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	})
}

// Select keeps the file entries whose name matches, preserving listing order.
// A nil match keeps every file.
func Select(entries []Entry, match *regexp.Regexp) []Entry {
	ret := []Entry{}
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		if match != nil && !match.MatchString(e.Name) {
			continue
		}
		ret = append(ret, e)
	}
	return ret
}

// FetchAll downloads every entry concurrently. The first failure cancels the
// remaining requests and is returned. Results keep the order of entries.
func FetchAll(ctx context.Context, c *Client, entries []Entry) ([]Blob, error) {
	blobs := make([]Blob, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			text, err := c.Content(gctx, e)
			if err != nil {
				return err
			}
			blobs[i] = Blob{Name: e.Name, Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}

// Join concatenates the blobs in order, one newline between each.
func Join(blobs []Blob) []byte {
	parts := make([][]byte, 0, len(blobs))
	for _, b := range blobs {
		parts = append(parts, b.Text)
	}
	return bytes.Join(parts, []byte("\n"))
}

// Fetch lists the source, downloads every matching file and returns the
// joined text.
func Fetch(ctx context.Context, c *Client, src Source) ([]byte, error) {
	log.Printf("listing %s\n", c.URL(src.Listing))
	entries, err := c.List(ctx, src.Listing)
	if err != nil {
		return nil, err
	}

	selected := Select(entries, src.Match)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%s: no files in %s match %s", src.Name, c.URL(src.Listing), src.Match)
	}
	for _, e := range selected {
		log.Printf("- fetching %s\n", e.Path)
	}

	blobs, err := FetchAll(ctx, c, selected)
	if err != nil {
		return nil, err
	}
	return Join(blobs), nil
}

// Run fetches src and writes the result to src.Output. Nothing is written
// unless every request succeeded.
func Run(ctx context.Context, c *Client, src Source) error {
	data, err := Fetch(ctx, c, src)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(src.Output), 0755); err != nil {
		return err
	}
	log.Printf("writing %s (%s)\n", src.Output, humanize.Bytes(uint64(len(data))))
	return fs.WriteFileIfChanged(src.Output, data)
}

// RunConfigured fetches the named source of cfg using the token configured
// for the api section.
func RunConfigured(ctx context.Context, cfg *config.Config, name string) error {
	src, err := SourceFromConfig(cfg, name)
	if err != nil {
		return err
	}
	token, err := cfg.Token()
	if err != nil {
		return err
	}
	c, err := NewClientFromConfig(cfg, token)
	if err != nil {
		return err
	}
	return Run(ctx, c, src)
}
