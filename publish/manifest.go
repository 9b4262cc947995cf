// Package publish copies the fixed list of site assets into a staging
// directory and pushes it to the hosting branch.
package publish

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Manifest is the ordered list of site assets, as slash-separated paths
// relative to the project root. Directory entries cover their whole tree.
type Manifest []string

// MissingError lists manifest entries absent from disk.
type MissingError struct {
	Root  string
	Paths []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing %d manifest file(s) in %s: %s", len(e.Paths), e.Root, strings.Join(e.Paths, ", "))
}

// cleanEntry normalizes a manifest entry and rejects paths outside the root.
func cleanEntry(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty manifest entry")
	}
	s := filepath.ToSlash(p)
	if path.IsAbs(s) || filepath.IsAbs(p) {
		return "", fmt.Errorf("manifest entry '%s' must be relative", p)
	}
	s = path.Clean(s)
	if s == "." || s == ".." || strings.HasPrefix(s, "../") {
		return "", fmt.Errorf("manifest entry '%s' points outside the project", p)
	}
	return s, nil
}

// Entries returns the cleaned entries in manifest order.
func (m Manifest) Entries() ([]string, error) {
	ret := make([]string, 0, len(m))
	for _, p := range m {
		s, err := cleanEntry(p)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

// Validate checks that every entry exists under root. All missing entries
// are reported together as a *MissingError.
func (m Manifest) Validate(root string) error {
	if len(m) == 0 {
		return fmt.Errorf("empty manifest")
	}
	entries, err := m.Entries()
	if err != nil {
		return err
	}
	missing := []string{}
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(e)))
		if os.IsNotExist(err) {
			missing = append(missing, e)
		} else if err != nil {
			return err
		} else if !info.IsDir() && !info.Mode().IsRegular() {
			return fmt.Errorf("manifest entry '%s' is not a regular file or directory", e)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Root: root, Paths: missing}
	}
	return nil
}

// Allows reports whether the slash-separated path rel is an entry or lies
// under a directory entry.
func (m Manifest) Allows(rel string) bool {
	rel = path.Clean(strings.TrimPrefix(rel, "/"))
	for _, p := range m {
		s, err := cleanEntry(p)
		if err != nil {
			continue
		}
		if rel == s || strings.HasPrefix(rel, s+"/") {
			return true
		}
	}
	return false
}
