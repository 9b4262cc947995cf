package publish

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Stage replaces dir with a fresh copy of every manifest entry under root,
// keeping relative paths. The manifest is validated before anything is
// removed or copied.
func Stage(root string, m Manifest, dir string) (count int, err error) {
	if err = m.Validate(root); err != nil {
		return 0, err
	}
	if err = checkStagingDir(root, dir); err != nil {
		return 0, err
	}

	log.Printf("staging %d asset(s) into %s\n", len(m), dir)
	if err = os.RemoveAll(dir); err != nil {
		return 0, err
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	entries, err := m.Entries()
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		src := filepath.Join(root, filepath.FromSlash(e))
		dst := filepath.Join(dir, filepath.FromSlash(e))
		n, err := copyTree(src, dst)
		if err != nil {
			return count, err
		}
		log.Printf("- %s (%d file(s))\n", e, n)
		count += n
	}
	return count, nil
}

// checkStagingDir refuses staging directories that would wipe the project.
func checkStagingDir(root, dir string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absDir, absRoot)
	if err != nil {
		return err
	}
	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("staging dir %s must not contain the project root %s", absDir, absRoot)
	}
	return nil
}

// copyTree copies src, a file or a directory, to dst. Symlinks are followed,
// both for src itself and inside the tree; a link back into a directory that
// is being copied is an error.
func copyTree(src, dst string) (int, error) {
	return copyResolved(src, dst, map[string]bool{})
}

func copyResolved(src, dst string, active map[string]bool) (int, error) {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		if err = copyFile(resolved, dst); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if active[resolved] {
		return 0, fmt.Errorf("symlink cycle at %s", src)
	}
	active[resolved] = true
	defer delete(active, resolved)

	n := 0
	err = filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(resolved, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			k, err := copyResolved(p, target, active)
			n += k
			return err
		}
		if err = copyFile(p, target); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = atomic.WriteFile(dst, f); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return os.Chmod(dst, info.Mode().Perm())
}
