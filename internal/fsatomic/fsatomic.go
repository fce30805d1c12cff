// Package fsatomic writes files via temp-then-rename so readers never see
// partial content. A Stage defers every rename until all payloads reached
// disk, so a multi-file artifact set is either replaced as a unit or the
// previous files stay untouched.
package fsatomic

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write replaces path atomically, creating its directory when missing.
func Write(path string, data []byte) error {
	var st Stage
	if err := st.Add(path, data); err != nil {
		return err
	}
	return st.Commit()
}

type pending struct {
	tmp  string
	path string
}

// Stage accumulates temp-written payloads. Commit renames them in Add
// order, so callers add their commit-marker file last.
type Stage struct {
	files []pending
}

// Add writes data to a temp file next to path. The rename happens at
// Commit. A failed Add cleans up its own temp file; earlier additions stay
// staged and should be released with Discard.
func (s *Stage) Add(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	s.files = append(s.files, pending{tmp: tmpName, path: path})
	return nil
}

// Commit renames every staged file into place. On a rename failure the
// remaining temps are removed; files renamed before the failure keep their
// new content.
func (s *Stage) Commit() error {
	for i, f := range s.files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			for _, rest := range s.files[i:] {
				_ = os.Remove(rest.tmp)
			}
			s.files = nil
			return fmt.Errorf("rename temp file: %w", err)
		}
	}
	s.files = nil
	return nil
}

// Discard removes all staged temp files without touching the targets.
func (s *Stage) Discard() {
	for _, f := range s.files {
		_ = os.Remove(f.tmp)
	}
	s.files = nil
}
