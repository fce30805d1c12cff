// Package workspace resolves and prepares the on-disk data directory
// holding the corpus snapshot, its semantic sidecars and the run database.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const BaseDirName = ".draftcheck"

// Paths locates every persistent artifact inside one base directory. The
// semantic sidecars live next to the snapshot and are derived from its
// path, so they are not listed here.
type Paths struct {
	Base     string
	Snapshot string
	Database string
}

// Default prepares the per-user data directory under the home directory.
func Default() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home: %w", err)
	}
	return At(filepath.Join(home, BaseDirName))
}

// At prepares base as a data directory, creating it when missing.
func At(base string) (Paths, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return Paths{}, fmt.Errorf("mkdir %s: %w", base, err)
	}
	return Paths{
		Base:     base,
		Snapshot: filepath.Join(base, "corpus.json"),
		Database: filepath.Join(base, "runs.db"),
	}, nil
}
