package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data")

	paths, err := At(base)
	if err != nil {
		t.Fatalf("prepare workspace: %v", err)
	}
	if _, err := os.Stat(base); err != nil {
		t.Fatalf("base dir missing: %v", err)
	}
	if paths.Snapshot != filepath.Join(base, "corpus.json") {
		t.Fatalf("unexpected snapshot path %s", paths.Snapshot)
	}
	if paths.Database != filepath.Join(base, "runs.db") {
		t.Fatalf("unexpected database path %s", paths.Database)
	}
}

func TestAtIsIdempotent(t *testing.T) {
	base := t.TempDir()
	if _, err := At(base); err != nil {
		t.Fatalf("first prepare: %v", err)
	}
	if _, err := At(base); err != nil {
		t.Fatalf("second prepare: %v", err)
	}
}
