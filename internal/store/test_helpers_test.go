package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run, err := s.WriteRun(context.Background(), Run{
		ID:          id,
		SpecsDir:    "specs",
		ToolVersion: "0.1.0",
	})
	if err != nil {
		t.Fatalf("WriteRun(%s) failed: %v", id, err)
	}
	return run
}
