package source

import (
	"path/filepath"
	"testing"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	if err := store.Save(1234); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("checkpoint not found after save")
	}
	if cp.LastReducedBlock != 1234 {
		t.Fatalf("lastReducedBlock = %d, want 1234", cp.LastReducedBlock)
	}
	if cp.UpdatedAt == "" {
		t.Fatalf("updatedAt not set")
	}
}

func TestCheckpointDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)

	if err := store.Save(99); err != nil {
		t.Fatalf("disabled save errored: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("disabled load: ok=%v err=%v", ok, err)
	}
}

func TestCheckpointDirectoryPath(t *testing.T) {
	store := NewCheckpointStore(t.TempDir(), true)
	if _, _, err := store.Load(); err == nil {
		t.Fatalf("expected error for directory path")
	}
}
