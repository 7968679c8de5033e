package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	return store
}

func TestWriteAndReadJSON(t *testing.T) {
	store := newTestStore(t)

	in := map[string]interface{}{"anrede": "Frau", "city": "Köln"}
	if err := store.WriteJSON("master_data/mandanten/m-1.json", in); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var out map[string]interface{}
	if err := store.ReadJSON("master_data/mandanten/m-1.json", &out); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if out["city"] != "Köln" {
		t.Errorf("Expected city Köln, got %v", out["city"])
	}

	// Overwrite keeps a single file and no temp leftovers
	if err := store.WriteJSON("master_data/mandanten/m-1.json", map[string]string{"city": "Bonn"}); err != nil {
		t.Fatalf("Second WriteJSON failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(store.Root(), "master_data", "mandanten"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 file, got %d", len(entries))
	}
}

func TestReadMissingFile(t *testing.T) {
	store := newTestStore(t)

	var out map[string]interface{}
	err := store.ReadJSON("master_data/gegner/none.json", &out)
	if !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestRemoveIgnoresMissing(t *testing.T) {
	store := newTestStore(t)

	if err := store.Remove("master_data/gegner/none.json"); err != nil {
		t.Errorf("Expected nil for missing file, got %v", err)
	}
	if err := store.RemoveAll("akten/none"); err != nil {
		t.Errorf("Expected nil for missing directory, got %v", err)
	}
}

func TestEnsureDirAndRemoveAll(t *testing.T) {
	store := newTestStore(t)

	if err := store.EnsureDir("akten/a-1/dokumente"); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	// Already existing directory is fine
	if err := store.EnsureDir("akten/a-1/dokumente"); err != nil {
		t.Fatalf("EnsureDir on existing directory failed: %v", err)
	}
	if !store.Exists("akten/a-1/dokumente") {
		t.Fatal("Expected directory to exist")
	}

	if err := store.RemoveAll("akten/a-1"); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if store.Exists("akten/a-1") {
		t.Error("Expected directory to be removed")
	}
}

func TestPathsOutsideRoot(t *testing.T) {
	store := newTestStore(t)

	tests := []string{"../escape.json", "master_data/../../escape.json", "/etc/passwd", ""}
	for _, rel := range tests {
		if err := store.WriteJSON(rel, map[string]string{}); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("WriteJSON(%q): expected ErrOutsideRoot, got %v", rel, err)
		}
	}

	if err := store.RemoveAll("."); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("RemoveAll(.) should refuse to delete the root, got %v", err)
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"4f1c2a9e-1111-4c1b-9a55-2f8b3d1e0c77", true},
		{"mandant-1", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
		{"x..y", false},
	}

	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
