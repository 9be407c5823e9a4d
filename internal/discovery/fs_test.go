package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSuitesAuto(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "suites")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := []string{"b.yml", "a.json", "c.yaml", "notes.txt"}
	for _, name := range files {
		writeFile(t, filepath.Join(dir, name))
	}

	got, err := Suites(root, "suites", nil)
	if err != nil {
		t.Fatalf("Suites returned error: %v", err)
	}

	want := []string{
		"suites/a.json",
		"suites/b.yml",
		"suites/c.yaml",
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d files, got %d: %v", len(want), len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSuitesExplicit(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "suite.json")
	writeFile(t, file)

	externalDir := t.TempDir()
	absOutside := filepath.Join(externalDir, "external.yaml")
	writeFile(t, absOutside)

	got, err := Suites(root, "suites", []string{"suite.json", absOutside, "suite.json"})
	if err != nil {
		t.Fatalf("Suites returned error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(got), got)
	}
	if got[0] != "suite.json" {
		t.Fatalf("first path mismatch: got %q", got[0])
	}
	if got[1] != absOutside {
		t.Fatalf("second path mismatch: got %q expected %q", got[1], absOutside)
	}
}

func TestSuitesErrors(t *testing.T) {
	root := t.TempDir()

	if _, err := Suites(root, "suites", nil); !errors.Is(err, ErrSuitesDirMissing) || !errors.Is(err, ErrNoSuites) {
		t.Fatalf("expected ErrSuitesDirMissing for missing dir, got %v", err)
	}

	if err := os.Mkdir(filepath.Join(root, "suites"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Suites(root, "suites", nil); !errors.Is(err, ErrNoSuites) || errors.Is(err, ErrSuitesDirMissing) {
		t.Fatalf("expected ErrNoSuites for empty dir, got %v", err)
	}

	if _, err := Suites(root, "suites", []string{"missing.json"}); err == nil {
		t.Fatalf("expected error for missing file")
	}

	dir := filepath.Join(root, "dir.json")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Suites(root, "suites", []string{"dir.json"}); err == nil {
		t.Fatalf("expected error for directory input")
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(`{"name": "test", "description": ""}`), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
