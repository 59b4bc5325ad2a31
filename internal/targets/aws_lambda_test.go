package targets

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestZipBundle(t *testing.T) {
	dist := t.TempDir()
	files := map[string]string{
		"index.mjs":  "export const handler = () => {};",
		"extra.json": "{}",
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dist, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	zipPath := filepath.Join(dist, "function.zip")
	if err := zipBundle(dist, zipPath); err != nil {
		t.Fatalf("zipBundle failed: %v", err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Archive doesn't open: %v", err)
	}
	defer r.Close()

	seen := map[string]bool{}
	for _, f := range r.File {
		seen[f.Name] = true
	}
	for name := range files {
		if !seen[name] {
			t.Errorf("Archive missing %s", name)
		}
	}
	if seen["function.zip"] {
		t.Error("Archive must not contain itself")
	}
}
