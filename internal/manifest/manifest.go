package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the per-package manifest every deployable package carries.
const FileName = "switchyard.json"

// Manifest is the static, author-written description of one package.
type Manifest struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies,omitempty"`
	Runtime      []string `json:"runtime,omitempty"` // compatible targets; empty means any
	Routes       []string `json:"routes,omitempty"`  // mount patterns, may contain :params
	Entry        string   `json:"entry,omitempty"`   // app module relative to the package dir
	Dir          string   `json:"-"`                 // absolute package directory, set on load
}

// EntryPath returns the package's app module path, defaulting to the
// framework convention when the manifest doesn't override it.
func (m *Manifest) EntryPath() string {
	entry := m.Entry
	if entry == "" {
		entry = filepath.Join("src", "index.ts")
	}
	return filepath.Join(m.Dir, entry)
}

// Load reads and validates a single manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %s is missing a name", path)
	}

	m.Dir = filepath.Dir(path)
	return &m, nil
}

// ScanDir discovers every package under packagesDir. Only directories that
// contain a valid manifest are considered packages; everything else is
// silently skipped. Every manifest name must match its directory, which also
// guarantees names are unique: directory names can't collide.
func ScanDir(packagesDir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages directory: %w", err)
	}

	var manifests []*Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		manifestPath := filepath.Join(packagesDir, entry.Name(), FileName)
		if _, err := os.Stat(manifestPath); err != nil {
			continue // not a package
		}

		m, err := Load(manifestPath)
		if err != nil {
			return nil, err
		}
		if m.Name != entry.Name() {
			return nil, fmt.Errorf("package name %q doesn't match its directory %q", m.Name, entry.Name())
		}

		manifests = append(manifests, m)
	}

	return manifests, nil
}
