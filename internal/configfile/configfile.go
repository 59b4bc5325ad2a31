package configfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
)

// DeployConfig is the per-package, per-environment deployment setting. At most
// one of Target/ColocateWith/URL meaningfully drives planning: a non-empty URL
// always means the package is independently deployed, overriding ColocateWith.
type DeployConfig struct {
	Target       string `mapstructure:"target"`
	ColocateWith string `mapstructure:"colocateWith"`
	URL          string `mapstructure:"url"`
}

// Environment holds per-environment overrides. The "*" key applies to every
// package before its own override.
type Environment struct {
	Packages map[string]DeployConfig `mapstructure:"packages"`
}

// Config is the parsed configuration source.
type Config struct {
	Packages     map[string]DeployConfig `mapstructure:"packages"`
	Environments map[string]Environment  `mapstructure:"environments"`
}

// Candidate file names, in lookup order.
var fileNames = []string{"switchyard.config.ts", "switchyard.config.js", "switchyard.config.mjs"}

// FindPath returns the configuration source file for a project root.
func FindPath(root string) (string, error) {
	for _, name := range fileNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no switchyard.config file found in %s", root)
}

// Load reads and parses the project's configuration source.
func Load(root string) (*Config, error) {
	path, err := FindPath(root)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads the restricted object-literal subset the configuration source
// is written in. The file is authored as executable JS for editor ergonomics,
// but the orchestrator only ever evaluates data: strings, numbers, booleans,
// nested objects and arrays.
func Parse(src string) (*Config, error) {
	raw, err := parseRoot(src)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration shape: %w", err)
	}
	return &cfg, nil
}
