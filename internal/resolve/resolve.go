package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/manifest"
)

// Mode says how callers reach a package within one deployment environment.
type Mode string

const (
	// ModeLocal packages are invoked as in-process function calls inside
	// their host's bundle.
	ModeLocal Mode = "local"
	// ModeRemote packages are reachable only over the network.
	ModeRemote Mode = "remote"
)

// Package is a manifest merged with its environment-specific deploy config.
type Package struct {
	*manifest.Manifest
	Deploy configfile.DeployConfig
	Mode   Mode
}

// MountPath returns the base path a package is mounted under when co-located:
// the static prefix of its first declared route, or /<name> when the manifest
// declares none.
func (p *Package) MountPath() string {
	if len(p.Routes) > 0 {
		route := p.Routes[0]
		if i := strings.Index(route, "/:"); i >= 0 {
			route = route[:i]
		}
		if route != "" {
			return route
		}
	}
	return "/" + p.Name
}

// Packages scans the project's packages directory and merges each manifest
// with its deploy configuration for the given environment. Merge order, last
// wins: packages[name], then environments[env].packages['*'], then
// environments[env].packages[name].
func Packages(root, environment string, cfg *configfile.Config) ([]*Package, error) {
	if err := loadDotenv(root, environment); err != nil {
		return nil, err
	}

	manifests, err := manifest.ScanDir(filepath.Join(root, "packages"))
	if err != nil {
		return nil, err
	}

	var env configfile.Environment
	if cfg.Environments != nil {
		env = cfg.Environments[environment]
	}

	packages := make([]*Package, 0, len(manifests))
	for _, m := range manifests {
		var deploy configfile.DeployConfig
		overlay(&deploy, cfg.Packages[m.Name])
		overlay(&deploy, env.Packages["*"])
		overlay(&deploy, env.Packages[m.Name])

		if deploy.URL != "" {
			url, err := resolveURL(deploy.URL)
			if err != nil {
				return nil, fmt.Errorf("package %q: %w", m.Name, err)
			}
			deploy.URL = url
		}

		mode := ModeLocal
		if deploy.URL != "" {
			mode = ModeRemote
		}

		packages = append(packages, &Package{Manifest: m, Deploy: deploy, Mode: mode})
	}

	return packages, nil
}

// overlay applies the set fields of layer on top of dst.
func overlay(dst *configfile.DeployConfig, layer configfile.DeployConfig) {
	if layer.Target != "" {
		dst.Target = layer.Target
	}
	if layer.ColocateWith != "" {
		dst.ColocateWith = layer.ColocateWith
	}
	if layer.URL != "" {
		dst.URL = layer.URL
	}
}

// resolveURL resolves $NAME indirections against the process environment.
func resolveURL(url string) (string, error) {
	if !strings.HasPrefix(url, "$") {
		return url, nil
	}
	name := url[1:]
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("url references environment variable %s, which is not set", name)
	}
	return value, nil
}

// loadDotenv loads the project's dotenv files so $NAME url indirections can
// resolve. Variables already present in the process environment win; missing
// files are fine, but a file that exists and doesn't parse is fatal.
func loadDotenv(root, environment string) error {
	for _, name := range []string{".env." + environment, ".env"} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}
