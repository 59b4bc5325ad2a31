package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/registry"
	"github.com/railwayapp/switchyard/internal/resolve"
	"github.com/railwayapp/switchyard/internal/targets"
	"golang.org/x/sync/errgroup"
)

// BundleFile is the bundled entrypoint written into each group's directory.
const BundleFile = "index.mjs"

// DefaultEnvironment is assumed when no environment is supplied.
const DefaultEnvironment = "development"

// Native driver packages can't be bundled; the host platform supplies them
// at runtime.
var nativeExternals = []string{
	"better-sqlite3",
	"sqlite3",
	"pg-native",
	"oracledb",
	"duckdb",
}

// AdapterRegistry resolves target identifiers to adapters.
type AdapterRegistry interface {
	ForTarget(target string) (targets.Adapter, error)
}

// Options configure one build run.
type Options struct {
	ProjectRoot string
	Environment string // defaults to DefaultEnvironment
	OutDir      string // defaults to <root>/dist
}

func (o *Options) defaults() {
	// esbuild requires an absolute working directory.
	if abs, err := filepath.Abs(o.ProjectRoot); err == nil {
		o.ProjectRoot = abs
	}
	if o.Environment == "" {
		o.Environment = DefaultEnvironment
	}
	if o.OutDir == "" {
		o.OutDir = filepath.Join(o.ProjectRoot, "dist")
	}
}

// Project resolves the project's packages, plans deployment groups and builds
// every group's bundle. Groups build in parallel and fail fast: the first
// group error aborts the run, though started sibling builds run to their own
// completion. Each group writes only inside its own directory, so a failed
// sibling never corrupts another group's output.
func Project(ctx context.Context, reg AdapterRegistry, opts Options) (*plan.Plan, error) {
	opts.defaults()

	cfg, err := configfile.Load(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	packages, err := resolve.Packages(opts.ProjectRoot, opts.Environment, cfg)
	if err != nil {
		return nil, err
	}
	p, err := plan.New(opts.ProjectRoot, packages, opts.Environment)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, group := range p.Groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := buildGroup(reg, opts, group); err != nil {
				return fmt.Errorf("building %s: %w", group.Host.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p, nil
}

// GroupDir is where one group's artifacts land.
func GroupDir(outDir string, group *plan.Group) string {
	return filepath.Join(outDir, group.Host.Name)
}

func buildGroup(reg AdapterRegistry, opts Options, group *plan.Group) error {
	adapter, err := reg.ForTarget(group.Target)
	if err != nil {
		return err
	}

	dir := GroupDir(opts.OutDir, group)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	appModule, err := AppModuleSource(group, registry.FromGroup(group), dir)
	if err != nil {
		return err
	}
	appPath := filepath.Join(dir, "app.gen.mjs")
	if err := os.WriteFile(appPath, []byte(appModule), 0o644); err != nil {
		return err
	}

	entryPath := filepath.Join(dir, "entry.gen.mjs")
	entry := adapter.GenerateEntry(group, "./app.gen.mjs")
	if err := os.WriteFile(entryPath, []byte(entry), 0o644); err != nil {
		return err
	}

	if err := bundle(opts.ProjectRoot, entryPath, filepath.Join(dir, BundleFile), adapter.Platform()); err != nil {
		return err
	}

	// Intermediates only exist for the bundler's sake.
	os.Remove(appPath)
	os.Remove(entryPath)

	for _, file := range adapter.GenerateConfigs(group) {
		if err := os.WriteFile(filepath.Join(dir, file.Name), file.Contents, 0o644); err != nil {
			return err
		}
	}

	return nil
}

// bundle compiles the entrypoint and everything it imports into a single
// module, on the platform the target's runtime expects.
func bundle(projectRoot, entryPath, outFile string, platform targets.Platform) error {
	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{entryPath},
		Outfile:       outFile,
		Bundle:        true,
		Write:         true,
		Format:        api.FormatESModule,
		Platform:      esbuildPlatform(platform),
		External:      nativeExternals,
		AbsWorkingDir: projectRoot,
		LogLevel:      api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		first := result.Errors[0]
		where := ""
		if first.Location != nil {
			where = fmt.Sprintf(" (%s:%d)", first.Location.File, first.Location.Line)
		}
		return fmt.Errorf("bundling failed: %s%s", first.Text, where)
	}
	return nil
}

func esbuildPlatform(p targets.Platform) api.Platform {
	switch p {
	case targets.PlatformBrowser:
		return api.PlatformBrowser
	case targets.PlatformNeutral:
		return api.PlatformNeutral
	default:
		return api.PlatformNode
	}
}
