package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/railwayapp/switchyard/internal/build"
	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/resolve"
	"github.com/railwayapp/switchyard/internal/targets"
)

// Result records one deployed group.
type Result struct {
	Package string
	Target  string
	URL     string
}

// AdapterRegistry resolves target identifiers to adapters.
type AdapterRegistry interface {
	ForTarget(target string) (targets.Adapter, error)
}

// Options configure one deploy invocation.
type Options struct {
	ProjectRoot string
	Environment string // explicit environment; empty means not supplied
	PackageName string // deploy only the group containing this package
	Target      string // override target for the selected packages
	OutDir      string // defaults to <root>/dist
	DryRun      bool   // force instruction-only mode
}

func (o *Options) environment() string {
	if o.Environment == "" {
		return build.DefaultEnvironment
	}
	return o.Environment
}

func (o *Options) outDir() string {
	if o.OutDir == "" {
		return filepath.Join(o.ProjectRoot, "dist")
	}
	return o.OutDir
}

// dryRun: without an explicit target or environment there is nothing
// concrete to deploy against, so the run only prints instructions.
func (o *Options) dryRun() bool {
	return o.DryRun || (o.Target == "" && o.Environment == "")
}

// Project deploys (or, in dry-run mode, describes) the project's groups.
// Live deploys run strictly one group at a time: each deploy's url is
// persisted into the configuration source before the next starts, keeping
// config mutations and progress output ordered.
func Project(ctx context.Context, reg AdapterRegistry, opts Options) ([]Result, error) {
	cfg, err := configfile.Load(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	packages, err := resolve.Packages(opts.ProjectRoot, opts.environment(), cfg)
	if err != nil {
		return nil, err
	}

	if opts.dryRun() {
		return nil, dryRun(reg, opts, packages)
	}

	applyTargetOverride(opts, packages)

	p, err := plan.New(opts.ProjectRoot, packages, opts.environment())
	if err != nil {
		return nil, err
	}

	selected := selectGroups(opts, p)
	if len(selected) == 0 {
		fmt.Println("Nothing to deploy.")
		return nil, nil
	}

	if err := ensureBuilt(ctx, reg, opts, selected); err != nil {
		return nil, err
	}

	var results []Result
	for _, group := range selected {
		adapter, err := reg.ForTarget(group.Target)
		if err != nil {
			return results, err
		}

		fmt.Printf("Deploying %s to %s...\n", group.Host.Name, group.Target)
		url, err := adapter.Deploy(ctx, build.GroupDir(opts.outDir(), group), group)
		if err != nil {
			return results, fmt.Errorf("deploying %s: %w", group.Host.Name, err)
		}
		fmt.Printf("  %s -> %s\n", group.Host.Name, url)

		if err := configfile.SetDeployResult(opts.ProjectRoot, group.Host.Name, group.Target, url); err != nil {
			return results, fmt.Errorf("recording deploy of %s: %w", group.Host.Name, err)
		}

		results = append(results, Result{Package: group.Host.Name, Target: group.Target, URL: url})
	}

	return results, nil
}

// dryRun prints each matching group's deploy instructions along with whether
// its bundle exists on disk. No network calls, no mutation.
func dryRun(reg AdapterRegistry, opts Options, packages []*resolve.Package) error {
	p, err := plan.New(opts.ProjectRoot, packages, opts.environment())
	if err != nil {
		return err
	}

	for _, group := range p.Groups {
		if opts.PackageName != "" && !group.Contains(opts.PackageName) {
			continue
		}
		adapter, err := reg.ForTarget(group.Target)
		if err != nil {
			return err
		}

		status := "not built"
		if _, err := os.Stat(filepath.Join(build.GroupDir(opts.outDir(), group), build.BundleFile)); err == nil {
			status = "ready"
		}

		fmt.Printf("%s (%s) [%s]\n%s\n\n", group.Host.Name, group.Target, status, adapter.DeployInstructions(group))
	}
	return nil
}

// applyTargetOverride synthesizes adjusted packages for a --target override:
// a named package is forced onto the new target and flips to its own remote
// deployment; without a name, every package not already deployed somewhere
// gets the new target.
func applyTargetOverride(opts Options, packages []*resolve.Package) {
	if opts.Target == "" {
		return
	}
	for _, pkg := range packages {
		if opts.PackageName != "" {
			if pkg.Name == opts.PackageName {
				pkg.Deploy.Target = opts.Target
				pkg.Deploy.ColocateWith = ""
				pkg.Mode = resolve.ModeRemote
			}
			continue
		}
		if pkg.Deploy.URL == "" {
			pkg.Deploy.Target = opts.Target
		}
	}
}

// selectGroups filters the plan down to what this invocation deploys.
func selectGroups(opts Options, p *plan.Plan) []*plan.Group {
	var selected []*plan.Group
	for _, group := range p.Groups {
		switch {
		case opts.PackageName != "":
			if group.Contains(opts.PackageName) {
				selected = append(selected, group)
			}
		case opts.Target != "":
			// Bulk target deploy: already-deployed groups keep their url, so
			// re-running the same command is a no-op for them.
			if group.Host.Deploy.URL == "" {
				selected = append(selected, group)
			}
		default:
			selected = append(selected, group)
		}
	}
	return selected
}

// ensureBuilt runs a full build when any selected group's bundle is missing,
// using the same adapter registry the deploy itself runs against.
func ensureBuilt(ctx context.Context, reg AdapterRegistry, opts Options, selected []*plan.Group) error {
	for _, group := range selected {
		if _, err := os.Stat(filepath.Join(build.GroupDir(opts.outDir(), group), build.BundleFile)); err == nil {
			continue
		}
		fmt.Println("No build output found, building first...")
		_, err := build.Project(ctx, reg, build.Options{
			ProjectRoot: opts.ProjectRoot,
			Environment: opts.environment(),
			OutDir:      opts.OutDir,
		})
		return err
	}
	return nil
}
