package targets

import (
	"context"
	"errors"
	"fmt"

	"github.com/railwayapp/switchyard/internal/plan"
)

// ErrUnknownTarget is returned for target identifiers no adapter claims.
var ErrUnknownTarget = errors.New("unknown deployment target")

// Platform picks the bundler platform for a target's runtime.
type Platform int

const (
	PlatformNode    Platform = iota // server and serverless node runtimes
	PlatformBrowser                 // worker-style edge runtimes
	PlatformNeutral                 // edge runtimes with their own module story
)

// File is an auxiliary artifact an adapter wants written next to the bundle.
type File struct {
	Name     string
	Contents []byte
}

// Adapter knows how one deployment target wraps, configures and deploys a
// built group.
type Adapter interface {
	// Name is the target identifier used in deploy configs.
	Name() string

	// Platform selects the bundling platform for this target.
	Platform() Platform

	// GenerateEntry wraps the merged application module in the target's
	// required invocation shape and returns the entrypoint source text.
	GenerateEntry(group *plan.Group, appImportPath string) string

	// GenerateConfigs returns auxiliary files to write alongside the bundle.
	GenerateConfigs(group *plan.Group) []File

	// DeployInstructions describes the manual commands an operator would run.
	DeployInstructions(group *plan.Group) string

	// Deploy executes an actual deployment of the built group and returns the
	// publicly reachable url. Vendor CLIs update in place, so re-running a
	// deploy is safe.
	Deploy(ctx context.Context, distDir string, group *plan.Group) (string, error)
}

// Registry resolves target identifiers to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// DefaultRegistry returns a registry with every supported target.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewNodeAdapter(),
		NewAWSLambdaAdapter(),
		NewGCloudFunctionsAdapter(),
		NewCloudflareWorkersAdapter(),
		NewDenoDeployAdapter(),
	)
}

// ForTarget returns the adapter for a target identifier.
func (r *Registry) ForTarget(target string) (Adapter, error) {
	adapter, ok := r.adapters[target]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	return adapter, nil
}

// appName is the name a group deploys under with its vendor.
func appName(g *plan.Group) string {
	if g.Environment == "" {
		return g.Host.Name
	}
	return fmt.Sprintf("%s-%s", g.Host.Name, g.Environment)
}
