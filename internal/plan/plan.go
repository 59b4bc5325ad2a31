package plan

import (
	"fmt"

	"github.com/railwayapp/switchyard/internal/resolve"
)

// DefaultTarget is used for any host without an explicit target.
const DefaultTarget = "node"

// Group is one deployable unit: a host package bundled together with its
// co-located packages, plus the remote packages its generated clients need to
// reach over the network.
type Group struct {
	Host        *resolve.Package
	Colocated   []*resolve.Package
	Remotes     []*resolve.Package
	Target      string
	Environment string
}

// Members returns the host plus co-located packages, host first.
func (g *Group) Members() []*resolve.Package {
	members := make([]*resolve.Package, 0, 1+len(g.Colocated))
	members = append(members, g.Host)
	return append(members, g.Colocated...)
}

// Contains reports whether the named package is bundled into this group.
func (g *Group) Contains(name string) bool {
	for _, p := range g.Members() {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Plan is the full set of groups for one environment. It is recomputed on
// every build or deploy invocation and never persisted.
type Plan struct {
	Root        string
	Environment string
	Groups      []*Group
}

// New groups resolved packages into deployable units. A package is its own
// host when it has no colocateWith, or when it has a url: a deployed url
// always wins over co-location. Everything else attaches to the group of the
// host it names.
func New(root string, packages []*resolve.Package, environment string) (*Plan, error) {
	p := &Plan{Root: root, Environment: environment}
	groups := make(map[string]*Group)

	for _, pkg := range packages {
		if !isIndependent(pkg) {
			continue
		}
		target := pkg.Deploy.Target
		if target == "" {
			target = DefaultTarget
		}
		group := &Group{Host: pkg, Target: target, Environment: environment}
		groups[pkg.Name] = group
		p.Groups = append(p.Groups, group)
	}

	for _, pkg := range packages {
		if isIndependent(pkg) {
			continue
		}
		host, ok := groups[pkg.Deploy.ColocateWith]
		if !ok {
			return nil, fmt.Errorf("package %q is co-located with %q, which is not a host package", pkg.Name, pkg.Deploy.ColocateWith)
		}
		host.Colocated = append(host.Colocated, pkg)
	}

	// Every package with a reachable url is a remote for any group it isn't
	// bundled into, so that group's client registry can wire it up.
	for _, group := range p.Groups {
		for _, pkg := range packages {
			if pkg.Deploy.URL != "" && !group.Contains(pkg.Name) {
				group.Remotes = append(group.Remotes, pkg)
			}
		}
	}

	return p, nil
}

func isIndependent(p *resolve.Package) bool {
	return p.Deploy.ColocateWith == "" || p.Deploy.URL != ""
}
