// Package registry holds the per-run client registry: how a group reaches
// every package it knows about, whether in-process or over the network. It is
// built once from a planned group, passed explicitly to whatever needs it,
// and read-only afterwards.
package registry

import (
	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/resolve"
)

// Endpoint describes how one package is reached from a group's bundle.
type Endpoint struct {
	Mode resolve.Mode
	Path string // mount path for local packages
	URL  string // endpoint for remote packages
}

// Registry maps package names to endpoints, preserving insertion order so
// generated output is deterministic.
type Registry struct {
	entries map[string]Endpoint
	order   []string
}

// FromGroup builds the registry a group's bundle needs: the host at the
// root path, co-located packages at their mount paths, remotes by url.
func FromGroup(g *plan.Group) *Registry {
	r := &Registry{entries: make(map[string]Endpoint)}
	r.add(g.Host.Name, Endpoint{Mode: resolve.ModeLocal, Path: "/"})
	for _, pkg := range g.Colocated {
		r.add(pkg.Name, Endpoint{Mode: resolve.ModeLocal, Path: pkg.MountPath()})
	}
	for _, pkg := range g.Remotes {
		r.add(pkg.Name, Endpoint{Mode: resolve.ModeRemote, URL: pkg.Deploy.URL})
	}
	return r
}

func (r *Registry) add(name string, e Endpoint) {
	if _, ok := r.entries[name]; ok {
		return
	}
	r.entries[name] = e
	r.order = append(r.order, name)
}

// Names returns the registered package names in insertion order.
func (r *Registry) Names() []string {
	return r.order
}

// Lookup returns the endpoint for a package name.
func (r *Registry) Lookup(name string) (Endpoint, bool) {
	e, ok := r.entries[name]
	return e, ok
}
