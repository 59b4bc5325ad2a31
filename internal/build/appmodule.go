package build

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/registry"
	"github.com/railwayapp/switchyard/internal/resolve"
)

// AppModuleSource generates the merged application module for a group: it
// imports the host's app plus every co-located app, wires the client
// registry, mounts co-located packages at their base paths and the host at
// the root.
func AppModuleSource(g *plan.Group, reg *registry.Registry, groupDir string) (string, error) {
	var b strings.Builder
	b.WriteString("// Generated by switchyard. Do not edit.\n")
	b.WriteString("import { createApp, defineClients } from '@switchyard/core';\n")

	for _, pkg := range g.Members() {
		importPath, err := moduleImportPath(groupDir, pkg)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "import %s from '%s';\n", importIdent(pkg.Name), importPath)
	}

	b.WriteString("\ndefineClients({\n")
	for _, name := range reg.Names() {
		endpoint, _ := reg.Lookup(name)
		if endpoint.Mode == resolve.ModeLocal {
			fmt.Fprintf(&b, "  '%s': { mode: 'local', path: '%s' },\n", name, endpoint.Path)
		} else {
			fmt.Fprintf(&b, "  '%s': { mode: 'remote', url: '%s' },\n", name, endpoint.URL)
		}
	}
	b.WriteString("});\n")

	b.WriteString("\nconst app = createApp();\n")
	for _, pkg := range g.Colocated {
		fmt.Fprintf(&b, "app.route('%s', %s);\n", pkg.MountPath(), importIdent(pkg.Name))
	}
	fmt.Fprintf(&b, "app.route('/', %s);\n", importIdent(g.Host.Name))

	b.WriteString("\nexport default app;\n")
	return b.String(), nil
}

// moduleImportPath returns the import specifier for a package's app module,
// relative to the group's output directory.
func moduleImportPath(groupDir string, pkg *resolve.Package) (string, error) {
	rel, err := filepath.Rel(groupDir, pkg.EntryPath())
	if err != nil {
		return "", fmt.Errorf("cannot express %s relative to %s: %w", pkg.EntryPath(), groupDir, err)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

// importIdent turns a package name into a valid JS identifier.
func importIdent(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '-' || r == '.':
			b.WriteByte('_')
		case i == 0 && r >= '0' && r <= '9':
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return "$" + b.String()
}
