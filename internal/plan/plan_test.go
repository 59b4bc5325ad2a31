package plan

import (
	"testing"

	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/manifest"
	"github.com/railwayapp/switchyard/internal/resolve"
)

func pkg(name string, deploy configfile.DeployConfig) *resolve.Package {
	mode := resolve.ModeLocal
	if deploy.URL != "" {
		mode = resolve.ModeRemote
	}
	return &resolve.Package{
		Manifest: &manifest.Manifest{Name: name, Dir: "/proj/packages/" + name},
		Deploy:   deploy,
		Mode:     mode,
	}
}

func groupFor(t *testing.T, p *Plan, host string) *Group {
	t.Helper()
	for _, g := range p.Groups {
		if g.Host.Name == host {
			return g
		}
	}
	t.Fatalf("No group hosted by %s", host)
	return nil
}

func TestSingleGroupColocated(t *testing.T) {
	packages := []*resolve.Package{
		pkg("root", configfile.DeployConfig{Target: "node"}),
		pkg("auth", configfile.DeployConfig{ColocateWith: "root"}),
		pkg("users", configfile.DeployConfig{ColocateWith: "root"}),
	}

	p, err := New("/proj", packages, "development")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if len(p.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(p.Groups))
	}
	g := p.Groups[0]
	if g.Host.Name != "root" || g.Target != "node" {
		t.Errorf("Expected host root on node, got %s on %s", g.Host.Name, g.Target)
	}
	if len(g.Colocated) != 2 {
		t.Errorf("Expected 2 co-located packages, got %d", len(g.Colocated))
	}
	if len(g.Remotes) != 0 {
		t.Errorf("Expected no remotes, got %d", len(g.Remotes))
	}
}

func TestRemoteSplitsIntoOwnGroup(t *testing.T) {
	packages := []*resolve.Package{
		pkg("root", configfile.DeployConfig{Target: "cloudflare-workers"}),
		pkg("auth", configfile.DeployConfig{ColocateWith: "root"}),
		pkg("users", configfile.DeployConfig{Target: "aws-lambda", URL: "https://users.lambda.aws"}),
	}

	p, err := New("/proj", packages, "production")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(p.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(p.Groups))
	}

	rootGroup := groupFor(t, p, "root")
	if rootGroup.Target != "cloudflare-workers" {
		t.Errorf("Expected root on cloudflare-workers, got %s", rootGroup.Target)
	}
	if len(rootGroup.Colocated) != 1 || rootGroup.Colocated[0].Name != "auth" {
		t.Errorf("Expected auth co-located with root, got %+v", rootGroup.Colocated)
	}
	if len(rootGroup.Remotes) != 1 || rootGroup.Remotes[0].Name != "users" {
		t.Errorf("Expected users as root group's remote, got %+v", rootGroup.Remotes)
	}

	usersGroup := groupFor(t, p, "users")
	if usersGroup.Target != "aws-lambda" {
		t.Errorf("Expected users on aws-lambda, got %s", usersGroup.Target)
	}
	if len(usersGroup.Colocated) != 0 || len(usersGroup.Remotes) != 0 {
		t.Errorf("Expected users group to stand alone, got %+v", usersGroup)
	}
}

func TestURLWinsOverColocation(t *testing.T) {
	packages := []*resolve.Package{
		pkg("root", configfile.DeployConfig{Target: "node"}),
		pkg("auth", configfile.DeployConfig{ColocateWith: "root", URL: "https://auth.example.com"}),
	}

	p, err := New("/proj", packages, "production")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(p.Groups) != 2 {
		t.Fatalf("A deployed url must make auth its own host; got %d group(s)", len(p.Groups))
	}
	rootGroup := groupFor(t, p, "root")
	if len(rootGroup.Colocated) != 0 {
		t.Errorf("auth must never fold into root's group, got %+v", rootGroup.Colocated)
	}
}

func TestDefaultTarget(t *testing.T) {
	p, err := New("/proj", []*resolve.Package{pkg("root", configfile.DeployConfig{})}, "development")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Groups[0].Target != DefaultTarget {
		t.Errorf("Expected default target %q, got %q", DefaultTarget, p.Groups[0].Target)
	}
}

func TestDanglingColocateWithIsFatal(t *testing.T) {
	packages := []*resolve.Package{
		pkg("auth", configfile.DeployConfig{ColocateWith: "root"}),
	}
	if _, err := New("/proj", packages, "development"); err == nil {
		t.Fatal("Expected error for colocateWith pointing at a nonexistent host")
	}
}

// Every package lands in exactly one group, as host or as exactly one host's
// co-located member.
func TestGroupingInvariant(t *testing.T) {
	packages := []*resolve.Package{
		pkg("root", configfile.DeployConfig{Target: "node"}),
		pkg("auth", configfile.DeployConfig{ColocateWith: "root"}),
		pkg("billing", configfile.DeployConfig{Target: "aws-lambda"}),
		pkg("users", configfile.DeployConfig{ColocateWith: "billing"}),
		pkg("search", configfile.DeployConfig{URL: "https://search.example.com"}),
	}

	p, err := New("/proj", packages, "production")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	seen := make(map[string]int)
	total := 0
	for _, g := range p.Groups {
		total += 1 + len(g.Colocated)
		for _, member := range g.Members() {
			seen[member.Name]++
		}
	}
	if total != len(packages) {
		t.Errorf("Expected sum(1+len(colocated)) == %d, got %d", len(packages), total)
	}
	for name, count := range seen {
		if count != 1 {
			t.Errorf("Package %s appears in %d groups", name, count)
		}
	}
}
