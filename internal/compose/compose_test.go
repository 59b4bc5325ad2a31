package compose

import (
	"strings"
	"testing"

	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/manifest"
	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/resolve"
	"gopkg.in/yaml.v3"
)

func pkg(name string, deploy configfile.DeployConfig) *resolve.Package {
	return &resolve.Package{
		Manifest: &manifest.Manifest{Name: name, Dir: "/proj/packages/" + name},
		Deploy:   deploy,
	}
}

func TestGenerate(t *testing.T) {
	p := &plan.Plan{
		Root:        "/proj",
		Environment: "development",
		Groups: []*plan.Group{
			{
				Host:   pkg("root", configfile.DeployConfig{Target: "node"}),
				Target: "node",
				Remotes: []*resolve.Package{
					pkg("users", configfile.DeployConfig{URL: "https://users.example.com"}),
				},
			},
			{
				Host:   pkg("admin", configfile.DeployConfig{Target: "node"}),
				Target: "node",
			},
			{
				Host:   pkg("users", configfile.DeployConfig{URL: "https://users.example.com"}),
				Target: "aws-lambda",
			},
		},
	}

	data, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var doc struct {
		Name     string `yaml:"name"`
		Services map[string]struct {
			Build struct {
				Context string `yaml:"context"`
			} `yaml:"build"`
			Environment map[string]string `yaml:"environment"`
			Ports       []struct {
				Target    int    `yaml:"target"`
				Published string `yaml:"published"`
			} `yaml:"ports"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Generated compose file doesn't parse: %v", err)
	}

	if doc.Name != "switchyard-development" {
		t.Errorf("Unexpected project name %q", doc.Name)
	}
	if len(doc.Services) != 2 {
		t.Fatalf("Expected two runnable services, got %v", doc.Services)
	}
	if _, ok := doc.Services["users"]; ok {
		t.Error("Serverless group must not become a service")
	}

	root := doc.Services["root"]
	if root.Build.Context != "./dist/root" {
		t.Errorf("Unexpected build context %q", root.Build.Context)
	}
	if root.Environment["USERS_URL"] != "https://users.example.com" {
		t.Errorf("Remote url not passed through, got %v", root.Environment)
	}
	if len(root.Ports) != 1 || root.Ports[0].Target != 3000 {
		t.Errorf("Unexpected ports %v", root.Ports)
	}

	// Published host ports must not collide across services.
	published := map[string]bool{}
	for name, svc := range doc.Services {
		for _, port := range svc.Ports {
			if published[port.Published] {
				t.Errorf("Port %s published twice (service %s)", port.Published, name)
			}
			published[port.Published] = true
		}
	}
}

func TestGenerateRequiresRunnableGroup(t *testing.T) {
	p := &plan.Plan{
		Environment: "production",
		Groups: []*plan.Group{
			{Host: pkg("users", configfile.DeployConfig{Target: "aws-lambda"}), Target: "aws-lambda"},
		},
	}
	if _, err := Generate(p); err == nil {
		t.Fatal("Expected error when no group runs as a container")
	} else if !strings.Contains(err.Error(), "production") {
		t.Errorf("Error should name the environment, got %v", err)
	}
}
