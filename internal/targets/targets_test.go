package targets

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/moby/buildkit/frontend/dockerfile/parser"
	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/manifest"
	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/resolve"
)

func testGroup(target string) *plan.Group {
	return &plan.Group{
		Host: &resolve.Package{
			Manifest: &manifest.Manifest{Name: "root", Dir: "/proj/packages/root"},
			Deploy:   configfile.DeployConfig{Target: target},
		},
		Target:      target,
		Environment: "production",
	}
}

func TestRegistryKnowsAllTargets(t *testing.T) {
	reg := DefaultRegistry()
	for _, target := range []string{"node", "aws-lambda", "gcloud-functions", "cloudflare-workers", "deno-deploy"} {
		adapter, err := reg.ForTarget(target)
		if err != nil {
			t.Errorf("ForTarget(%s) failed: %v", target, err)
			continue
		}
		if adapter.Name() != target {
			t.Errorf("Adapter for %s reports name %s", target, adapter.Name())
		}
	}
}

func TestRegistryRejectsUnknownTarget(t *testing.T) {
	_, err := DefaultRegistry().ForTarget("heroku")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("Expected ErrUnknownTarget, got %v", err)
	}
}

func TestEntrypointShapes(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"node", "serve(app"},
		{"aws-lambda", "export const handler = handle(app)"},
		{"gcloud-functions", "export const handler = listener(app)"},
		{"cloudflare-workers", "export default { fetch: app.fetch }"},
		{"deno-deploy", "Deno.serve"},
	}

	reg := DefaultRegistry()
	for _, tt := range tests {
		adapter, err := reg.ForTarget(tt.target)
		if err != nil {
			t.Fatalf("ForTarget(%s) failed: %v", tt.target, err)
		}
		entry := adapter.GenerateEntry(testGroup(tt.target), "./app.gen.mjs")
		if !strings.Contains(entry, tt.want) {
			t.Errorf("%s entry missing %q:\n%s", tt.target, tt.want, entry)
		}
		if !strings.Contains(entry, "./app.gen.mjs") {
			t.Errorf("%s entry doesn't import the app module:\n%s", tt.target, entry)
		}
	}
}

// Only node ships a container recipe and only cloudflare ships a platform
// manifest; the rest need no auxiliary files.
func TestAuxiliaryConfigDistribution(t *testing.T) {
	reg := DefaultRegistry()
	counts := map[string]int{}
	for _, target := range []string{"node", "aws-lambda", "gcloud-functions", "cloudflare-workers", "deno-deploy"} {
		adapter, _ := reg.ForTarget(target)
		files := adapter.GenerateConfigs(testGroup(target))
		for _, f := range files {
			counts[f.Name]++
		}
		if target == "aws-lambda" || target == "gcloud-functions" || target == "deno-deploy" {
			if len(files) != 0 {
				t.Errorf("%s should need no auxiliary files, got %d", target, len(files))
			}
		}
	}
	if counts["Dockerfile"] != 1 {
		t.Errorf("Expected exactly one container recipe, got %d", counts["Dockerfile"])
	}
	if counts["wrangler.toml"] != 1 {
		t.Errorf("Expected exactly one platform manifest, got %d", counts["wrangler.toml"])
	}
}

func TestNodeDockerfileIsValid(t *testing.T) {
	files := NewNodeAdapter().GenerateConfigs(testGroup("node"))
	if len(files) != 1 || files[0].Name != "Dockerfile" {
		t.Fatalf("Expected a Dockerfile, got %+v", files)
	}

	ast, err := parser.Parse(strings.NewReader(string(files[0].Contents)))
	if err != nil {
		t.Fatalf("Generated Dockerfile doesn't parse: %v", err)
	}

	instructions := map[string]bool{}
	for _, child := range ast.AST.Children {
		instructions[strings.ToUpper(child.Value)] = true
	}
	for _, want := range []string{"FROM", "COPY", "CMD"} {
		if !instructions[want] {
			t.Errorf("Dockerfile missing %s instruction", want)
		}
	}
}

func TestWranglerManifest(t *testing.T) {
	files := NewCloudflareWorkersAdapter().GenerateConfigs(testGroup("cloudflare-workers"))
	if len(files) != 1 || files[0].Name != "wrangler.toml" {
		t.Fatalf("Expected wrangler.toml, got %+v", files)
	}

	var cfg wranglerConfig
	if _, err := toml.Decode(string(files[0].Contents), &cfg); err != nil {
		t.Fatalf("Generated wrangler.toml doesn't parse: %v", err)
	}
	if cfg.Name != "root-production" {
		t.Errorf("Expected worker name root-production, got %q", cfg.Name)
	}
	if cfg.Main != "index.mjs" {
		t.Errorf("Expected main index.mjs, got %q", cfg.Main)
	}
}

func TestDeployInstructionsAreDeterministic(t *testing.T) {
	reg := DefaultRegistry()
	for _, target := range []string{"node", "aws-lambda", "gcloud-functions", "cloudflare-workers", "deno-deploy"} {
		adapter, _ := reg.ForTarget(target)
		group := testGroup(target)
		first := adapter.DeployInstructions(group)
		if first == "" {
			t.Errorf("%s has empty deploy instructions", target)
		}
		if second := adapter.DeployInstructions(group); second != first {
			t.Errorf("%s instructions are not deterministic", target)
		}
	}
}

func TestNodeDeployIsManual(t *testing.T) {
	_, err := NewNodeAdapter().Deploy(t.Context(), "/tmp/dist/root", testGroup("node"))
	if !errors.Is(err, ErrManualDeploy) {
		t.Fatalf("Expected ErrManualDeploy, got %v", err)
	}
}

func TestVendorCLIMissingBinaryHint(t *testing.T) {
	cli := vendorCLI{binary: "switchyard-test-no-such-tool", installHint: "https://example.com/install"}
	_, err := cli.run(t.Context(), t.TempDir())
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Expected ErrToolNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "https://example.com/install") {
		t.Errorf("Error should carry the install hint, got %v", err)
	}
}

func TestVendorCLISurfacesStderr(t *testing.T) {
	cli := vendorCLI{binary: "sh", installHint: "preinstalled"}
	_, err := cli.run(t.Context(), t.TempDir(), "-c", "echo provider exploded >&2; exit 1")
	if err == nil {
		t.Fatal("Expected error from non-zero exit")
	}
	if !strings.Contains(err.Error(), "provider exploded") {
		t.Errorf("Error should surface stderr verbatim, got %v", err)
	}
}
