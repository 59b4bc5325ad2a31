package targets

import (
	"context"
	"fmt"
	"regexp"

	"github.com/railwayapp/switchyard/internal/plan"
)

// DenoDeployAdapter deploys a group to Deno Deploy. The runtime brings its
// own server-start API, so the entrypoint calls Deno.serve instead of
// exporting a handler.
type DenoDeployAdapter struct {
	cli vendorCLI
}

func NewDenoDeployAdapter() *DenoDeployAdapter {
	return &DenoDeployAdapter{cli: vendorCLI{
		binary:      "deployctl",
		installHint: "deno install -grA jsr:@deno/deployctl",
	}}
}

func (d *DenoDeployAdapter) Name() string {
	return "deno-deploy"
}

func (d *DenoDeployAdapter) Platform() Platform {
	return PlatformNeutral
}

func (d *DenoDeployAdapter) GenerateEntry(group *plan.Group, appImportPath string) string {
	return fmt.Sprintf(`import app from '%s';

Deno.serve((request) => app.fetch(request));
`, appImportPath)
}

func (d *DenoDeployAdapter) GenerateConfigs(group *plan.Group) []File {
	return nil
}

func (d *DenoDeployAdapter) DeployInstructions(group *plan.Group) string {
	return fmt.Sprintf(`Deploy with the deployctl CLI:
  cd dist/%s && deployctl deploy --project=%s --prod index.mjs`, group.Host.Name, appName(group))
}

var denoURLPattern = regexp.MustCompile(`https://[a-z0-9-]+\.deno\.dev`)

func (d *DenoDeployAdapter) Deploy(ctx context.Context, distDir string, group *plan.Group) (string, error) {
	name := appName(group)
	out, err := d.cli.run(ctx, distDir, "deploy", "--project="+name, "--prod", "index.mjs")
	if err != nil {
		return "", err
	}

	if url := denoURLPattern.FindString(out); url != "" {
		return url, nil
	}
	// deployctl doesn't always echo the url; the production alias is stable.
	return fmt.Sprintf("https://%s.deno.dev", name), nil
}
