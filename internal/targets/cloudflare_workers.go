package targets

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/railwayapp/switchyard/internal/plan"
)

// CloudflareWorkersAdapter deploys a group as a Worker. It is the one target
// that needs a platform manifest (wrangler.toml) next to the bundle.
type CloudflareWorkersAdapter struct {
	cli vendorCLI
}

func NewCloudflareWorkersAdapter() *CloudflareWorkersAdapter {
	return &CloudflareWorkersAdapter{cli: vendorCLI{
		binary:      "wrangler",
		installHint: "npm install -g wrangler",
	}}
}

func (c *CloudflareWorkersAdapter) Name() string {
	return "cloudflare-workers"
}

func (c *CloudflareWorkersAdapter) Platform() Platform {
	return PlatformBrowser
}

func (c *CloudflareWorkersAdapter) GenerateEntry(group *plan.Group, appImportPath string) string {
	return fmt.Sprintf(`import app from '%s';

export default { fetch: app.fetch };
`, appImportPath)
}

// wranglerConfig is the subset of wrangler.toml the worker needs.
type wranglerConfig struct {
	Name              string `toml:"name"`
	Main              string `toml:"main"`
	CompatibilityDate string `toml:"compatibility_date"`
}

func (c *CloudflareWorkersAdapter) GenerateConfigs(group *plan.Group) []File {
	var buf bytes.Buffer
	toml.NewEncoder(&buf).Encode(wranglerConfig{
		Name:              appName(group),
		Main:              "index.mjs",
		CompatibilityDate: "2025-01-01",
	})
	return []File{{Name: "wrangler.toml", Contents: buf.Bytes()}}
}

func (c *CloudflareWorkersAdapter) DeployInstructions(group *plan.Group) string {
	return fmt.Sprintf(`Deploy with the wrangler CLI:
  cd dist/%s && wrangler deploy`, group.Host.Name)
}

var workersURLPattern = regexp.MustCompile(`https://[a-z0-9.-]+\.workers\.dev`)

func (c *CloudflareWorkersAdapter) Deploy(ctx context.Context, distDir string, group *plan.Group) (string, error) {
	out, err := c.cli.run(ctx, distDir, "deploy")
	if err != nil {
		return "", err
	}

	// wrangler prints the workers.dev url on success.
	if url := workersURLPattern.FindString(out); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("wrangler deploy succeeded but printed no workers.dev url for %s", appName(group))
}
