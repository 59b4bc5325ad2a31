package targets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/railwayapp/switchyard/internal/plan"
)

// GCloudFunctionsAdapter deploys a group as a 2nd-gen Cloud Function with an
// http trigger.
type GCloudFunctionsAdapter struct {
	cli vendorCLI
}

func NewGCloudFunctionsAdapter() *GCloudFunctionsAdapter {
	return &GCloudFunctionsAdapter{cli: vendorCLI{
		binary:      "gcloud",
		installHint: "https://cloud.google.com/sdk/docs/install",
	}}
}

func (g *GCloudFunctionsAdapter) Name() string {
	return "gcloud-functions"
}

func (g *GCloudFunctionsAdapter) Platform() Platform {
	return PlatformNode
}

func (g *GCloudFunctionsAdapter) GenerateEntry(group *plan.Group, appImportPath string) string {
	// Cloud Functions invoke a (req, res) listener rather than a fetch
	// handler, so the wrapper differs from the lambda one.
	return fmt.Sprintf(`import { listener } from '@switchyard/gcloud-functions';
import app from '%s';

export const handler = listener(app);
`, appImportPath)
}

func (g *GCloudFunctionsAdapter) GenerateConfigs(group *plan.Group) []File {
	return nil
}

func (g *GCloudFunctionsAdapter) DeployInstructions(group *plan.Group) string {
	return fmt.Sprintf(`Deploy with the gcloud CLI:
  gcloud functions deploy %s --gen2 --region=%s --runtime=nodejs22 \
    --trigger-http --allow-unauthenticated --entry-point=handler --source=dist/%s`,
		appName(group), g.region(), group.Host.Name)
}

func (g *GCloudFunctionsAdapter) Deploy(ctx context.Context, distDir string, group *plan.Group) (string, error) {
	out, err := g.cli.run(ctx, distDir, "functions", "deploy", appName(group),
		"--gen2",
		"--region="+g.region(),
		"--runtime=nodejs22",
		"--trigger-http",
		"--allow-unauthenticated",
		"--entry-point=handler",
		"--source=.",
		"--format=json")
	if err != nil {
		return "", err
	}

	var result struct {
		URL           string `json:"url"`
		ServiceConfig struct {
			URI string `json:"uri"`
		} `json:"serviceConfig"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return "", fmt.Errorf("unexpected gcloud output: %w", err)
	}
	if result.ServiceConfig.URI != "" {
		return result.ServiceConfig.URI, nil
	}
	if result.URL == "" {
		return "", fmt.Errorf("gcloud deploy succeeded but returned no url for %s", appName(group))
	}
	return result.URL, nil
}

func (g *GCloudFunctionsAdapter) region() string {
	if region := os.Getenv("GCLOUD_REGION"); region != "" {
		return region
	}
	return "us-central1"
}
