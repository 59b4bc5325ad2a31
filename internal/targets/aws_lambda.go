package targets

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/railwayapp/switchyard/internal/plan"
)

// AWSLambdaAdapter deploys a group as a single Lambda function behind a
// function url.
type AWSLambdaAdapter struct {
	cli vendorCLI
}

func NewAWSLambdaAdapter() *AWSLambdaAdapter {
	return &AWSLambdaAdapter{cli: vendorCLI{
		binary:      "aws",
		installHint: "https://docs.aws.amazon.com/cli/latest/userguide/getting-started-install.html",
	}}
}

func (a *AWSLambdaAdapter) Name() string {
	return "aws-lambda"
}

func (a *AWSLambdaAdapter) Platform() Platform {
	return PlatformNode
}

func (a *AWSLambdaAdapter) GenerateEntry(group *plan.Group, appImportPath string) string {
	return fmt.Sprintf(`import { handle } from '@switchyard/aws-lambda';
import app from '%s';

export const handler = handle(app);
`, appImportPath)
}

func (a *AWSLambdaAdapter) GenerateConfigs(group *plan.Group) []File {
	return nil
}

func (a *AWSLambdaAdapter) DeployInstructions(group *plan.Group) string {
	name := appName(group)
	return fmt.Sprintf(`Zip the bundle and deploy it with the aws CLI:
  cd dist/%s && zip function.zip index.mjs
  aws lambda update-function-code --function-name %s --zip-file fileb://function.zip
  aws lambda get-function-url-config --function-name %s --query FunctionUrl`, group.Host.Name, name, name)
}

func (a *AWSLambdaAdapter) Deploy(ctx context.Context, distDir string, group *plan.Group) (string, error) {
	name := appName(group)

	zipPath := filepath.Join(distDir, "function.zip")
	if err := zipBundle(distDir, zipPath); err != nil {
		return "", fmt.Errorf("failed to package %s for lambda: %w", group.Host.Name, err)
	}
	defer os.Remove(zipPath)

	_, err := a.cli.run(ctx, distDir, "lambda", "update-function-code",
		"--function-name", name,
		"--zip-file", "fileb://function.zip")
	if err != nil {
		// First deploy of this function: create it. The execution role can't
		// be invented on the operator's behalf.
		role := os.Getenv("AWS_LAMBDA_ROLE")
		if role == "" {
			return "", fmt.Errorf("creating function %s requires AWS_LAMBDA_ROLE to be set to an execution role arn (update failed: %w)", name, err)
		}
		_, err = a.cli.run(ctx, distDir, "lambda", "create-function",
			"--function-name", name,
			"--runtime", "nodejs22.x",
			"--handler", "index.handler",
			"--role", role,
			"--zip-file", "fileb://function.zip")
		if err != nil {
			return "", err
		}
	}

	return a.functionURL(ctx, distDir, name)
}

// functionURL fetches the function's public url, provisioning one on the
// first deploy.
func (a *AWSLambdaAdapter) functionURL(ctx context.Context, distDir, name string) (string, error) {
	out, err := a.cli.run(ctx, distDir, "lambda", "get-function-url-config",
		"--function-name", name, "--output", "json")
	if err != nil {
		out, err = a.cli.run(ctx, distDir, "lambda", "create-function-url-config",
			"--function-name", name, "--auth-type", "NONE", "--output", "json")
		if err != nil {
			return "", err
		}
	}

	var result struct {
		FunctionURL string `json:"FunctionUrl"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return "", fmt.Errorf("unexpected aws CLI output: %w", err)
	}
	return strings.TrimSuffix(result.FunctionURL, "/"), nil
}

// zipBundle writes the bundle and its sibling files into a zip archive.
func zipBundle(distDir, zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == filepath.Base(zipPath) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(distDir, entry.Name()))
		if err != nil {
			return err
		}
		dst, err := w.Create(entry.Name())
		if err != nil {
			return err
		}
		if _, err := dst.Write(data); err != nil {
			return err
		}
	}
	return w.Close()
}
