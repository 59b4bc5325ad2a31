package targets

import (
	"context"
	"errors"
	"fmt"

	"github.com/railwayapp/switchyard/internal/plan"
)

// ErrManualDeploy is returned by targets without a managed deploy path.
var ErrManualDeploy = errors.New("target has no managed deploy")

// NodeAdapter runs a group as a long-running process. It is the default
// target and the only one without a vendor CLI: the generated container
// recipe is deployed on whatever infrastructure the operator runs.
type NodeAdapter struct{}

func NewNodeAdapter() *NodeAdapter {
	return &NodeAdapter{}
}

func (n *NodeAdapter) Name() string {
	return "node"
}

func (n *NodeAdapter) Platform() Platform {
	return PlatformNode
}

func (n *NodeAdapter) GenerateEntry(group *plan.Group, appImportPath string) string {
	return fmt.Sprintf(`import { serve } from '@switchyard/node';
import app from '%s';

serve(app, { port: Number(process.env.PORT) || 3000 });
`, appImportPath)
}

func (n *NodeAdapter) GenerateConfigs(group *plan.Group) []File {
	dockerfile := fmt.Sprintf(`FROM node:22-slim
WORKDIR /app
COPY index.mjs .
ENV NODE_ENV=%s
EXPOSE 3000
CMD ["node", "index.mjs"]
`, group.Environment)
	return []File{{Name: "Dockerfile", Contents: []byte(dockerfile)}}
}

func (n *NodeAdapter) DeployInstructions(group *plan.Group) string {
	name := appName(group)
	return fmt.Sprintf(`Run the bundle directly:
  node dist/%[1]s/index.mjs

Or build and run the container image:
  docker build -t %[2]s dist/%[1]s
  docker run -p 3000:3000 %[2]s`, group.Host.Name, name)
}

func (n *NodeAdapter) Deploy(ctx context.Context, distDir string, group *plan.Group) (string, error) {
	return "", fmt.Errorf("%w: the node target runs on your own infrastructure; start it with `node %s/index.mjs` and record its url in the configuration", ErrManualDeploy, distDir)
}
