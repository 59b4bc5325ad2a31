// Package compose renders a docker-compose file for running a planned
// project locally: every group becomes one service running its bundled node
// image, and remote urls are handed to each group through the environment.
package compose

import (
	"fmt"
	"strings"

	composeTypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/railwayapp/switchyard/internal/plan"
	"gopkg.in/yaml.v3"
)

// FileName is the generated compose file at the project root.
const FileName = "docker-compose.yml"

const basePort = 3000

// Generate renders the compose project for a plan.
func Generate(p *plan.Plan) ([]byte, error) {
	services := composeTypes.Services{}

	for i, group := range p.Groups {
		if group.Target != plan.DefaultTarget {
			// Serverless groups aren't runnable as local containers; their
			// clients resolve through urls instead.
			continue
		}

		port := basePort + i
		env := composeTypes.MappingWithEquals{
			"PORT": ptr(fmt.Sprint(port)),
		}
		for _, remote := range group.Remotes {
			env[urlVar(remote.Name)] = ptr(remote.Deploy.URL)
		}

		services[group.Host.Name] = composeTypes.ServiceConfig{
			Name: group.Host.Name,
			Build: &composeTypes.BuildConfig{
				Context:    "./dist/" + group.Host.Name,
				Dockerfile: "Dockerfile",
			},
			Environment: env,
			Ports: []composeTypes.ServicePortConfig{
				{Target: 3000, Published: fmt.Sprint(port)},
			},
		}
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no %s-target groups in environment %q; nothing to run locally", plan.DefaultTarget, p.Environment)
	}

	project := &composeTypes.Project{
		Name:     projectName(p),
		Services: services,
	}
	return yaml.Marshal(project)
}

func projectName(p *plan.Plan) string {
	return fmt.Sprintf("switchyard-%s", p.Environment)
}

// urlVar is the environment variable a generated client reads a remote
// package's url from.
func urlVar(packageName string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(packageName))
	return name + "_URL"
}

func ptr(s string) *string {
	return &s
}
