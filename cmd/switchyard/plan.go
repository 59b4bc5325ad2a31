package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/railwayapp/switchyard/internal/build"
	"github.com/railwayapp/switchyard/internal/configfile"
	"github.com/railwayapp/switchyard/internal/plan"
	"github.com/railwayapp/switchyard/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	planEnv  string
	planJSON bool
)

var planCmd = &cobra.Command{
	Use:   "plan [project]",
	Short: "Show how packages group into deployable units for an environment",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := projectRoot(args)

		p, err := makePlan(root, planEnv)
		if err != nil {
			fmt.Printf("Planning failed: %v\n", err)
			os.Exit(1)
		}

		if planJSON {
			printPlanJSON(p)
			return
		}

		fmt.Printf("Environment %q: %d group(s)\n", p.Environment, len(p.Groups))
		for _, group := range p.Groups {
			fmt.Printf("  - host %s -> %s\n", group.Host.Name, group.Target)
			for _, pkg := range group.Colocated {
				fmt.Printf("      co-located %s at %s\n", pkg.Name, pkg.MountPath())
			}
			for _, pkg := range group.Remotes {
				fmt.Printf("      remote %s at %s\n", pkg.Name, pkg.Deploy.URL)
			}
		}
	},
}

func makePlan(root, env string) (*plan.Plan, error) {
	if env == "" {
		env = build.DefaultEnvironment
	}

	cfg, err := configfile.Load(root)
	if err != nil {
		return nil, err
	}
	packages, err := resolve.Packages(root, env, cfg)
	if err != nil {
		return nil, err
	}
	return plan.New(root, packages, env)
}

type groupJSON struct {
	Host      string   `json:"host"`
	Target    string   `json:"target"`
	Colocated []string `json:"colocated,omitempty"`
	Remotes   []string `json:"remotes,omitempty"`
}

func printPlanJSON(p *plan.Plan) {
	groups := make([]groupJSON, 0, len(p.Groups))
	for _, group := range p.Groups {
		g := groupJSON{Host: group.Host.Name, Target: group.Target}
		for _, pkg := range group.Colocated {
			g.Colocated = append(g.Colocated, pkg.Name)
		}
		for _, pkg := range group.Remotes {
			g.Remotes = append(g.Remotes, pkg.Name)
		}
		groups = append(groups, g)
	}

	out, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		fmt.Printf("JSON export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func init() {
	planCmd.Flags().StringVar(&planEnv, "env", "", "environment to plan (default development)")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}
