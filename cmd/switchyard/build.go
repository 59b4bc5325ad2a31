package main

import (
	"context"
	"fmt"
	"os"

	"github.com/railwayapp/switchyard/internal/build"
	"github.com/railwayapp/switchyard/internal/targets"
	"github.com/spf13/cobra"
)

var (
	buildEnv string
	buildOut string
)

var buildCmd = &cobra.Command{
	Use:   "build [project]",
	Short: "Bundle every deployment group for an environment",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := projectRoot(args)

		p, err := build.Project(context.Background(), targets.DefaultRegistry(), build.Options{
			ProjectRoot: root,
			Environment: buildEnv,
			OutDir:      buildOut,
		})
		if err != nil {
			fmt.Printf("Build failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Built %d group(s) for environment %q:\n", len(p.Groups), p.Environment)
		for _, group := range p.Groups {
			fmt.Printf("  - %s (%s): %d co-located, %d remote\n",
				group.Host.Name, group.Target, len(group.Colocated), len(group.Remotes))
		}
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildEnv, "env", "", "environment to build for (default development)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output directory (default <project>/dist)")
	rootCmd.AddCommand(buildCmd)
}
