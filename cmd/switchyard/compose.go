package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/railwayapp/switchyard/internal/compose"
	"github.com/spf13/cobra"
)

var composeEnv string

var composeCmd = &cobra.Command{
	Use:   "compose [project]",
	Short: "Write a docker-compose file that runs the node groups locally",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := projectRoot(args)

		p, err := makePlan(root, composeEnv)
		if err != nil {
			fmt.Printf("Planning failed: %v\n", err)
			os.Exit(1)
		}

		out, err := compose.Generate(p)
		if err != nil {
			fmt.Printf("Compose generation failed: %v\n", err)
			os.Exit(1)
		}

		path := filepath.Join(root, compose.FileName)
		if err := os.WriteFile(path, out, 0o644); err != nil {
			fmt.Printf("Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	},
}

func init() {
	composeCmd.Flags().StringVar(&composeEnv, "env", "", "environment to generate for (default development)")
	rootCmd.AddCommand(composeCmd)
}
