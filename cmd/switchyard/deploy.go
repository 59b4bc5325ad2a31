package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/railwayapp/switchyard/internal/deploy"
	"github.com/railwayapp/switchyard/internal/targets"
	"github.com/spf13/cobra"
)

var (
	deployEnv    string
	deployTarget string
	deployOut    string
	deployDryRun bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy [package]",
	Short: "Deploy groups to their targets, or print instructions with --dry-run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		packageName := ""
		if len(args) > 0 {
			packageName = args[0]
		}

		results, err := deploy.Project(context.Background(), targets.DefaultRegistry(), deploy.Options{
			ProjectRoot: ".",
			Environment: deployEnv,
			PackageName: packageName,
			Target:      deployTarget,
			OutDir:      deployOut,
			DryRun:      deployDryRun,
		})
		if err != nil {
			fmt.Printf("Deploy failed: %v\n", err)
			os.Exit(1)
		}

		if len(results) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PACKAGE\tTARGET\tURL")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Package, r.Target, r.URL)
			}
			w.Flush()
		}
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployEnv, "env", "", "environment to deploy")
	deployCmd.Flags().StringVar(&deployTarget, "target", "", "override the deployment target")
	deployCmd.Flags().StringVar(&deployOut, "out", "", "build output directory (default ./dist)")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "print deploy instructions without deploying")
	rootCmd.AddCommand(deployCmd)
}
