package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "switchyard",
	Short: "Build and deploy a monorepo of service packages",
	Long: `Switchyard resolves a monorepo's package manifests and deployment
configuration into deployable groups, bundles each group with a
target-specific entrypoint, and deploys the results to heterogeneous
cloud targets while keeping the configuration file in sync with
deployed reality.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.switchyard.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".switchyard")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// projectRoot resolves the optional positional project argument.
func projectRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
