/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a KoshaDB configuration file",
	Long: `Write a configuration file with default settings.

Examples:
  kosha init
  kosha init --config ./kosha.yaml --data-dir ./mw --api-key`,
	// The config file may not exist yet, so skip the root's loading step.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		withKey, _ := cmd.Flags().GetBool("api-key")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		return initializeConfig(cmd.OutOrStdout(), configPath, dataDir, withKey, force)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("api-key", false, "Generate an API key for the HTTP server")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

func initializeConfig(out io.Writer, configPath, dataDir string, withKey, force bool) error {
	if config.ConfigExists(configPath) && !force {
		fmt.Fprintf(out, "Config already exists at %s. Use --force to overwrite.\n", configPath)
		return nil
	}

	cfg, err := config.BootstrapConfig(configPath, dataDir, withKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration written to %s\n", configPath)
	fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
	if cfg.Security.APIKey != "" {
		fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
	}
	return nil
}
