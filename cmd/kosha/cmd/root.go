/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/config"
	"github.com/ssargent/koshadb/pkg/di"
)

var container *di.Container

// SetContainer injects the dependency container used by the commands.
func SetContainer(c *di.Container) {
	container = c
}

type runEnvKey struct{}

// runEnv is what PersistentPreRunE resolves for every subcommand.
type runEnv struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func runEnvFrom(cmd *cobra.Command) (*runEnv, error) {
	rt, ok := cmd.Context().Value(runEnvKey{}).(*runEnv)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return rt, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kosha",
	Short: "KoshaDB - compact Sanskrit word-form dictionary",
	Long: `KoshaDB builds and serves an immutable, disk-backed dictionary that maps
Sanskrit word forms to their packed morphological readings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := resolveConfig(configPath)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
		}

		logger, err := cfg.Logging.NewLogger()
		if err != nil {
			return err
		}
		logger.SetOutput(cmd.ErrOrStderr())

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, runEnvKey{}, &runEnv{cfg: cfg, logger: logger}))
		return nil
	},
}

// resolveConfig loads configPath when it exists and falls back to the
// defaults otherwise.
func resolveConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	if !config.ConfigExists(configPath) {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file (default ~/.config/kosha/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Kosha directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
