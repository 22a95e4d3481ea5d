/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/koshadb/pkg/api"
	"github.com/ssargent/koshadb/pkg/config"
	"github.com/ssargent/koshadb/pkg/kosha"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Serve the kosha in the data directory over a read-only REST API.

Authentication with the X-API-Key header is enabled when an API key is
configured.

Examples:
  kosha serve --port=8080
  kosha serve --api-key=mysecretkey --data-dir=./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runEnvFrom(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			rt.cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			rt.cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			rt.cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, rt.cfg, rt.logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key for client authentication")
}

func serve(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}

	k, err := kosha.Open(cfg.DataDir, kosha.WithLogger(logger))
	if err != nil {
		return err
	}
	defer k.Close()

	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, k, api.ServerConfig{
		Bind:      cfg.Bind,
		Port:      cfg.Port,
		APIKey:    cfg.Security.APIKey,
		CacheSize: cfg.Cache.Size,
	}, logger)
}
