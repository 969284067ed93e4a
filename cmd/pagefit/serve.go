package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/server"
	"github.com/jackzampolin/pagefit/internal/session"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pagefit server",
	Long: `Start the pagefit HTTP server.

Clients submit a document with PUT /api/document; it is measured in the
background and the latest pagination is available from /api/pagination.
Config file changes are picked up without a restart.

Examples:
  pagefit serve                    # Start on the configured address
  pagefit serve --port 3000        # Start on custom port
  pagefit serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return err
		}
		cm, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := cm.Get()

		svc, err := session.NewPreview(cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Preview:       svc,
			ConfigManager: cm,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		if cm.ConfigFile() != "" {
			cm.WatchConfig()
			logger.Info("watching config", "path", cm.ConfigFile())
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
