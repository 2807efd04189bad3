package main

import (
	"github.com/psilva/grana/bootstrap"
	"github.com/psilva/grana/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the Grana API server.

The server will:
  - Load configuration from grana.yaml (or --config)
  - Or load configuration from GRANA_* environment variables
  - Open the database and apply pending migrations
  - Serve the JSON API on the configured address

Environment variables (for Docker deployments):
  GRANA_DATABASE_DSN     - Database path (default: grana.db)
  GRANA_SERVER_PORT      - Server port (default: 8080)
  GRANA_JWT_SECRET       - Secret for signing session tokens
  GRANA_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  grana serve
  grana serve --config /etc/grana/config.yaml

  # Docker (env vars only):
  GRANA_JWT_SECRET=change-me grana serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}

	return app.Run()
}
