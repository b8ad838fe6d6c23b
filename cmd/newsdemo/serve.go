package main

import (
	"fmt"

	"github.com/artpar/newsdemo/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the front-end server",
	Long: `Start the server-rendered front-end.

The front-end will:
  - Load configuration from newsdemo.yaml (or --config)
  - Or load configuration from NEWSDEMO_* environment variables
  - Talk to the backend at client.base_url with one cookie jar
  - Reload logging.level and query.stale_time on file change or SIGHUP

Pages:
  /news-hooks           News list
  /news-hooks/{id}      Single item
  /auth-demo            Signup, login and logout

Examples:
  newsdemo serve
  newsdemo serve --config /etc/newsdemo/config.yaml
  NEWSDEMO_CLIENT_BASE_URL=http://api:8080 newsdemo serve`,
	RunE: runServe,
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the JSON backend",
	Long: `Start the reference backend.

Endpoints:
  GET  /news
  POST /auth/signup
  POST /auth/login
  POST /auth/logout
  GET  /auth/me
  GET  /openapi.json, /openapi.yaml, /swagger/

News items come from api.seed_file and api.feed_url. Sessions are kept in
the configured database and sent as an HttpOnly cookie.

Examples:
  newsdemo api
  NEWSDEMO_DATABASE_DRIVER=memory NEWSDEMO_API_SEED_FILE=news.yaml newsdemo api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(apiCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Config{Path: cfgFile})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}

func runAPI(cmd *cobra.Command, args []string) error {
	api, err := bootstrap.NewAPI(bootstrap.Config{Path: cfgFile})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	return api.Run()
}
