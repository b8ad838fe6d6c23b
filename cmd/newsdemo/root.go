package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/artpar/newsdemo/adapters/remote"
	"github.com/artpar/newsdemo/app"
	"github.com/artpar/newsdemo/app/query"
	"github.com/artpar/newsdemo/bootstrap"
	"github.com/artpar/newsdemo/config"
	"github.com/artpar/newsdemo/core/formatter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	apiURL       string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsdemo",
	Short: "News and account demo with a query-cached front-end",
	Long: `newsdemo serves a news list and a small account flow.

The backend keeps accounts, sessions and news items. The front-end renders
pages from a shared query cache that coalesces reads and refetches after
every successful mutation.

Quick start:
  newsdemo api      # Start the JSON backend
  newsdemo serve    # Start the front-end

Client:
  newsdemo news list
  newsdemo auth signup --email=dev@example.com --name=Dev
  newsdemo validate`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "newsdemo.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend URL (overrides client.base_url)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: "+strings.Join(formatter.Names(), ", "))
}

// loadConfig loads the config file, or the environment when it is absent.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if apiURL != "" {
		cfg.Client.BaseURL = apiURL
	}
	return cfg, nil
}

// cliLogger writes warnings and errors to w; client commands keep stdout for output.
func cliLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logging := cfg.Logging
	if logging.Level == "info" {
		logging.Level = "warn"
	}
	logging.Format = "console"
	return bootstrap.SetupLogger(logging, w)
}

// session is one backend client with its own cookie jar and query cache,
// living for the duration of a command.
type session struct {
	cache *query.Client
	news  *app.NewsQueries
	auth  *app.AuthQueries
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cliLogger(cfg, cmd.ErrOrStderr())

	client := remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.Timeout,
		Headers: cfg.Client.Headers,
		Logger:  logger,
	})
	cache := query.NewClient(query.Config{StaleTime: cfg.Query.StaleTime, GCTime: cfg.Query.GCTime, Logger: logger})

	return &session{
		cache: cache,
		news:  app.NewNewsQueries(remote.NewNewsClient(client), cache),
		auth:  app.NewAuthQueries(remote.NewAuthClient(client), cache, logger),
	}, nil
}

func (s *session) Close() {
	s.cache.Close()
}

// output resolves the --output formatter.
func output() (formatter.Formatter, error) {
	return formatter.Lookup(outputFormat)
}
