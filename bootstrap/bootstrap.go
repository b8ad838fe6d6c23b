// Package bootstrap wires all dependencies and starts the application.
// The front-end (App) and the reference backend (API) are built from the
// same configuration file and run as separate processes.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/newsdemo/adapters/metrics"
	"github.com/artpar/newsdemo/adapters/remote"
	"github.com/artpar/newsdemo/app"
	"github.com/artpar/newsdemo/app/query"
	"github.com/artpar/newsdemo/config"
	"github.com/artpar/newsdemo/core/events"
	"github.com/artpar/newsdemo/web"
	"github.com/rs/zerolog"
)

// Config provides configuration for application initialization.
type Config struct {
	// Path is the YAML config file. When the file exists it is watched and
	// reloaded on change or SIGHUP.
	Path string

	// Settings is used instead of loading Path when set.
	Settings *config.Config

	// LogOutput overrides stdout for logs.
	LogOutput io.Writer
}

// App is the running front-end: one API client with its cookie jar, one
// query cache and the page router.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Bus        *events.Bus

	Client *remote.Client
	Cache  *query.Client
	News   *app.NewsQueries
	Auth   *app.AuthQueries

	holder *config.Holder
}

// New creates and initializes the front-end.
func New(cfg Config) (*App, error) {
	settings, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}

	logger := SetupLogger(settings.Logging, cfg.LogOutput)
	logger.Info().Str("backend", settings.Client.BaseURL).Msg("initializing newsdemo front-end")

	a := &App{
		Logger: logger,
		Config: settings,
		Bus:    events.NewBus(logger),
	}

	if settings.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Metrics.Observe(a.Bus)
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.Client = remote.NewClient(remote.ClientConfig{
		BaseURL: settings.Client.BaseURL,
		Timeout: settings.Client.Timeout,
		Headers: settings.Client.Headers,
		Logger:  logger,
		Metrics: a.Metrics,
	})
	a.Cache = query.NewClient(query.Config{
		StaleTime: settings.Query.StaleTime,
		GCTime:    settings.Query.GCTime,
		Bus:       a.Bus,
		Logger:    logger,
	})
	a.News = app.NewNewsQueries(remote.NewNewsClient(a.Client), a.Cache)
	a.Auth = app.NewAuthQueries(remote.NewAuthClient(a.Client), a.Cache, logger)

	handler, err := web.NewHandler(web.Deps{
		News:           a.News,
		Auth:           a.Auth,
		Logger:         logger,
		Metrics:        a.Metrics,
		AppName:        settings.Server.AppName,
		RenderWait:     settings.Server.RenderWait,
		RequestTimeout: settings.Server.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init web handler: %w", err)
	}

	a.HTTPServer = &http.Server{
		Addr:         settings.Server.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}

	if cfg.Settings == nil && fileExists(cfg.Path) {
		holder, err := config.NewHolder(cfg.Path, logger, a.Bus)
		if err != nil {
			return nil, fmt.Errorf("config holder: %w", err)
		}
		holder.OnChange(a.applyConfig)
		a.holder = holder
	}

	return a, nil
}

// applyConfig applies the reloadable settings.
func (a *App) applyConfig(c *config.Config) {
	applyLogLevel(c.Logging.Level)
	a.Cache.SetStaleTime(c.Query.StaleTime)
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	if a.holder != nil {
		if err := a.holder.Watch(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled, SIGHUP still reloads")
		}
	}
	return serve(a.Logger, a.HTTPServer, a.Shutdown)
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
		a.holder = nil
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Cache != nil {
		a.Cache.Close()
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// serve runs srv until it fails or the process is interrupted.
func serve(logger zerolog.Logger, srv *http.Server, shutdown func() error) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return shutdown()
}

func loadSettings(cfg Config) (*config.Config, error) {
	if cfg.Settings != nil {
		return cfg.Settings, nil
	}
	settings, err := config.LoadWithFallback(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return settings, nil
}

// SetupLogger builds the process logger and sets the global level.
func SetupLogger(c config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	applyLogLevel(c.Level)

	if c.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}

func applyLogLevel(s string) {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
