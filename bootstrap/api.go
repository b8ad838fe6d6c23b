package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/artpar/newsdemo/adapters/auth"
	"github.com/artpar/newsdemo/adapters/feed"
	"github.com/artpar/newsdemo/adapters/hasher"
	apihttp "github.com/artpar/newsdemo/adapters/http"
	"github.com/artpar/newsdemo/adapters/idgen"
	"github.com/artpar/newsdemo/adapters/memory"
	"github.com/artpar/newsdemo/adapters/metrics"
	"github.com/artpar/newsdemo/adapters/random"
	"github.com/artpar/newsdemo/adapters/sqlite"
	"github.com/artpar/newsdemo/config"
	"github.com/artpar/newsdemo/ports"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Stores holds the backend storage adapters for one driver.
type Stores struct {
	Users    ports.UserStore
	Sessions ports.SessionStore
	News     ports.NewsStore

	db *sqlite.DB // nil for the memory driver
}

// OpenStores opens storage for the configured driver. The sqlite database is
// migrated before use.
func OpenStores(c config.DatabaseConfig, logger zerolog.Logger) (*Stores, error) {
	switch c.Driver {
	case "memory":
		logger.Info().Msg("using in-memory storage")
		return &Stores{
			Users:    memory.NewUserStore(),
			Sessions: memory.NewSessionStore(),
			News:     memory.NewNewsStore(),
		}, nil

	case "sqlite":
		db, err := sqlite.Open(c.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Str("dsn", c.DSN).Msg("database initialized")
		return &Stores{
			Users:    sqlite.NewUserStore(db),
			Sessions: sqlite.NewSessionStore(db),
			News:     sqlite.NewNewsStore(db),
			db:       db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", c.Driver)
	}
}

// Close releases the database, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// API is the running reference backend.
type API struct {
	Logger     zerolog.Logger
	Config     *config.Config
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Stores     *Stores

	stopSweep chan struct{}
	sweepDone sync.WaitGroup
}

// NewAPI creates and initializes the backend: storage, seed data and the
// JSON router.
func NewAPI(cfg Config) (*API, error) {
	settings, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}

	logger := SetupLogger(settings.Logging, cfg.LogOutput)
	logger.Info().Str("driver", settings.Database.Driver).Msg("initializing newsdemo api")

	a := &API{
		Logger:    logger,
		Config:    settings,
		stopSweep: make(chan struct{}),
	}

	stores, err := OpenStores(settings.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.Stores = stores

	ctx := context.Background()
	if err := a.seed(ctx); err != nil {
		stores.Close()
		return nil, err
	}

	if settings.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	secret := settings.API.JWTSecret
	if secret == "" {
		logger.Warn().Msg("api.jwt_secret not set, sessions will not survive a restart")
		if secret, err = random.Hex(random.Real{}, 64); err != nil {
			stores.Close()
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}

	handler := apihttp.NewAPIHandler(apihttp.APIDeps{
		Users:          stores.Users,
		Sessions:       stores.Sessions,
		News:           stores.News,
		Hasher:         hasher.NewBcrypt(bcrypt.DefaultCost),
		IDGen:          idgen.UUID{Prefix: "usr_"},
		Tokens:         auth.NewTokenService(secret),
		Logger:         logger,
		Metrics:        a.Metrics,
		SessionTTL:     settings.API.SessionTTL,
		SecureCookie:   settings.API.SecureCookie,
		RequestTimeout: settings.Server.RequestTimeout,
	})

	a.HTTPServer = &http.Server{
		Addr:         settings.API.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}

	return a, nil
}

// seed loads the configured seed file and feed into the news store.
// A feed failure is logged; the backend still starts.
func (a *API) seed(ctx context.Context) error {
	c := a.Config.API

	if c.SeedFile != "" {
		list, err := LoadSeed(c.SeedFile)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if err := a.Stores.News.Upsert(ctx, list.Items); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		a.Logger.Info().Int("items", list.Len()).Str("file", c.SeedFile).Msg("news seeded")
	}

	if c.FeedURL != "" {
		importer := feed.NewImporter(a.Stores.News, a.Logger)
		if _, err := importer.Import(ctx, feed.Source{URL: c.FeedURL, Limit: c.FeedLimit}); err != nil {
			a.Logger.Warn().Err(err).Str("url", c.FeedURL).Msg("feed import failed")
		}
	}

	return nil
}

// StartSweeper purges expired sessions every interval until Shutdown.
func (a *API) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}

	a.sweepDone.Add(1)
	go func() {
		defer a.sweepDone.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.SweepSessions(context.Background())
			case <-a.stopSweep:
				return
			}
		}
	}()
}

// SweepSessions deletes expired session records once.
func (a *API) SweepSessions(ctx context.Context) int64 {
	n, err := a.Stores.Sessions.DeleteExpired(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("session sweep failed")
		return 0
	}
	if n > 0 {
		a.Logger.Debug().Int64("deleted", n).Msg("expired sessions purged")
	}
	return n
}

// Run starts the HTTP server and blocks until shutdown.
func (a *API) Run() error {
	a.StartSweeper(a.Config.API.SessionSweep)
	return serve(a.Logger, a.HTTPServer, a.Shutdown)
}

// Shutdown gracefully stops the backend.
func (a *API) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-a.stopSweep:
	default:
		close(a.stopSweep)
	}
	a.sweepDone.Wait()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Stores != nil {
		if err := a.Stores.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}
