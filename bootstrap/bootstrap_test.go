package bootstrap_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/newsdemo/bootstrap"
	"github.com/artpar/newsdemo/config"
	domainAuth "github.com/artpar/newsdemo/domain/auth"
)

const seedYAML = `
items:
  - id: "1"
    title: "Seeded first"
    summary: "one"
  - id: "2"
    title: "Seeded second"
    summary: "two"
    image: "https://img.example.com/2.png"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func memorySettings(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.API.SeedFile = writeFile(t, "seed.yaml", seedYAML)
	return cfg
}

func TestBootstrap_Integration(t *testing.T) {
	settings := memorySettings(t)

	api, err := bootstrap.NewAPI(bootstrap.Config{Settings: settings, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create api: %v", err)
	}
	defer api.Shutdown()

	backend := httptest.NewServer(api.HTTPServer.Handler)
	defer backend.Close()

	settings.Client.BaseURL = backend.URL
	app, err := bootstrap.New(bootstrap.Config{Settings: settings, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	if app.HTTPServer == nil || app.Cache == nil || app.News == nil || app.Auth == nil {
		t.Fatal("front-end components not initialized")
	}

	rec := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/news-hooks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("news page status = %d", rec.Code)
	}
	for _, want := range []string{"Seeded first", "Seeded second", "ID: 2"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("news page missing %q", want)
		}
	}

	form := url.Values{
		"mode":     {"signup"},
		"email":    {"dana@example.com"},
		"password": {"password1"},
		"name":     {"Dana"},
	}
	req := httptest.NewRequest(http.MethodPost, "/auth-demo", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "Signed up successfully!") {
		t.Errorf("signup page did not acknowledge: %.200s", rec.Body.String())
	}

	// The account landed in the backend store.
	if n, _ := api.Stores.Users.Count(context.Background()); n != 1 {
		t.Errorf("accounts = %d, want 1", n)
	}
	authed, _ := app.Auth.IsAuthenticated(context.Background())
	if !authed {
		t.Error("front-end session not authenticated after signup")
	}
}

func TestNewAPI_SQLitePersists(t *testing.T) {
	settings := config.Default()
	settings.Database.DSN = filepath.Join(t.TempDir(), "news.db")
	settings.API.SeedFile = writeFile(t, "seed.yaml", seedYAML)

	for run := 0; run < 2; run++ {
		api, err := bootstrap.NewAPI(bootstrap.Config{Settings: settings, LogOutput: io.Discard})
		if err != nil {
			t.Fatalf("run %d: create api: %v", run, err)
		}

		n, err := api.Stores.News.Count(context.Background())
		if err != nil {
			t.Fatalf("run %d: count: %v", run, err)
		}
		if n != 2 {
			t.Errorf("run %d: items = %d, want 2 (seed upserts)", run, n)
		}
		api.Shutdown()
	}
}

func TestNewAPI_BadSeed(t *testing.T) {
	settings := memorySettings(t)
	settings.API.SeedFile = writeFile(t, "dup.yaml", "items:\n  - id: a\n    title: x\n  - id: a\n    title: y\n")

	if _, err := bootstrap.NewAPI(bootstrap.Config{Settings: settings, LogOutput: io.Discard}); err == nil {
		t.Error("expected error for duplicate seed ids")
	}
}

func TestNewAPI_FeedFailureIsNotFatal(t *testing.T) {
	feed := httptest.NewServer(http.NotFoundHandler())
	defer feed.Close()

	settings := memorySettings(t)
	settings.API.FeedURL = feed.URL + "/rss"

	api, err := bootstrap.NewAPI(bootstrap.Config{Settings: settings, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create api: %v", err)
	}
	defer api.Shutdown()

	if n, _ := api.Stores.News.Count(context.Background()); n != 2 {
		t.Errorf("items = %d, want the 2 seeded items", n)
	}
}

func TestAPI_SweepSessions(t *testing.T) {
	api, err := bootstrap.NewAPI(bootstrap.Config{Settings: memorySettings(t), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create api: %v", err)
	}
	defer api.Shutdown()

	ctx := context.Background()
	expired := domainAuth.NewRecord("sess_1", "usr_1", "a@b.com", "", "", -time.Hour)
	live := domainAuth.NewRecord("sess_2", "usr_1", "a@b.com", "", "", time.Hour)
	api.Stores.Sessions.Create(ctx, expired)
	api.Stores.Sessions.Create(ctx, live)

	if n := api.SweepSessions(ctx); n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}
	if _, err := api.Stores.Sessions.Get(ctx, live.ID); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}

func TestBootstrap_GracefulShutdown(t *testing.T) {
	api, err := bootstrap.NewAPI(bootstrap.Config{Settings: memorySettings(t), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("create api: %v", err)
	}
	api.StartSweeper(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- api.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown timed out")
	}

	// Idempotent.
	if err := api.Shutdown(); err != nil {
		t.Errorf("second shutdown error: %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"json", "json", `"message":"hello"`},
		{"console", "console", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := bootstrap.SetupLogger(config.LoggingConfig{Level: "info", Format: tt.format}, &buf)
			logger.Info().Msg("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLoadSeed(t *testing.T) {
	list, err := bootstrap.LoadSeed(writeFile(t, "seed.yaml", seedYAML))
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if list.Len() != 2 || list.Items[1].Image == "" {
		t.Errorf("list = %+v", list)
	}

	if _, err := bootstrap.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := bootstrap.LoadSeed(writeFile(t, "bad.yaml", "items: [")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}
