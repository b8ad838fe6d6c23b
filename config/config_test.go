package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/newsdemo/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  render_wait: 250ms

api:
  port: 9191
  session_ttl: 2h
  seed_file: "news.yaml"

client:
  base_url: "http://backend:9191"
  timeout: 15s
  headers:
    X-Client: newsdemo

query:
  stale_time: 30s

database:
  driver: "memory"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Server.Addr() = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.RenderWait != 250*time.Millisecond {
		t.Errorf("Server.RenderWait = %v, want 250ms", cfg.Server.RenderWait)
	}
	if cfg.API.Addr() != "0.0.0.0:9191" {
		t.Errorf("API.Addr() = %s, want 0.0.0.0:9191", cfg.API.Addr())
	}
	if cfg.API.SessionTTL != 2*time.Hour {
		t.Errorf("API.SessionTTL = %v, want 2h", cfg.API.SessionTTL)
	}
	if cfg.API.SeedFile != "news.yaml" {
		t.Errorf("API.SeedFile = %s, want news.yaml", cfg.API.SeedFile)
	}
	if cfg.Client.BaseURL != "http://backend:9191" {
		t.Errorf("Client.BaseURL = %s", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout != 15*time.Second {
		t.Errorf("Client.Timeout = %v, want 15s", cfg.Client.Timeout)
	}
	if cfg.Client.Headers["X-Client"] != "newsdemo" {
		t.Errorf("Client.Headers = %v", cfg.Client.Headers)
	}
	if cfg.Query.StaleTime != 30*time.Second {
		t.Errorf("Query.StaleTime = %v, want 30s", cfg.Query.StaleTime)
	}
	if cfg.Database.Driver != "memory" || cfg.Database.DSN != "" {
		t.Errorf("Database = %+v, want memory without dsn", cfg.Database)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"server.host", cfg.Server.Host, "0.0.0.0"},
		{"server.port", cfg.Server.Port, 3000},
		{"server.render_wait", cfg.Server.RenderWait, time.Duration(0)},
		{"api.port", cfg.API.Port, 8080},
		{"api.session_ttl", cfg.API.SessionTTL, 7 * 24 * time.Hour},
		{"api.session_sweep", cfg.API.SessionSweep, time.Hour},
		{"client.base_url", cfg.Client.BaseURL, "http://localhost:8080"},
		{"client.timeout", cfg.Client.Timeout, 10 * time.Second},
		{"query.stale_time", cfg.Query.StaleTime, time.Duration(0)},
		{"query.gc_time", cfg.Query.GCTime, 5 * time.Minute},
		{"database.driver", cfg.Database.Driver, "sqlite"},
		{"database.dsn", cfg.Database.DSN, "newsdemo.db"},
		{"logging.level", cfg.Logging.Level, "info"},
		{"logging.format", cfg.Logging.Format, "json"},
		{"metrics.enabled", cfg.Metrics.Enabled, false},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_BaseURLFollowsAPIPort(t *testing.T) {
	cfg := writeAndLoad(t, "api:\n  port: 9000\n")
	if cfg.Client.BaseURL != "http://localhost:9000" {
		t.Errorf("Client.BaseURL = %s, want http://localhost:9000", cfg.Client.BaseURL)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")

	cfg := writeAndLoad(t, "api:\n  jwt_secret: \"${TEST_JWT_SECRET}\"\n")
	if cfg.API.JWTSecret != "from-env" {
		t.Errorf("API.JWTSecret = %q, want from-env", cfg.API.JWTSecret)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad server port", "server:\n  port: 70000\n", "server.port"},
		{"bad api port", "api:\n  port: -1\n", "api.port"},
		{"short session", "api:\n  session_ttl: 10s\n", "api.session_ttl"},
		{"bad base url", "client:\n  base_url: \"ftp://x\"\n", "client.base_url"},
		{"relative base url", "client:\n  base_url: \"/api\"\n", "client.base_url"},
		{"negative stale time", "query:\n  stale_time: -1s\n", "query.stale_time"},
		{"negative gc time", "query:\n  gc_time: -1s\n", "query.gc_time"},
		{"negative render wait", "server:\n  render_wait: -1s\n", "server.render_wait"},
		{"bad driver", "database:\n  driver: postgres\n", "database.driver"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"invalid yaml", "server: [\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeAndLoadErr(t, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("NEWSDEMO_SERVER_PORT", "4000")
	t.Setenv("NEWSDEMO_API_FEED_URL", "https://example.com/rss")
	t.Setenv("NEWSDEMO_CLIENT_TIMEOUT", "3s")
	t.Setenv("NEWSDEMO_QUERY_STALE_TIME", "1m")
	t.Setenv("NEWSDEMO_DATABASE_DRIVER", "memory")
	t.Setenv("NEWSDEMO_LOG_LEVEL", "debug")
	t.Setenv("NEWSDEMO_METRICS_ENABLED", "yes")

	cfg := writeAndLoad(t, `
server:
  port: 9090
client:
  timeout: 20s
logging:
  level: warn
`)

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000 (env wins)", cfg.Server.Port)
	}
	if cfg.API.FeedURL != "https://example.com/rss" {
		t.Errorf("API.FeedURL = %s", cfg.API.FeedURL)
	}
	if cfg.Client.Timeout != 3*time.Second {
		t.Errorf("Client.Timeout = %v, want 3s", cfg.Client.Timeout)
	}
	if cfg.Query.StaleTime != time.Minute {
		t.Errorf("Query.StaleTime = %v, want 1m", cfg.Query.StaleTime)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Database.Driver = %s, want memory", cfg.Database.Driver)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("NEWSDEMO_SERVER_PORT", "not-a-port")
	t.Setenv("NEWSDEMO_CLIENT_TIMEOUT", "soon")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want default 3000", cfg.Server.Port)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Errorf("Client.Timeout = %v, want default 10s", cfg.Client.Timeout)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Run("file exists", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 9999\n")
		cfg, err := config.LoadWithFallback(path)
		if err != nil {
			t.Fatalf("LoadWithFallback: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
		}
	})

	t.Run("missing file uses env", func(t *testing.T) {
		t.Setenv("NEWSDEMO_API_PORT", "7070")
		cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("LoadWithFallback: %v", err)
		}
		if cfg.API.Port != 7070 {
			t.Errorf("API.Port = %d, want 7070", cfg.API.Port)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		cfg, err := config.LoadWithFallback("")
		if err != nil {
			t.Fatalf("LoadWithFallback: %v", err)
		}
		if cfg.Database.Driver != "sqlite" {
			t.Errorf("Database.Driver = %s, want sqlite", cfg.Database.Driver)
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Server.Port != 3000 || cfg.API.Port != 8080 {
		t.Errorf("Default ports = %d/%d", cfg.Server.Port, cfg.API.Port)
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
