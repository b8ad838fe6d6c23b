// Package config provides configuration loading and hot reload.
package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/artpar/newsdemo/core/events"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounce collapses the several events one editor save produces.
const debounce = 100 * time.Millisecond

// Holder keeps the live configuration and reloads it from its file.
// Reads are safe from any goroutine.
type Holder struct {
	mu        sync.RWMutex
	current   *Config
	listeners []func(*Config)

	path   string
	logger zerolog.Logger
	bus    *events.Bus

	stop     chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// NewHolder loads path and returns a holder for it. When bus is set every
// reload attempt is published as config.reloaded.
func NewHolder(path string, logger zerolog.Logger, bus *events.Bus) (*Holder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	cfg, err := Load(abs)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &Holder{
		current: cfg,
		path:    abs,
		logger:  logger.With().Str("config", abs).Logger(),
		bus:     bus,
		stop:    make(chan struct{}),
	}, nil
}

// Get returns the live configuration. Callers must not modify it.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Path returns the absolute path of the file.
func (h *Holder) Path() string {
	return h.path
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Reload reads the file again. An invalid file leaves the live
// configuration untouched.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping previous config")
		h.publish(err)
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	listeners := append([]func(*Config){}, h.listeners...)
	h.mu.Unlock()

	h.logDiff(prev, next)
	for _, fn := range listeners {
		fn(next)
	}

	h.publish(nil)
	h.logger.Info().Msg("configuration reloaded")
	return nil
}

func (h *Holder) publish(err error) {
	if h.bus == nil {
		return
	}
	h.bus.Publish(context.Background(), events.Event{
		Name: events.ConfigReloaded,
		Err:  err,
		Meta: map[string]any{"path": h.path},
	})
}

// Watch reloads on SIGHUP and whenever the file is written or replaced,
// until Stop. If the file watcher cannot start, SIGHUP still works and the
// error is returned.
func (h *Holder) Watch() error {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		// The directory, not the file: atomic saves replace the inode.
		if err = watcher.Add(filepath.Dir(h.path)); err != nil {
			watcher.Close()
		}
	}
	if err != nil {
		watcher = nil
		err = fmt.Errorf("watch config file: %w", err)
	}

	h.done.Add(1)
	go h.loop(watcher, sighup)
	return err
}

func (h *Holder) loop(watcher *fsnotify.Watcher, sighup chan os.Signal) {
	defer h.done.Done()
	defer signal.Stop(sighup)

	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	if watcher != nil {
		defer watcher.Close()
		fsEvents, fsErrors = watcher.Events, watcher.Errors
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	name := filepath.Base(h.path)
	for {
		select {
		case ev := <-fsEvents:
			if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(debounce)
			}
		case err := <-fsErrors:
			h.logger.Warn().Err(err).Msg("config watcher error")
		case <-timer.C:
			h.Reload()
		case <-sighup:
			h.logger.Info().Msg("SIGHUP received")
			h.Reload()
		case <-h.stop:
			return
		}
	}
}

// Stop ends Watch. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	h.done.Wait()
}

// staticFields are read once at startup; changing them needs a restart.
var staticFields = []struct {
	name string
	get  func(*Config) any
}{
	{"server.host", func(c *Config) any { return c.Server.Host }},
	{"server.port", func(c *Config) any { return c.Server.Port }},
	{"api.host", func(c *Config) any { return c.API.Host }},
	{"api.port", func(c *Config) any { return c.API.Port }},
	{"client.base_url", func(c *Config) any { return c.Client.BaseURL }},
	{"database.driver", func(c *Config) any { return c.Database.Driver }},
	{"database.dsn", func(c *Config) any { return c.Database.DSN }},
}

func (h *Holder) logDiff(prev, next *Config) {
	if prev.Logging.Level != next.Logging.Level {
		h.logger.Info().Str("from", prev.Logging.Level).Str("to", next.Logging.Level).Msg("log level changed")
	}
	if prev.Query.StaleTime != next.Query.StaleTime {
		h.logger.Info().Dur("from", prev.Query.StaleTime).Dur("to", next.Query.StaleTime).Msg("query stale time changed")
	}
	for _, f := range staticFields {
		if f.get(prev) != f.get(next) {
			h.logger.Warn().Str("field", f.name).Msg("change takes effect after restart")
		}
	}
}

// ReloadableFields lists the settings applied without a restart.
func ReloadableFields() []string {
	return []string{"logging.level", "query.stale_time"}
}

// NonReloadableFields lists the settings that need a restart.
func NonReloadableFields() []string {
	names := make([]string, len(staticFields))
	for i, f := range staticFields {
		names[i] = f.name
	}
	return names
}
