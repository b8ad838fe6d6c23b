// Package events carries query cache and session notifications between
// components that should not import each other.
package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names published by the query cache and the config holder.
const (
	QueryHit         = "query.hit"
	QueryFetched     = "query.fetched"
	QueryCoalesced   = "query.coalesced"
	QueryFailed      = "query.failed"
	QueryInvalidated = "query.invalidated"

	MutationSucceeded = "mutation.succeeded"
	MutationFailed    = "mutation.failed"

	ConfigReloaded = "config.reloaded"
)

// Event represents a published event.
type Event struct {
	// Name is the event name (e.g., "query.fetched").
	Name string

	// Key is the cache key or mutation name the event concerns.
	Key string

	// Err is set for failure events.
	Err error

	// Duration is how long the underlying call took, when one was made.
	Duration time.Duration

	Meta map[string]any
}

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a synchronous publish/subscribe bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name.
// Supports wildcard subscriptions:
//   - "query.fetched" - exact match
//   - "query.*" - all query events
//   - "*" - all events
func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish calls exact subscribers first, then group wildcards, then "*".
// Handler errors are logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	matched := b.match(event.Name)

	b.logger.Debug().
		Str("event", event.Name).
		Str("key", event.Key).
		Int("handlers", len(matched)).
		Msg("event emitted")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers reports whether any handler would receive the named event.
func (b *Bus) HasSubscribers(name string) bool {
	return len(b.match(name)) > 0
}

// match copies the handlers so they run without the lock held; a handler may subscribe.
func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)

	if group, _, ok := strings.Cut(name, "."); ok {
		matched = append(matched, b.handlers[group+".*"]...)
	}

	matched = append(matched, b.handlers["*"]...)
	return matched
}
