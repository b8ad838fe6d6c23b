// Package query is the read cache behind the hooks: one entry per key, one
// in-flight fetch per key, explicit invalidation, no automatic retry.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artpar/newsdemo/adapters/clock"
	"github.com/artpar/newsdemo/core/events"
	"github.com/artpar/newsdemo/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("query client closed")

// Key identifies a cache entry. Keys are compared element by element, so
// Key{"auth"} is a prefix of Key{"auth", "me"} but not of Key{"authz"}.
type Key []string

// String renders the key for logs and metric labels, e.g. "news.item.2".
func (k Key) String() string {
	return strings.Join(k, ".")
}

// id is the map key. The separator cannot appear in ordinary ids.
func (k Key) id() string {
	return strings.Join(k, "\x00")
}

// HasPrefix reports whether p is an element-wise prefix of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Status is the settled outcome of a key.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is a point-in-time snapshot of one key.
type State struct {
	Status    Status
	IsLoading bool // a fetch is in flight
	Data      any  // last successful value, kept across refetches and errors
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

type entry struct {
	key       Key
	status    Status
	data      any
	err       error
	updatedAt time.Time
	inflight  int
	// gen increases on every invalidation so a fetch that started earlier
	// cannot mark the entry fresh.
	gen         uint64
	invalidated bool
	lastRead    time.Time
}

// Config configures a Client.
type Config struct {
	// StaleTime is how long a successful entry is served without refetching.
	// Zero keeps entries fresh until invalidated.
	StaleTime time.Duration

	// GCTime removes entries that no Fetch has touched for this long and
	// that have nothing in flight. Zero keeps every entry.
	GCTime time.Duration

	Clock  ports.Clock // defaults to clock.Real
	Bus    *events.Bus // optional
	Logger zerolog.Logger
}

// Client owns the cache. It is safe for concurrent use.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	group     singleflight.Group
	staleTime atomic.Int64
	gcTime    time.Duration
	lastSweep time.Time

	clock  ports.Clock
	bus    *events.Bus
	logger zerolog.Logger
}

// NewClient creates an empty cache.
func NewClient(cfg Config) *Client {
	c := &Client{
		entries: make(map[string]*entry),
		clock:   cfg.Clock,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
		gcTime:  cfg.GCTime,
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	c.lastSweep = c.clock.Now()
	c.staleTime.Store(int64(cfg.StaleTime))
	return c
}

// SetStaleTime changes the freshness window for subsequent reads.
func (c *Client) SetStaleTime(d time.Duration) {
	c.staleTime.Store(int64(d))
}

// StaleTime returns the current freshness window.
func (c *Client) StaleTime() time.Duration {
	return time.Duration(c.staleTime.Load())
}

// Fetch returns the cached value for key when it is fresh. Otherwise it runs
// fn, sharing one call among all concurrent callers for the same key, and
// stores the outcome. Errors are stored and returned; they are not retried,
// but the next Fetch of an errored key calls fn again.
//
// fn runs detached from the caller's cancellation so that one caller giving
// up does not fail the others; a cancelled caller returns ctx.Err() at once.
func (c *Client) Fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	id := key.id()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	now := c.clock.Now()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key}
		c.entries[id] = e
	}
	e.lastRead = now
	c.sweepLocked(now)
	if c.freshLocked(e) {
		data := e.data
		c.mu.Unlock()
		c.publish(ctx, events.Event{Name: events.QueryHit, Key: key.String()})
		return data, nil
	}
	c.mu.Unlock()

	var leader bool
	ch := c.group.DoChan(id, func() (any, error) {
		leader = true
		return c.run(context.WithoutCancel(ctx), e, fn)
	})

	select {
	case res := <-ch:
		if !leader {
			c.publish(ctx, events.Event{Name: events.QueryCoalesced, Key: key.String()})
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run executes fn as the single flight for e and records the outcome.
// When an invalidation lands while fn is running, the result is dropped and
// fn runs again inside the same flight, so callers that joined after the
// invalidation never see the superseded value and a key never has two
// calls in flight.
func (c *Client) run(ctx context.Context, e *entry, fn func(context.Context) (any, error)) (any, error) {
	key := e.key.String()
	for {
		c.mu.Lock()
		e.inflight++
		if e.status == StatusIdle {
			e.status = StatusLoading
		}
		gen := e.gen
		c.mu.Unlock()

		start := c.clock.Now()
		data, err := fn(ctx)
		took := c.clock.Now().Sub(start)

		c.mu.Lock()
		e.inflight--
		superseded := e.gen != gen && !c.closed
		if !superseded {
			c.settleLocked(e, data, err)
		}
		c.mu.Unlock()

		if err != nil {
			c.logger.Debug().Err(err).Str("key", key).Bool("superseded", superseded).Msg("query failed")
			c.publish(ctx, events.Event{Name: events.QueryFailed, Key: key, Err: err, Duration: took})
		} else {
			c.logger.Debug().Str("key", key).Dur("duration", took).Bool("superseded", superseded).Msg("query fetched")
			c.publish(ctx, events.Event{Name: events.QueryFetched, Key: key, Duration: took})
		}
		if superseded {
			continue
		}
		return data, err
	}
}

func (c *Client) settleLocked(e *entry, data any, err error) {
	e.updatedAt = c.clock.Now()
	if err != nil {
		e.status = StatusError
		e.err = err
		return
	}
	e.status = StatusSuccess
	e.data = data
	e.err = nil
	e.invalidated = false
}

// freshLocked reports whether e can be served without a fetch.
func (c *Client) freshLocked(e *entry) bool {
	if e.status != StatusSuccess || e.invalidated {
		return false
	}
	st := c.StaleTime()
	return st == 0 || c.clock.Now().Sub(e.updatedAt) < st
}

// sweepLocked drops idle entries, at most once per GCTime.
func (c *Client) sweepLocked(now time.Time) {
	if c.gcTime <= 0 || now.Sub(c.lastSweep) < c.gcTime {
		return
	}
	c.lastSweep = now
	for id, e := range c.entries {
		if e.inflight == 0 && now.Sub(e.lastRead) >= c.gcTime {
			delete(c.entries, id)
		}
	}
}

// State returns a snapshot of key without fetching.
func (c *Client) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.id()]
	if !ok {
		return State{Status: StatusIdle}
	}
	return State{
		Status:    e.status,
		IsLoading: e.inflight > 0,
		Data:      e.data,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.status == StatusSuccess && !c.freshLocked(e),
	}
}

// Invalidate marks every entry whose key starts with prefix as stale and
// returns how many entries matched. A fetch already in flight for a matched
// key refetches before it settles; new readers join it.
func (c *Client) Invalidate(ctx context.Context, prefix Key) int {
	var matched []Key

	c.mu.Lock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		e.gen++
		matched = append(matched, e.key)
	}
	c.mu.Unlock()

	for _, k := range matched {
		c.publish(ctx, events.Event{Name: events.QueryInvalidated, Key: k.String()})
	}
	if len(matched) > 0 {
		c.logger.Debug().Str("prefix", prefix.String()).Int("entries", len(matched)).Msg("queries invalidated")
	}
	return len(matched)
}

// Len returns the number of keys the cache has seen.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops all entries. Fetch fails with ErrClosed afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]*entry)
	return nil
}

func (c *Client) publish(ctx context.Context, e events.Event) {
	if c.bus != nil {
		c.bus.Publish(ctx, e)
	}
}
