package query

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/newsdemo/core/events"
)

// Result is what a view reads from a query.
type Result[T any] struct {
	Data      T
	Status    Status
	IsLoading bool
	Err       error
	UpdatedAt time.Time
	// Disabled is set when the query is not enabled; Fn was not called.
	Disabled bool
}

// Query binds a typed fetch function to a cache key.
type Query[T any] struct {
	Key     Key
	Fn      func(ctx context.Context) (T, error)
	Enabled bool

	client *Client
}

// NewQuery creates an enabled query on c.
func NewQuery[T any](c *Client, key Key, fn func(ctx context.Context) (T, error)) *Query[T] {
	return &Query[T]{Key: key, Fn: fn, Enabled: true, client: c}
}

// Use resolves the query, fetching when the cache has nothing fresh, and
// blocks until the value or error is available.
func (q *Query[T]) Use(ctx context.Context) Result[T] {
	if !q.Enabled {
		return Result[T]{Status: StatusIdle, Disabled: true}
	}

	v, err := q.client.Fetch(ctx, q.Key, func(ctx context.Context) (any, error) {
		return q.Fn(ctx)
	})

	r := q.Peek()
	if err != nil {
		// The caller's own cancellation is not recorded in the entry.
		r.Err = err
		r.Status = StatusError
		return r
	}
	if data, ok := v.(T); ok {
		r.Data = data
	}
	r.Err = nil
	r.Status = StatusSuccess
	return r
}

// Peek returns the cached state without fetching.
func (q *Query[T]) Peek() Result[T] {
	if !q.Enabled {
		return Result[T]{Status: StatusIdle, Disabled: true}
	}

	st := q.client.State(q.Key)
	r := Result[T]{
		Status:    st.Status,
		IsLoading: st.IsLoading,
		Err:       st.Err,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Status == StatusSuccess {
		r.Err = nil
	}
	if v, ok := st.Data.(T); ok {
		r.Data = v
	}
	return r
}

// Mutation is a typed write that invalidates cache keys when it succeeds.
// Failures leave the cache untouched and are returned unchanged.
type Mutation[In, Out any] struct {
	Name        string
	Fn          func(ctx context.Context, in In) (Out, error)
	Invalidates []Key

	client  *Client
	mu      sync.Mutex
	pending int
	lastErr error
}

// NewMutation creates a mutation on c.
func NewMutation[In, Out any](c *Client, name string, fn func(ctx context.Context, in In) (Out, error), invalidates ...Key) *Mutation[In, Out] {
	return &Mutation[In, Out]{Name: name, Fn: fn, Invalidates: invalidates, client: c}
}

// MutateAsync runs the mutation and waits for its outcome.
func (m *Mutation[In, Out]) MutateAsync(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()

	start := m.client.clock.Now()
	out, err := m.Fn(ctx, in)
	took := m.client.clock.Now().Sub(start)

	m.mu.Lock()
	m.pending--
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.client.publish(ctx, events.Event{Name: events.MutationFailed, Key: m.Name, Err: err, Duration: took})
		var zero Out
		return zero, err
	}

	for _, k := range m.Invalidates {
		m.client.Invalidate(ctx, k)
	}
	m.client.publish(ctx, events.Event{Name: events.MutationSucceeded, Key: m.Name, Duration: took})
	return out, nil
}

// IsPending reports whether a call is in flight.
func (m *Mutation[In, Out]) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Error returns the outcome of the last completed call, nil after a success.
func (m *Mutation[In, Out]) Error() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Reset clears the last error.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}
