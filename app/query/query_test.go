package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/newsdemo/adapters/clock"
	"github.com/artpar/newsdemo/core/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(cfg Config) *Client {
	cfg.Logger = zerolog.Nop()
	return NewClient(cfg)
}

func counting(calls *atomic.Int32, v any, err error) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return v, err
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		key    Key
		prefix Key
		want   bool
	}{
		{"exact", Key{"auth", "me"}, Key{"auth", "me"}, true},
		{"prefix", Key{"auth", "me"}, Key{"auth"}, true},
		{"empty prefix matches all", Key{"news", "list"}, Key{}, true},
		{"element not string prefix", Key{"authz", "me"}, Key{"auth"}, false},
		{"longer prefix", Key{"news"}, Key{"news", "list"}, false},
		{"different", Key{"news", "item", "2"}, Key{"news", "list"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix))
		})
	}

	assert.Equal(t, "news.item.2", Key{"news", "item", "2"}.String())
}

func TestFetch_ConcurrentReadsShareOneCall(t *testing.T) {
	c := newTestClient(Config{})
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return []string{"a", "b"}, nil
	}

	const readers = 8
	results := make([]any, readers)
	errs := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), Key{"news", "list"}, fn)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, StatusSuccess, c.State(Key{"news", "list"}).Status)
}

func TestFetch_FreshUntilInvalidated(t *testing.T) {
	c := newTestClient(Config{})
	var calls atomic.Int32
	key := Key{"news", "list"}

	for i := 0; i < 3; i++ {
		v, err := c.Fetch(context.Background(), key, counting(&calls, "v", nil))
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, 1, c.Invalidate(context.Background(), Key{"news"}))
	st := c.State(key)
	assert.True(t, st.Stale)
	assert.Equal(t, "v", st.Data, "stale data stays readable")

	_, err := c.Fetch(context.Background(), key, counting(&calls, "v2", nil))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, c.State(key).Stale)
}

func TestFetch_StaleTime(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newTestClient(Config{StaleTime: time.Minute, Clock: fake})
	var calls atomic.Int32
	key := Key{"auth", "me"}

	_, err := c.Fetch(context.Background(), key, counting(&calls, 1, nil))
	require.NoError(t, err)

	fake.Advance(30 * time.Second)
	_, _ = c.Fetch(context.Background(), key, counting(&calls, 1, nil))
	assert.Equal(t, int32(1), calls.Load(), "within stale time")

	fake.Advance(31 * time.Second)
	assert.True(t, c.State(key).Stale)
	_, _ = c.Fetch(context.Background(), key, counting(&calls, 1, nil))
	assert.Equal(t, int32(2), calls.Load(), "after stale time")

	c.SetStaleTime(0)
	fake.Advance(time.Hour)
	_, _ = c.Fetch(context.Background(), key, counting(&calls, 1, nil))
	assert.Equal(t, int32(2), calls.Load(), "zero stale time never expires")
}

func TestFetch_ErrorCapturedNotRetried(t *testing.T) {
	c := newTestClient(Config{})
	var calls atomic.Int32
	key := Key{"news", "list"}
	boom := errors.New("backend down")

	_, err := c.Fetch(context.Background(), key, counting(&calls, nil, boom))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())

	st := c.State(key)
	assert.Equal(t, StatusError, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.False(t, st.IsLoading)

	// A later read tries again; the failure itself was not retried.
	v, err := c.Fetch(context.Background(), key, counting(&calls, "ok", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), calls.Load())
	assert.Nil(t, c.State(key).Err)
}

func TestFetch_InvalidateDuringFlight(t *testing.T) {
	c := newTestClient(Config{})
	key := Key{"auth", "me"}
	started := make(chan struct{})
	release := make(chan struct{})

	var calls, running, peak atomic.Int32
	fn := func(context.Context) (any, error) {
		n := calls.Add(1)
		cur := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		if n == 1 {
			close(started)
			<-release
			return "before logout", nil
		}
		return "after logout", nil
	}

	results := make([]any, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.Fetch(context.Background(), key, fn)
	}()

	<-started
	assert.True(t, c.State(key).IsLoading)
	c.Invalidate(context.Background(), Key{"auth"})

	// A read after the invalidation joins the running flight.
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = c.Fetch(context.Background(), key, fn)
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "second read started its own call")

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load(), "calls in flight at once")
	assert.Equal(t, int32(2), calls.Load(), "superseded result refetched once")
	assert.Equal(t, []any{"after logout", "after logout"}, results)

	st := c.State(key)
	assert.Equal(t, "after logout", st.Data)
	assert.False(t, st.Stale)
	assert.False(t, st.IsLoading)
}

func TestFetch_IdleEntriesCollected(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newTestClient(Config{GCTime: time.Minute, Clock: fake})
	ctx := context.Background()
	var calls atomic.Int32

	for _, id := range []string{"1", "2", "missing"} {
		_, _ = c.Fetch(ctx, Key{"news", "item", id}, counting(&calls, id, nil))
	}
	assert.Equal(t, 3, c.Len())

	fake.Advance(30 * time.Second)
	_, _ = c.Fetch(ctx, Key{"news", "item", "1"}, counting(&calls, "1", nil))
	assert.Equal(t, 3, c.Len(), "nothing idle long enough yet")

	fake.Advance(45 * time.Second)
	_, _ = c.Fetch(ctx, Key{"news", "list"}, counting(&calls, "list", nil))
	assert.Equal(t, 2, c.Len(), "items 2 and missing were idle for a minute")
	assert.Equal(t, StatusSuccess, c.State(Key{"news", "item", "1"}).Status)
	assert.Equal(t, StatusIdle, c.State(Key{"news", "item", "missing"}).Status)
}

func TestFetch_CallerCancellation(t *testing.T) {
	c := newTestClient(Config{})
	key := Key{"news", "list"}
	started := make(chan struct{})
	release := make(chan struct{})

	var leaderVal any
	var leaderErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		leaderVal, leaderErr = c.Fetch(context.Background(), key, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "items", ctx.Err()
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, key, counting(new(atomic.Int32), "unused", nil))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
	require.NoError(t, leaderErr)
	assert.Equal(t, "items", leaderVal)
}

func TestClose(t *testing.T) {
	c := newTestClient(Config{})
	_, err := c.Fetch(context.Background(), Key{"x"}, counting(new(atomic.Int32), 1, nil))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.Equal(t, 0, c.Len())
	_, err = c.Fetch(context.Background(), Key{"x"}, counting(new(atomic.Int32), 1, nil))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEventsPublished(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	var mu sync.Mutex
	seen := map[string]int{}
	bus.Subscribe("*", func(ctx context.Context, e events.Event) error {
		mu.Lock()
		seen[e.Name]++
		mu.Unlock()
		return nil
	})

	c := newTestClient(Config{Bus: bus})
	key := Key{"news", "list"}
	_, _ = c.Fetch(context.Background(), key, counting(new(atomic.Int32), 1, nil))
	_, _ = c.Fetch(context.Background(), key, counting(new(atomic.Int32), 1, nil))
	c.Invalidate(context.Background(), key)
	_, _ = c.Fetch(context.Background(), key, counting(new(atomic.Int32), nil, errors.New("x")))

	assert.Equal(t, 1, seen[events.QueryFetched])
	assert.Equal(t, 1, seen[events.QueryHit])
	assert.Equal(t, 1, seen[events.QueryInvalidated])
	assert.Equal(t, 1, seen[events.QueryFailed])
}

func TestQuery_Use(t *testing.T) {
	c := newTestClient(Config{})
	var calls atomic.Int32
	q := NewQuery(c, Key{"news", "item", "2"}, func(context.Context) (string, error) {
		calls.Add(1)
		return "second", nil
	})

	before := q.Peek()
	assert.Equal(t, StatusIdle, before.Status)
	assert.Empty(t, before.Data)

	r := q.Use(context.Background())
	require.NoError(t, r.Err)
	assert.Equal(t, "second", r.Data)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.False(t, r.IsLoading)

	assert.Equal(t, "second", q.Peek().Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_Disabled(t *testing.T) {
	c := newTestClient(Config{})
	q := NewQuery(c, Key{"news", "item", ""}, func(context.Context) (string, error) {
		t.Fatal("disabled query must not fetch")
		return "", nil
	})
	q.Enabled = false

	r := q.Use(context.Background())
	assert.True(t, r.Disabled)
	assert.Equal(t, StatusIdle, r.Status)
	assert.NoError(t, r.Err)
	assert.Equal(t, 0, c.Len())
}

func TestQuery_Error(t *testing.T) {
	c := newTestClient(Config{})
	boom := errors.New("not found")
	q := NewQuery(c, Key{"news", "item", "9"}, func(context.Context) (int, error) {
		return 0, boom
	})

	r := q.Use(context.Background())
	assert.ErrorIs(t, r.Err, boom)
	assert.Equal(t, StatusError, r.Status)
	assert.ErrorIs(t, q.Peek().Err, boom)
}

func TestMutation_Success(t *testing.T) {
	c := newTestClient(Config{})
	var reads atomic.Int32
	me := NewQuery(c, Key{"auth", "me"}, func(context.Context) (string, error) {
		reads.Add(1)
		return "session", nil
	})
	me.Use(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	m := NewMutation(c, "auth.login", func(ctx context.Context, email string) (string, error) {
		close(started)
		<-release
		return email, nil
	}, Key{"auth"})

	assert.False(t, m.IsPending())

	type outcome struct {
		out string
		err error
	}
	res := make(chan outcome, 1)
	go func() {
		out, err := m.MutateAsync(context.Background(), "a@b.com")
		res <- outcome{out, err}
	}()

	<-started
	assert.True(t, m.IsPending())
	close(release)
	o := <-res

	require.NoError(t, o.err)
	assert.Equal(t, "a@b.com", o.out)
	assert.False(t, m.IsPending())
	assert.NoError(t, m.Error())
	assert.True(t, c.State(Key{"auth", "me"}).Stale)

	me.Use(context.Background())
	assert.Equal(t, int32(2), reads.Load())
}

func TestMutation_Failure(t *testing.T) {
	c := newTestClient(Config{})
	_, err := c.Fetch(context.Background(), Key{"auth", "me"}, counting(new(atomic.Int32), "s", nil))
	require.NoError(t, err)

	boom := errors.New("Invalid email or password")
	m := NewMutation(c, "auth.login", func(ctx context.Context, _ struct{}) (int, error) {
		return 0, boom
	}, Key{"auth"})

	out, err := m.MutateAsync(context.Background(), struct{}{})
	assert.Same(t, boom, err)
	assert.Zero(t, out)
	assert.Same(t, boom, m.Error())
	assert.False(t, c.State(Key{"auth", "me"}).Stale, "failure must not invalidate")

	m.Reset()
	assert.NoError(t, m.Error())
}
