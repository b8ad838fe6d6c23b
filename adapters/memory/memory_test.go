package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/artpar/newsdemo/adapters/memory"
	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/ports"
)

// UserStore tests

func TestUserStore_CreateAndGet(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("new store should be empty, got %d", n)
	}

	a := ports.Account{ID: "usr_1", Email: "Alice@Example.com", Name: "Alice", PasswordHash: []byte("h")}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "usr_1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Alice" || got.CreatedAt.IsZero() {
		t.Errorf("Get = %+v", got)
	}

	byEmail, err := store.GetByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != "usr_1" {
		t.Errorf("GetByEmail = %+v, %v", byEmail, err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestUserStore_Duplicate(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	_ = store.Create(ctx, ports.Account{ID: "usr_1", Email: "a@b.com"})
	tests := []struct {
		name string
		acct ports.Account
	}{
		{"same email different case", ports.Account{ID: "usr_2", Email: "A@B.com"}},
		{"same id", ports.Account{ID: "usr_1", Email: "c@d.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Create(ctx, tt.acct); !errors.Is(err, ports.ErrDuplicate) {
				t.Errorf("Create = %v, want ErrDuplicate", err)
			}
		})
	}
}

func TestUserStore_Concurrent(t *testing.T) {
	store := memory.NewUserStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Create(ctx, ports.Account{ID: string(rune('a' + i)), Email: "same@example.com"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
}

// SessionStore tests

func TestSessionStore(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()

	live := auth.NewRecord("sess_1", "usr_1", "a@b.com", "", "", time.Hour)
	expired := auth.NewRecord("sess_2", "usr_2", "c@d.com", "", "", -time.Hour)
	other := auth.NewRecord("sess_3", "usr_1", "a@b.com", "", "", time.Hour)

	for _, r := range []auth.Record{live, expired, other} {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := store.Create(ctx, live); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate Create = %v", err)
	}

	got, err := store.Get(ctx, live.ID)
	if err != nil || got.Email != "a@b.com" {
		t.Errorf("Get = %+v, %v", got, err)
	}

	n, _ := store.DeleteExpired(ctx)
	if n != 1 {
		t.Errorf("DeleteExpired = %d, want 1", n)
	}

	if err := store.Delete(ctx, other.ID); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, other.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Delete missing = %v", err)
	}

	_ = store.DeleteByUser(ctx, "usr_1")
	if _, err := store.Get(ctx, live.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("session survived DeleteByUser: %v", err)
	}
}

// NewsStore tests

func TestNewsStore(t *testing.T) {
	store := memory.NewNewsStore(
		news.NewsItem{ID: "1", Title: "First"},
		news.NewsItem{ID: "2", Title: "Second"},
	)
	ctx := context.Background()

	err := store.Upsert(ctx, []news.NewsItem{
		{ID: "3", Title: "Third"},
		{ID: "1", Title: "First (edited)"},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	list, _ := store.List(ctx)
	want := []string{"First (edited)", "Second", "Third"}
	if list.Len() != len(want) {
		t.Fatalf("len = %d, want %d", list.Len(), len(want))
	}
	for i, title := range want {
		if list.Items[i].Title != title {
			t.Errorf("Items[%d].Title = %q, want %q", i, list.Items[i].Title, title)
		}
	}

	// List returns a copy.
	list.Items[0].Title = "mutated"
	again, _ := store.List(ctx)
	if again.Items[0].Title != "First (edited)" {
		t.Error("List exposed internal slice")
	}

	if err := store.Upsert(ctx, []news.NewsItem{{ID: "", Title: "x"}}); err == nil {
		t.Error("Upsert accepted item without id")
	}

	if err := store.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	if err := store.Delete(ctx, "2"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Delete missing = %v", err)
	}

	empty, _ := memory.NewNewsStore().List(ctx)
	if empty.Items == nil {
		t.Error("empty List should return a non-nil slice")
	}
}
