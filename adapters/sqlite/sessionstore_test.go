package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/newsdemo/adapters/sqlite"
	"github.com/artpar/newsdemo/domain/auth"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	createAccount(t, db, "user_123", "test@example.com")

	store := sqlite.NewSessionStore(db)
	ctx := context.Background()

	rec := auth.NewRecord("sess_1", "user_123", "test@example.com", "192.168.1.1", "Mozilla/5.0", 24*time.Hour)
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.ID != rec.ID {
		t.Errorf("ID = %s, want %s", got.ID, rec.ID)
	}
	if got.UserID != rec.UserID {
		t.Errorf("UserID = %s, want %s", got.UserID, rec.UserID)
	}
	if got.Email != rec.Email {
		t.Errorf("Email = %s, want %s", got.Email, rec.Email)
	}
	if got.IPAddress != rec.IPAddress {
		t.Errorf("IPAddress = %s, want %s", got.IPAddress, rec.IPAddress)
	}
	if got.UserAgent != rec.UserAgent {
		t.Errorf("UserAgent = %s, want %s", got.UserAgent, rec.UserAgent)
	}
	if got.IsExpired() {
		t.Error("fresh session reported expired")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	createAccount(t, db, "user_1", "a@example.com")

	store := sqlite.NewSessionStore(db)
	ctx := context.Background()

	rec := auth.NewRecord("sess_2", "user_1", "a@example.com", "", "", time.Hour)
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, rec.ID); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("Delete missing = %v, want ErrNotFound", err)
	}
}

func TestSessionStore_DeleteByUserAndExpired(t *testing.T) {
	db := setupTestDB(t)
	createAccount(t, db, "user_1", "a@example.com")
	createAccount(t, db, "user_2", "b@example.com")

	store := sqlite.NewSessionStore(db)
	ctx := context.Background()

	live := auth.NewRecord("sess_3", "user_2", "b@example.com", "", "", time.Hour)
	expired := auth.NewRecord("sess_4", "user_2", "b@example.com", "", "", -time.Hour)
	mine1 := auth.NewRecord("sess_5", "user_1", "a@example.com", "", "", time.Hour)
	mine2 := auth.NewRecord("sess_6", "user_1", "a@example.com", "", "", time.Hour)
	for _, r := range []auth.Record{live, expired, mine1, mine2} {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := store.DeleteByUser(ctx, "user_1"); err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if _, err := store.Get(ctx, mine1.ID); !errors.Is(err, sqlite.ErrNotFound) {
		t.Error("user_1 session survived DeleteByUser")
	}

	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired = %d, want 1", n)
	}
	if _, err := store.Get(ctx, live.ID); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}
