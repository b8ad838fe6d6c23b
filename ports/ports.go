// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/domain/news"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock provides the current time. The query cache uses it for staleness and
// the backend for session expiry.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Backend API Ports (consumed by app/ through the query cache)
// -----------------------------------------------------------------------------

// NewsAPI reads the news feed from the backend.
type NewsAPI interface {
	// FetchNews returns the full news list.
	FetchNews(ctx context.Context) (news.NewsList, error)

	// FetchNewsItem returns a single item by id.
	FetchNewsItem(ctx context.Context, id string) (news.NewsItem, error)
}

// AuthAPI performs account and session calls against the backend.
type AuthAPI interface {
	Signup(ctx context.Context, req auth.SignupRequest) (auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.User, error)
	Logout(ctx context.Context) error

	// CurrentUser resolves the session; unauthenticated is Anonymous, not an error.
	CurrentUser(ctx context.Context) (auth.Session, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports (reference backend)
// -----------------------------------------------------------------------------

// Store errors shared by every storage adapter.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Account is a stored user account.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// User returns the public view of the account.
func (a Account) User() auth.User {
	return auth.User{Email: a.Email, Name: a.Name}
}

// UserStore persists user accounts.
type UserStore interface {
	// Get retrieves an account by ID.
	Get(ctx context.Context, id string) (Account, error)

	// GetByEmail retrieves an account by email.
	GetByEmail(ctx context.Context, email string) (Account, error)

	// Create stores a new account. Duplicate emails are rejected.
	Create(ctx context.Context, a Account) error

	// Count returns total account count.
	Count(ctx context.Context) (int, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, r auth.Record) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (auth.Record, error)

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes all sessions for a user.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired removes all expired sessions.
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewsStore persists the published news list.
type NewsStore interface {
	// List returns all items in publication order.
	List(ctx context.Context) (news.NewsList, error)

	// Upsert inserts or replaces items, appending new ids at the end.
	Upsert(ctx context.Context, items []news.NewsItem) error

	// Delete removes an item.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
}
