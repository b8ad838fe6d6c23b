// Package memory provides in-memory implementations of the backend storage
// ports, used by the "memory" database driver and by tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/artpar/newsdemo/ports"
	"github.com/samber/lo"
)

// ErrNotFound is returned when an entity is not found.
var ErrNotFound = ports.ErrNotFound

// UserStore keeps accounts in sign-up order. Email lookups ignore case.
type UserStore struct {
	mu       sync.RWMutex
	accounts []ports.Account
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) Get(_ context.Context, id string) (ports.Account, error) {
	return s.find(func(a ports.Account) bool { return a.ID == id })
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (ports.Account, error) {
	return s.find(func(a ports.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (s *UserStore) find(match func(ports.Account) bool) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := lo.Find(s.accounts, match); ok {
		return a, nil
	}
	return ports.Account{}, ErrNotFound
}

// Create rejects a reused id or email with ports.ErrDuplicate.
func (s *UserStore) Create(_ context.Context, a ports.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := lo.ContainsBy(s.accounts, func(x ports.Account) bool {
		return x.ID == a.ID || strings.EqualFold(x.Email, a.Email)
	})
	if taken {
		return ports.ErrDuplicate
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.accounts = append(s.accounts, a)
	return nil
}

func (s *UserStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

var _ ports.UserStore = (*UserStore)(nil)
