package memory

import (
	"context"
	"sync"

	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/ports"
	"github.com/samber/lo"
)

// SessionStore keeps session records by id.
type SessionStore struct {
	mu      sync.Mutex
	records map[string]auth.Record
}

func NewSessionStore() *SessionStore {
	return &SessionStore{records: make(map[string]auth.Record)}
}

func (s *SessionStore) Create(_ context.Context, r auth.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.HasKey(s.records, r.ID) {
		return ports.ErrDuplicate
	}
	s.records[r.ID] = r
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (auth.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return auth.Record{}, ErrNotFound
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !lo.HasKey(s.records, id) {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *SessionStore) DeleteByUser(_ context.Context, userID string) error {
	s.drop(func(r auth.Record) bool { return r.UserID == userID })
	return nil
}

func (s *SessionStore) DeleteExpired(context.Context) (int64, error) {
	return int64(s.drop(auth.Record.IsExpired)), nil
}

// drop removes the matching records and returns how many went.
func (s *SessionStore) drop(match func(auth.Record) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.records)
	s.records = lo.OmitBy(s.records, func(_ string, r auth.Record) bool { return match(r) })
	return before - len(s.records)
}

var _ ports.SessionStore = (*SessionStore)(nil)
