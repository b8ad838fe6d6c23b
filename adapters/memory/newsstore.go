package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/ports"
	"github.com/samber/lo"
)

// NewsStore is an in-memory implementation of ports.NewsStore.
type NewsStore struct {
	mu    sync.RWMutex
	items []news.NewsItem
}

// NewNewsStore creates a news store holding items in the given order.
func NewNewsStore(items ...news.NewsItem) *NewsStore {
	return &NewsStore{items: slices.Clone(items)}
}

// List returns a copy of all items in publication order.
func (s *NewsStore) List(ctx context.Context) (news.NewsList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := slices.Clone(s.items)
	if items == nil {
		items = []news.NewsItem{}
	}
	return news.NewsList{Items: items}, nil
}

// Upsert replaces known ids in place and appends new ones.
func (s *NewsStore) Upsert(ctx context.Context, items []news.NewsItem) error {
	if err := (news.NewsList{Items: items}).Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, i, ok := lo.FindIndexOf(s.items, byID(item.ID)); ok {
			s.items[i] = item
			continue
		}
		s.items = append(s.items, item)
	}
	return nil
}

// Delete removes an item.
func (s *NewsStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, i, ok := lo.FindIndexOf(s.items, byID(id))
	if !ok {
		return ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func byID(id string) func(news.NewsItem) bool {
	return func(n news.NewsItem) bool { return n.ID == id }
}

// Count returns the number of stored items.
func (s *NewsStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// Ensure interface compliance.
var _ ports.NewsStore = (*NewsStore)(nil)
