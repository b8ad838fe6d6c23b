package sqlite

import (
	"context"
	"fmt"

	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/ports"
)

// NewsStore implements ports.NewsStore using SQLite through sqlx.
// Items keep the position they were first inserted at.
type NewsStore struct {
	db *DB
}

// NewNewsStore creates a new SQLite news store.
func NewNewsStore(db *DB) *NewsStore {
	return &NewsStore{db: db}
}

// List returns all items in publication order.
func (s *NewsStore) List(ctx context.Context) (news.NewsList, error) {
	items := []news.NewsItem{}
	err := s.db.X.SelectContext(ctx, &items, `
		SELECT id, title, summary, image
		FROM news_items
		ORDER BY position
	`)
	if err != nil {
		return news.NewsList{}, fmt.Errorf("list news: %w", err)
	}
	return news.NewsList{Items: items}, nil
}

// Upsert inserts new items at the end and rewrites the content of known ids in place.
func (s *NewsStore) Upsert(ctx context.Context, items []news.NewsItem) error {
	if err := (news.NewsList{Items: items}).Validate(); err != nil {
		return err
	}

	tx, err := s.db.X.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO news_items (id, position, title, summary, image, updated_at)
			VALUES (:id, (SELECT COALESCE(MAX(position), 0) + 1 FROM news_items), :title, :summary, :image, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				summary = excluded.summary,
				image = excluded.image,
				updated_at = excluded.updated_at
		`, item)
		if err != nil {
			return fmt.Errorf("upsert news %q: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Delete removes an item.
func (s *NewsStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.X.ExecContext(ctx, `DELETE FROM news_items WHERE id = ?`, id)
	return oneRow(result, err)
}

// Count returns the number of stored items.
func (s *NewsStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.X.GetContext(ctx, &n, "SELECT COUNT(*) FROM news_items")
	return n, err
}

// Ensure interface compliance.
var _ ports.NewsStore = (*NewsStore)(nil)
