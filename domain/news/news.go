// Package news provides the news schema types and pure lookup functions.
// This package has NO dependencies on I/O.
package news

import (
	"fmt"

	"github.com/samber/lo"
)

// NewsItem is a single published news entry (immutable value type).
type NewsItem struct {
	ID      string `json:"id" yaml:"id" db:"id"`
	Title   string `json:"title" yaml:"title" db:"title"`
	Summary string `json:"summary" yaml:"summary" db:"summary"`
	Image   string `json:"image,omitempty" yaml:"image,omitempty" db:"image"`
}

// HasImage reports whether the item carries an image URL.
func (n NewsItem) HasImage() bool {
	return n.Image != ""
}

// NewsList is the ordered collection returned by GET /news.
// There is no pagination cursor.
type NewsList struct {
	Items []NewsItem `json:"items" yaml:"items"`
}

// Find returns the item with the given id.
// No single-item endpoint exists upstream, so lookups scan the whole list.
func (l NewsList) Find(id string) (NewsItem, bool) {
	return lo.Find(l.Items, func(item NewsItem) bool {
		return item.ID == id
	})
}

// Len returns the number of items.
func (l NewsList) Len() int {
	return len(l.Items)
}

// Validate checks the list invariants: every item has an id, a title, and ids are unique.
func (l NewsList) Validate() error {
	for i, item := range l.Items {
		if item.ID == "" {
			return fmt.Errorf("item %d: id is required", i)
		}
		if item.Title == "" {
			return fmt.Errorf("item %q: title is required", item.ID)
		}
	}

	dups := lo.FindDuplicatesBy(l.Items, func(item NewsItem) string {
		return item.ID
	})
	if len(dups) > 0 {
		return fmt.Errorf("duplicate news id %q", dups[0].ID)
	}
	return nil
}
