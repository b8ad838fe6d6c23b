// Package app binds backend calls to query cache keys. Views read through
// these hooks and never call the API client directly.
package app

import (
	"context"

	"github.com/artpar/newsdemo/app/query"
	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/ports"
)

// Cache keys for news reads.
var (
	KeyNews     = query.Key{"news"}
	KeyNewsList = query.Key{"news", "list"}
)

// NewsItemKey is the cache key of a single item.
func NewsItemKey(id string) query.Key {
	return query.Key{"news", "item", id}
}

// NewsQueries exposes the news reads.
type NewsQueries struct {
	api   ports.NewsAPI
	cache *query.Client
	list  *query.Query[news.NewsList]
}

// NewNewsQueries creates the news hooks.
func NewNewsQueries(api ports.NewsAPI, cache *query.Client) *NewsQueries {
	return &NewsQueries{
		api:   api,
		cache: cache,
		list:  query.NewQuery(cache, KeyNewsList, api.FetchNews),
	}
}

// List reads the whole news list.
func (n *NewsQueries) List() *query.Query[news.NewsList] {
	return n.list
}

// Item reads one item by id. The query is disabled for an empty id.
func (n *NewsQueries) Item(id string) *query.Query[news.NewsItem] {
	q := query.NewQuery(n.cache, NewsItemKey(id), func(ctx context.Context) (news.NewsItem, error) {
		return n.api.FetchNewsItem(ctx, id)
	})
	q.Enabled = id != ""
	return q
}

// Refresh marks every news read stale.
func (n *NewsQueries) Refresh(ctx context.Context) int {
	return n.cache.Invalidate(ctx, KeyNews)
}
