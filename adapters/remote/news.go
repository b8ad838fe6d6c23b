package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/pkg/apierr"
	"github.com/artpar/newsdemo/ports"
)

// MsgNewsFailed is used when the backend rejects GET /news without a message.
const MsgNewsFailed = "Failed to load the news list"

// NewsClient reads the news feed.
//
// API Contract:
//
//	GET /news
//	Response: {"items": [{"id": "1", "title": "...", "summary": "...", "image": "https://..."}]}
type NewsClient struct {
	client *Client
}

// NewNewsClient creates a news client.
func NewNewsClient(client *Client) *NewsClient {
	return &NewsClient{client: client}
}

// FetchNews returns the full news list.
func (n *NewsClient) FetchNews(ctx context.Context) (news.NewsList, error) {
	var list news.NewsList
	if err := n.client.Request(ctx, http.MethodGet, "/news", nil, &list); err != nil {
		var ae *apierr.APIError
		if errors.As(err, &ae) && ae.Message == "" {
			ae.Message = MsgNewsFailed
		}
		return news.NewsList{}, fmt.Errorf("fetch news: %w", err)
	}
	return list, nil
}

// FetchNewsItem returns the item with the given id.
// There is no single-item endpoint, so the full list is fetched and scanned.
func (n *NewsClient) FetchNewsItem(ctx context.Context, id string) (news.NewsItem, error) {
	list, err := n.FetchNews(ctx)
	if err != nil {
		return news.NewsItem{}, err
	}

	item, ok := list.Find(id)
	if !ok {
		return news.NewsItem{}, &apierr.NotFoundError{Resource: "news item", ID: id}
	}
	return item, nil
}

// Ensure interface compliance.
var _ ports.NewsAPI = (*NewsClient)(nil)
