// Package feed turns an RSS or Atom feed into news items for the backend.
package feed

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SlyMarbo/rss"
	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// MaxSummaryRunes bounds the summary kept from an item's description.
const MaxSummaryRunes = 280

// ctxTransport applies ctx to every request the rss package makes, since
// rss.FetchByClient takes no context of its own.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// Source reads one feed URL.
type Source struct {
	URL     string
	Timeout time.Duration // default 30s
	Limit   int           // 0 keeps every item

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// Fetch downloads the feed and maps its entries to news items, newest first
// as the feed orders them. Entries without a title are skipped and repeated
// ids keep their first occurrence.
func (s Source) Fetch(ctx context.Context) ([]news.NewsItem, error) {
	base := s.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	f, err := rss.FetchByClient(s.URL, &http.Client{
		Transport: ctxTransport{ctx: ctx, base: base},
		Timeout:   timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.URL, err)
	}

	entries := lo.Filter(f.Items, func(item *rss.Item, _ int) bool {
		return strings.TrimSpace(item.Title) != ""
	})
	items := lo.UniqBy(lo.Map(entries, func(item *rss.Item, _ int) news.NewsItem {
		return toNewsItem(item)
	}), func(n news.NewsItem) string {
		return n.ID
	})

	if s.Limit > 0 && len(items) > s.Limit {
		items = items[:s.Limit]
	}
	return items, nil
}

// ItemID derives a stable id from the entry's guid, link or title, so
// re-importing a feed updates items instead of duplicating them.
func ItemID(guid, link, title string) string {
	name := lo.CoalesceOrEmpty(strings.TrimSpace(guid), strings.TrimSpace(link), strings.TrimSpace(title))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func toNewsItem(item *rss.Item) news.NewsItem {
	text := item.Summary
	if strings.TrimSpace(text) == "" {
		text = item.Content
	}

	return news.NewsItem{
		ID:      ItemID(item.ID, item.Link, item.Title),
		Title:   strings.TrimSpace(html.UnescapeString(item.Title)),
		Summary: Summarize(text, MaxSummaryRunes),
		Image:   imageURL(item),
	}
}

func imageURL(item *rss.Item) string {
	enc, ok := lo.Find(item.Enclosures, func(e *rss.Enclosure) bool {
		return e != nil && strings.HasPrefix(e.Type, "image/") && e.URL != ""
	})
	if !ok {
		return ""
	}
	return enc.URL
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Summarize strips markup from s, collapses whitespace and cuts the result
// to at most max runes, ending in "..." when cut.
func Summarize(s string, max int) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-3])) + "..."
}

// Importer loads a feed into a news store.
type Importer struct {
	store  ports.NewsStore
	logger zerolog.Logger
}

// NewImporter creates an importer writing to store.
func NewImporter(store ports.NewsStore, logger zerolog.Logger) *Importer {
	return &Importer{store: store, logger: logger}
}

// Import fetches src and upserts its items, returning how many were written.
func (i *Importer) Import(ctx context.Context, src Source) (int, error) {
	items, err := src.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		i.logger.Warn().Str("url", src.URL).Msg("feed has no usable items")
		return 0, nil
	}

	if err := i.store.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("store feed items: %w", err)
	}

	i.logger.Info().Str("url", src.URL).Int("items", len(items)).Msg("feed imported")
	return len(items), nil
}
