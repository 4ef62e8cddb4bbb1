package catalog

import (
	"context"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

const (
	// DefaultSearchLimit is used when the caller passes a non-positive limit.
	DefaultSearchLimit = 20
	// MaxSearchLimit is the most hits the catalog returns per query.
	MaxSearchLimit = 40
)

// Feed is a named curated search.
type Feed struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// DefaultFeeds returns the curated searches shown on the home screen.
func DefaultFeeds() map[string]Feed {
	return map[string]Feed{
		"top-week": {Query: "бестселлеры", Limit: 10},
		"for-you":  {Query: "современная проза", Limit: 10},
	}
}

// NormalizeQuery trims and NFC-normalizes a search query so that composed and
// decomposed spellings (for example "й" typed as и + combining breve) hit the
// catalog identically.
func NormalizeQuery(query string) string {
	return norm.NFC.String(strings.Join(strings.Fields(query), " "))
}

// ClampLimit maps limit into [1, MaxSearchLimit], using DefaultSearchLimit for
// non-positive values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return min(limit, MaxSearchLimit)
}

// Search passes the query through to the catalog. Full records among the hits
// are memoized; summaries are left for Get to resolve on demand.
// An empty query returns no hits without contacting the catalog.
func (c *Cache) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return []domain.SearchHit{}, nil
	}
	limit = ClampLimit(limit)

	c.logger.Debug("searching catalog",
		"query", q,
		"limit", limit,
	)

	hits, err := c.provider.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	seeded := 0
	for i := range hits {
		if !hits[i].Full || hits[i].Book.ID == "" {
			continue
		}
		// Records are immutable; keep the pointer callers may already hold.
		if _, ok := c.memo.Get(hits[i].Book.ID); ok {
			continue
		}
		book := hits[i].Book
		c.memo.Set(book.ID, &book, 1)
		seeded++
	}
	if seeded > 0 {
		c.memo.Wait()
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Discover runs the named curated search.
func (c *Cache) Discover(ctx context.Context, feed string) ([]domain.SearchHit, error) {
	f, ok := c.feeds[feed]
	if !ok {
		return nil, domainerrors.NotFound(feed)
	}
	return c.Search(ctx, f.Query, f.Limit)
}

// Feeds returns the names of the configured curated searches, sorted.
func (c *Cache) Feeds() []string {
	return slices.Sorted(maps.Keys(c.feeds))
}
