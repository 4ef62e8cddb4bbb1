// Package catalog is the single entry point for catalog records. It memoizes
// fetched books, coalesces concurrent lookups of the same id into one outbound
// request, and optionally persists records so a restart starts warm.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/store"
)

const (
	defaultMaxItems     = 10_000
	defaultFetchTimeout = 20 * time.Second
)

// Provider is the remote catalog.
type Provider interface {
	// Search returns up to limit hits. Hits with Full=false carry only a summary.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
	// Get returns the full record, or a NotFound error when the catalog has no such id.
	Get(ctx context.Context, id string) (*domain.CatalogBook, error)
}

// Persister is the optional warm-start tier. *store.Store implements it.
type Persister interface {
	GetCachedBook(ctx context.Context, id string) (*store.CachedBook, error)
	SetCachedBook(ctx context.Context, book *domain.CatalogBook) error
	DeleteCachedBook(ctx context.Context, id string) error
}

// Options configures a Cache.
type Options struct {
	// MaxItems bounds the in-memory memo. Evicted records are simply refetched.
	MaxItems int64
	// FetchTimeout bounds a single outbound fetch. Fetches outlive the callers
	// waiting on them, so they need their own deadline.
	FetchTimeout time.Duration
	// Feeds are the named curated searches served by Discover.
	Feeds map[string]Feed
	// Persister is optional.
	Persister Persister
}

// Cache memoizes catalog records by id.
//
// At most one fetch per id is in flight at a time; every caller asking for
// that id while it runs receives the same *domain.CatalogBook or the same
// error. Only successful lookups are remembered.
type Cache struct {
	provider     Provider
	persist      Persister
	memo         *ristretto.Cache[string, *domain.CatalogBook]
	group        singleflight.Group
	fetchTimeout time.Duration
	feeds        map[string]Feed
	logger       *slog.Logger
}

// New creates a catalog cache in front of provider.
func New(provider Provider, opts Options, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = defaultMaxItems
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Feeds == nil {
		opts.Feeds = DefaultFeeds()
	}

	memo, err := ristretto.NewCache(&ristretto.Config[string, *domain.CatalogBook]{
		NumCounters:        opts.MaxItems * 10,
		MaxCost:            opts.MaxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create catalog memo")
	}

	return &Cache{
		provider:     provider,
		persist:      opts.Persister,
		memo:         memo,
		fetchTimeout: opts.FetchTimeout,
		feeds:        opts.Feeds,
		logger:       logger,
	}, nil
}

// Close releases the memo. The persister is owned by the caller.
func (c *Cache) Close() {
	c.memo.Close()
}

// Get returns the catalog record for id.
//
// If ctx is done before the record arrives, Get returns ctx.Err() but the
// fetch keeps running and still populates the cache for later callers.
func (c *Cache) Get(ctx context.Context, id string) (*domain.CatalogBook, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domainerrors.InvalidField("id", "catalog id is required")
	}
	if !domain.ValidCatalogID(id) {
		return nil, domainerrors.InvalidField("id", "invalid catalog id")
	}

	if book, ok := c.memo.Get(id); ok {
		return book, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(detached, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.CatalogBook), nil
	}
}

// load runs inside the flight for id.
func (c *Cache) load(ctx context.Context, id string) (*domain.CatalogBook, error) {
	// A flight that finished just before this one started has already memoized the record.
	if book, ok := c.memo.Get(id); ok {
		return book, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	if c.persist != nil {
		cached, err := c.persist.GetCachedBook(ctx, id)
		if err != nil {
			c.logger.Warn("cache lookup failed",
				"error", err,
				"catalog_id", id,
			)
			// Continue to fetch fresh
		}
		if cached != nil {
			c.logger.Debug("persistent cache hit for book",
				"catalog_id", id,
				"fetched_at", cached.FetchedAt,
			)
			c.remember(cached.Book)
			return cached.Book, nil
		}
	}

	c.logger.Debug("fetching book from catalog", "catalog_id", id)

	book, err := c.provider.Get(ctx, id)
	if err != nil {
		c.logger.Debug("catalog fetch failed",
			"catalog_id", id,
			"error", err,
		)
		return nil, err
	}
	if book == nil {
		return nil, domainerrors.NotFound(id)
	}

	c.remember(book)

	if c.persist != nil {
		if err := c.persist.SetCachedBook(ctx, book); err != nil {
			c.logger.Warn("failed to cache book",
				"error", err,
				"catalog_id", id,
			)
			// Don't fail the lookup
		}
	}

	return book, nil
}

func (c *Cache) remember(book *domain.CatalogBook) {
	c.memo.Set(book.ID, book, 1)
	c.memo.Wait()
}

// Peek returns the memoized record for id without fetching.
func (c *Cache) Peek(id string) (*domain.CatalogBook, bool) {
	return c.memo.Get(strings.TrimSpace(id))
}

// Forget drops id from the memo and the persistent tier, so the next Get refetches.
func (c *Cache) Forget(ctx context.Context, id string) {
	id = strings.TrimSpace(id)
	c.memo.Del(id)
	c.memo.Wait()

	if c.persist != nil {
		if err := c.persist.DeleteCachedBook(ctx, id); err != nil {
			c.logger.Warn("failed to drop cached book",
				"error", err,
				"catalog_id", id,
			)
		}
	}
}
