package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/listenupapp/readtrack/internal/domain"
)

// Search queries the catalog. The query is passed through as given.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	var raw []rawBook
	err := c.do(ctx, call{
		op:     "search",
		method: http.MethodGet,
		path:   "/api/books/google",
		query:  url.Values{"q": {query}, "max": {strconv.Itoa(limit)}},
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(raw))
	for i := range raw {
		book, err := raw[i].toDomain()
		if err != nil {
			// One bad record should not sink the whole result page.
			c.logger.Warn("skipping malformed search hit",
				"catalog_id", raw[i].ID,
				"error", err,
			)
			continue
		}
		hits = append(hits, domain.SearchHit{Book: *book, Full: c.fullRecords})
	}
	return hits, nil
}

// Get fetches one catalog record.
func (c *Client) Get(ctx context.Context, id string) (*domain.CatalogBook, error) {
	var raw rawBook
	err := c.do(ctx, call{
		op:         "getBook",
		method:     http.MethodGet,
		path:       pathf("/api/books/google/%s", id),
		out:        &raw,
		notFoundID: id,
	})
	if err != nil {
		return nil, err
	}

	book, err := raw.toDomain()
	if err != nil {
		return nil, wrapError("getBook", http.StatusOK, err)
	}
	if book.ID == "" {
		book.ID = id
	}
	return book, nil
}
