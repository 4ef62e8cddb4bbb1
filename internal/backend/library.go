package backend

import (
	"context"
	"net/http"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/session"
)

// ListEntries returns the user's library.
func (c *Client) ListEntries(ctx context.Context, sess *session.Session) ([]domain.LibraryEntry, error) {
	var raw []rawMyBook
	err := c.do(ctx, call{
		op:     "listEntries",
		method: http.MethodGet,
		path:   "/api/me/books",
		sess:   sess,
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LibraryEntry, 0, len(raw))
	for i := range raw {
		entry, err := raw[i].toDomain()
		if err != nil {
			return nil, wrapError("listEntries", http.StatusOK, err)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// UpsertEntry adds book to the user's library with status. When the backend
// does not echo the stored entry, the library is re-read to learn its BookID.
func (c *Client) UpsertEntry(ctx context.Context, sess *session.Session, book *domain.CatalogBook, status domain.Status) (*domain.LibraryEntry, error) {
	var raw rawMyBook
	err := c.do(ctx, call{
		op:     "upsertEntry",
		method: http.MethodPost,
		path:   "/api/me/books",
		sess:   sess,
		body: addBookRequest{
			GoogleID:      book.ID,
			Title:         book.Title,
			Author:        book.Author,
			CoverURL:      book.CoverURL,
			Description:   book.SourceDescription(),
			Categories:    nonNil(book.Categories),
			PublishedYear: book.PublishedYear,
			PageCount:     book.PageCount,
			Maturity:      book.Maturity.String(),
			Status:        status.String(),
		},
		out: &raw,
	})
	if err != nil {
		return nil, err
	}

	if raw.BookID != 0 {
		if raw.GoogleID == "" {
			raw.GoogleID = book.ID
		}
		if raw.Status == "" {
			raw.Status = status.String()
		}
		entry, err := raw.toDomain()
		if err != nil {
			return nil, wrapError("upsertEntry", http.StatusOK, err)
		}
		return entry, nil
	}

	entries, err := c.ListEntries(ctx, sess)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].CatalogID == book.ID {
			return &entries[i], nil
		}
	}
	return nil, wrapError("upsertEntry", http.StatusOK,
		domainerrors.Internal("book was accepted but is missing from the library"))
}

// SetStatus changes the status of an existing library entry.
func (c *Client) SetStatus(ctx context.Context, sess *session.Session, bookID int64, status domain.Status) error {
	return c.do(ctx, call{
		op:     "setStatus",
		method: http.MethodPatch,
		path:   "/api/me/books/status",
		sess:   sess,
		body:   changeStatusRequest{BookID: bookID, Status: status.String()},
	})
}
