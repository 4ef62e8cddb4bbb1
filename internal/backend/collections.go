package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/session"
)

// ListCollections returns the user's collections.
func (c *Client) ListCollections(ctx context.Context, sess *session.Session) ([]domain.Collection, error) {
	var raw []rawCollection
	err := c.do(ctx, call{
		op:     "listCollections",
		method: http.MethodGet,
		path:   "/api/me/collections",
		sess:   sess,
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}

	collections := make([]domain.Collection, len(raw))
	for i := range raw {
		collections[i] = raw[i].toDomain()
	}
	return collections, nil
}

// CreateCollection creates a collection holding the given library books,
// identified by their BookID. If the backend does not echo the created
// collection, it is looked up by name.
func (c *Client) CreateCollection(ctx context.Context, sess *session.Session, name string, bookIDs []int64) (*domain.Collection, error) {
	var raw rawCollection
	err := c.do(ctx, call{
		op:     "createCollection",
		method: http.MethodPost,
		path:   "/api/me/collections",
		sess:   sess,
		body:   createCollectionRequest{Name: name, BookIDs: bookIDs},
		out:    &raw,
	})
	if err != nil {
		return nil, err
	}
	if raw.ID != 0 {
		created := raw.toDomain()
		if created.MemberCount == 0 {
			created.MemberCount = len(bookIDs)
		}
		return &created, nil
	}

	collections, err := c.ListCollections(ctx, sess)
	if err != nil {
		return nil, err
	}
	for i := range collections {
		if collections[i].Name == name {
			return &collections[i], nil
		}
	}
	return &domain.Collection{Name: name, MemberCount: len(bookIDs)}, nil
}

// AddMembers adds catalog books to a collection.
func (c *Client) AddMembers(ctx context.Context, sess *session.Session, collectionID int64, catalogIDs []string) error {
	return c.do(ctx, call{
		op:         "addMembers",
		method:     http.MethodPost,
		path:       "/api/me/collections/add-books",
		sess:       sess,
		body:       addBooksRequest{CollectionID: collectionID, GoogleIDs: catalogIDs},
		notFoundID: "collection " + strconv.FormatInt(collectionID, 10),
	})
}
