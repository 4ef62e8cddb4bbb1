package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the caller's library entries, optionally filtered to one collection",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "ensureInLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/{catalogId}",
		Summary:     "Add book to library",
		Description: "Adds the book to the library if it is not there yet. An existing entry is returned unchanged.",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEnsureInLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "setLibraryStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/library/{catalogId}/status",
		Summary:     "Set reading status",
		Description: "Moves the book to the given status, adding it to the library first if needed",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetStatus)
}

// === DTOs ===

// EntryResponse is a library entry in API responses.
type EntryResponse struct {
	BookID      int64    `json:"book_id" doc:"Library book ID"`
	CatalogID   string   `json:"catalog_id" doc:"Catalog ID"`
	Title       string   `json:"title" doc:"Title"`
	Author      string   `json:"author" doc:"Author"`
	CoverURL    string   `json:"cover_url,omitempty" doc:"Cover image URL"`
	Status      string   `json:"status" enum:"planned,reading,finished,dropped" doc:"Reading status"`
	Collections []string `json:"collections" doc:"Names of the collections the entry belongs to"`
}

// LibraryResponse contains the caller's library in API responses.
type LibraryResponse struct {
	Entries     []EntryResponse `json:"entries" doc:"Entries ordered by book ID"`
	Collections []string        `json:"collections" doc:"All collection names used in the library"`
}

// ListLibraryInput contains parameters for listing the library.
type ListLibraryInput struct {
	Collection string `query:"collection" doc:"Only return entries in this collection"`
	Refresh    bool   `query:"refresh" doc:"Reload the library from the backend first"`
}

// EnsureInLibraryRequest is the optional request body for adding a book.
type EnsureInLibraryRequest struct {
	Status string `json:"status,omitempty" doc:"Status for a newly created entry (default planned)"`
}

// EnsureInLibraryInput contains parameters for adding a book.
type EnsureInLibraryInput struct {
	CatalogID string                  `path:"catalogId" doc:"Catalog ID"`
	Body      *EnsureInLibraryRequest `required:"false"`
}

// SetStatusRequest is the request body for changing status.
type SetStatusRequest struct {
	Status string `json:"status,omitempty" doc:"One of planned, reading, finished, dropped"`
}

// SetStatusInput contains parameters for changing status.
type SetStatusInput struct {
	CatalogID string `path:"catalogId" doc:"Catalog ID"`
	Body      SetStatusRequest
}

// LibraryOutput wraps the library response for Huma.
type LibraryOutput struct {
	Body LibraryResponse
}

// EntryOutput wraps a single entry for Huma.
type EntryOutput struct {
	Body EntryResponse
}

// === Handlers ===

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*LibraryOutput, error) {
	sess := currentSession(ctx)

	if input.Refresh {
		if _, err := s.services.Library.Refresh(ctx, sess); err != nil {
			return nil, err
		}
	}

	entries, err := s.services.Library.EntriesInCollection(ctx, sess, strings.TrimSpace(input.Collection))
	if err != nil {
		return nil, err
	}
	names, err := s.services.Library.CollectionNames(ctx, sess)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}

	resp := LibraryResponse{
		Entries:     make([]EntryResponse, len(entries)),
		Collections: names,
	}
	for i := range entries {
		resp.Entries[i] = toEntryResponse(&entries[i])
	}
	return &LibraryOutput{Body: resp}, nil
}

func (s *Server) handleEnsureInLibrary(ctx context.Context, input *EnsureInLibraryInput) (*EntryOutput, error) {
	var status domain.Status
	if input.Body != nil && input.Body.Status != "" {
		parsed, err := parseStatus(input.Body.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	entry, err := s.services.Library.EnsureInLibrary(ctx, currentSession(ctx), input.CatalogID, status)
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: toEntryResponse(entry)}, nil
}

func (s *Server) handleSetStatus(ctx context.Context, input *SetStatusInput) (*EntryOutput, error) {
	sess := currentSession(ctx)
	// Unauthenticated callers learn that before learning their body is wrong.
	if !sess.Authenticated() {
		return nil, domainerrors.AuthRequired("sign in to continue")
	}

	status, err := parseStatus(input.Body.Status)
	if err != nil {
		return nil, err
	}

	entry, err := s.services.Library.SetStatus(ctx, sess, input.CatalogID, status)
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: toEntryResponse(entry)}, nil
}

// === Conversions ===

func parseStatus(v string) (domain.Status, error) {
	if strings.TrimSpace(v) == "" {
		return 0, domainerrors.InvalidField("status", "status is required")
	}
	status, err := domain.ParseStatus(v)
	if err != nil {
		return 0, domainerrors.InvalidField("status", "status must be one of planned, reading, finished, dropped")
	}
	return status, nil
}

func toEntryResponse(e *domain.LibraryEntry) EntryResponse {
	collections := e.Collections
	if collections == nil {
		collections = []string{}
	}
	return EntryResponse{
		BookID:      e.BookID,
		CatalogID:   e.CatalogID,
		Title:       e.Title,
		Author:      e.Author,
		CoverURL:    e.CoverURL,
		Status:      e.Status.String(),
		Collections: collections,
	}
}
