package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/domain"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List collections",
		Description: "Returns the caller's collections",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections",
		Summary:       "Create collection",
		Description:   "Creates a named collection from at least one book already in the caller's library",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookToCollection",
		Method:      http.MethodPost,
		Path:        "/api/v1/collections/{id}/books",
		Summary:     "Add book to collection",
		Description: "Adds the book to the library if needed, then to the collection. A failed library step is reported as PREREQUISITE_FAILED; a failed add keeps its own code. Both carry the step in details.",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddBookToCollection)
}

// === DTOs ===

// CollectionResponse is a collection in API responses.
type CollectionResponse struct {
	ID          int64  `json:"id" doc:"Collection ID"`
	Name        string `json:"name" doc:"Collection name"`
	MemberCount int    `json:"member_count" doc:"Number of books"`
}

// CollectionsResponse lists collections.
type CollectionsResponse struct {
	Collections []CollectionResponse `json:"collections" doc:"The caller's collections"`
}

// CreateCollectionRequest is the request body for creating a collection.
type CreateCollectionRequest struct {
	Name    string   `json:"name,omitempty" doc:"Collection name"`
	BookIDs []string `json:"book_ids,omitempty" doc:"Catalog IDs of library books to include"`
}

// CreateCollectionInput wraps the create request for Huma.
type CreateCollectionInput struct {
	Body CreateCollectionRequest
}

// AddBookRequest is the request body for adding a book to a collection.
type AddBookRequest struct {
	CatalogID string `json:"catalog_id,omitempty" doc:"Catalog ID of the book"`
}

// AddBookInput contains parameters for adding a book to a collection.
type AddBookInput struct {
	ID   int64 `path:"id" doc:"Collection ID"`
	Body AddBookRequest
}

// CollectionsOutput wraps the collection list for Huma.
type CollectionsOutput struct {
	Body CollectionsResponse
}

// CollectionOutput wraps a single collection for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// === Handlers ===

func (s *Server) handleListCollections(ctx context.Context, _ *struct{}) (*CollectionsOutput, error) {
	collections, err := s.services.Collections.Collections(ctx, currentSession(ctx))
	if err != nil {
		return nil, err
	}

	resp := CollectionsResponse{Collections: make([]CollectionResponse, len(collections))}
	for i := range collections {
		resp.Collections[i] = toCollectionResponse(&collections[i])
	}
	return &CollectionsOutput{Body: resp}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	created, err := s.services.Collections.CreateCollection(ctx, currentSession(ctx), input.Body.Name, input.Body.BookIDs)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: toCollectionResponse(created)}, nil
}

func (s *Server) handleAddBookToCollection(ctx context.Context, input *AddBookInput) (*EntryOutput, error) {
	entry, err := s.services.Collections.AddBookToCollection(ctx, currentSession(ctx), input.ID, input.Body.CatalogID)
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: toEntryResponse(entry)}, nil
}

func toCollectionResponse(c *domain.Collection) CollectionResponse {
	return CollectionResponse{
		ID:          c.ID,
		Name:        c.Name,
		MemberCount: c.MemberCount,
	}
}
