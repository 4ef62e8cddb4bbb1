package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/catalog"
	"github.com/listenupapp/readtrack/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search catalog",
		Description: "Searches the external catalog. Summary hits are resolved on demand through the book endpoint.",
		Tags:        []string{"Catalog"},
	}, s.handleSearchCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFeeds",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/discover",
		Summary:     "List discovery feeds",
		Description: "Returns the names of the curated searches",
		Tags:        []string{"Catalog"},
	}, s.handleListFeeds)

	huma.Register(s.api, huma.Operation{
		OperationID: "discoverCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/discover/{feed}",
		Summary:     "Run discovery feed",
		Description: "Runs a named curated search",
		Tags:        []string{"Catalog"},
	}, s.handleDiscover)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalogBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/books/{id}",
		Summary:     "Get book",
		Description: "Returns the full catalog record. Signed-in callers also get their library entry, if any.",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}, {}},
	}, s.handleGetBook)
}

// === DTOs ===

// BookResponse is a catalog record in API responses.
type BookResponse struct {
	ID            string   `json:"id" doc:"Catalog ID"`
	Title         string   `json:"title" doc:"Title"`
	Author        string   `json:"author" doc:"Comma-joined authors"`
	CoverURL      string   `json:"cover_url,omitempty" doc:"Cover image URL"`
	Description   string   `json:"description,omitempty" doc:"Description in Markdown"`
	Categories    []string `json:"categories,omitempty" doc:"Catalog categories"`
	PublishedYear int      `json:"published_year,omitempty" doc:"Year of publication"`
	PageCount     int      `json:"page_count,omitempty" doc:"Number of pages"`
	Maturity      string   `json:"maturity" enum:"NOT_MATURE,MATURE" doc:"Content rating"`
}

// SearchHitResponse is one search result.
type SearchHitResponse struct {
	Book BookResponse `json:"book" doc:"Book, possibly a summary"`
	Full bool         `json:"full" doc:"False when only a summary was returned"`
}

// SearchResponse contains search results in API responses.
type SearchResponse struct {
	Query string              `json:"query" doc:"Normalized query"`
	Hits  []SearchHitResponse `json:"hits" doc:"Results in catalog order"`
}

// BookDetailResponse is a book plus the caller's library entry.
type BookDetailResponse struct {
	Book  BookResponse   `json:"book" doc:"Full catalog record"`
	Entry *EntryResponse `json:"entry,omitempty" doc:"Caller's library entry, absent when not in the library"`
}

// FeedsResponse lists the curated searches.
type FeedsResponse struct {
	Feeds []string `json:"feeds" doc:"Feed names"`
}

// SearchCatalogInput contains parameters for searching the catalog.
type SearchCatalogInput struct {
	Query string `query:"q" doc:"Search query"`
	Limit int    `query:"limit" doc:"Maximum hits (default 20, max 40)"`
}

// DiscoverInput contains parameters for running a feed.
type DiscoverInput struct {
	Feed string `path:"feed" doc:"Feed name"`
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Catalog ID"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// FeedsOutput wraps the feed list for Huma.
type FeedsOutput struct {
	Body FeedsResponse
}

// BookDetailOutput wraps the book response for Huma.
type BookDetailOutput struct {
	Body BookDetailResponse
}

// === Handlers ===

func (s *Server) handleSearchCatalog(ctx context.Context, input *SearchCatalogInput) (*SearchOutput, error) {
	hits, err := s.services.Catalog.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{
		Body: SearchResponse{
			Query: catalog.NormalizeQuery(input.Query),
			Hits:  toHitResponses(hits),
		},
	}, nil
}

func (s *Server) handleListFeeds(_ context.Context, _ *struct{}) (*FeedsOutput, error) {
	return &FeedsOutput{Body: FeedsResponse{Feeds: s.services.Catalog.Feeds()}}, nil
}

func (s *Server) handleDiscover(ctx context.Context, input *DiscoverInput) (*SearchOutput, error) {
	hits, err := s.services.Catalog.Discover(ctx, input.Feed)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{
		Body: SearchResponse{
			Query: input.Feed,
			Hits:  toHitResponses(hits),
		},
	}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookDetailOutput, error) {
	book, err := s.services.Catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := BookDetailResponse{Book: toBookResponse(book)}

	if sess := currentSession(ctx); sess.Authenticated() && s.services.Library != nil {
		entry, err := s.services.Library.Entry(ctx, sess, book.ID)
		if err != nil {
			// The book is what was asked for; the entry is a decoration.
			s.logger.WarnContext(ctx, "library lookup failed",
				"catalog_id", book.ID,
				"error", err,
			)
		} else if entry != nil {
			e := toEntryResponse(entry)
			resp.Entry = &e
		}
	}

	return &BookDetailOutput{Body: resp}, nil
}

// === Conversions ===

func toBookResponse(b *domain.CatalogBook) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		CoverURL:      b.CoverURL,
		Description:   b.Description,
		Categories:    b.Categories,
		PublishedYear: b.PublishedYear,
		PageCount:     b.PageCount,
		Maturity:      b.Maturity.String(),
	}
}

func toHitResponses(hits []domain.SearchHit) []SearchHitResponse {
	out := make([]SearchHitResponse, len(hits))
	for i := range hits {
		out[i] = SearchHitResponse{
			Book: toBookResponse(&hits[i].Book),
			Full: hits[i].Full,
		}
	}
	return out
}
