package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/account"
	"github.com/listenupapp/readtrack/internal/catalog"
	"github.com/listenupapp/readtrack/internal/collection"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/http/response"
	"github.com/listenupapp/readtrack/internal/library"
	"github.com/listenupapp/readtrack/internal/review"
	"github.com/listenupapp/readtrack/internal/sequencer"
	"github.com/listenupapp/readtrack/internal/session"
	"github.com/listenupapp/readtrack/internal/stats"
	"github.com/listenupapp/readtrack/internal/store"
	"github.com/listenupapp/readtrack/internal/validation"
)

const testToken = "tok-7"

type testServer struct {
	server  *Server
	backend *fakeBackend
}

// setupTestServer wires the real core components to an in-memory backend.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	backend := newFakeBackend()

	st, err := store.New("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cache, err := catalog.New(backend, catalog.Options{
		Feeds:     catalog.DefaultFeeds(),
		Persister: st,
	}, nil)
	require.NoError(t, err)

	resolver, err := session.NewResolver(backend, time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(resolver.Close)

	seq := sequencer.New(nil)
	v := validation.New()
	lib := library.NewMachine(backend, cache, nil)

	services := &Services{
		Catalog:     cache,
		Library:     lib,
		Collections: collection.NewService(backend, lib, seq, v, nil),
		Reviews:     review.NewAggregator(backend, lib, seq, v, nil),
		Stats:       stats.NewService(backend, nil),
		Accounts:    account.NewService(backend, resolver, v, nil),
		Store:       st,
	}

	server := NewServer(services, resolver, opts, nil)
	t.Cleanup(server.Close)

	return &testServer{server: server, backend: backend}
}

type testEnvelope struct {
	Version int                 `json:"v"`
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.ServeHTTP(w, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	assert.Equal(t, response.EnvelopeVersion, env.Version)
	return w, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	require.True(t, env.Success, "expected success, got error %+v", env.Error)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func requireFailure(t *testing.T, w *httptest.ResponseRecorder, env testEnvelope, status int, code domainerrors.Code) {
	t.Helper()
	assert.Equal(t, status, w.Code, "body: %s", w.Body.String())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(code), env.Error.Code)
}

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	health := decodeData[HealthResponse](t, env)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.Equal(t, "healthy", health.Components["cache"].Status)
	assert.Equal(t, "0 books cached", health.Components["cache"].Message)
}

func TestHealthCheck_DegradedWithoutStore(t *testing.T) {
	server := NewServer(&Services{}, nil, Options{}, nil)
	ts := &testServer{server: server}

	_, env := ts.do(t, http.MethodGet, "/health", "", nil)

	health := decodeData[HealthResponse](t, env)
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "degraded", health.Components["cache"].Status)
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, _ := ts.do(t, http.MethodGet, "/health", "", nil)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodGet, "/api/v1/nope", "", nil)

	requireFailure(t, w, env, http.StatusNotFound, domainerrors.CodeNotFound)
}

func TestSearchCatalog(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodGet, "/api/v1/catalog/search?q=%20%20dUn%20&limit=5", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeData[SearchResponse](t, env)
	assert.Equal(t, "dUn", resp.Query)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "dune", resp.Hits[0].Book.ID)
	assert.Equal(t, "NOT_MATURE", resp.Hits[0].Book.Maturity)
	assert.True(t, resp.Hits[0].Full)
}

func TestSearchCatalog_EmptyQuery(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodGet, "/api/v1/catalog/search?q=%20", "", nil)

	resp := decodeData[SearchResponse](t, env)
	assert.Empty(t, resp.Hits)
	assert.NotNil(t, resp.Hits)
}

func TestSearchCatalog_TransientFailure(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.backend.searchErr = domainerrors.Transientf("catalog unavailable")

	w, env := ts.do(t, http.MethodGet, "/api/v1/catalog/search?q=dune", "", nil)

	requireFailure(t, w, env, http.StatusServiceUnavailable, domainerrors.CodeTransient)
}

func TestDiscover(t *testing.T) {
	ts := setupTestServer(t, Options{})

	t.Run("feeds", func(t *testing.T) {
		_, env := ts.do(t, http.MethodGet, "/api/v1/catalog/discover", "", nil)
		resp := decodeData[FeedsResponse](t, env)
		assert.Equal(t, []string{"for-you", "top-week"}, resp.Feeds)
	})

	t.Run("unknown feed", func(t *testing.T) {
		w, env := ts.do(t, http.MethodGet, "/api/v1/catalog/discover/nope", "", nil)
		requireFailure(t, w, env, http.StatusNotFound, domainerrors.CodeNotFound)
	})
}

func TestGetBook(t *testing.T) {
	ts := setupTestServer(t, Options{})

	t.Run("anonymous", func(t *testing.T) {
		_, env := ts.do(t, http.MethodGet, "/api/v1/catalog/books/dune", "", nil)
		resp := decodeData[BookDetailResponse](t, env)
		assert.Equal(t, "Dune", resp.Book.Title)
		assert.Nil(t, resp.Entry)
	})

	t.Run("not found", func(t *testing.T) {
		w, env := ts.do(t, http.MethodGet, "/api/v1/catalog/books/missing", "", nil)
		requireFailure(t, w, env, http.StatusNotFound, domainerrors.CodeNotFound)
	})

	t.Run("with library entry", func(t *testing.T) {
		w, _ := ts.do(t, http.MethodPost, "/api/v1/library/dune", testToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		_, env := ts.do(t, http.MethodGet, "/api/v1/catalog/books/dune", testToken, nil)
		resp := decodeData[BookDetailResponse](t, env)
		require.NotNil(t, resp.Entry)
		assert.Equal(t, "planned", resp.Entry.Status)
	})
}

func TestLibrary_RequiresSession(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"list anonymous", http.MethodGet, "/api/v1/library", "", nil},
		{"list with unknown token", http.MethodGet, "/api/v1/library", "bogus", nil},
		{"ensure anonymous", http.MethodPost, "/api/v1/library/dune", "", nil},
		{"status anonymous", http.MethodPut, "/api/v1/library/dune/status", "", SetStatusRequest{Status: "nonsense"}},
		{"stats anonymous", http.MethodGet, "/api/v1/stats", "", nil},
		{"collections anonymous", http.MethodGet, "/api/v1/collections", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, tt.method, tt.path, tt.token, tt.body)
			requireFailure(t, w, env, http.StatusUnauthorized, domainerrors.CodeAuthRequired)
		})
	}
}

type failingResolver struct {
	err error
}

func (r failingResolver) Resolve(context.Context, string) (*session.Session, error) {
	return nil, r.err
}

func TestAuth_IdentityFailurePropagates(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.server = NewServer(ts.server.services, failingResolver{err: domainerrors.Transient(context.DeadlineExceeded)}, Options{}, nil)
	t.Cleanup(ts.server.Close)

	w, env := ts.do(t, http.MethodPost, "/api/v1/books/dune/reviews", testToken, SubmitReviewRequest{Rating: 5, Text: "Great"})

	requireFailure(t, w, env, http.StatusServiceUnavailable, domainerrors.CodeTransient)
	assert.Empty(t, ts.backend.entries)
	assert.Empty(t, ts.backend.reviews)

	// Without a token the identity service is never asked.
	_, env = ts.do(t, http.MethodGet, "/api/v1/catalog/books/dune", "", nil)
	assert.True(t, env.Success)
}

func TestLibrary_EnsureAndSetStatus(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodPost, "/api/v1/library/dune", testToken, EnsureInLibraryRequest{Status: "reading"})
	entry := decodeData[EntryResponse](t, env)
	assert.Equal(t, int64(1), entry.BookID)
	assert.Equal(t, "reading", entry.Status)

	// A second ensure leaves the status alone.
	_, env = ts.do(t, http.MethodPost, "/api/v1/library/dune", testToken, EnsureInLibraryRequest{Status: "dropped"})
	entry = decodeData[EntryResponse](t, env)
	assert.Equal(t, "reading", entry.Status)

	_, env = ts.do(t, http.MethodPut, "/api/v1/library/dune/status", testToken, SetStatusRequest{Status: "finished"})
	entry = decodeData[EntryResponse](t, env)
	assert.Equal(t, "finished", entry.Status)

	// Setting a status on a book not yet in the library adds it.
	_, env = ts.do(t, http.MethodPut, "/api/v1/library/emma/status", testToken, SetStatusRequest{Status: "reading"})
	entry = decodeData[EntryResponse](t, env)
	assert.Equal(t, int64(2), entry.BookID)

	_, env = ts.do(t, http.MethodGet, "/api/v1/library", testToken, nil)
	lib := decodeData[LibraryResponse](t, env)
	require.Len(t, lib.Entries, 2)
	assert.Equal(t, "dune", lib.Entries[0].CatalogID)
	assert.Equal(t, "finished", lib.Entries[0].Status)
	assert.Equal(t, "reading", lib.Entries[1].Status)
	assert.Empty(t, lib.Collections)
}

func TestLibrary_InvalidStatus(t *testing.T) {
	ts := setupTestServer(t, Options{})

	for _, status := range []string{"", "someday"} {
		w, env := ts.do(t, http.MethodPut, "/api/v1/library/dune/status", testToken, SetStatusRequest{Status: status})
		requireFailure(t, w, env, http.StatusBadRequest, domainerrors.CodeValidation)
		assert.Equal(t, "status", env.Error.Field)
	}
	assert.Empty(t, ts.backend.entries)
}

func TestLibrary_EnsureUnknownBook(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodPost, "/api/v1/library/missing", testToken, nil)

	requireFailure(t, w, env, http.StatusFailedDependency, domainerrors.CodePrerequisiteFailed)
	assert.Empty(t, ts.backend.entries)
}

func TestCollections_CreateAndAddBook(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.do(t, http.MethodPost, "/api/v1/library/emma", testToken, nil)

	w, env := ts.do(t, http.MethodPost, "/api/v1/collections", testToken, CreateCollectionRequest{
		Name:    "  Summer  ",
		BookIDs: []string{"emma", "emma"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[CollectionResponse](t, env)
	assert.Equal(t, "Summer", created.Name)
	assert.Equal(t, 1, created.MemberCount)
	assert.Equal(t, [][]int64{{1}}, ts.backend.createdBookIDs, "created from library book ids")

	w, env = ts.do(t, http.MethodPost, "/api/v1/collections/1/books", testToken, AddBookRequest{CatalogID: "dune"})
	assert.Equal(t, http.StatusOK, w.Code)
	entry := decodeData[EntryResponse](t, env)
	assert.Equal(t, "dune", entry.CatalogID)
	assert.Equal(t, "planned", entry.Status)
	assert.Contains(t, entry.Collections, "Summer")

	_, env = ts.do(t, http.MethodGet, "/api/v1/library?collection=Summer", testToken, nil)
	lib := decodeData[LibraryResponse](t, env)
	require.Len(t, lib.Entries, 2)
	assert.Equal(t, []string{"Summer"}, lib.Collections)

	_, env = ts.do(t, http.MethodGet, "/api/v1/collections", testToken, nil)
	list := decodeData[CollectionsResponse](t, env)
	require.Len(t, list.Collections, 1)
	assert.Equal(t, 2, list.Collections[0].MemberCount)
}

func TestCollections_Validation(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name  string
		req   CreateCollectionRequest
		field string
	}{
		{"blank name", CreateCollectionRequest{Name: "  ", BookIDs: []string{"dune"}}, "name"},
		{"no books", CreateCollectionRequest{Name: "Summer"}, "bookIds"},
		{"book outside library", CreateCollectionRequest{Name: "Summer", BookIDs: []string{"dune"}}, "bookIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPost, "/api/v1/collections", testToken, tt.req)
			requireFailure(t, w, env, http.StatusBadRequest, domainerrors.CodeValidation)
			assert.Equal(t, tt.field, env.Error.Field)
		})
	}
	assert.Empty(t, ts.backend.collections)
	assert.Empty(t, ts.backend.entries, "creating a collection never adds books to the library")
}

func TestCollections_DuplicateName(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.do(t, http.MethodPost, "/api/v1/library/dune", testToken, nil)
	req := CreateCollectionRequest{Name: "Summer", BookIDs: []string{"dune"}}

	w, _ := ts.do(t, http.MethodPost, "/api/v1/collections", testToken, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := ts.do(t, http.MethodPost, "/api/v1/collections", testToken, req)
	requireFailure(t, w, env, http.StatusConflict, domainerrors.CodeConflict)
}

func TestCollections_AddBookStepFailures(t *testing.T) {
	t.Run("library step", func(t *testing.T) {
		ts := setupTestServer(t, Options{})

		w, env := ts.do(t, http.MethodPost, "/api/v1/collections/1/books", testToken, AddBookRequest{CatalogID: "missing"})

		requireFailure(t, w, env, http.StatusFailedDependency, domainerrors.CodePrerequisiteFailed)
		details, ok := env.Error.Details.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 1, details["step"])
		assert.Equal(t, collection.StepEnsureInLibrary, details["step_name"])
		assert.Equal(t, string(domainerrors.CodePrerequisiteFailed), details["cause_code"])
	})

	t.Run("add step keeps library entry", func(t *testing.T) {
		ts := setupTestServer(t, Options{})
		ts.backend.addMembersErr = domainerrors.Conflict("already a member")

		w, env := ts.do(t, http.MethodPost, "/api/v1/collections/1/books", testToken, AddBookRequest{CatalogID: "dune"})

		requireFailure(t, w, env, http.StatusConflict, domainerrors.CodeConflict)
		details, ok := env.Error.Details.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 2, details["step"])
		assert.Equal(t, collection.StepAddToCollection, details["step_name"])
		assert.Equal(t, string(domainerrors.CodeConflict), details["cause_code"])
		require.Len(t, ts.backend.entries, 1)
		assert.Equal(t, "dune", ts.backend.entries[0].CatalogID)
	})

	t.Run("unknown collection is not a prerequisite failure", func(t *testing.T) {
		ts := setupTestServer(t, Options{})

		w, env := ts.do(t, http.MethodPost, "/api/v1/collections/99/books", testToken, AddBookRequest{CatalogID: "dune"})

		requireFailure(t, w, env, http.StatusNotFound, domainerrors.CodeNotFound)
		details, ok := env.Error.Details.(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 2, details["step"])
		assert.Equal(t, collection.StepAddToCollection, details["step_name"])
		assert.Equal(t, string(domainerrors.CodeNotFound), details["cause_code"])
		require.Len(t, ts.backend.entries, 1)
	})
}

func TestCollections_InvalidPathID(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodPost, "/api/v1/collections/abc/books", testToken, AddBookRequest{CatalogID: "dune"})

	requireFailure(t, w, env, http.StatusUnprocessableEntity, domainerrors.CodeValidation)
}

func TestReviews_SubmitAndList(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodPost, "/api/v1/books/dune/reviews", testToken, SubmitReviewRequest{Rating: 4, Text: "  Great  "})
	assert.Equal(t, http.StatusCreated, w.Code)
	saved := decodeData[ReviewResponse](t, env)
	assert.Equal(t, "Great", saved.Text)
	assert.Equal(t, "Reader", saved.AuthorLabel)

	ts.do(t, http.MethodPost, "/api/v1/books/dune/reviews", testToken, SubmitReviewRequest{Rating: 2, Text: "Slow"})

	// Reviewing adds the book to the library.
	require.Len(t, ts.backend.entries, 1)
	assert.Equal(t, "dune", ts.backend.entries[0].CatalogID)

	_, env = ts.do(t, http.MethodGet, "/api/v1/books/dune/reviews", "", nil)
	summary := decodeData[ReviewSummaryResponse](t, env)
	require.Equal(t, 2, summary.Count)
	assert.Equal(t, "Slow", summary.Reviews[0].Text)
	assert.InDelta(t, 3.0, summary.Average, 0.0001)

	_, env = ts.do(t, http.MethodGet, "/api/v1/books/dune/reviews?refresh=true", "", nil)
	summary = decodeData[ReviewSummaryResponse](t, env)
	assert.Equal(t, 2, summary.Count)
}

func TestReviews_SubmitValidation(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		token  string
		req    SubmitReviewRequest
		status int
		code   domainerrors.Code
		field  string
	}{
		{"anonymous", "", SubmitReviewRequest{Rating: 0, Text: ""}, http.StatusUnauthorized, domainerrors.CodeAuthRequired, ""},
		{"missing rating", testToken, SubmitReviewRequest{Text: "Fine"}, http.StatusBadRequest, domainerrors.CodeValidation, "rating"},
		{"rating too high", testToken, SubmitReviewRequest{Rating: 6, Text: "Fine"}, http.StatusBadRequest, domainerrors.CodeValidation, "rating"},
		{"blank text", testToken, SubmitReviewRequest{Rating: 3, Text: "   "}, http.StatusBadRequest, domainerrors.CodeValidation, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPost, "/api/v1/books/dune/reviews", tt.token, tt.req)
			requireFailure(t, w, env, tt.status, tt.code)
			assert.Equal(t, tt.field, env.Error.Field)
		})
	}
	assert.Empty(t, ts.backend.entries)
	assert.Empty(t, ts.backend.reviews)
}

func TestStats(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodGet, "/api/v1/stats", testToken, nil)

	resp := decodeData[StatsResponse](t, env)
	assert.Equal(t, []string{"History", "Fiction"}, resp.Genres)
	assert.Equal(t, []string{"2024-01", "2024-02"}, resp.Months)
	assert.Equal(t, 5, resp.GenreCounts["History"])
}

func TestServer_RateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{RequestsPerMinute: 1})

	w, _ := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := ts.do(t, http.MethodGet, "/health", "", nil)
	requireFailure(t, w, env, http.StatusTooManyRequests, domainerrors.CodeTransient)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestServer_CORS(t *testing.T) {
	ts := setupTestServer(t, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/library", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	ts.server.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestAccount_LoginAndMe(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "reader@example.com", Password: "secret"})
	auth := decodeData[AuthResponse](t, env)
	assert.Equal(t, testToken, auth.Token)
	assert.Equal(t, int64(7), auth.User.ID)

	_, env = ts.do(t, http.MethodGet, "/api/v1/me", auth.Token, nil)
	me := decodeData[UserResponse](t, env)
	assert.Equal(t, UserResponse{ID: 7, Email: "reader@example.com", Name: "Reader"}, me)
}

func TestAccount_LoginFailures(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "reader@example.com", Password: "wrong"})
	requireFailure(t, w, env, http.StatusUnauthorized, domainerrors.CodeAuthRequired)

	w, env = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "not-an-email", Password: "secret"})
	requireFailure(t, w, env, http.StatusBadRequest, domainerrors.CodeValidation)
	assert.Equal(t, "email", env.Error.Field)
}

func TestAccount_Register(t *testing.T) {
	ts := setupTestServer(t, Options{})

	w, env := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "pw"})
	assert.Equal(t, http.StatusCreated, w.Code)
	auth := decodeData[AuthResponse](t, env)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, account.DefaultName, auth.User.Name)

	// The new token works right away.
	_, env = ts.do(t, http.MethodGet, "/api/v1/me", auth.Token, nil)
	assert.Equal(t, "new@example.com", decodeData[UserResponse](t, env).Email)

	w, env = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "pw"})
	requireFailure(t, w, env, http.StatusConflict, domainerrors.CodeConflict)
}

func TestAccount_UpdateProfile(t *testing.T) {
	ts := setupTestServer(t, Options{})

	// Resolve and cache the session first.
	_, env := ts.do(t, http.MethodGet, "/api/v1/me", testToken, nil)
	assert.Equal(t, "Reader", decodeData[UserResponse](t, env).Name)

	w, env := ts.do(t, http.MethodPatch, "/api/v1/me/profile", testToken, UpdateProfileRequest{Name: "  Avid Reader "})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Avid Reader", decodeData[UserResponse](t, env).Name)

	_, env = ts.do(t, http.MethodGet, "/api/v1/me", testToken, nil)
	assert.Equal(t, "Avid Reader", decodeData[UserResponse](t, env).Name)

	w, env = ts.do(t, http.MethodPatch, "/api/v1/me/profile", testToken, UpdateProfileRequest{Name: " "})
	requireFailure(t, w, env, http.StatusBadRequest, domainerrors.CodeValidation)
	assert.Equal(t, "name", env.Error.Field)
}

func TestAccount_ChangePassword(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodPatch, "/api/v1/me/password", testToken, ChangePasswordRequest{Password: "better"})
	assert.True(t, decodeData[PasswordChangedResponse](t, env).Changed)

	w, env := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "reader@example.com", Password: "secret"})
	requireFailure(t, w, env, http.StatusUnauthorized, domainerrors.CodeAuthRequired)

	_, env = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "reader@example.com", Password: "better"})
	assert.Equal(t, testToken, decodeData[AuthResponse](t, env).Token)
}

func TestAccount_RequiresSession(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"me", http.MethodGet, "/api/v1/me", nil},
		{"profile", http.MethodPatch, "/api/v1/me/profile", UpdateProfileRequest{Name: "X"}},
		{"password", http.MethodPatch, "/api/v1/me/password", ChangePasswordRequest{Password: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, tt.method, tt.path, "", tt.body)
			requireFailure(t, w, env, http.StatusUnauthorized, domainerrors.CodeAuthRequired)
		})
	}
}
