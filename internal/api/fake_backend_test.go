package api

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/session"
)

// fakeBackend is an in-memory stand-in for the remote catalog and the
// reading-tracker backend. It serves a single user's data.
type fakeBackend struct {
	mu sync.Mutex

	books       map[string]*domain.CatalogBook
	users       map[string]*domain.User // by token
	passwords   map[string]string       // by email
	entries     []domain.LibraryEntry
	collections []domain.Collection
	reviews     map[string][]domain.Review
	stats       *domain.AggregateStats

	searchErr      error
	addMembersErr  error
	createdBookIDs [][]int64
	nextReview     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		books: map[string]*domain.CatalogBook{
			"dune": {ID: "dune", Title: "Dune", Author: "Frank Herbert", Categories: []string{"Fiction"}},
			"emma": {ID: "emma", Title: "Emma", Author: "Jane Austen", Maturity: domain.MaturityNotMature},
		},
		users: map[string]*domain.User{
			"tok-7": {ID: 7, Email: "reader@example.com", Name: "Reader"},
		},
		passwords: map[string]string{"reader@example.com": "secret"},
		reviews:   make(map[string][]domain.Review),
		stats: &domain.AggregateStats{
			GenreCounts: map[string]int{"Fiction": 3, "History": 5},
			MonthCounts: map[string]int{"2024-02": 1, "2024-01": 2},
		},
	}
}

func (f *fakeBackend) Search(_ context.Context, query string, limit int) ([]domain.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var hits []domain.SearchHit
	for _, b := range f.books {
		if strings.Contains(strings.ToLower(b.Title), strings.ToLower(query)) {
			hits = append(hits, domain.SearchHit{Book: *b, Full: true})
		}
	}
	slices.SortFunc(hits, func(a, b domain.SearchHit) int { return strings.Compare(a.Book.ID, b.Book.ID) })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeBackend) Get(_ context.Context, id string) (*domain.CatalogBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, domainerrors.NotFound(id)
	}
	book := *b
	return &book, nil
}

func (f *fakeBackend) Me(_ context.Context, token string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[token]
	if !ok {
		return nil, domainerrors.AuthRequired("invalid token")
	}
	user := *u
	return &user, nil
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (*domain.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.passwords[email]; !ok || stored != password {
		return nil, domainerrors.AuthRequired("invalid credentials")
	}
	for token, u := range f.users {
		if u.Email == email {
			return &domain.AuthResult{Token: token, User: *u}, nil
		}
	}
	return nil, domainerrors.AuthRequired("invalid credentials")
}

func (f *fakeBackend) Register(_ context.Context, email, password, name string) (*domain.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[email]; ok {
		return nil, domainerrors.Conflict("email already registered")
	}
	id := int64(100 + len(f.users))
	token := "tok-" + strconv.FormatInt(id, 10)
	f.users[token] = &domain.User{ID: id, Email: email, Name: name}
	f.passwords[email] = password
	return &domain.AuthResult{Token: token, User: *f.users[token]}, nil
}

func (f *fakeBackend) UpdateName(_ context.Context, sess *session.Session, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[sess.Token]
	if !ok {
		return domainerrors.AuthRequired("invalid token")
	}
	updated := *u
	updated.Name = name
	f.users[sess.Token] = &updated
	return nil
}

func (f *fakeBackend) ChangePassword(_ context.Context, sess *session.Session, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[sess.Email] = password
	return nil
}

func (f *fakeBackend) ListEntries(context.Context, *session.Session) ([]domain.LibraryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.LibraryEntry, len(f.entries))
	for i := range f.entries {
		out[i] = *f.entries[i].Clone()
	}
	return out, nil
}

func (f *fakeBackend) UpsertEntry(_ context.Context, _ *session.Session, book *domain.CatalogBook, status domain.Status) (*domain.LibraryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].CatalogID == book.ID {
			return f.entries[i].Clone(), nil
		}
	}
	entry := domain.LibraryEntry{
		BookID:      int64(len(f.entries) + 1),
		CatalogID:   book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Status:      status,
		Collections: []string{},
	}
	f.entries = append(f.entries, entry)
	return entry.Clone(), nil
}

func (f *fakeBackend) SetStatus(_ context.Context, _ *session.Session, bookID int64, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].BookID == bookID {
			f.entries[i].Status = status
			return nil
		}
	}
	return domainerrors.NotFoundf("book %d", bookID)
}

func (f *fakeBackend) ListCollections(context.Context, *session.Session) ([]domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.collections), nil
}

func (f *fakeBackend) CreateCollection(_ context.Context, _ *session.Session, name string, ids []int64) (*domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.collections {
		if c.Name == name {
			return nil, domainerrors.Conflict("collection already exists")
		}
	}
	f.createdBookIDs = append(f.createdBookIDs, ids)
	c := domain.Collection{ID: int64(len(f.collections) + 1), Name: name, MemberCount: len(ids)}
	f.collections = append(f.collections, c)
	return &c, nil
}

func (f *fakeBackend) AddMembers(_ context.Context, _ *session.Session, collectionID int64, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addMembersErr != nil {
		return f.addMembersErr
	}
	for i := range f.collections {
		if f.collections[i].ID == collectionID {
			f.collections[i].MemberCount += len(ids)
			return nil
		}
	}
	return domainerrors.NotFoundf("collection %d", collectionID)
}

func (f *fakeBackend) ListReviews(_ context.Context, catalogID string) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reviews[catalogID]), nil
}

func (f *fakeBackend) CreateReview(_ context.Context, sess *session.Session, catalogID string, rating int, text string) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextReview++
	r := domain.Review{
		ID:          "r" + strings.Repeat("x", f.nextReview),
		AuthorLabel: sess.Name,
		CreatedAt:   time.Date(2024, 3, 1, 12, f.nextReview, 0, 0, time.UTC),
		Rating:      rating,
		Text:        text,
	}
	f.reviews[catalogID] = append(f.reviews[catalogID], r)
	return &r, nil
}

func (f *fakeBackend) Stats(context.Context, *session.Session) (*domain.AggregateStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, nil
}
