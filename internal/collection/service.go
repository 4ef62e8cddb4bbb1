// Package collection manages the user's named collections and membership of
// library entries in them.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/sequencer"
	"github.com/listenupapp/readtrack/internal/session"
	"github.com/listenupapp/readtrack/internal/validation"
)

// Step names reported in sequenced failures.
const (
	StepEnsureInLibrary = "ensure-in-library"
	StepAddToCollection = "add-to-collection"
)

// Store is the remote collection store.
type Store interface {
	ListCollections(ctx context.Context, sess *session.Session) ([]domain.Collection, error)
	// CreateCollection takes library BookIDs, not catalog ids.
	CreateCollection(ctx context.Context, sess *session.Session, name string, bookIDs []int64) (*domain.Collection, error)
	AddMembers(ctx context.Context, sess *session.Session, collectionID int64, catalogIDs []string) error
}

// Library is the part of the library machine collections depend on.
// *library.Machine implements it.
type Library interface {
	EnsureInLibrary(ctx context.Context, sess *session.Session, catalogID string, defaultStatus domain.Status) (*domain.LibraryEntry, error)
	Entry(ctx context.Context, sess *session.Session, catalogID string) (*domain.LibraryEntry, error)
	RecordMembership(sess *session.Session, catalogID, collection string)
}

// Service orchestrates collection operations.
type Service struct {
	store     Store
	library   Library
	sequencer *sequencer.Sequencer
	validator *validation.Validator
	logger    *slog.Logger

	// names remembers collection names by user and id, so a successful add
	// can be reflected on the local library entry.
	mu    sync.Mutex
	names map[string]map[int64]string
}

// NewService creates a collection service.
func NewService(store Store, library Library, seq *sequencer.Sequencer, v *validation.Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if seq == nil {
		seq = sequencer.New(logger)
	}
	if v == nil {
		v = validation.New()
	}
	return &Service{
		store:     store,
		library:   library,
		sequencer: seq,
		validator: v,
		logger:    logger,
		names:     make(map[string]map[int64]string),
	}
}

type createCollectionInput struct {
	Name       string   `json:"name" validate:"notblank"`
	CatalogIDs []string `json:"bookIds" validate:"min=1,dive,notblank"`
}

// CreateCollection creates a collection named name containing the given
// catalog books. Duplicate ids are collapsed. The books must already be in
// the user's library: the store addresses them by BookID, and creation never
// adds books to the library. A book that is not there is a validation error
// on bookIds.
func (s *Service) CreateCollection(ctx context.Context, sess *session.Session, name string, catalogIDs []string) (*domain.Collection, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	in := createCollectionInput{
		Name:       strings.TrimSpace(name),
		CatalogIDs: dedupe(catalogIDs),
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	bookIDs, err := s.libraryBookIDs(ctx, sess, in.CatalogIDs)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateCollection(ctx, sess, in.Name, bookIDs)
	if err != nil {
		return nil, err
	}
	s.rememberName(sess, created.ID, created.Name)
	for _, id := range in.CatalogIDs {
		s.library.RecordMembership(sess, id, created.Name)
	}

	s.logger.Info("collection created",
		"collection_id", created.ID,
		"user_id", sess.UserID,
		"name", created.Name,
		"books", len(in.CatalogIDs),
	)

	return created, nil
}

// Collections returns the user's collections.
func (s *Service) Collections(ctx context.Context, sess *session.Session) ([]domain.Collection, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	collections, err := s.store.ListCollections(ctx, sess)
	if err != nil {
		return nil, err
	}
	for _, c := range collections {
		s.rememberName(sess, c.ID, c.Name)
	}
	return collections, nil
}

// AddBookToCollection makes sure the book is in the user's library (adding it
// as planned if needed) and then adds it to the collection.
//
// If the library step fails the collection is never touched and the error is
// a *errors.StepError with Index 1. If the add fails the library entry created
// by step 1 stays, and the error has Index 2.
func (s *Service) AddBookToCollection(ctx context.Context, sess *session.Session, collectionID int64, catalogID string) (*domain.LibraryEntry, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	entry, err := sequencer.Then(ctx, s.sequencer,
		StepEnsureInLibrary, func(ctx context.Context) (*domain.LibraryEntry, error) {
			return s.library.EnsureInLibrary(ctx, sess, catalogID, domain.StatusPlanned)
		},
		StepAddToCollection, func(ctx context.Context, entry *domain.LibraryEntry) (*domain.LibraryEntry, error) {
			if err := s.store.AddMembers(ctx, sess, collectionID, []string{entry.CatalogID}); err != nil {
				return nil, err
			}
			return entry, nil
		},
	)
	if err != nil {
		return nil, err
	}

	if name, ok := s.collectionName(ctx, sess, collectionID); ok {
		s.library.RecordMembership(sess, entry.CatalogID, name)
		entry.AddCollection(name)
	}

	s.logger.Info("book added to collection",
		"collection_id", collectionID,
		"user_id", sess.UserID,
		"catalog_id", entry.CatalogID,
	)

	return entry, nil
}

// libraryBookIDs maps catalog ids to the BookIDs of the user's entries.
func (s *Service) libraryBookIDs(ctx context.Context, sess *session.Session, catalogIDs []string) ([]int64, error) {
	bookIDs := make([]int64, 0, len(catalogIDs))
	for _, catalogID := range catalogIDs {
		entry, err := s.library.Entry(ctx, sess, catalogID)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, domainerrors.InvalidField("bookIds", fmt.Sprintf("book %q is not in the library", catalogID))
		}
		bookIDs = append(bookIDs, entry.BookID)
	}
	return bookIDs, nil
}

func (s *Service) rememberName(sess *session.Session, id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.names[sess.Key()]
	if !ok {
		byID = make(map[int64]string)
		s.names[sess.Key()] = byID
	}
	byID[id] = name
}

// collectionName looks the name up locally, listing the user's collections
// once on a miss. Failures only cost the local membership note.
func (s *Service) collectionName(ctx context.Context, sess *session.Session, id int64) (string, bool) {
	lookup := func() (string, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		name, ok := s.names[sess.Key()][id]
		return name, ok
	}

	if name, ok := lookup(); ok {
		return name, true
	}
	if _, err := s.Collections(ctx, sess); err != nil {
		s.logger.Warn("failed to list collections",
			"error", err,
			"user_id", sess.UserID,
		)
		return "", false
	}
	return lookup()
}

// dedupe trims ids and drops repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
