// Package library tracks the user's library entries and their reading status.
//
// An entry moves from absent to one of the four statuses exactly once, via
// EnsureInLibrary or SetStatus, and after that only its status changes. The
// core never deletes entries.
package library

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/session"
)

// Store is the remote library.
type Store interface {
	ListEntries(ctx context.Context, sess *session.Session) ([]domain.LibraryEntry, error)
	// UpsertEntry adds book with status and returns the stored entry, including
	// the BookID the store assigned.
	UpsertEntry(ctx context.Context, sess *session.Session, book *domain.CatalogBook, status domain.Status) (*domain.LibraryEntry, error)
	SetStatus(ctx context.Context, sess *session.Session, bookID int64, status domain.Status) error
}

// Catalog resolves catalog records. *catalog.Cache implements it.
type Catalog interface {
	Get(ctx context.Context, id string) (*domain.CatalogBook, error)
}

// Machine is the library status state machine. It keeps a per-user index of
// entries, loaded lazily from the store and updated from mutation results.
type Machine struct {
	store   Store
	catalog Catalog
	logger  *slog.Logger

	mu    sync.Mutex
	users map[string]*userIndex
	group singleflight.Group
}

// userIndex is one user's entries keyed by catalog id.
type userIndex struct {
	mu        sync.RWMutex
	loaded    bool
	byCatalog map[string]*domain.LibraryEntry
}

// NewMachine creates a library machine.
func NewMachine(store Store, catalog Catalog, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		store:   store,
		catalog: catalog,
		logger:  logger,
		users:   make(map[string]*userIndex),
	}
}

func (m *Machine) userIndex(sess *session.Session) *userIndex {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.users[sess.Key()]
	if !ok {
		idx = &userIndex{byCatalog: make(map[string]*domain.LibraryEntry)}
		m.users[sess.Key()] = idx
	}
	return idx
}

// index returns the user's index, loading it from the store on first use.
func (m *Machine) index(ctx context.Context, sess *session.Session) (*userIndex, error) {
	idx := m.userIndex(sess)

	idx.mu.RLock()
	loaded := idx.loaded
	idx.mu.RUnlock()
	if loaded {
		return idx, nil
	}

	if err := m.load(ctx, sess, idx, false); err != nil {
		return nil, err
	}
	return idx, nil
}

// load fetches the user's entries. Concurrent loads for one user share a call.
func (m *Machine) load(ctx context.Context, sess *session.Session, idx *userIndex, force bool) error {
	_, err, _ := m.group.Do("list:"+sess.Key(), func() (any, error) {
		idx.mu.RLock()
		loaded := idx.loaded
		idx.mu.RUnlock()
		if loaded && !force {
			return nil, nil
		}

		entries, err := m.store.ListEntries(ctx, sess)
		if err != nil {
			return nil, err
		}

		idx.mu.Lock()
		defer idx.mu.Unlock()
		idx.byCatalog = make(map[string]*domain.LibraryEntry, len(entries))
		for i := range entries {
			entry := entries[i]
			idx.byCatalog[entry.CatalogID] = &entry
		}
		idx.loaded = true

		m.logger.Debug("library loaded",
			"user_id", sess.UserID,
			"entries", len(entries),
		)
		return nil, nil
	})
	return err
}

func (idx *userIndex) get(catalogID string) *domain.LibraryEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if e, ok := idx.byCatalog[catalogID]; ok {
		return e.Clone()
	}
	return nil
}

func (idx *userIndex) put(entry *domain.LibraryEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byCatalog[entry.CatalogID] = entry.Clone()
}

func (idx *userIndex) update(catalogID string, fn func(*domain.LibraryEntry)) *domain.LibraryEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e, ok := idx.byCatalog[catalogID]
	if !ok {
		return nil
	}
	fn(e)
	return e.Clone()
}

func (idx *userIndex) snapshot() []domain.LibraryEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entries := make([]domain.LibraryEntry, 0, len(idx.byCatalog))
	for _, e := range idx.byCatalog {
		entries = append(entries, *e.Clone())
	}
	slices.SortFunc(entries, func(a, b domain.LibraryEntry) int {
		return cmp.Or(
			cmp.Compare(a.BookID, b.BookID),
			cmp.Compare(a.CatalogID, b.CatalogID),
		)
	})
	return entries
}

func validateCatalogID(catalogID string) (string, error) {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return "", domainerrors.InvalidField("catalogId", "catalog id is required")
	}
	if !domain.ValidCatalogID(catalogID) {
		return "", domainerrors.InvalidField("catalogId", "invalid catalog id")
	}
	return catalogID, nil
}

// EnsureInLibrary returns the user's entry for catalogID, creating it with
// defaultStatus if absent. An existing entry is returned unchanged: its status
// is never touched. Zero defaultStatus means planned.
//
// Concurrent ensures for the same user and book result in a single upsert.
// If the catalog record cannot be resolved the error is PrerequisiteFailed,
// with the catalog failure as its cause.
func (m *Machine) EnsureInLibrary(ctx context.Context, sess *session.Session, catalogID string, defaultStatus domain.Status) (*domain.LibraryEntry, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	catalogID, err := validateCatalogID(catalogID)
	if err != nil {
		return nil, err
	}
	if defaultStatus == 0 {
		defaultStatus = domain.StatusPlanned
	}
	if !defaultStatus.Valid() {
		return nil, domainerrors.InvalidField("status", "unknown status")
	}

	idx, err := m.index(ctx, sess)
	if err != nil {
		return nil, err
	}
	if existing := idx.get(catalogID); existing != nil {
		return existing, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan("ensure:"+sess.Key()+":"+catalogID, func() (any, error) {
		return m.create(detached, sess, idx, catalogID, defaultStatus)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.LibraryEntry).Clone(), nil
	}
}

// create runs inside the ensure flight for one (user, book).
func (m *Machine) create(ctx context.Context, sess *session.Session, idx *userIndex, catalogID string, status domain.Status) (*domain.LibraryEntry, error) {
	if existing := idx.get(catalogID); existing != nil {
		return existing, nil
	}

	book, err := m.catalog.Get(ctx, catalogID)
	if err != nil {
		m.logger.Debug("cannot resolve catalog record for library entry",
			"catalog_id", catalogID,
			"error", err,
		)
		return nil, domainerrors.PrerequisiteFailed(err)
	}

	entry, err := m.store.UpsertEntry(ctx, sess, book, status)
	if err != nil {
		return nil, err
	}
	if entry.CatalogID == "" {
		entry.CatalogID = catalogID
	}
	idx.put(entry)

	m.logger.Info("book added to library",
		"user_id", sess.UserID,
		"catalog_id", catalogID,
		"book_id", entry.BookID,
		"status", entry.Status,
	)
	return entry, nil
}

// SetStatus moves the user's entry for catalogID to status, creating the
// entry with that status if it does not exist yet.
func (m *Machine) SetStatus(ctx context.Context, sess *session.Session, catalogID string, status domain.Status) (*domain.LibraryEntry, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	catalogID, err := validateCatalogID(catalogID)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domainerrors.InvalidField("status", "unknown status")
	}

	entry, err := m.EnsureInLibrary(ctx, sess, catalogID, status)
	if err != nil {
		return nil, err
	}
	if entry.Status == status {
		return entry, nil
	}
	from := entry.Status

	if err := m.store.SetStatus(ctx, sess, entry.BookID, status); err != nil {
		return nil, err
	}

	idx := m.userIndex(sess)
	updated := idx.update(catalogID, func(e *domain.LibraryEntry) { e.Status = status })
	if updated == nil {
		entry.Status = status
		updated = entry
	}

	m.logger.Info("library status changed",
		"user_id", sess.UserID,
		"catalog_id", catalogID,
		"book_id", updated.BookID,
		"from", from,
		"to", status,
	)
	return updated, nil
}

// Entry returns the user's entry for catalogID, or nil when the book is not
// in the library.
func (m *Machine) Entry(ctx context.Context, sess *session.Session, catalogID string) (*domain.LibraryEntry, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	idx, err := m.index(ctx, sess)
	if err != nil {
		return nil, err
	}
	return idx.get(strings.TrimSpace(catalogID)), nil
}

// Entries returns the user's library sorted by BookID.
func (m *Machine) Entries(ctx context.Context, sess *session.Session) ([]domain.LibraryEntry, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	idx, err := m.index(ctx, sess)
	if err != nil {
		return nil, err
	}
	return idx.snapshot(), nil
}

// Refresh reloads the user's library from the store.
func (m *Machine) Refresh(ctx context.Context, sess *session.Session) ([]domain.LibraryEntry, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	idx := m.userIndex(sess)
	if err := m.load(ctx, sess, idx, true); err != nil {
		return nil, err
	}
	return idx.snapshot(), nil
}

// CollectionNames returns the distinct collection names used across the
// user's library, sorted.
func (m *Machine) CollectionNames(ctx context.Context, sess *session.Session) ([]string, error) {
	entries, err := m.Entries(ctx, sess)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{})
	for _, e := range entries {
		for _, c := range e.Collections {
			if c != "" {
				names[c] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(names)), nil
}

// EntriesInCollection returns the user's entries that belong to the named
// collection. An empty name returns the whole library.
func (m *Machine) EntriesInCollection(ctx context.Context, sess *session.Session, name string) ([]domain.LibraryEntry, error) {
	entries, err := m.Entries(ctx, sess)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return entries, nil
	}
	return slices.DeleteFunc(entries, func(e domain.LibraryEntry) bool {
		return !e.InCollection(name)
	}), nil
}

// RecordMembership notes locally that the user's entry for catalogID belongs
// to the named collection. It does not contact the store.
func (m *Machine) RecordMembership(sess *session.Session, catalogID, collection string) {
	if !sess.Authenticated() {
		return
	}
	m.userIndex(sess).update(catalogID, func(e *domain.LibraryEntry) {
		e.AddCollection(collection)
	})
}
