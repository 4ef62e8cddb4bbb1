package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/listenupapp/readtrack/internal/domain"
)

const (
	catalogBookPrefix = "catalog:book:"

	// Catalog records are stable; a week keeps covers and descriptions fresh enough.
	catalogBookTTL = 7 * 24 * time.Hour
)

// CachedBook wraps a fetched catalog record with cache info.
type CachedBook struct {
	Book      *domain.CatalogBook `json:"book"`
	FetchedAt time.Time           `json:"fetched_at"`
}

func catalogBookKey(id string) []byte {
	return fmt.Appendf(nil, "%s%s", catalogBookPrefix, id)
}

// GetCachedBook retrieves a cached catalog record.
// Returns nil, nil if not found or expired.
func (s *Store) GetCachedBook(ctx context.Context, id string) (*CachedBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cached CachedBook
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(catalogBookKey(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cached)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached book: %w", err)
	}

	if cached.Book == nil || s.now().Sub(cached.FetchedAt) > catalogBookTTL {
		return nil, nil // Treat as cache miss
	}

	return &cached, nil
}

// SetCachedBook stores a catalog record. Badger expires the key on its own
// once the TTL has passed.
func (s *Store) SetCachedBook(ctx context.Context, book *domain.CatalogBook) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if book == nil || book.ID == "" {
		return errors.New("set cached book: book has no id")
	}

	cached := CachedBook{
		Book:      book,
		FetchedAt: s.now(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal cached book: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(catalogBookKey(book.ID), data).WithTTL(catalogBookTTL))
	})
}

// DeleteCachedBook removes a cached catalog record.
func (s *Store) DeleteCachedBook(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(catalogBookKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Idempotent
		}
		return err
	})
}

// CountCachedBooks returns the number of live catalog records.
func (s *Store) CountCachedBooks(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(catalogBookPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count cached books: %w", err)
	}
	return count, nil
}
