// Package store persists fetched catalog records in Badger so a restarted
// daemon starts warm instead of refetching every book it has already seen.
package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// New opens the Badger database at path. An empty path opens an in-memory
// database that is discarded on Close.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if path == "" {
		logger.Info("catalog cache opened in memory")
	} else {
		logger.Info("catalog cache opened", "path", path)
	}

	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing catalog cache")
	return s.db.Close()
}
