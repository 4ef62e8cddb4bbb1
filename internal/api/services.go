package api

import (
	"github.com/listenupapp/readtrack/internal/account"
	"github.com/listenupapp/readtrack/internal/catalog"
	"github.com/listenupapp/readtrack/internal/collection"
	"github.com/listenupapp/readtrack/internal/library"
	"github.com/listenupapp/readtrack/internal/review"
	"github.com/listenupapp/readtrack/internal/stats"
	"github.com/listenupapp/readtrack/internal/store"
)

// Services groups the core components the intent API drives.
type Services struct {
	Catalog     *catalog.Cache
	Library     *library.Machine
	Collections *collection.Service
	Reviews     *review.Aggregator
	Stats       *stats.Service
	Accounts    *account.Service
	Store       *store.Store // Warm-start tier; optional, reported by /health
}
