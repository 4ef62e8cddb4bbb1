package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/account"
	"github.com/listenupapp/readtrack/internal/catalog"
	"github.com/listenupapp/readtrack/internal/collection"
	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/library"
	"github.com/listenupapp/readtrack/internal/review"
	"github.com/listenupapp/readtrack/internal/sequencer"
	"github.com/listenupapp/readtrack/internal/session"
	"github.com/listenupapp/readtrack/internal/stats"
	"github.com/listenupapp/readtrack/internal/validation"
)

// CatalogHandle wraps the catalog cache with shutdown capability.
type CatalogHandle struct {
	*catalog.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalog provides the memoizing catalog cache.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	cache, err := catalog.New(backendHandle.Client, catalog.Options{
		MaxItems:     cfg.Cache.MaxItems,
		FetchTimeout: cfg.Cache.FetchTimeout,
		Feeds:        catalog.DefaultFeeds(),
		Persister:    storeHandle.Store,
	}, log)
	if err != nil {
		return nil, err
	}
	return &CatalogHandle{Cache: cache}, nil
}

// ResolverHandle wraps the session resolver with shutdown capability.
type ResolverHandle struct {
	*session.Resolver
}

// Shutdown implements do.Shutdownable.
func (h *ResolverHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideResolver provides the bearer token resolver.
func ProvideResolver(i do.Injector) (*ResolverHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)

	resolver, err := session.NewResolver(backendHandle.Client, cfg.Session.TTL, log)
	if err != nil {
		return nil, err
	}
	return &ResolverHandle{Resolver: resolver}, nil
}

// ProvideSequencer provides the step sequencer shared by multi-step intents.
func ProvideSequencer(i do.Injector) (*sequencer.Sequencer, error) {
	return sequencer.New(do.MustInvoke[*slog.Logger](i)), nil
}

// ProvideValidator provides the input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideLibrary provides the library status machine.
func ProvideLibrary(i do.Injector) (*library.Machine, error) {
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)

	return library.NewMachine(backendHandle.Client, catalogHandle.Cache, log), nil
}

// ProvideCollectionService provides the collection service.
func ProvideCollectionService(i do.Injector) (*collection.Service, error) {
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)
	lib := do.MustInvoke[*library.Machine](i)
	seq := do.MustInvoke[*sequencer.Sequencer](i)
	v := do.MustInvoke[*validation.Validator](i)

	return collection.NewService(backendHandle.Client, lib, seq, v, log), nil
}

// ProvideReviewAggregator provides the review aggregator.
func ProvideReviewAggregator(i do.Injector) (*review.Aggregator, error) {
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)
	lib := do.MustInvoke[*library.Machine](i)
	seq := do.MustInvoke[*sequencer.Sequencer](i)
	v := do.MustInvoke[*validation.Validator](i)

	return review.NewAggregator(backendHandle.Client, lib, seq, v, log), nil
}

// ProvideStatsService provides the stats service.
func ProvideStatsService(i do.Injector) (*stats.Service, error) {
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)

	return stats.NewService(backendHandle.Client, log), nil
}

// ProvideAccountService provides the account service.
func ProvideAccountService(i do.Injector) (*account.Service, error) {
	log := do.MustInvoke[*slog.Logger](i)
	backendHandle := do.MustInvoke[*BackendHandle](i)
	resolverHandle := do.MustInvoke[*ResolverHandle](i)
	v := do.MustInvoke[*validation.Validator](i)

	return account.NewService(backendHandle.Client, resolverHandle.Resolver, v, log), nil
}
