// Package di provides dependency injection configuration for the readtrack daemon.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/account"
	"github.com/listenupapp/readtrack/internal/collection"
	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/di/providers"
	"github.com/listenupapp/readtrack/internal/library"
	"github.com/listenupapp/readtrack/internal/review"
	"github.com/listenupapp/readtrack/internal/sequencer"
	"github.com/listenupapp/readtrack/internal/stats"
	"github.com/listenupapp/readtrack/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Remote collaborators and the warm-start tier
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBackend)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideCatalog)

	// Core
	do.Provide(injector, providers.ProvideSequencer)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideLibrary)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideReviewAggregator)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideAccountService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Providers are lazy, so this is where
// configuration and connection errors surface.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*slog.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.BackendHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ResolverHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CatalogHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*sequencer.Sequencer](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*library.Machine](injector)
	_ = do.MustInvoke[*collection.Service](injector)
	_ = do.MustInvoke[*review.Aggregator](injector)
	_ = do.MustInvoke[*stats.Service](injector)
	_ = do.MustInvoke[*account.Service](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
