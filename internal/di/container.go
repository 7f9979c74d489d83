// Package di provides dependency injection configuration for the tracking
// core. Embedders build a container, invoke the services they need, and
// call Shutdown on teardown.
package di

import (
	"github.com/samber/do/v2"

	"github.com/mit112/flickswiper/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRemoteStore)

	// Catalog layer
	do.Provide(injector, providers.ProvideCatalogProvider)

	// Business services
	do.Provide(injector, providers.ProvideLedgerService)
	do.Provide(injector, providers.ProvidePublishService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideFollowService)

	// Session layer
	do.Provide(injector, providers.ProvideSessionController)

	return injector
}
