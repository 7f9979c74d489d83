package providers

import (
	"github.com/samber/do/v2"

	"github.com/mit112/flickswiper/internal/catalog"
	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/logger"
)

// ProvideCatalogProvider provides the content catalog client.
func ProvideCatalogProvider(i do.Injector) (catalog.Provider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewClient(
		cfg.Catalog.BaseURL,
		cfg.Catalog.APIKey,
		cfg.Catalog.Timeout,
		log.Logger,
	), nil
}
