// Package providers contains dependency injection providers for the
// tracking core.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
	})

	log.Info("starting tracking core",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Storage.DBPath,
	)

	return log, nil
}
