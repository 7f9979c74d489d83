package providers

import (
	"github.com/samber/do/v2"

	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/logger"
	"github.com/mit112/flickswiper/internal/remote"
	"github.com/mit112/flickswiper/internal/store"
	"github.com/mit112/flickswiper/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
	db *sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.db.Close()
}

// ProvideStore provides the local sqlite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Storage.DBPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("database initialized", "path", cfg.Storage.DBPath)

	return &StoreHandle{Store: db, db: db}, nil
}

// ProvideRemoteStore provides the remote document store. The in-memory
// implementation is the default; embedders with a hosted backend replace
// this provider with their own.
func ProvideRemoteStore(i do.Injector) (remote.Store, error) {
	return remote.NewMemory(), nil
}
