package providers

import (
	"github.com/samber/do/v2"

	"github.com/mit112/flickswiper/internal/catalog"
	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/logger"
	"github.com/mit112/flickswiper/internal/service"
	"github.com/mit112/flickswiper/internal/session"
)

// SessionControllerHandle wraps the controller so container shutdown stops
// its debounce timer and in-flight loads.
type SessionControllerHandle struct {
	*session.Controller
}

// Shutdown implements do.Shutdownable.
func (h *SessionControllerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideSessionController provides the discovery session controller.
func ProvideSessionController(i do.Injector) (*SessionControllerHandle, error) {
	provider := do.MustInvoke[catalog.Provider](i)
	ledger := do.MustInvoke[*service.LedgerService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &SessionControllerHandle{
		Controller: session.New(provider, ledger, cfg.Session, log.Logger),
	}, nil
}
