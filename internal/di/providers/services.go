package providers

import (
	"github.com/samber/do/v2"

	"github.com/mit112/flickswiper/internal/config"
	"github.com/mit112/flickswiper/internal/logger"
	"github.com/mit112/flickswiper/internal/remote"
	"github.com/mit112/flickswiper/internal/service"
)

// ProvideLedgerService provides the swipe ledger service.
func ProvideLedgerService(i do.Injector) (*service.LedgerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLedgerService(storeHandle.Store, log.Logger), nil
}

// ProvidePublishService provides the list publishing service.
func ProvidePublishService(i do.Injector) (*service.PublishService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	remoteStore := do.MustInvoke[remote.Store](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPublishService(storeHandle.Store, remoteStore, cfg.Publish.AppDomain, log.Logger), nil
}

// ProvideListService provides the named-list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	publishService := do.MustInvoke[*service.PublishService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(storeHandle.Store, publishService, log.Logger), nil
}

// FollowServiceHandle wraps the follow service so container shutdown tears
// down its listeners.
type FollowServiceHandle struct {
	*service.FollowService
}

// Shutdown implements do.Shutdownable.
func (h *FollowServiceHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideFollowService provides the followed-list sync service.
func ProvideFollowService(i do.Injector) (*FollowServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	remoteStore := do.MustInvoke[remote.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &FollowServiceHandle{
		FollowService: service.NewFollowService(storeHandle.Store, remoteStore, log.Logger),
	}, nil
}
