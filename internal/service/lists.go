package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/id"
	"github.com/mit112/flickswiper/internal/store"
)

// ListService orchestrates named-list operations. After any mutation that
// changes what a published list looks like remotely, it triggers a
// best-effort background sync; the local list stays the source of truth
// whether or not that sync succeeds.
type ListService struct {
	store   store.Store
	publish *PublishService
	logger  *slog.Logger
}

// NewListService creates a new list service.
func NewListService(store store.Store, publish *PublishService, logger *slog.Logger) *ListService {
	return &ListService{
		store:   store,
		publish: publish,
		logger:  logger,
	}
}

// CreateList creates a new named list.
func (s *ListService) CreateList(ctx context.Context, name string) (*domain.MediaList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.Validation("list name must not be empty")
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate list ID")
	}

	list := &domain.MediaList{
		ID:        listID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Info("list created", "list_id", listID, "name", name)
	return list, nil
}

// GetList retrieves a list by ID.
func (s *ListService) GetList(ctx context.Context, listID string) (*domain.MediaList, error) {
	return s.store.GetList(ctx, listID)
}

// Lists returns all lists.
func (s *ListService) Lists(ctx context.Context) ([]*domain.MediaList, error) {
	return s.store.ListLists(ctx)
}

// RenameList renames a list and re-syncs it remotely if published.
func (s *ListService) RenameList(ctx context.Context, listID, newName string) (*domain.MediaList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if newName == "" {
		return nil, errors.Validation("list name must not be empty")
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}

	list.Name = newName
	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Info("list renamed", "list_id", listID, "name", newName)
	s.syncIfPublished(ctx, listID)

	return list, nil
}

// DeleteList deletes a list and its entries. A published list is
// best-effort unpublished first so followers see it as unavailable rather
// than frozen at its last snapshot.
func (s *ListService) DeleteList(ctx context.Context, listID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}

	if list.IsPublished {
		if err := s.publish.Unpublish(ctx, listID); err != nil {
			s.logger.Warn("unpublish before delete failed",
				"list_id", listID, "error", err)
		}
	}

	if err := s.store.DeleteList(ctx, listID); err != nil {
		return err
	}

	s.logger.Info("list deleted", "list_id", listID)
	return nil
}

// Add adds item keys to a list.
func (s *ListService) Add(ctx context.Context, listID string, itemKeys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.AddListEntries(ctx, listID, itemKeys); err != nil {
		return err
	}

	s.logger.Info("list entries added", "list_id", listID, "count", len(itemKeys))
	s.syncIfPublished(ctx, listID)
	return nil
}

// Remove removes item keys from a list.
func (s *ListService) Remove(ctx context.Context, listID string, itemKeys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.RemoveListEntries(ctx, listID, itemKeys); err != nil {
		return err
	}

	s.logger.Info("list entries removed", "list_id", listID, "count", len(itemKeys))
	s.syncIfPublished(ctx, listID)
	return nil
}

// Reconcile makes a list's membership exactly match selectedKeys.
func (s *ListService) Reconcile(ctx context.Context, listID string, selectedKeys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.ReconcileListEntries(ctx, listID, selectedKeys); err != nil {
		return err
	}

	s.logger.Info("list membership reconciled", "list_id", listID, "selected", len(selectedKeys))
	s.syncIfPublished(ctx, listID)
	return nil
}

// Entries returns a list's entries.
func (s *ListService) Entries(ctx context.Context, listID string) ([]*domain.ListEntry, error) {
	return s.store.GetListEntries(ctx, listID)
}

// syncIfPublished pushes the list's current snapshot to the remote store
// when it is published. Failures are logged, never surfaced: implicit
// background sync must not turn a successful local edit into an error.
func (s *ListService) syncIfPublished(ctx context.Context, listID string) {
	if err := s.publish.SyncIfPublished(ctx, listID); err != nil {
		s.logger.Warn("background list sync failed", "list_id", listID, "error", err)
	}
}
