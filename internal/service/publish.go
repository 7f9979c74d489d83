package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/remote"
	"github.com/mit112/flickswiper/internal/store"
)

// PublishService pushes local list snapshots to the remote document store.
// The local device is the sole writer for its own lists, so every remote
// write is a full overwrite: last writer wins, no merging.
type PublishService struct {
	store     store.Store
	remote    remote.Store
	appDomain string
	logger    *slog.Logger
}

// NewPublishService creates a new publish service.
func NewPublishService(store store.Store, remoteStore remote.Store, appDomain string, logger *slog.Logger) *PublishService {
	return &PublishService{
		store:     store,
		remote:    remoteStore,
		appDomain: appDomain,
		logger:    logger,
	}
}

// ShareURL builds the deep link for a published document.
func (s *PublishService) ShareURL(remoteDocID string) string {
	return fmt.Sprintf("https://%s/list/%s", s.appDomain, remoteDocID)
}

// Publish pushes a list's membership snapshot to a new remote document and
// marks the list published locally. A remote failure leaves local state
// untouched: no RemoteDocID is assigned until the write succeeds.
func (s *PublishService) Publish(ctx context.Context, listID, ownerID, ownerDisplayName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return "", err
	}
	if list.IsPublished {
		return "", errors.Conflict("list is already published")
	}

	docID := uuid.New().String()

	doc, err := s.snapshot(ctx, list, ownerID, ownerDisplayName)
	if err != nil {
		return "", err
	}

	if err := s.remote.Set(ctx, docID, doc); err != nil {
		return "", errors.Remote("publish list", err)
	}

	now := time.Now()
	list.RemoteDocID = docID
	list.IsPublished = true
	list.LastSyncedAt = &now
	if err := s.store.UpdateList(ctx, list); err != nil {
		return "", err
	}

	s.logger.Info("list published",
		"list_id", listID,
		"remote_doc_id", docID,
		"owner_id", ownerID,
	)

	return s.ShareURL(docID), nil
}

// SyncIfPublished re-serializes the list's current snapshot and overwrites
// its remote document. No-op for unpublished lists. Callers on implicit
// paths swallow the returned error by policy; explicit callers may surface
// it.
func (s *PublishService) SyncIfPublished(ctx context.Context, listID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if !list.IsPublished || list.RemoteDocID == "" {
		return nil
	}

	doc, err := s.snapshot(ctx, list, "", "")
	if err != nil {
		return err
	}

	// Preserve the owner fields already on the remote document; only this
	// device writes it, so a read-modify-write is race-free.
	if existing, ok, err := s.remote.Get(ctx, list.RemoteDocID); err == nil && ok {
		doc.OwnerID = existing.OwnerID
		doc.OwnerDisplayName = existing.OwnerDisplayName
	}

	if err := s.remote.Set(ctx, list.RemoteDocID, doc); err != nil {
		return errors.Remote("sync published list", err)
	}

	now := time.Now()
	list.LastSyncedAt = &now
	if err := s.store.UpdateList(ctx, list); err != nil {
		return err
	}

	s.logger.Debug("published list synced", "list_id", listID, "remote_doc_id", list.RemoteDocID)
	return nil
}

// Unpublish soft-deletes the remote document and clears the local publish
// state. The document is marked inactive rather than deleted so followers
// see "no longer available" instead of a hard error.
func (s *PublishService) Unpublish(ctx context.Context, listID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if !list.IsPublished || list.RemoteDocID == "" {
		return nil
	}

	doc, ok, err := s.remote.Get(ctx, list.RemoteDocID)
	if err != nil {
		return errors.Remote("read remote list", err)
	}
	if ok {
		doc.IsActive = false
		doc.UpdatedAt = time.Now().Unix()
		if err := s.remote.Set(ctx, list.RemoteDocID, doc); err != nil {
			return errors.Remote("unpublish list", err)
		}
	}

	docID := list.RemoteDocID
	list.RemoteDocID = ""
	list.IsPublished = false
	list.LastSyncedAt = nil
	if err := s.store.UpdateList(ctx, list); err != nil {
		return err
	}

	s.logger.Info("list unpublished", "list_id", listID, "remote_doc_id", docID)
	return nil
}

// snapshot builds the denormalized remote document for a list: name,
// owner, and the embedded display fields of every member so followers
// render without a join.
func (s *PublishService) snapshot(ctx context.Context, list *domain.MediaList, ownerID, ownerDisplayName string) (remote.Document, error) {
	entries, err := s.store.GetListEntries(ctx, list.ID)
	if err != nil {
		return remote.Document{}, err
	}

	items := make([]remote.DocumentItem, 0, len(entries))
	for i, entry := range entries {
		rec, err := s.store.GetLedgerRecord(ctx, entry.ItemKey)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Dangling entries should not exist thanks to orphan
				// cleanup, but a stale one must not block publishing.
				s.logger.Warn("skipping dangling list entry",
					"list_id", list.ID, "item_key", entry.ItemKey)
				continue
			}
			return remote.Document{}, err
		}

		items = append(items, remote.DocumentItem{
			ItemKey:         rec.UniqueKey,
			Kind:            string(rec.Kind),
			CatalogID:       rec.CatalogID,
			Title:           rec.Title,
			PosterPath:      rec.PosterPath,
			ReleaseDate:     rec.ReleaseDate,
			CommunityRating: rec.CommunityRating,
			SortOrder:       i,
		})
	}

	return remote.Document{
		Name:             list.Name,
		OwnerID:          ownerID,
		OwnerDisplayName: ownerDisplayName,
		IsActive:         true,
		UpdatedAt:        time.Now().Unix(),
		Items:            items,
	}, nil
}
