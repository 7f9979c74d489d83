package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/remote"
	"github.com/mit112/flickswiper/internal/store"
)

// FollowService mirrors remote published lists the user follows into the
// local read-only cache. One listener per followed document; every change
// event replaces the cached list in full. Listeners run only between Start
// and Stop, which the embedder ties to authentication state.
type FollowService struct {
	store  store.Store
	remote remote.Store
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	listeners map[string]func()
}

// NewFollowService creates a new follow service.
func NewFollowService(store store.Store, remoteStore remote.Store, logger *slog.Logger) *FollowService {
	return &FollowService{
		store:     store,
		remote:    remoteStore,
		logger:    logger,
		listeners: make(map[string]func()),
	}
}

// Follow subscribes to a remote list. The initial snapshot is mirrored
// immediately; if the service is started a listener keeps the cache fresh.
func (s *FollowService) Follow(ctx context.Context, remoteDocID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, ok, err := s.remote.Get(ctx, remoteDocID)
	if err != nil {
		return errors.Remote("read followed list", err)
	}
	if !ok {
		return errors.NotFoundf("remote list %s does not exist", remoteDocID)
	}

	if err := s.mirror(remoteDocID, doc); err != nil {
		return err
	}

	s.mu.Lock()
	if s.started {
		s.attachLocked(remoteDocID)
	}
	s.mu.Unlock()

	s.logger.Info("followed list", "remote_doc_id", remoteDocID)
	return nil
}

// Unfollow tears down the listener and removes the cached mirror.
func (s *FollowService) Unfollow(ctx context.Context, remoteDocID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if cancel, ok := s.listeners[remoteDocID]; ok {
		cancel()
		delete(s.listeners, remoteDocID)
	}
	s.mu.Unlock()

	if err := s.store.DeleteFollowedList(ctx, remoteDocID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	s.logger.Info("unfollowed list", "remote_doc_id", remoteDocID)
	return nil
}

// Start attaches one listener per followed document. Safe to call when
// already started.
func (s *FollowService) Start(ctx context.Context) error {
	lists, err := s.store.ListFollowedLists(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	for _, list := range lists {
		s.attachLocked(list.RemoteDocID)
	}

	s.logger.Info("follow sync started", "lists", len(lists))
	return nil
}

// Stop tears down every listener. Called on sign-out to bound background
// resource usage.
func (s *FollowService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false

	for docID, cancel := range s.listeners {
		cancel()
		delete(s.listeners, docID)
	}

	s.logger.Info("follow sync stopped")
}

// attachLocked subscribes to one document. Caller holds s.mu.
func (s *FollowService) attachLocked(remoteDocID string) {
	if _, ok := s.listeners[remoteDocID]; ok {
		return
	}
	s.listeners[remoteDocID] = s.remote.Listen(remoteDocID, func(snap remote.Snapshot) {
		s.handleSnapshot(snap)
	})
}

// handleSnapshot mirrors one change event. A listener error or a deleted
// or deactivated document degrades the cached list to inactive; it is
// never deleted here, and other followed lists stay unaffected.
func (s *FollowService) handleSnapshot(snap remote.Snapshot) {
	ctx := context.Background()

	if snap.Err != nil {
		s.logger.Warn("followed list listener failed",
			"remote_doc_id", snap.DocID, "error", snap.Err)
		s.deactivate(ctx, snap.DocID)
		return
	}

	if !snap.Exists || !snap.Doc.IsActive {
		s.deactivate(ctx, snap.DocID)
		return
	}

	if err := s.mirror(snap.DocID, snap.Doc); err != nil {
		s.logger.Error("mirror followed list failed",
			"remote_doc_id", snap.DocID, "error", err)
	}
}

// mirror replaces the local cache for one followed list in full.
func (s *FollowService) mirror(remoteDocID string, doc remote.Document) error {
	now := time.Now()

	followedAt := now
	if existing, _, err := s.store.GetFollowedList(context.Background(), remoteDocID); err == nil {
		followedAt = existing.FollowedAt
	}

	list := &domain.FollowedList{
		RemoteDocID:      remoteDocID,
		Name:             doc.Name,
		OwnerID:          doc.OwnerID,
		OwnerDisplayName: doc.OwnerDisplayName,
		IsActive:         doc.IsActive,
		FollowedAt:       followedAt,
		UpdatedAt:        now,
	}

	items := make([]*domain.FollowedListItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, &domain.FollowedListItem{
			RemoteDocID:     remoteDocID,
			ItemKey:         item.ItemKey,
			Kind:            domain.CatalogKind(item.Kind),
			CatalogID:       item.CatalogID,
			Title:           item.Title,
			PosterPath:      item.PosterPath,
			ReleaseDate:     item.ReleaseDate,
			CommunityRating: item.CommunityRating,
			SortOrder:       item.SortOrder,
		})
	}

	return s.store.ReplaceFollowedList(context.Background(), list, items)
}

func (s *FollowService) deactivate(ctx context.Context, remoteDocID string) {
	if err := s.store.SetFollowedListActive(ctx, remoteDocID, false); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("deactivate followed list failed",
			"remote_doc_id", remoteDocID, "error", err)
	}
}

// FollowedLists returns the cached followed lists.
func (s *FollowService) FollowedLists(ctx context.Context) ([]*domain.FollowedList, error) {
	return s.store.ListFollowedLists(ctx)
}

// FollowedList returns one cached followed list and its items.
func (s *FollowService) FollowedList(ctx context.Context, remoteDocID string) (*domain.FollowedList, []*domain.FollowedListItem, error) {
	return s.store.GetFollowedList(ctx, remoteDocID)
}
