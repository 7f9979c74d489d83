package sqlite

import (
	"context"
	"database/sql"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/store"
)

// ReplaceFollowedList overwrites the cached mirror of a followed remote
// list in full. Remote change events carry whole-document snapshots, so
// the cache is replaced rather than diffed.
func (s *Store) ReplaceFollowedList(ctx context.Context, list *domain.FollowedList, items []*domain.FollowedListItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin replace followed list", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO followed_lists (remote_doc_id, name, owner_id, owner_display_name, is_active, followed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_doc_id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			owner_display_name = excluded.owner_display_name,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		list.RemoteDocID,
		list.Name,
		list.OwnerID,
		list.OwnerDisplayName,
		boolToInt(list.IsActive),
		formatTime(list.FollowedAt),
		formatTime(list.UpdatedAt),
	)
	if err != nil {
		return errors.Storagef(err, "upsert followed list %s", list.RemoteDocID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM followed_list_items WHERE remote_doc_id = ?`, list.RemoteDocID); err != nil {
		return errors.Storagef(err, "clear items of followed list %s", list.RemoteDocID)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO followed_list_items (remote_doc_id, item_key, kind, catalog_id, title, poster_path, release_date, community_rating, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			list.RemoteDocID,
			item.ItemKey,
			string(item.Kind),
			item.CatalogID,
			item.Title,
			item.PosterPath,
			item.ReleaseDate,
			item.CommunityRating,
			item.SortOrder,
		)
		if err != nil {
			return errors.Storagef(err, "insert followed item %s", item.ItemKey)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit replace followed list", err)
	}
	return nil
}

// GetFollowedList returns a cached followed list and its items.
// Returns store.ErrNotFound if the list is not cached.
func (s *Store) GetFollowedList(ctx context.Context, remoteDocID string) (*domain.FollowedList, []*domain.FollowedListItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT remote_doc_id, name, owner_id, owner_display_name, is_active, followed_at, updated_at
		FROM followed_lists WHERE remote_doc_id = ?`, remoteDocID)

	list, err := scanFollowedList(row)
	if err == sql.ErrNoRows {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, errors.Storagef(err, "get followed list %s", remoteDocID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_doc_id, item_key, kind, catalog_id, title, poster_path, release_date, community_rating, sort_order
		FROM followed_list_items WHERE remote_doc_id = ?
		ORDER BY sort_order`, remoteDocID)
	if err != nil {
		return nil, nil, errors.Storagef(err, "get items of followed list %s", remoteDocID)
	}
	defer rows.Close()

	var items []*domain.FollowedListItem
	for rows.Next() {
		var item domain.FollowedListItem
		var kind string
		if err := rows.Scan(&item.RemoteDocID, &item.ItemKey, &kind, &item.CatalogID,
			&item.Title, &item.PosterPath, &item.ReleaseDate, &item.CommunityRating, &item.SortOrder); err != nil {
			return nil, nil, errors.Storage("scan followed item", err)
		}
		item.Kind = domain.CatalogKind(kind)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Storage("iterate followed items", err)
	}

	return list, items, nil
}

// ListFollowedLists returns all cached followed lists, most recently
// updated first.
func (s *Store) ListFollowedLists(ctx context.Context) ([]*domain.FollowedList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_doc_id, name, owner_id, owner_display_name, is_active, followed_at, updated_at
		FROM followed_lists ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.Storage("list followed lists", err)
	}
	defer rows.Close()

	var lists []*domain.FollowedList
	for rows.Next() {
		list, err := scanFollowedList(rows)
		if err != nil {
			return nil, errors.Storage("scan followed list", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate followed lists", err)
	}
	return lists, nil
}

// SetFollowedListActive flips the availability flag without touching the
// cached items, so an unpublished list still renders as "no longer
// available".
func (s *Store) SetFollowedListActive(ctx context.Context, remoteDocID string, active bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE followed_lists SET is_active = ? WHERE remote_doc_id = ?`,
		boolToInt(active), remoteDocID)
	if err != nil {
		return errors.Storagef(err, "set active on followed list %s", remoteDocID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Storage("rows affected", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteFollowedList removes a followed list and its items from the cache.
// Used when the user unfollows.
func (s *Store) DeleteFollowedList(ctx context.Context, remoteDocID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin delete followed list", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM followed_list_items WHERE remote_doc_id = ?`, remoteDocID); err != nil {
		return errors.Storagef(err, "delete items of followed list %s", remoteDocID)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM followed_lists WHERE remote_doc_id = ?`, remoteDocID)
	if err != nil {
		return errors.Storagef(err, "delete followed list %s", remoteDocID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Storage("rows affected", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit delete followed list", err)
	}
	return nil
}

func scanFollowedList(scanner interface{ Scan(dest ...any) error }) (*domain.FollowedList, error) {
	var l domain.FollowedList

	var (
		isActive   int
		followedAt string
		updatedAt  string
	)

	err := scanner.Scan(
		&l.RemoteDocID,
		&l.Name,
		&l.OwnerID,
		&l.OwnerDisplayName,
		&isActive,
		&followedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.IsActive = isActive != 0
	l.FollowedAt, err = parseTime(followedAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}
