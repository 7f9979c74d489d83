package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/id"
	"github.com/mit112/flickswiper/internal/store"
)

// listColumns is the ordered list of columns selected in list queries.
// Must match the scan order in scanList.
const listColumns = `id, name, created_at, sort_order, remote_doc_id, is_published, last_synced_at`

func scanList(scanner interface{ Scan(dest ...any) error }) (*domain.MediaList, error) {
	var l domain.MediaList

	var (
		createdAt    string
		remoteDocID  sql.NullString
		isPublished  int
		lastSyncedAt sql.NullString
	)

	err := scanner.Scan(
		&l.ID,
		&l.Name,
		&createdAt,
		&l.SortOrder,
		&remoteDocID,
		&isPublished,
		&lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.LastSyncedAt, err = parseNullableTime(lastSyncedAt)
	if err != nil {
		return nil, err
	}

	l.RemoteDocID = remoteDocID.String
	l.IsPublished = isPublished != 0

	return &l, nil
}

// CreateList inserts a new list. Returns store.ErrAlreadyExists on
// duplicate ID.
func (s *Store) CreateList(ctx context.Context, list *domain.MediaList) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_lists (id, name, created_at, sort_order, remote_doc_id, is_published, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list.ID,
		list.Name,
		formatTime(list.CreatedAt),
		list.SortOrder,
		nullString(list.RemoteDocID),
		boolToInt(list.IsPublished),
		nullTimeString(list.LastSyncedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return errors.Storagef(err, "create list %s", list.ID)
	}
	return nil
}

// GetList retrieves a list by ID. Returns store.ErrNotFound if it does
// not exist.
func (s *Store) GetList(ctx context.Context, listID string) (*domain.MediaList, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM media_lists WHERE id = ?`, listID)

	list, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Storagef(err, "get list %s", listID)
	}
	return list, nil
}

// ListLists returns all lists ordered by sort order, then creation time.
func (s *Store) ListLists(ctx context.Context) ([]*domain.MediaList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM media_lists ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, errors.Storage("list lists", err)
	}
	defer rows.Close()

	var lists []*domain.MediaList
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, errors.Storage("scan list", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate lists", err)
	}
	return lists, nil
}

// UpdateList updates a list row (name, sort order, publish state).
// Returns store.ErrNotFound if the list does not exist.
func (s *Store) UpdateList(ctx context.Context, list *domain.MediaList) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE media_lists SET
			name = ?,
			sort_order = ?,
			remote_doc_id = ?,
			is_published = ?,
			last_synced_at = ?
		WHERE id = ?`,
		list.Name,
		list.SortOrder,
		nullString(list.RemoteDocID),
		boolToInt(list.IsPublished),
		nullTimeString(list.LastSyncedAt),
		list.ID,
	)
	if err != nil {
		return errors.Storagef(err, "update list %s", list.ID)
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

// DeleteList deletes a list and all of its entries in one transaction.
// Returns store.ErrNotFound if the list does not exist.
func (s *Store) DeleteList(ctx context.Context, listID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin delete list", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_entries WHERE list_id = ?`, listID); err != nil {
		return errors.Storagef(err, "delete entries of list %s", listID)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM media_lists WHERE id = ?`, listID)
	if err != nil {
		return errors.Storagef(err, "delete list %s", listID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Storage("rows affected", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit delete list", err)
	}
	return nil
}

// currentEntryKeys reads the membership keys of a list inside a
// transaction. Mutating operations call this immediately before applying
// deltas so racing edits from another surface are observed.
func currentEntryKeys(ctx context.Context, tx *sql.Tx, listID string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT item_key FROM list_entries WHERE list_id = ?`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// repairDuplicateEntries deletes all but the oldest entry for each
// (list_id, item_key) pair. Membership toggles can race across UI
// surfaces, so every mutating operation ends with this self-healing scan
// instead of relying on a uniqueness constraint.
func repairDuplicateEntries(ctx context.Context, tx *sql.Tx, listID string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM list_entries
		WHERE list_id = ? AND rowid NOT IN (
			SELECT MIN(rowid) FROM list_entries WHERE list_id = ? GROUP BY item_key
		)`, listID, listID)
	return err
}

func insertEntry(ctx context.Context, tx *sql.Tx, listID, itemKey string, sortOrder int) error {
	entryID, err := id.Generate("ent")
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO list_entries (id, list_id, item_key, date_added, sort_order)
		VALUES (?, ?, ?, ?, ?)`,
		entryID, listID, itemKey, formatTime(time.Now()), sortOrder)
	return err
}

// AddListEntries adds the given item keys to a list, skipping keys already
// present. Returns store.ErrNotFound if the list does not exist.
func (s *Store) AddListEntries(ctx context.Context, listID string, itemKeys []string) error {
	if _, err := s.GetList(ctx, listID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin add entries", err)
	}
	defer tx.Rollback()

	current, err := currentEntryKeys(ctx, tx, listID)
	if err != nil {
		return errors.Storagef(err, "read entries of list %s", listID)
	}

	order := len(current)
	for _, key := range itemKeys {
		if current[key] {
			continue
		}
		if err := insertEntry(ctx, tx, listID, key, order); err != nil {
			return errors.Storagef(err, "insert entry %s into list %s", key, listID)
		}
		current[key] = true
		order++
	}

	if err := repairDuplicateEntries(ctx, tx, listID); err != nil {
		return errors.Storagef(err, "repair duplicates in list %s", listID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit add entries", err)
	}
	return nil
}

// RemoveListEntries removes the given item keys from a list. Keys not in
// the list are ignored.
func (s *Store) RemoveListEntries(ctx context.Context, listID string, itemKeys []string) error {
	if _, err := s.GetList(ctx, listID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin remove entries", err)
	}
	defer tx.Rollback()

	for _, key := range itemKeys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM list_entries WHERE list_id = ? AND item_key = ?`, listID, key); err != nil {
			return errors.Storagef(err, "remove entry %s from list %s", key, listID)
		}
	}

	if err := repairDuplicateEntries(ctx, tx, listID); err != nil {
		return errors.Storagef(err, "repair duplicates in list %s", listID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit remove entries", err)
	}
	return nil
}

// ReconcileListEntries makes a list's membership exactly match
// selectedKeys: additions are selected minus current, removals are current
// minus selected. Calling it twice with the same set is a no-op the second
// time.
func (s *Store) ReconcileListEntries(ctx context.Context, listID string, selectedKeys []string) error {
	if _, err := s.GetList(ctx, listID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin reconcile", err)
	}
	defer tx.Rollback()

	current, err := currentEntryKeys(ctx, tx, listID)
	if err != nil {
		return errors.Storagef(err, "read entries of list %s", listID)
	}

	selected := make(map[string]bool, len(selectedKeys))
	for _, key := range selectedKeys {
		selected[key] = true
	}

	order := len(current)
	for _, key := range selectedKeys {
		if current[key] {
			continue
		}
		if err := insertEntry(ctx, tx, listID, key, order); err != nil {
			return errors.Storagef(err, "insert entry %s into list %s", key, listID)
		}
		order++
	}

	for key := range current {
		if selected[key] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM list_entries WHERE list_id = ? AND item_key = ?`, listID, key); err != nil {
			return errors.Storagef(err, "remove entry %s from list %s", key, listID)
		}
	}

	if err := repairDuplicateEntries(ctx, tx, listID); err != nil {
		return errors.Storagef(err, "repair duplicates in list %s", listID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit reconcile", err)
	}
	return nil
}

// GetListEntries returns a list's entries in sort order, then by date
// added.
func (s *Store) GetListEntries(ctx context.Context, listID string) ([]*domain.ListEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, list_id, item_key, date_added, sort_order
		FROM list_entries WHERE list_id = ?
		ORDER BY sort_order, date_added`, listID)
	if err != nil {
		return nil, errors.Storagef(err, "get entries of list %s", listID)
	}
	defer rows.Close()

	var entries []*domain.ListEntry
	for rows.Next() {
		var e domain.ListEntry
		var dateAdded string
		if err := rows.Scan(&e.ID, &e.ListID, &e.ItemKey, &dateAdded, &e.SortOrder); err != nil {
			return nil, errors.Storage("scan entry", err)
		}
		e.DateAdded, err = parseTime(dateAdded)
		if err != nil {
			return nil, errors.Storage("parse entry date", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate entries", err)
	}
	return entries, nil
}
