package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mit112/flickswiper/internal/domain"
	"github.com/mit112/flickswiper/internal/errors"
	"github.com/mit112/flickswiper/internal/store"
)

// ledgerColumns is the ordered list of columns selected in ledger queries.
// Must match the scan order in scanLedgerRecord.
const ledgerColumns = `unique_key, kind, catalog_id, direction, date_changed, title, overview, poster_path, release_date, community_rating, genre_ids, personal_rating, source_platform`

// scanLedgerRecord scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.LedgerRecord.
func scanLedgerRecord(scanner interface{ Scan(dest ...any) error }) (*domain.LedgerRecord, error) {
	var r domain.LedgerRecord

	var (
		kind        string
		direction   string
		dateChanged string
		genreIDs    string
		rating      sql.NullInt64
		platform    sql.NullString
	)

	err := scanner.Scan(
		&r.UniqueKey,
		&kind,
		&r.CatalogID,
		&direction,
		&dateChanged,
		&r.Title,
		&r.Overview,
		&r.PosterPath,
		&r.ReleaseDate,
		&r.CommunityRating,
		&genreIDs,
		&rating,
		&platform,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = domain.CatalogKind(kind)

	d, ok := domain.ParseDirection(direction)
	if !ok {
		return nil, fmt.Errorf("unknown direction %q for %s", direction, r.UniqueKey)
	}
	r.Direction = d

	r.DateChanged, err = parseTime(dateChanged)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(genreIDs), &r.GenreIDs); err != nil {
		return nil, fmt.Errorf("decode genre IDs for %s: %w", r.UniqueKey, err)
	}

	if rating.Valid {
		v := int(rating.Int64)
		r.PersonalRating = &v
	}
	if platform.Valid {
		r.SourcePlatform = platform.String
	}

	return &r, nil
}

func encodeGenreIDs(ids []int) string {
	if len(ids) == 0 {
		return "[]"
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// getLedgerRecordTx reads one record inside a transaction.
func getLedgerRecordTx(ctx context.Context, tx *sql.Tx, key string) (*domain.LedgerRecord, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_records WHERE unique_key = ?`, key)
	return scanLedgerRecord(row)
}

// GetLedgerRecord retrieves a ledger record by its unique key.
// Returns store.ErrNotFound if no record exists.
func (s *Store) GetLedgerRecord(ctx context.Context, key string) (*domain.LedgerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_records WHERE unique_key = ?`, key)

	rec, err := scanLedgerRecord(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Storagef(err, "get ledger record %s", key)
	}
	return rec, nil
}

// UpsertDirection applies a direction-setting action with the promotion
// guard. If no record exists for the item's key, one is inserted with the
// requested direction. If one exists, the direction changes only when the
// requested rank is strictly higher; an equal or lower rank leaves every
// field untouched and the existing record is returned as-is.
//
// On promotion the display metadata carried by item is refreshed and
// sourcePlatform overwrites the stored value only when non-empty. The
// personal rating always survives.
func (s *Store) UpsertDirection(ctx context.Context, item domain.CatalogItem, direction domain.Direction, sourcePlatform string) (*store.UpsertResult, error) {
	key := item.Key()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Storage("begin upsert", err)
	}
	defer tx.Rollback()

	now := time.Now()

	existing, err := getLedgerRecordTx(ctx, tx, key)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Storagef(err, "lookup ledger record %s", key)
	}

	// Fresh insert: no prior record for this key.
	if existing == nil {
		rec := &domain.LedgerRecord{
			UniqueKey:       key,
			Kind:            item.Kind,
			CatalogID:       item.ID,
			Direction:       direction,
			DateChanged:     now,
			Title:           item.Title,
			Overview:        item.Overview,
			PosterPath:      item.PosterPath,
			ReleaseDate:     item.ReleaseDate,
			CommunityRating: item.CommunityRating,
			GenreIDs:        item.GenreIDs,
			SourcePlatform:  sourcePlatform,
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_records (
				unique_key, kind, catalog_id, direction, date_changed,
				title, overview, poster_path, release_date, community_rating,
				genre_ids, personal_rating, source_platform
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
			rec.UniqueKey,
			string(rec.Kind),
			rec.CatalogID,
			rec.Direction.String(),
			formatTime(rec.DateChanged),
			rec.Title,
			rec.Overview,
			rec.PosterPath,
			rec.ReleaseDate,
			rec.CommunityRating,
			encodeGenreIDs(rec.GenreIDs),
			nullString(rec.SourcePlatform),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return nil, store.ErrAlreadyExists
			}
			return nil, errors.Storagef(err, "insert ledger record %s", key)
		}

		if err := tx.Commit(); err != nil {
			return nil, errors.Storage("commit upsert", err)
		}
		return &store.UpsertResult{Record: rec, Created: true}, nil
	}

	result := &store.UpsertResult{
		Record:        existing,
		PrevDirection: existing.Direction,
		PrevChanged:   existing.DateChanged,
	}

	// Equal or lower rank: reject the write entirely. A provider re-serving
	// an already-seen item must never demote it or erase its metadata.
	if !existing.Promotes(direction) {
		return result, nil
	}

	platform := existing.SourcePlatform
	if sourcePlatform != "" {
		platform = sourcePlatform
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ledger_records SET
			direction = ?,
			date_changed = ?,
			title = ?,
			overview = ?,
			poster_path = ?,
			release_date = ?,
			community_rating = ?,
			genre_ids = ?,
			source_platform = ?
		WHERE unique_key = ?`,
		direction.String(),
		formatTime(now),
		item.Title,
		item.Overview,
		item.PosterPath,
		item.ReleaseDate,
		item.CommunityRating,
		encodeGenreIDs(item.GenreIDs),
		nullString(platform),
		key,
	)
	if err != nil {
		return nil, errors.Storagef(err, "promote ledger record %s", key)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Storage("commit upsert", err)
	}

	promoted := *existing
	promoted.Direction = direction
	promoted.DateChanged = now
	promoted.Title = item.Title
	promoted.Overview = item.Overview
	promoted.PosterPath = item.PosterPath
	promoted.ReleaseDate = item.ReleaseDate
	promoted.CommunityRating = item.CommunityRating
	promoted.GenreIDs = item.GenreIDs
	promoted.SourcePlatform = platform

	result.Record = &promoted
	result.Promoted = true
	return result, nil
}

// SetPersonalRating sets the 1..5 star rating on an existing record.
// The rating is independent of direction and survives later promotions.
func (s *Store) SetPersonalRating(ctx context.Context, key string, stars int) error {
	if !domain.ValidRating(stars) {
		return errors.Validationf("rating %d out of range 1..5", stars)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE ledger_records SET personal_rating = ? WHERE unique_key = ?`, stars, key)
	if err != nil {
		return errors.Storagef(err, "set rating on %s", key)
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

// RestoreDirection rewinds a record to a previous direction and change
// timestamp. Undo uses this for promotions; it bypasses the promotion guard
// on purpose and touches no other field.
func (s *Store) RestoreDirection(ctx context.Context, key string, direction domain.Direction, dateChanged time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE ledger_records SET direction = ?, date_changed = ? WHERE unique_key = ?`,
		direction.String(), formatTime(dateChanged), key)
	if err != nil {
		return errors.Storagef(err, "restore direction on %s", key)
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

// DeleteLedgerRecord deletes a record and every list entry referencing its
// key, in one transaction, so list counts never include dangling members.
// Returns store.ErrNotFound if no record exists.
func (s *Store) DeleteLedgerRecord(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_entries WHERE item_key = ?`, key); err != nil {
		return errors.Storagef(err, "delete entries for %s", key)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM ledger_records WHERE unique_key = ?`, key)
	if err != nil {
		return errors.Storagef(err, "delete ledger record %s", key)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Storage("rows affected", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit delete", err)
	}
	return nil
}

// PurgeDirection deletes every record with the given direction plus their
// list entries, in one transaction. Used by settings-level resets of
// skipped or watchlist records. Returns the number of records deleted.
func (s *Store) PurgeDirection(ctx context.Context, direction domain.Direction) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Storage("begin purge", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM list_entries WHERE item_key IN (
			SELECT unique_key FROM ledger_records WHERE direction = ?
		)`, direction.String()); err != nil {
		return 0, errors.Storagef(err, "purge entries for %s records", direction)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM ledger_records WHERE direction = ?`, direction.String())
	if err != nil {
		return 0, errors.Storagef(err, "purge %s records", direction)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Storage("rows affected", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Storage("commit purge", err)
	}
	return int(n), nil
}

// ListLedgerRecords returns records, optionally filtered by direction,
// most recently changed first.
func (s *Store) ListLedgerRecords(ctx context.Context, direction *domain.Direction, page store.Pagination) ([]*domain.LedgerRecord, error) {
	page.Validate()

	query := `SELECT ` + ledgerColumns + ` FROM ledger_records`
	var args []any
	if direction != nil {
		query += ` WHERE direction = ?`
		args = append(args, direction.String())
	}
	query += ` ORDER BY date_changed DESC`
	if page.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, page.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Storage("list ledger records", err)
	}
	defer rows.Close()

	var records []*domain.LedgerRecord
	for rows.Next() {
		rec, err := scanLedgerRecord(rows)
		if err != nil {
			return nil, errors.Storage("scan ledger record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate ledger records", err)
	}
	return records, nil
}

// CountLedgerRecords returns the total number of ledger records.
func (s *Store) CountLedgerRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_records`).Scan(&n); err != nil {
		return 0, errors.Storage("count ledger records", err)
	}
	return n, nil
}
