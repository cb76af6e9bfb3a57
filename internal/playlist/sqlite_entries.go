package playlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const entryColumns = "id, path, name, source_path, slide_seconds, converting, media_offline, resolution, duration, in_point, out_point, thumbnail, error_message, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(scanner rowScanner) (Entry, error) {
	var (
		entry        Entry
		sourcePath   sql.NullString
		slideSeconds sql.NullString
		converting   int64
		mediaOffline int64
		outPoint     sql.NullString
		thumbnail    sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Path,
		&entry.Name,
		&sourcePath,
		&slideSeconds,
		&converting,
		&mediaOffline,
		&entry.Resolution,
		&entry.Duration,
		&entry.InPoint,
		&outPoint,
		&thumbnail,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return Entry{}, err
	}
	entry.SourcePath = sourcePath.String
	entry.SlideSeconds = slideSeconds.String
	entry.Converting = converting != 0
	entry.MediaOffline = mediaOffline != 0
	entry.OutPoint = outPoint.String
	entry.Thumbnail = thumbnail.String
	entry.ErrorMessage = errorMessage.String
	entry.CreatedAt = parseTime(createdRaw)
	entry.UpdatedAt = parseTime(updatedRaw)
	return entry, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// All returns the playlist in order.
func (s *SQLiteStore) All(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	entries := []Entry{}
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM playlist_entries ORDER BY position, rowid`)
		if err != nil {
			return err
		}
		defer rows.Close()
		entries = entries[:0]
		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list playlist: %w", err)
	}
	return entries, nil
}

// ReplaceAll overwrites the playlist with entries, preserving their order.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, entries []Entry) error {
	if err := checkUniqueIDs(entries); err != nil {
		return err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_entries`); err != nil {
			return err
		}
		for i, entry := range entries {
			if err := insertEntry(ctx, tx, entry, int64(i+1)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace playlist: %w", err)
	}
	return nil
}

// Get returns the entry with id or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Entry, error) {
	ctx = ensureContext(ctx)
	var entry Entry
	err := retryOnBusy(ctx, func() error {
		var scanErr error
		entry, scanErr = scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM playlist_entries WHERE id = ?`, id))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// Append adds entry to the end of the playlist.
func (s *SQLiteStore) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("append entry: missing id")
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_entries`).Scan(&next); err != nil {
			return err
		}
		return insertEntry(ctx, tx, entry, next)
	})
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// Remove deletes the entry with id and reports whether it existed.
func (s *SQLiteStore) Remove(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM playlist_entries WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}
	return removed, nil
}

// RemoveWhere deletes, in one transaction, every entry for which match
// returns true and reports how many were removed.
func (s *SQLiteStore) RemoveWhere(ctx context.Context, match func(Entry) bool) (int, error) {
	var removed int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		removed = 0
		rows, err := tx.QueryContext(ctx, `SELECT `+entryColumns+` FROM playlist_entries`)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				_ = rows.Close()
				return err
			}
			if match(entry) {
				ids = append(ids, entry.ID)
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_entries WHERE id = ?`, id); err != nil {
				return err
			}
		}
		removed = len(ids)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("remove entries: %w", err)
	}
	return removed, nil
}

// errTransform marks errors returned by an Update callback so they pass
// through unwrapped.
type errTransform struct{ err error }

func (e errTransform) Error() string { return e.err.Error() }
func (e errTransform) Unwrap() error { return e.err }

// Update re-reads the entry inside a transaction, applies fn and writes the
// result back. The entry's ID and position are preserved.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*Entry) error) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		found = false
		entry, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM playlist_entries WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		if err := fn(&entry); err != nil {
			return errTransform{err: err}
		}
		entry.ID = id
		entry.UpdatedAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE playlist_entries
             SET path = ?, name = ?, source_path = ?, slide_seconds = ?, converting = ?, media_offline = ?,
                 resolution = ?, duration = ?, in_point = ?, out_point = ?, thumbnail = ?,
                 error_message = ?, updated_at = ?
             WHERE id = ?`,
			entry.Path,
			entry.Name,
			nullableString(entry.SourcePath),
			nullableString(entry.SlideSeconds),
			boolInt(entry.Converting),
			boolInt(entry.MediaOffline),
			entry.Resolution,
			entry.Duration,
			entry.InPoint,
			nullableString(entry.OutPoint),
			nullableString(entry.Thumbnail),
			nullableString(entry.ErrorMessage),
			formatTime(entry.UpdatedAt),
			id,
		)
		return err
	})
	var transformErr errTransform
	if errors.As(err, &transformErr) {
		return true, transformErr.err
	}
	if err != nil {
		return found, fmt.Errorf("update entry: %w", err)
	}
	return found, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry Entry, position int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO playlist_entries (`+entryColumns+`, position)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Path,
		entry.Name,
		nullableString(entry.SourcePath),
		nullableString(entry.SlideSeconds),
		boolInt(entry.Converting),
		boolInt(entry.MediaOffline),
		entry.Resolution,
		entry.Duration,
		entry.InPoint,
		nullableString(entry.OutPoint),
		nullableString(entry.Thumbnail),
		nullableString(entry.ErrorMessage),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
		position,
	)
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", entry.ID, err)
	}
	return nil
}
