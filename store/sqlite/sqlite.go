/*
Package sqlite provides a SQLite-backed implementation of sheet.Store.

PURPOSE:
  Keeps uploaded sheets between the upload request and the check request,
  so a facility can send its master list, schedule and attendance log one at
  a time. Only input sheets live here; check results are never written.

KEY TABLES:
  uploads:     One row per uploaded sheet (facility, kind, filename)
  upload_rows: The sheet's rows, one JSON array of cells per row

INDEXES:
  - idx_uploads_facility_created: Listing a facility's uploads, newest first
  - idx_uploads_created:          Janitor purge by age

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, same as the in-memory store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/carecheck.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - sheet/upload.go: Interface definition
  - sheet/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carecheck/attendance-engine/sheet"
)

// fixed-width UTC so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements sheet.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ sheet.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		filename TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_facility_created
		ON uploads(facility_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_uploads_created
		ON uploads(created_at);

	CREATE TABLE IF NOT EXISTS upload_rows (
		upload_id TEXT NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		cells_json TEXT NOT NULL,
		PRIMARY KEY (upload_id, row_index)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UPLOAD STORE (sheet.Store interface)
// =============================================================================

// Save stores an upload, replacing one with the same id.
func (s *Store) Save(ctx context.Context, u sheet.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM upload_rows WHERE upload_id = ?", u.ID); err != nil {
		return fmt.Errorf("failed to replace upload rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM uploads WHERE id = ?", u.ID); err != nil {
		return fmt.Errorf("failed to replace upload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO uploads (id, facility_id, kind, filename, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		u.ID,
		u.FacilityID,
		string(u.Kind),
		u.Filename,
		len(u.Rows),
		formatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO upload_rows (upload_id, row_index, cells_json) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range u.Rows {
		cells, err := json.Marshal([]string(row))
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, u.ID, i, string(cells)); err != nil {
			return fmt.Errorf("failed to save row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Get returns an upload with its rows.
func (s *Store) Get(ctx context.Context, id string) (sheet.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u         sheet.Upload
		kind      string
		rowCount  int
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, facility_id, kind, filename, row_count, created_at
		FROM uploads WHERE id = ?
	`, id).Scan(&u.ID, &u.FacilityID, &kind, &u.Filename, &rowCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sheet.Upload{}, sheet.ErrUploadNotFound
	}
	if err != nil {
		return sheet.Upload{}, fmt.Errorf("failed to load upload: %w", err)
	}
	u.Kind = sheet.Kind(kind)
	u.CreatedAt = parseTime(createdAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT cells_json FROM upload_rows WHERE upload_id = ? ORDER BY row_index ASC", id)
	if err != nil {
		return sheet.Upload{}, fmt.Errorf("failed to query upload rows: %w", err)
	}
	defer rows.Close()

	u.Rows = make([]sheet.Row, 0, rowCount)
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return sheet.Upload{}, fmt.Errorf("failed to scan upload row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return sheet.Upload{}, fmt.Errorf("failed to decode upload row: %w", err)
		}
		u.Rows = append(u.Rows, sheet.Row(cells))
	}
	return u, rows.Err()
}

// List returns a facility's uploads without rows, newest first.
func (s *Store) List(ctx context.Context, facilityID string) ([]sheet.UploadInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, facility_id, kind, filename, row_count, created_at
		FROM uploads
		WHERE (? = '' OR facility_id = ?)
		ORDER BY created_at DESC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, facilityID, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var result []sheet.UploadInfo
	for rows.Next() {
		var (
			info      sheet.UploadInfo
			kind      string
			createdAt string
		)
		if err := rows.Scan(&info.ID, &info.FacilityID, &kind, &info.Filename, &info.RowCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		info.Kind = sheet.Kind(kind)
		info.CreatedAt = parseTime(createdAt)
		result = append(result, info)
	}
	return result, rows.Err()
}

// Delete removes one upload and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM uploads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	if n == 0 {
		return sheet.ErrUploadNotFound
	}
	return nil
}

// DeleteBefore removes every upload created before cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM uploads WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge uploads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge uploads: %w", err)
	}
	return int(n), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
