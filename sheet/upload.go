/*
upload.go - Stored sheet uploads and their persistence interface

PURPOSE:
  A facility uploads its sheets one by one and runs a check once all of them
  are present. Uploads are kept as explicit records keyed by id, so every run
  names the exact inputs it used and no state is shared between runs.

  Only INPUT sheets are stored. Check results are computed on demand and
  never persisted.

RETENTION:
  Uploads carry beneficiary names and birth dates. DeleteBefore lets the
  server's janitor purge anything older than the configured TTL.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - sheet/store/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - api/janitor.go: Periodic purge
*/
package sheet

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies which input a sheet is.
type Kind string

const (
	KindMaster     Kind = "master"     // beneficiary master list
	KindSchedule   Kind = "schedule"   // authority-issued schedule
	KindAttendance Kind = "attendance" // facility attendance log
	KindTimeLog    Kind = "timelog"    // attendance log with in/out times
	KindVehicles   Kind = "vehicles"   // transport log with vehicle columns
)

// Kinds lists every accepted upload kind.
var Kinds = []Kind{KindMaster, KindSchedule, KindAttendance, KindTimeLog, KindVehicles}

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Upload is one stored sheet.
type Upload struct {
	ID         string
	FacilityID string
	Kind       Kind
	Filename   string
	Rows       []Row
	CreatedAt  time.Time
}

// UploadInfo is an Upload without its rows, for listings.
type UploadInfo struct {
	ID         string
	FacilityID string
	Kind       Kind
	Filename   string
	RowCount   int
	CreatedAt  time.Time
}

// Info strips the rows from an upload.
func (u Upload) Info() UploadInfo {
	return UploadInfo{
		ID:         u.ID,
		FacilityID: u.FacilityID,
		Kind:       u.Kind,
		Filename:   u.Filename,
		RowCount:   len(u.Rows),
		CreatedAt:  u.CreatedAt,
	}
}

// Store persists uploads.
type Store interface {
	// Save stores an upload. The ID must be set by the caller.
	Save(ctx context.Context, u Upload) error

	// Get returns an upload with its rows, or ErrUploadNotFound.
	Get(ctx context.Context, id string) (Upload, error)

	// List returns uploads for a facility, newest first. An empty facility
	// lists everything.
	List(ctx context.Context, facilityID string) ([]UploadInfo, error)

	// Delete removes one upload. Deleting an unknown id returns ErrUploadNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteBefore removes uploads created before cutoff and returns how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
