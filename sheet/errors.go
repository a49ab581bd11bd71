/*
errors.go - Error types for sheet reading and header discovery

PURPOSE:
  All sheet-level errors in one place. Header errors are FATAL for a run:
  without the columns there is nothing to reconcile. Row-level problems are
  never errors; extractors skip those rows and count them.

ERROR CATEGORIES:
  1. Header errors - required labels missing or ambiguous in the scan window
  2. Reader errors - unknown file type, missing worksheet
  3. Store errors  - upload lookup failures

USAGE:
  if errors.Is(err, sheet.ErrHeaderNotFound) {
      var hnf *sheet.HeaderNotFoundError
      errors.As(err, &hnf)
      // hnf.Missing lists the labels that were never seen
  }

SEE ALSO:
  - header.go: Produces header errors
  - read.go: Produces reader errors
*/
package sheet

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrHeaderNotFound is returned when no row in the scan window carries
	// every required column label.
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrAmbiguousHeader is returned in strict mode when more than one row
	// in the scan window qualifies as the header.
	ErrAmbiguousHeader = errors.New("ambiguous header row")

	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported sheet format")

	// ErrUnreadableSheet is returned when file content cannot be parsed as
	// the format its extension claims.
	ErrUnreadableSheet = errors.New("unreadable sheet")

	// ErrSheetNotFound is returned when a named worksheet is absent.
	ErrSheetNotFound = errors.New("worksheet not found")

	// ErrUploadNotFound is returned when an upload id is unknown to the store.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrInvalidKind is returned for an upload kind outside the known set.
	ErrInvalidKind = errors.New("invalid upload kind")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// HeaderNotFoundError names the sheet and the labels that could not be
// located.
type HeaderNotFoundError struct {
	Sheet   string
	Missing []string
	Window  int
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("%s: header row with columns [%s] not found in first %d rows",
		e.Sheet, strings.Join(e.Missing, ", "), e.Window)
}

func (e *HeaderNotFoundError) Unwrap() error {
	return ErrHeaderNotFound
}

// AmbiguousHeaderError lists every row index that qualified as a header.
type AmbiguousHeaderError struct {
	Sheet string
	Rows  []int
}

func (e *AmbiguousHeaderError) Error() string {
	rows := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		rows[i] = fmt.Sprint(r + 1)
	}
	return fmt.Sprintf("%s: several rows qualify as header (rows %s)", e.Sheet, strings.Join(rows, ", "))
}

func (e *AmbiguousHeaderError) Unwrap() error {
	return ErrAmbiguousHeader
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsStructural reports whether err means a sheet cannot be used at all,
// as opposed to an I/O or storage failure.
func IsStructural(err error) bool {
	return errors.Is(err, ErrHeaderNotFound) ||
		errors.Is(err, ErrAmbiguousHeader) ||
		errors.Is(err, ErrSheetNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrUnreadableSheet)
}
