package schedule

import (
	"strings"

	"github.com/carecheck/attendance-engine/keys"
	"github.com/carecheck/attendance-engine/roster"
	"github.com/carecheck/attendance-engine/sheet"
)

// =============================================================================
// RECORDS
// =============================================================================

// ReconciledKey joins the authority schedule and the facility log.
type ReconciledKey struct {
	ID   string // recognition number
	Date string // YYYYMMDD
}

func (k ReconciledKey) String() string { return k.ID + "|" + k.Date }

func (k ReconciledKey) less(o ReconciledKey) bool {
	if k.ID != o.ID {
		return k.ID < o.ID
	}
	return k.Date < o.Date
}

// ScheduleRecord is one row of the authority schedule. The recognition number
// is present in the source, so no resolution is needed.
type ScheduleRecord struct {
	ID   string
	Date string
	Name string // display only
}

func (r ScheduleRecord) Key() ReconciledKey { return ReconciledKey{ID: r.ID, Date: r.Date} }

// AttendanceRecord is one row of the facility attendance log.
type AttendanceRecord struct {
	Key     roster.PersonKey
	Date    string
	Name    string
	Status  string
	Present bool
}

// =============================================================================
// SCHEDULE SHEET
// =============================================================================

// Column label names for the schedule sheet.
const (
	ColScheduleID   = "id"
	ColScheduleDate = "date"
	ColScheduleName = "name"
)

// ScheduleOptions control how the authority schedule is read.
//
// The recognition-number column is always located by label. Date and name
// columns are located by label when the header carries one, else the fixed
// fallback columns are used. The date label matches whole cells only, so
// "작성일자" and similar metadata columns never displace the date.
type ScheduleOptions struct {
	Scanner      sheet.HeaderScanner
	ID           sheet.Label
	Date         sheet.Label
	Name         sheet.Label
	DateFallback string
	NameFallback string
}

// DefaultScheduleOptions match the authority's schedule export.
func DefaultScheduleOptions() ScheduleOptions {
	return ScheduleOptions{
		Scanner:      sheet.HeaderScanner{Window: 10, Width: 20},
		ID:           sheet.ContainsLabel(ColScheduleID, "인정번호"),
		Date:         sheet.Label{Name: ColScheduleDate, Exact: []string{"일자", "날짜", "서비스일자", "급여제공일자"}},
		Name:         sheet.Label{Name: ColScheduleName, Contains: []string{"수급자명"}, Exact: []string{"성명", "이름"}},
		DateFallback: "A",
		NameFallback: "D",
	}
}

// ExtractSchedule reads schedule records. A missing identifier header is
// fatal; rows without an identifier or a usable date are skipped.
func ExtractSchedule(rows []sheet.Row, opts ScheduleOptions) ([]ScheduleRecord, int, error) {
	opts.ID.Name, opts.Date.Name, opts.Name.Name = ColScheduleID, ColScheduleDate, ColScheduleName

	header, err := opts.Scanner.Scan("schedule", rows, opts.ID)
	if err != nil {
		return nil, 0, err
	}

	idCol := header.Column(ColScheduleID)
	dateCol, nameCol := sheet.ColumnIndex(opts.DateFallback), sheet.ColumnIndex(opts.NameFallback)
	optional := opts.Scanner.FindOptional(rows[header.Row], opts.Date, opts.Name)
	if c, ok := optional[ColScheduleDate]; ok {
		dateCol = c
	}
	if c, ok := optional[ColScheduleName]; ok {
		nameCol = c
	}

	records, skipped := sheet.Extract(rows, header.Row, func(_ int, r sheet.Row) (ScheduleRecord, bool) {
		rec := ScheduleRecord{
			ID:   r.Cell(idCol),
			Date: keys.NormalizeDate(r.Cell(dateCol)),
			Name: keys.NormalizeName(r.Cell(nameCol)),
		}
		return rec, rec.ID != "" && keys.IsDateKey(rec.Date)
	})
	return records, skipped, nil
}

// =============================================================================
// ATTENDANCE SHEET
// =============================================================================

// AttendanceLayout describes the facility attendance log. Its columns are at
// fixed positions after a single header row; the log has no label scan.
type AttendanceLayout struct {
	HeaderRows      int
	NameColumn      string
	BirthColumn     string
	DateColumn      string
	StatusColumn    string
	PresentStatuses []string
}

// DefaultAttendanceLayout matches the facility system's attendance export.
func DefaultAttendanceLayout() AttendanceLayout {
	return AttendanceLayout{
		HeaderRows:      1,
		NameColumn:      "A",
		BirthColumn:     "B",
		DateColumn:      "C",
		StatusColumn:    "E",
		PresentStatuses: []string{"입퇴소", "출석"},
	}
}

// IsPresent reports whether a status cell counts as attendance.
func (l AttendanceLayout) IsPresent(status string) bool {
	s := strings.TrimSpace(status)
	if s == "" {
		return false
	}
	for _, p := range l.PresentStatuses {
		if s == p {
			return true
		}
	}
	return false
}

// ExtractAttendance reads attendance records. Rows without a name or a
// usable date are skipped. The birth fragment is kept as found; an invalid
// one simply fails to resolve later.
func ExtractAttendance(rows []sheet.Row, layout AttendanceLayout) ([]AttendanceRecord, int) {
	return sheet.Extract(rows, layout.HeaderRows-1, func(_ int, r sheet.Row) (AttendanceRecord, bool) {
		status := r.At(layout.StatusColumn)
		rec := AttendanceRecord{
			Key:     roster.NewPersonKey(r.At(layout.NameColumn), r.At(layout.BirthColumn)),
			Date:    keys.NormalizeDate(r.At(layout.DateColumn)),
			Status:  status,
			Present: layout.IsPresent(status),
		}
		rec.Name = rec.Key.Name
		return rec, rec.Name != "" && keys.IsDateKey(rec.Date)
	})
}
