/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  engine's report types.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Uploads:
    UploadDTO, CreateUploadRequest

  Checks:
    SheetRef, VerifyScheduleRequest, CheckRequest
    ScheduleReportDTO, IntervalReportDTO, CollisionReportDTO

  Samples:
    SampleDTO, LoadSampleRequest, LoadSampleResponse

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carecheck/attendance-engine/attendance"
	"github.com/carecheck/attendance-engine/keys"
	"github.com/carecheck/attendance-engine/schedule"
	"github.com/carecheck/attendance-engine/sheet"
)

// =============================================================================
// UPLOADS
// =============================================================================

// UploadDTO represents a stored upload in API responses.
type UploadDTO struct {
	ID         string     `json:"id"`
	FacilityID string     `json:"facility_id"`
	Kind       string     `json:"kind"`
	Filename   string     `json:"filename"`
	RowCount   int        `json:"row_count"`
	CreatedAt  string     `json:"created_at"`
	Rows       [][]string `json:"rows,omitempty"`
}

// CreateUploadRequest is the JSON form of an upload. Multipart uploads
// carry the same fields as form values plus a file.
type CreateUploadRequest struct {
	FacilityID string     `json:"facility_id"`
	Kind       string     `json:"kind"`
	Filename   string     `json:"filename"`
	Rows       [][]string `json:"rows"`
}

func toUploadDTO(info sheet.UploadInfo) UploadDTO {
	return UploadDTO{
		ID:         info.ID,
		FacilityID: info.FacilityID,
		Kind:       string(info.Kind),
		Filename:   info.Filename,
		RowCount:   info.RowCount,
		CreatedAt:  info.CreatedAt.Format(time.RFC3339),
	}
}

func rowsToStrings(rows []sheet.Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string(r)
	}
	return out
}

// =============================================================================
// CHECK REQUESTS
// =============================================================================

// SheetRef names a sheet either by stored upload or inline rows.
type SheetRef struct {
	UploadID string     `json:"upload_id,omitempty"`
	Rows     [][]string `json:"rows,omitempty"`
}

// VerifyScheduleRequest is the request to run a schedule verification.
type VerifyScheduleRequest struct {
	Master     SheetRef `json:"master"`
	Schedule   SheetRef `json:"schedule"`
	Attendance SheetRef `json:"attendance"`
}

// CheckRequest is the request for single-sheet checks.
type CheckRequest struct {
	Sheet SheetRef `json:"sheet"`
}

// =============================================================================
// SCHEDULE REPORT
// =============================================================================

// ScheduleReportDTO is a verification report.
type ScheduleReportDTO struct {
	Clean          bool             `json:"clean"`
	Counts         CountsDTO        `json:"counts"`
	Stats          schedule.Stats   `json:"stats"`
	Absent         []AbsentDTO      `json:"absent"`
	Unscheduled    []UnscheduledDTO `json:"unscheduled"`
	NotFound       []UnresolvedDTO  `json:"not_found"`
	NotFoundTotal  int              `json:"not_found_total"`
	Ambiguous      []UnresolvedDTO  `json:"ambiguous"`
	AmbiguousTotal int              `json:"ambiguous_total"`
}

// CountsDTO holds the four discrepancy counts.
type CountsDTO struct {
	Absent              int `json:"absent"`
	UnscheduledPresence int `json:"unscheduled_presence"`
	UnresolvedNotFound  int `json:"unresolved_not_found"`
	UnresolvedAmbiguous int `json:"unresolved_ambiguous"`
}

// AbsentDTO is a scheduled day without attendance.
type AbsentDTO struct {
	Key           string `json:"key"`
	RecognitionID string `json:"recognition_id"`
	Date          string `json:"date"`
	Name          string `json:"name"`
}

// UnscheduledDTO is an attended day without a schedule entry.
type UnscheduledDTO struct {
	Key           string `json:"key"`
	RecognitionID string `json:"recognition_id"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	Birth         string `json:"birth"`
}

// UnresolvedDTO is an attendance identity the roster could not resolve.
type UnresolvedDTO struct {
	Date       string   `json:"date"`
	Name       string   `json:"name"`
	Birth      string   `json:"birth"`
	Candidates []string `json:"candidates,omitempty"`
}

// NewScheduleReportDTO flattens a report for JSON; the CLI reuses it.
func NewScheduleReportDTO(r *schedule.Report) ScheduleReportDTO {
	c := r.Counts()
	dto := ScheduleReportDTO{
		Clean: r.Clean(),
		Counts: CountsDTO{
			Absent:              c.Absent,
			UnscheduledPresence: c.UnscheduledPresence,
			UnresolvedNotFound:  c.UnresolvedNotFound,
			UnresolvedAmbiguous: c.UnresolvedAmbiguous,
		},
		Stats:          r.Stats,
		Absent:         make([]AbsentDTO, len(r.Absent)),
		Unscheduled:    make([]UnscheduledDTO, len(r.Unscheduled)),
		NotFound:       make([]UnresolvedDTO, len(r.NotFound)),
		NotFoundTotal:  r.NotFoundTotal,
		Ambiguous:      make([]UnresolvedDTO, len(r.Ambiguous)),
		AmbiguousTotal: r.AmbiguousTotal,
	}
	for i, e := range r.Absent {
		dto.Absent[i] = AbsentDTO{
			Key:           e.Key.String(),
			RecognitionID: e.Key.ID,
			Date:          keys.FormatDateForDisplay(e.Key.Date),
			Name:          e.Name,
		}
	}
	for i, e := range r.Unscheduled {
		dto.Unscheduled[i] = UnscheduledDTO{
			Key:           e.Key.String(),
			RecognitionID: e.Key.ID,
			Date:          keys.FormatDateForDisplay(e.Key.Date),
			Name:          e.Name,
			Birth:         e.Birth,
		}
	}
	for i, e := range r.NotFound {
		dto.NotFound[i] = UnresolvedDTO{Date: e.Date, Name: e.Name, Birth: e.Birth}
	}
	for i, e := range r.Ambiguous {
		dto.Ambiguous[i] = UnresolvedDTO{Date: e.Date, Name: e.Name, Birth: e.Birth, Candidates: e.Candidates}
	}
	return dto
}

// =============================================================================
// INTERVAL REPORT
// =============================================================================

// IntervalReportDTO is the session length report.
type IntervalReportDTO struct {
	Buckets    []BucketDTO `json:"buckets"`
	Total      int         `json:"total"`
	FullDay    int         `json:"full_day"`
	Unbucketed int         `json:"unbucketed"`
	Skipped    int         `json:"skipped_rows"`
}

// BucketDTO is one duration bucket.
type BucketDTO struct {
	Label      string        `json:"label"`
	MinMinutes int           `json:"min_minutes"`
	MaxMinutes int           `json:"max_minutes"`
	Intervals  []IntervalDTO `json:"intervals"`
}

// IntervalDTO is one measured session.
type IntervalDTO struct {
	Name    string          `json:"name"`
	Birth   string          `json:"birth"`
	Date    string          `json:"date"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Minutes int             `json:"minutes"`
	Hours   decimal.Decimal `json:"hours"`
}

func NewIntervalReportDTO(r attendance.IntervalReport) IntervalReportDTO {
	dto := IntervalReportDTO{
		Buckets:    make([]BucketDTO, len(r.Buckets)),
		Total:      r.Total(),
		FullDay:    r.FullDay,
		Unbucketed: r.Unbucketed,
		Skipped:    r.Skipped,
	}
	for i, b := range r.Buckets {
		bd := BucketDTO{
			Label:      b.Bucket.Label,
			MinMinutes: b.Bucket.Min,
			MaxMinutes: b.Bucket.Max,
			Intervals:  make([]IntervalDTO, len(b.Intervals)),
		}
		for j, iv := range b.Intervals {
			bd.Intervals[j] = IntervalDTO{
				Name:    iv.Name,
				Birth:   iv.Birth,
				Date:    keys.FormatDateForDisplay(iv.Date),
				Start:   keys.FormatTimeForDisplay(iv.Start),
				End:     keys.FormatTimeForDisplay(iv.End),
				Minutes: iv.Minutes,
				Hours:   iv.Hours,
			}
		}
		dto.Buckets[i] = bd
	}
	return dto
}

// =============================================================================
// COLLISIONS
// =============================================================================

// CollisionReportDTO lists vehicle double bookings.
type CollisionReportDTO struct {
	Trips      int            `json:"trips"`
	Collisions []CollisionDTO `json:"collisions"`
}

// CollisionDTO is one shared vehicle slot.
type CollisionDTO struct {
	Leg     string      `json:"leg"`
	Date    string      `json:"date"`
	Vehicle string      `json:"vehicle"`
	Time    string      `json:"time"`
	People  []PersonDTO `json:"people"`
}

// PersonDTO identifies a rider.
type PersonDTO struct {
	Name  string `json:"name"`
	Birth string `json:"birth"`
}

func NewCollisionReportDTO(trips int, collisions []attendance.Collision) CollisionReportDTO {
	dto := CollisionReportDTO{Trips: trips, Collisions: make([]CollisionDTO, len(collisions))}
	for i, c := range collisions {
		people := make([]PersonDTO, len(c.People))
		for j, p := range c.People {
			people[j] = PersonDTO{Name: p.Name, Birth: p.Birth}
		}
		dto.Collisions[i] = CollisionDTO{
			Leg:     string(c.Leg),
			Date:    keys.FormatDateForDisplay(c.Date),
			Vehicle: c.Vehicle,
			Time:    keys.FormatTimeForDisplay(c.Time),
			People:  people,
		}
	}
	return dto
}

// =============================================================================
// SAMPLES
// =============================================================================

// SampleDTO describes a demo dataset.
type SampleDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kinds       []string `json:"kinds"`
}

// LoadSampleRequest is the request to load a demo dataset.
type LoadSampleRequest struct {
	SampleID   string `json:"sample_id"`
	FacilityID string `json:"facility_id"`
}

// LoadSampleResponse maps each loaded sheet kind to its upload.
type LoadSampleResponse struct {
	SampleID string               `json:"sample_id"`
	Uploads  map[string]UploadDTO `json:"uploads"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
