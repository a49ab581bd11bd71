/*
handlers.go - HTTP API handlers for the attendance checks

PURPOSE:
  Exposes the schedule verification and the two log checks over REST.
  Handles HTTP request/response, sheet upload parsing, and delegates to the
  engine packages.

ENDPOINTS:
  Uploads:
    POST   /api/uploads                Upload a sheet (multipart file or JSON rows)
    GET    /api/uploads                List uploads (?facility_id=)
    GET    /api/uploads/{id}           Get an upload (?rows=true includes rows)
    DELETE /api/uploads/{id}           Delete an upload

  Checks:
    POST   /api/verifications/schedule Schedule vs. attendance (?format=text)
    POST   /api/checks/intervals       Session length buckets (?format=text)
    POST   /api/checks/vehicles        Vehicle double bookings (?format=text)

  Samples:
    GET    /api/samples                List demo datasets
    POST   /api/samples/load           Store a demo dataset as uploads

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve sheet references (upload id or inline rows)
  3. Run the check
  4. Serialize the report as JSON or text

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, wrong sheet kind
  - 404: Upload not found
  - 413: Upload too large
  - 422: Sheet unusable (unreadable file, header not found, ambiguous header)
  - 500: Internal errors

PRIVACY:
  Sheets carry names and birth dates. Handlers log counts and ids only.

SEE ALSO:
  - dto.go: Request/response data structures
  - samples.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carecheck/attendance-engine/attendance"
	"github.com/carecheck/attendance-engine/config"
	"github.com/carecheck/attendance-engine/logging"
	"github.com/carecheck/attendance-engine/render"
	"github.com/carecheck/attendance-engine/schedule"
	"github.com/carecheck/attendance-engine/sheet"
)

// MaxUploadBytes bounds a single sheet upload.
const MaxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  sheet.Store
	Config *config.Config

	newID func() string
	now   func() time.Time
}

// NewHandler creates a new handler with the given store and configuration.
func NewHandler(store sheet.Store, cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{
		Store:  store,
		Config: cfg,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// UPLOAD HANDLERS
// =============================================================================

// CreateUpload stores a sheet. Multipart requests carry a "file" part with
// "kind", "facility_id" and optional "sheet" fields; JSON requests carry
// rows directly.
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var (
		req  CreateUploadRequest
		rows []sheet.Row
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
			writeUploadError(w, err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing file part", err)
			return
		}
		defer file.Close()

		req.Kind = r.FormValue("kind")
		req.FacilityID = r.FormValue("facility_id")
		req.Filename = header.Filename

		rows, err = sheet.Read(header.Filename, file, r.FormValue("sheet"))
		if err != nil {
			writeSheetError(w, "Failed to read sheet", err)
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeUploadError(w, err)
			return
		}
		rows = sheet.FromStrings(req.Rows)
	}

	kind, err := sheet.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid kind", err)
		return
	}

	upload := sheet.Upload{
		ID:         h.newID(),
		FacilityID: req.FacilityID,
		Kind:       kind,
		Filename:   req.Filename,
		Rows:       rows,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.Store.Save(r.Context(), upload); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save upload", err)
		return
	}

	logging.FromContext(r.Context()).Info("upload stored",
		zap.String("upload_id", upload.ID),
		zap.String("kind", string(kind)),
		zap.Int("rows", len(rows)),
	)
	writeJSON(w, http.StatusCreated, toUploadDTO(upload.Info()))
}

// ListUploads returns uploads for a facility, newest first.
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Store.List(r.Context(), r.URL.Query().Get("facility_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list uploads", err)
		return
	}

	dtos := make([]UploadDTO, len(infos))
	for i, info := range infos {
		dtos[i] = toUploadDTO(info)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUpload returns one upload.
func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	dto := toUploadDTO(upload.Info())
	if r.URL.Query().Get("rows") == "true" {
		dto.Rows = rowsToStrings(upload.Rows)
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteUpload removes one upload.
func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CHECK HANDLERS
// =============================================================================

// VerifySchedule reconciles the schedule against the attendance log.
func (h *Handler) VerifySchedule(w http.ResponseWriter, r *http.Request) {
	var req VerifyScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var in schedule.Input
	for _, ref := range []struct {
		name string
		ref  SheetRef
		kind sheet.Kind
		dst  *[]sheet.Row
	}{
		{"master", req.Master, sheet.KindMaster, &in.Master},
		{"schedule", req.Schedule, sheet.KindSchedule, &in.Schedule},
		{"attendance", req.Attendance, sheet.KindAttendance, &in.Attendance},
	} {
		rows, err := h.resolveSheet(r, ref.ref, ref.kind)
		if err != nil {
			writeRefError(w, ref.name, err)
			return
		}
		*ref.dst = rows
	}

	report, err := h.Config.Engine().Run(in)
	if err != nil {
		writeSheetError(w, "Verification failed", err)
		return
	}

	c := report.Counts()
	logging.FromContext(r.Context()).Info("schedule verified",
		zap.Int("absent", c.Absent),
		zap.Int("unscheduled", c.UnscheduledPresence),
		zap.Int("not_found", c.UnresolvedNotFound),
		zap.Int("ambiguous", c.UnresolvedAmbiguous),
	)

	if wantsText(r) {
		writeText(w, func(b *bytes.Buffer) error { return render.Schedule(b, report) })
		return
	}
	writeJSON(w, http.StatusOK, NewScheduleReportDTO(report))
}

// CheckIntervals buckets attendance sessions by length.
func (h *Handler) CheckIntervals(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.decodeCheck(w, r, sheet.KindTimeLog)
	if !ok {
		return
	}

	sessions, skipped := attendance.ExtractSessions(rows, h.Config.SessionLayout())
	report := attendance.Aggregate(sessions, h.Config.IntervalOptions())
	report.Skipped = skipped

	logging.FromContext(r.Context()).Info("intervals checked",
		zap.Int("sessions", report.Sessions),
		zap.Int("bucketed", report.Total()),
	)

	if wantsText(r) {
		writeText(w, func(b *bytes.Buffer) error { return render.Intervals(b, report) })
		return
	}
	writeJSON(w, http.StatusOK, NewIntervalReportDTO(report))
}

// CheckVehicles finds vehicle double bookings.
func (h *Handler) CheckVehicles(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.decodeCheck(w, r, sheet.KindVehicles)
	if !ok {
		return
	}

	trips, err := attendance.ExtractTrips(rows, h.Config.VehicleLayout())
	if err != nil {
		writeSheetError(w, "Vehicle check failed", err)
		return
	}
	collisions := attendance.DetectCollisions(trips)

	logging.FromContext(r.Context()).Info("vehicles checked",
		zap.Int("trips", len(trips)),
		zap.Int("collisions", len(collisions)),
	)

	if wantsText(r) {
		writeText(w, func(b *bytes.Buffer) error { return render.Collisions(b, collisions) })
		return
	}
	writeJSON(w, http.StatusOK, NewCollisionReportDTO(len(trips), collisions))
}

func (h *Handler) decodeCheck(w http.ResponseWriter, r *http.Request, kind sheet.Kind) ([]sheet.Row, bool) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	rows, err := h.resolveSheet(r, req.Sheet, kind)
	if err != nil {
		writeRefError(w, "sheet", err)
		return nil, false
	}
	return rows, true
}

// =============================================================================
// SHEET REFERENCES
// =============================================================================

var (
	errEmptyRef     = errors.New("neither upload_id nor rows given")
	errKindMismatch = errors.New("upload has a different kind")
)

// resolveSheet returns the rows a reference points to. A stored upload must
// be of the expected kind; timelog uploads also serve as attendance logs.
func (h *Handler) resolveSheet(r *http.Request, ref SheetRef, kind sheet.Kind) ([]sheet.Row, error) {
	if ref.UploadID == "" {
		if ref.Rows == nil {
			return nil, errEmptyRef
		}
		return sheet.FromStrings(ref.Rows), nil
	}

	upload, err := h.Store.Get(r.Context(), ref.UploadID)
	if err != nil {
		return nil, err
	}
	if upload.Kind != kind && !(kind == sheet.KindAttendance && upload.Kind == sheet.KindTimeLog) {
		return nil, fmt.Errorf("%w: %s is %s, want %s", errKindMismatch, upload.ID, upload.Kind, kind)
	}
	return upload.Rows, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// the report is rendered fully before the status line goes out
func writeText(w http.ResponseWriter, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func wantsText(r *http.Request) bool {
	return r.URL.Query().Get("format") == "text"
}

func writeSheetError(w http.ResponseWriter, message string, err error) {
	if sheet.IsStructural(err) {
		writeError(w, http.StatusUnprocessableEntity, message, err)
		return
	}
	writeError(w, http.StatusInternalServerError, message, err)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, sheet.ErrUploadNotFound) {
		writeError(w, http.StatusNotFound, "Upload not found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to access upload", err)
}

func writeRefError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, sheet.ErrUploadNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Upload for %s not found", name), err)
	case errors.Is(err, errEmptyRef), errors.Is(err, errKindMismatch):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s reference", name), err)
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load %s", name), err)
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", err)
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid upload", err)
}
