/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Upload lifecycle (JSON and multipart)
- Schedule verification by upload id and inline rows, JSON and text
- Interval and vehicle checks
- Error status mapping
- Samples end to end
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carecheck/attendance-engine/config"
	"github.com/carecheck/attendance-engine/sheet"
	"github.com/carecheck/attendance-engine/sheet/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	h := NewHandler(store.NewMemory(), config.Default())
	seq := 0
	h.newID = func() string {
		seq++
		return fmt.Sprintf("up-%d", seq)
	}
	h.now = func() time.Time { return time.Date(2025, 12, 5, 9, 0, 0, 0, time.UTC) }
	return &testServer{handler: h, router: NewRouter(h, nil)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) upload(t *testing.T, kind sheet.Kind, rows [][]string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/uploads", CreateUploadRequest{
		FacilityID: "fac-1",
		Kind:       string(kind),
		Filename:   string(kind) + ".csv",
		Rows:       rows,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[UploadDTO](t, rec).ID
}

var (
	masterRows = [][]string{
		{"수급자명", "생년월일", "인정번호"},
		{"김영희", "1955-03-02", "A100"},
		{"이철수", "1948-01-01", "A200"},
	}
	scheduleRows = [][]string{
		{"일자", "요일", "시간", "수급자명", "인정번호"},
		{"2025-06-01", "일", "", "김영희", "A100"},
		{"2025-06-02", "월", "", "김영희", "A100"},
	}
	attendanceRows = [][]string{
		{"성명", "생년", "일자", "요일", "입퇴소구분"},
		{"김영희", "550302", "20250601", "", "입퇴소"},
		{"이철수", "480101", "20250603", "", "입퇴소"},
	}
)

// =============================================================================
// UPLOADS
// =============================================================================

func TestHealth(t *testing.T) {
	rec := newTestServer(t).do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadLifecycle(t *testing.T) {
	// GIVEN: an uploaded master sheet
	s := newTestServer(t)
	id := s.upload(t, sheet.KindMaster, masterRows)

	// WHEN/THEN: it is listed, readable with rows, and deletable
	list := decode[[]UploadDTO](t, s.do(t, http.MethodGet, "/api/uploads?facility_id=fac-1", nil))
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].RowCount)
	assert.Nil(t, list[0].Rows)

	got := decode[UploadDTO](t, s.do(t, http.MethodGet, "/api/uploads/"+id+"?rows=true", nil))
	assert.Equal(t, masterRows, got.Rows)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/uploads/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/uploads/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/uploads/"+id, nil).Code)
}

func TestCreateUpload_RejectsUnknownKind(t *testing.T) {
	rec := newTestServer(t).do(t, http.MethodPost, "/api/uploads", CreateUploadRequest{Kind: "payroll"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "payroll")
}

func TestCreateUpload_MultipartCSV(t *testing.T) {
	// GIVEN: a CSV file posted as multipart form data
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("kind", "master"))
	require.NoError(t, mw.WriteField("facility_id", "fac-9"))
	part, err := mw.CreateFormFile("file", "master.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("수급자명,생년월일,인정번호\n김영희,1955-03-02,A100\n,,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// WHEN
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	// THEN: blank rows are dropped
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[UploadDTO](t, rec)
	assert.Equal(t, "fac-9", dto.FacilityID)
	assert.Equal(t, "master.csv", dto.Filename)
	assert.Equal(t, 2, dto.RowCount)
}

func TestCreateUpload_MultipartUnsupportedFormat(t *testing.T) {
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("kind", "master"))
	part, err := mw.CreateFormFile("file", "master.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateUpload_CorruptWorkbook(t *testing.T) {
	// GIVEN: a file named .xlsx that is not a workbook
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("kind", "master"))
	part, err := mw.CreateFormFile("file", "master.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("this is not a zip archive"))
	require.NoError(t, mw.Close())

	// WHEN
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	// THEN: the client is told the sheet is unusable
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "unreadable sheet")
}

// =============================================================================
// SCHEDULE VERIFICATION
// =============================================================================

func TestVerifySchedule_ByUploadID(t *testing.T) {
	// GIVEN: the three sheets uploaded separately
	s := newTestServer(t)
	req := VerifyScheduleRequest{
		Master:     SheetRef{UploadID: s.upload(t, sheet.KindMaster, masterRows)},
		Schedule:   SheetRef{UploadID: s.upload(t, sheet.KindSchedule, scheduleRows)},
		Attendance: SheetRef{UploadID: s.upload(t, sheet.KindAttendance, attendanceRows)},
	}

	// WHEN
	rec := s.do(t, http.MethodPost, "/api/verifications/schedule", req)

	// THEN: 06-02 absent, 이철수 on 06-03 unscheduled
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[ScheduleReportDTO](t, rec)
	assert.False(t, report.Clean)
	assert.Equal(t, CountsDTO{Absent: 1, UnscheduledPresence: 1}, report.Counts)
	require.Len(t, report.Absent, 1)
	assert.Equal(t, "A100|20250602", report.Absent[0].Key)
	assert.Equal(t, "2025-06-02", report.Absent[0].Date)
	require.Len(t, report.Unscheduled, 1)
	assert.Equal(t, "A200", report.Unscheduled[0].RecognitionID)
	assert.Equal(t, 2, report.Stats.RosterKeys)
}

func TestVerifySchedule_InlineRowsAsText(t *testing.T) {
	s := newTestServer(t)
	req := VerifyScheduleRequest{
		Master:     SheetRef{Rows: masterRows},
		Schedule:   SheetRef{Rows: scheduleRows},
		Attendance: SheetRef{Rows: attendanceRows},
	}

	rec := s.do(t, http.MethodPost, "/api/verifications/schedule?format=text", req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "결석 (공단 O / 입퇴소 X)\t1건")
}

func TestVerifySchedule_Errors(t *testing.T) {
	s := newTestServer(t)
	masterID := s.upload(t, sheet.KindMaster, masterRows)

	tests := []struct {
		name   string
		req    VerifyScheduleRequest
		status int
	}{
		{
			name:   "missing reference",
			req:    VerifyScheduleRequest{Master: SheetRef{Rows: masterRows}, Schedule: SheetRef{Rows: scheduleRows}},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown upload",
			req: VerifyScheduleRequest{
				Master:     SheetRef{UploadID: "nope"},
				Schedule:   SheetRef{Rows: scheduleRows},
				Attendance: SheetRef{Rows: attendanceRows},
			},
			status: http.StatusNotFound,
		},
		{
			name: "wrong kind",
			req: VerifyScheduleRequest{
				Master:     SheetRef{Rows: masterRows},
				Schedule:   SheetRef{UploadID: masterID},
				Attendance: SheetRef{Rows: attendanceRows},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "schedule without id header",
			req: VerifyScheduleRequest{
				Master:     SheetRef{Rows: masterRows},
				Schedule:   SheetRef{Rows: [][]string{{"일자", "성명"}, {"20250601", "김영희"}}},
				Attendance: SheetRef{Rows: attendanceRows},
			},
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/verifications/schedule", tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

// =============================================================================
// LOG CHECKS
// =============================================================================

func TestCheckIntervals(t *testing.T) {
	s := newTestServer(t)
	rows := [][]string{
		{"성명", "생년월일", "일자", "요일", "입퇴소구분", "비고", "입소시간", "퇴소시간"},
		{"김영희", "550302", "20251201", "", "입퇴소", "", "0900", "1610"},
		{"이철수", "480101", "20251201", "", "결석", "", "", ""},
	}

	rec := s.do(t, http.MethodPost, "/api/checks/intervals", CheckRequest{Sheet: SheetRef{Rows: rows}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[IntervalReportDTO](t, rec)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Buckets, 3)
	require.Len(t, report.Buckets[2].Intervals, 1)
	iv := report.Buckets[2].Intervals[0]
	assert.Equal(t, 430, iv.Minutes)
	assert.Equal(t, "7.17", iv.Hours.String())
	assert.Equal(t, "09:00", iv.Start)
}

func TestCheckVehicles(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t, sheet.KindVehicles, vehicleOverlapSheets()[sheet.KindVehicles])

	rec := s.do(t, http.MethodPost, "/api/checks/vehicles", CheckRequest{Sheet: SheetRef{UploadID: id}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[CollisionReportDTO](t, rec)
	require.Len(t, report.Collisions, 1)
	c := report.Collisions[0]
	assert.Equal(t, "admission", c.Leg)
	assert.Equal(t, "2025-12-01", c.Date)
	assert.Equal(t, "12가3456", c.Vehicle)
	assert.Equal(t, "08:30", c.Time)
	assert.Len(t, c.People, 2)
}

func TestCheckVehicles_MissingHeader(t *testing.T) {
	rec := newTestServer(t).do(t, http.MethodPost, "/api/checks/vehicles",
		CheckRequest{Sheet: SheetRef{Rows: [][]string{{"일자"}, {"20251201"}}}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// =============================================================================
// SAMPLES
// =============================================================================

func TestSamples_LoadAndVerify(t *testing.T) {
	// GIVEN: the discrepancy sample loaded as uploads
	s := newTestServer(t)
	list := decode[[]SampleDTO](t, s.do(t, http.MethodGet, "/api/samples", nil))
	require.Len(t, list, len(samples))
	assert.Equal(t, []string{"master", "schedule", "attendance"}, list[0].Kinds)

	rec := s.do(t, http.MethodPost, "/api/samples/load", LoadSampleRequest{SampleID: "schedule-discrepancies"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loaded := decode[LoadSampleResponse](t, rec)
	assert.Equal(t, "demo", loaded.Uploads["master"].FacilityID)

	// WHEN: verifying with the stored uploads
	rec = s.do(t, http.MethodPost, "/api/verifications/schedule", VerifyScheduleRequest{
		Master:     SheetRef{UploadID: loaded.Uploads["master"].ID},
		Schedule:   SheetRef{UploadID: loaded.Uploads["schedule"].ID},
		Attendance: SheetRef{UploadID: loaded.Uploads["attendance"].ID},
	})

	// THEN: one finding in each category
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[ScheduleReportDTO](t, rec)
	assert.Equal(t, CountsDTO{Absent: 1, UnscheduledPresence: 1, UnresolvedNotFound: 1, UnresolvedAmbiguous: 1}, report.Counts)
	require.Len(t, report.Ambiguous, 1)
	assert.Equal(t, []string{"L1000000003", "L1000000004"}, report.Ambiguous[0].Candidates)
}

func TestSamples_Unknown(t *testing.T) {
	rec := newTestServer(t).do(t, http.MethodPost, "/api/samples/load", LoadSampleRequest{SampleID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// JANITOR
// =============================================================================

func TestJanitor_PurgesExpiredUploads(t *testing.T) {
	// GIVEN: one upload two days old and one fresh
	mem := store.NewMemory()
	now := time.Date(2025, 12, 5, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, mem.Save(ctx, sheet.Upload{ID: "old", Kind: sheet.KindMaster, CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, mem.Save(ctx, sheet.Upload{ID: "new", Kind: sheet.KindMaster, CreatedAt: now}))

	j := NewUploadJanitor(mem, 24*time.Hour, time.Hour, nil)
	j.now = func() time.Time { return now }

	// WHEN
	n := j.Purge(ctx)

	// THEN
	assert.Equal(t, 1, n)
	_, err := mem.Get(ctx, "old")
	assert.ErrorIs(t, err, sheet.ErrUploadNotFound)
	_, err = mem.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestJanitor_StartStop(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Save(context.Background(), sheet.Upload{ID: "old", CreatedAt: time.Now().Add(-time.Hour)}))

	j := NewUploadJanitor(mem, time.Minute, time.Hour, nil)
	j.Start()
	j.Start()
	// the first purge runs on start; Stop waits for the goroutine
	require.Eventually(t, func() bool {
		_, err := mem.Get(context.Background(), "old")
		return err != nil
	}, time.Second, 10*time.Millisecond)
	j.Stop()
	j.Stop()
}
