/*
samples.go - Demo datasets for trying the checks

PURPOSE:
  Provides small, fictional sheet sets that exercise every check result:
  a clean month, absences, unscheduled attendance, unknown and ambiguous
  identities, short sessions and vehicle double bookings.

AVAILABLE SAMPLES:
  schedule-discrepancies: master + schedule + attendance with one of each finding
  short-sessions:         time log with sessions in every bucket
  vehicle-overlap:        transport log with an admission collision

HOW SAMPLES WORK:
  1. Build the sheets in memory
  2. Store each as an upload under the requested facility
  3. Return the upload ids so the caller can run the check

USAGE VIA API:
  POST /api/samples/load
  {"sample_id": "schedule-discrepancies", "facility_id": "demo"}

ADDING NEW SAMPLES:
  Add an entry to 'samples' with its sheet builders.

SEE ALSO:
  - handlers.go: Check endpoints
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/carecheck/attendance-engine/sheet"
)

// =============================================================================
// SAMPLE DEFINITIONS
// =============================================================================

type sample struct {
	SampleDTO
	sheets func() map[sheet.Kind][][]string
}

var samples = []sample{
	{
		SampleDTO: SampleDTO{
			ID:          "schedule-discrepancies",
			Name:        "Schedule discrepancies",
			Description: "One absence, one unscheduled visit, one unknown and one ambiguous identity",
		},
		sheets: scheduleDiscrepancySheets,
	},
	{
		SampleDTO: SampleDTO{
			ID:          "short-sessions",
			Name:        "Short sessions",
			Description: "Sessions under 3h, 3-6h, 6-8h and one full day",
		},
		sheets: shortSessionSheets,
	},
	{
		SampleDTO: SampleDTO{
			ID:          "vehicle-overlap",
			Name:        "Vehicle overlap",
			Description: "Two beneficiaries on the same vehicle at 08:30",
		},
		sheets: vehicleOverlapSheets,
	},
}

func init() {
	for i := range samples {
		for _, k := range sheet.Kinds {
			if _, ok := samples[i].sheets()[k]; ok {
				samples[i].Kinds = append(samples[i].Kinds, string(k))
			}
		}
	}
}

func findSample(id string) (sample, bool) {
	for _, s := range samples {
		if s.ID == id {
			return s, true
		}
	}
	return sample{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListSamples returns available demo datasets.
func (h *Handler) ListSamples(w http.ResponseWriter, r *http.Request) {
	dtos := make([]SampleDTO, len(samples))
	for i, s := range samples {
		dtos[i] = s.SampleDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadSample stores every sheet of a demo dataset as an upload.
func (h *Handler) LoadSample(w http.ResponseWriter, r *http.Request) {
	var req LoadSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findSample(req.SampleID)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown sample: %s", req.SampleID), nil)
		return
	}
	if req.FacilityID == "" {
		req.FacilityID = "demo"
	}

	resp := LoadSampleResponse{SampleID: s.ID, Uploads: make(map[string]UploadDTO)}
	for kind, records := range s.sheets() {
		upload := sheet.Upload{
			ID:         h.newID(),
			FacilityID: req.FacilityID,
			Kind:       kind,
			Filename:   fmt.Sprintf("%s-%s.csv", s.ID, kind),
			Rows:       sheet.FromStrings(records),
			CreatedAt:  h.now().UTC(),
		}
		if err := h.Store.Save(r.Context(), upload); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save sample", err)
			return
		}
		resp.Uploads[string(kind)] = toUploadDTO(upload.Info())
	}

	writeJSON(w, http.StatusCreated, resp)
}

// =============================================================================
// SAMPLE SHEETS
// =============================================================================

func scheduleDiscrepancySheets() map[sheet.Kind][][]string {
	return map[sheet.Kind][][]string{
		sheet.KindMaster: {
			{"장기요양기관 수급자 현황"},
			{"번호", "수급자명", "성별", "생년월일", "장기요양인정번호", "등급"},
			{"1", "김영희", "여", "1945-03-02", "L1000000001", "3"},
			{"2", "이철수", "남", "1940-11-20", "L1000000002", "4"},
			{"3", "박민수", "남", "1938-07-07", "L1000000003", "2"},
			{"4", "박민수", "남", "1938-07-07", "L1000000004", "5"},
		},
		sheet.KindSchedule: {
			{"급여제공 일정계획"},
			{"일자", "요일", "시간", "수급자명", "수급자 인정번호"},
			{"2025-12-01", "월", "09:00", "김영희", "L1000000001"},
			{"2025-12-01", "월", "09:00", "이철수", "L1000000002"},
			{"2025-12-02", "화", "09:00", "김영희", "L1000000001"},
		},
		sheet.KindAttendance: {
			{"성명", "생년월일", "일자", "요일", "입퇴소구분"},
			{"김영희", "450302", "20251201", "월", "입퇴소"},
			{"이철수", "401120", "20251201", "월", "입퇴소"},
			{"이철수", "401120", "20251203", "수", "입퇴소"},
			{"최지원", "500101", "20251201", "월", "입퇴소"},
			{"박민수", "380707", "20251201", "월", "입퇴소"},
		},
	}
}

func shortSessionSheets() map[sheet.Kind][][]string {
	return map[sheet.Kind][][]string{
		sheet.KindTimeLog: {
			{"성명", "생년월일", "일자", "요일", "입퇴소구분", "비고", "입소시간", "퇴소시간"},
			{"김영희", "450302", "20251201", "월", "입퇴소", "", "0900", "1130"},
			{"이철수", "401120", "20251201", "월", "입퇴소", "", "0900", "1300"},
			{"박민수", "380707", "20251201", "월", "입퇴소", "", "0850", "1600"},
			{"최지원", "500101", "20251201", "월", "입퇴소", "", "0830", "1730"},
			{"정미숙", "470512", "20251201", "월", "결석", "", "", ""},
		},
	}
}

func vehicleOverlapSheets() map[sheet.Kind][][]string {
	return map[sheet.Kind][][]string{
		sheet.KindVehicles: {
			{"차량 운행 일지"},
			{"일자", "입퇴소구분", "성명", "생년월일", "차량(입소)", "입소시간", "차량(퇴소)", "퇴소시간"},
			{"20251201", "입퇴소", "김영희", "450302", "12가3456", "0830", "12가3456", "1700"},
			{"20251201", "입퇴소", "이철수", "401120", "12가3456", "0830", "34나5678", "1700"},
			{"20251201", "입퇴소", "박민수", "380707", "34나5678", "0900", "34나5678", "1710"},
		},
	}
}
