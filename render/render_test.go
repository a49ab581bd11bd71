package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carecheck/attendance-engine/attendance"
	"github.com/carecheck/attendance-engine/schedule"
)

func TestDuration(t *testing.T) {
	assert.Equal(t, "7시간 10분", Duration(430))
	assert.Equal(t, "0시간 0분", Duration(0))
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "2025년 12월 01일", LongDate("20251201"))
	assert.Equal(t, "2025-12", LongDate("2025-12"))
}

func TestSchedule_CountsDetailsAndOverflow(t *testing.T) {
	// GIVEN: a report with one unscheduled entry and 22 not-found people capped at 20
	report := &schedule.Report{
		Stats: schedule.Stats{RosterKeys: 3, ScheduleRecords: 4, ScheduleKeys: 4},
		Absent: []schedule.AbsentEntry{
			{Key: schedule.ReconciledKey{ID: "A100", Date: "20250601"}, Name: "김영희"},
		},
		Unscheduled: []schedule.UnscheduledEntry{
			{Key: schedule.ReconciledKey{ID: "A200", Date: "20250602"}, Name: "이철수", Birth: "480101"},
		},
		NotFoundTotal:  22,
		Ambiguous:      []schedule.AmbiguousEntry{{Name: "박민수", Birth: "400101", Candidates: []string{"B1", "B2"}}},
		AmbiguousTotal: 1,
	}
	for i := 0; i < 20; i++ {
		report.NotFound = append(report.NotFound, schedule.NotFoundEntry{Date: "20250601", Name: fmt.Sprintf("p%02d", i), Birth: "500101"})
	}

	// WHEN
	var buf bytes.Buffer
	require.NoError(t, Schedule(&buf, report))
	text := buf.String()

	// THEN
	assert.Contains(t, text, "- 수급자 목록 매핑: 3명")
	assert.Contains(t, text, "결석 (공단 O / 입퇴소 X)\t1건")
	assert.Contains(t, text, "- 2025-06-01 | 김영희 | 인정번호 A100")
	assert.Contains(t, text, "- 2025-06-02 | 이철수 | 생년월일(키) 480101 | 인정번호 A200")
	assert.Contains(t, text, "- NOT_FOUND: 22건")
	assert.Contains(t, text, "  20250601|p19|500101")
	assert.Contains(t, text, "  ... 외 2건")
	assert.Contains(t, text, "  박민수|400101|[B1,B2]")
	assert.NotContains(t, text, "제외된 행")
}

func TestIntervals(t *testing.T) {
	report := attendance.Aggregate([]attendance.Session{
		{Name: "김영희", Date: "20251201", Start: "0900", End: "1610"},
		{Name: "이철수", Date: "20251201", Start: "0900", End: "1800"},
	}, attendance.DefaultIntervalOptions())

	var buf bytes.Buffer
	require.NoError(t, Intervals(&buf, report))
	text := buf.String()

	assert.Equal(t, 2, strings.Count(text, "해당 없음"))
	assert.Contains(t, text, "[ 6시간 이상 8시간 미만 ]")
	assert.Contains(t, text, "날짜: 2025년 12월 01일")
	assert.Contains(t, text, "시간: 09:00 ~ 16:10 (7시간 10분)")
	assert.Contains(t, text, "전체: 1명")
	assert.Contains(t, text, "제외(기준시간 이상): 1명")
}

func TestCollisions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Collisions(&buf, nil))
	assert.Contains(t, buf.String(), ">> 중복되는 내역이 없습니다.")

	buf.Reset()
	require.NoError(t, Collisions(&buf, []attendance.Collision{
		{Leg: attendance.LegAdmission, Date: "20251201", Vehicle: "12가3456", Time: "0830",
			People: []attendance.Person{{Name: "김영희", Birth: "550302"}, {Name: "이철수", Birth: "480101"}}},
		{Leg: attendance.LegAdmission, Date: "20251201", Vehicle: "12가3456", Time: "0900",
			People: []attendance.Person{{Name: "a"}, {Name: "b"}}},
		{Leg: attendance.LegDischarge, Date: "20251201", Vehicle: "12가3456", Time: "1700",
			People: []attendance.Person{{Name: "a"}, {Name: "b"}}},
	}))
	text := buf.String()

	assert.Equal(t, 1, strings.Count(text, "날짜: 2025년 12월 01일"))
	assert.Contains(t, text, "[--- 등원(입소) 차량 중복 ---]")
	assert.Contains(t, text, "[--- 하원(퇴소) 차량 중복 ---]")
	assert.Equal(t, 2, strings.Count(text, "▶ 차량번호: 12가3456"))
	assert.Contains(t, text, "  - 중복 시간: 08:30")
	assert.Contains(t, text, "    * 성명: 김영희, 생년월일: 550302")
}
