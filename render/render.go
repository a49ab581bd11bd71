/*
Package render prints check reports as the plain Korean text facility staff
paste into their records.

PURPOSE:
  The engine packages return structured reports. This package is the only
  place that knows the wording and layout of the text output; the JSON API
  never goes through it.

SEE ALSO:
  - schedule/report.go: Schedule verification report
  - attendance/intervals.go: Interval report
  - attendance/collisions.go: Collisions
*/
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/carecheck/attendance-engine/attendance"
	"github.com/carecheck/attendance-engine/keys"
	"github.com/carecheck/attendance-engine/schedule"
)

const rule = "========================================"

// Duration renders minutes as "7시간 10분".
func Duration(minutes int) string {
	return fmt.Sprintf("%d시간 %d분", minutes/60, minutes%60)
}

// LongDate renders YYYYMMDD as "2025년 12월 01일". Other input is returned
// unchanged.
func LongDate(yyyymmdd string) string {
	if !keys.IsDateKey(yyyymmdd) {
		return yyyymmdd
	}
	return fmt.Sprintf("%s년 %s월 %s일", yyyymmdd[:4], yyyymmdd[4:6], yyyymmdd[6:])
}

type lines struct{ b strings.Builder }

func (l *lines) add(format string, args ...any) {
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

func (l *lines) blank() { l.b.WriteByte('\n') }

func (l *lines) flush(w io.Writer) error {
	_, err := io.WriteString(w, l.b.String())
	return err
}

// =============================================================================
// SCHEDULE VERIFICATION
// =============================================================================

// Schedule writes a verification report.
func Schedule(w io.Writer, r *schedule.Report) error {
	var out lines
	s := r.Stats
	c := r.Counts()

	out.add("[데이터 현황]")
	out.add("- 수급자 목록 매핑: %d명", s.RosterKeys)
	out.add("- 일정계획(공단) 레코드: %d건 (KEY: %d개)", s.ScheduleRecords, s.ScheduleKeys)
	out.add("- 입퇴소내용 매핑성공: %d건", s.AttendanceResolved)
	out.add("- 입퇴소 출석(입퇴소): %d건", s.AttendedPresent)
	out.add("- 입퇴소 전체(출석+결석): %d건", s.AttendedAnyKeys)
	if skipped := s.SkippedMasterRows + s.SkippedSchedule + s.SkippedAttendance; skipped > 0 {
		out.add("- 제외된 행: 수급자 목록 %d, 일정계획 %d, 입퇴소내용 %d",
			s.SkippedMasterRows, s.SkippedSchedule, s.SkippedAttendance)
	}
	out.blank()

	out.add("결석 (공단 O / 입퇴소 X)\t%d건", c.Absent)
	out.add("일정없는데 출석 (공단 X / 입퇴소 O)\t%d건", c.UnscheduledPresence)

	if len(r.Absent) > 0 {
		out.blank()
		out.add("[결석 대상]")
		for _, e := range r.Absent {
			out.add("- %s | %s | 인정번호 %s", keys.FormatDateForDisplay(e.Key.Date), e.Name, e.Key.ID)
		}
	}

	if len(r.Unscheduled) > 0 {
		out.blank()
		out.add("[일정없는데 출석 대상]")
		for _, e := range r.Unscheduled {
			out.add("- %s | %s | 생년월일(키) %s | 인정번호 %s",
				keys.FormatDateForDisplay(e.Key.Date), e.Name, e.Birth, e.Key.ID)
		}
	}

	out.blank()
	out.add("[매핑오류]")
	out.add("- NOT_FOUND: %d건", r.NotFoundTotal)
	for _, e := range r.NotFound {
		out.add("  %s|%s|%s", e.Date, e.Name, e.Birth)
	}
	overflow(&out, r.NotFoundTotal, len(r.NotFound))

	out.add("- AMBIGUOUS: %d건", r.AmbiguousTotal)
	for _, e := range r.Ambiguous {
		out.add("  %s|%s|[%s]", e.Name, e.Birth, strings.Join(e.Candidates, ","))
	}
	overflow(&out, r.AmbiguousTotal, len(r.Ambiguous))

	return out.flush(w)
}

func overflow(out *lines, total, shown int) {
	if total > shown {
		out.add("  ... 외 %d건", total-shown)
	}
}

// =============================================================================
// INTERVALS
// =============================================================================

// Intervals writes the session length buckets.
func Intervals(w io.Writer, r attendance.IntervalReport) error {
	var out lines
	out.add("=== 어르신 시간확인 결과 ===")

	for _, b := range r.Buckets {
		out.blank()
		out.add(rule)
		out.add("[ %s ]", b.Bucket.Label)
		out.add(rule)
		if len(b.Intervals) == 0 {
			out.add("해당 없음")
		}
		for _, iv := range b.Intervals {
			out.blank()
			out.add("성명: %s", iv.Name)
			out.add("날짜: %s", LongDate(iv.Date))
			out.add("시간: %s ~ %s (%s)",
				keys.FormatTimeForDisplay(iv.Start), keys.FormatTimeForDisplay(iv.End), Duration(iv.Minutes))
		}
		out.blank()
	}

	out.add(rule)
	out.add("전체: %d명", r.Total())
	if r.FullDay > 0 {
		out.add("제외(기준시간 이상): %d명", r.FullDay)
	}
	if r.Unbucketed > 0 {
		out.add("구간 밖: %d명", r.Unbucketed)
	}
	return out.flush(w)
}

// =============================================================================
// COLLISIONS
// =============================================================================

var legTitles = map[attendance.Leg]string{
	attendance.LegAdmission: "[--- 등원(입소) 차량 중복 ---]",
	attendance.LegDischarge: "[--- 하원(퇴소) 차량 중복 ---]",
}

// Collisions writes vehicle double bookings grouped by date, leg and vehicle.
// Input must be ordered as DetectCollisions returns it.
func Collisions(w io.Writer, collisions []attendance.Collision) error {
	var out lines
	out.add("--- 차량 시간 중복 검사 결과 ---")

	if len(collisions) == 0 {
		out.blank()
		out.add(">> 중복되는 내역이 없습니다.")
		return out.flush(w)
	}

	var date, vehicle string
	var leg attendance.Leg
	for i, c := range collisions {
		newDate := i == 0 || c.Date != date
		if newDate {
			out.blank()
			out.add(rule)
			out.add("날짜: %s", LongDate(c.Date))
			out.add(rule)
		}
		if newDate || c.Leg != leg {
			out.blank()
			out.add("%s", legTitles[c.Leg])
		}
		if newDate || c.Leg != leg || c.Vehicle != vehicle {
			out.blank()
			out.add("▶ 차량번호: %s", c.Vehicle)
		}
		date, leg, vehicle = c.Date, c.Leg, c.Vehicle

		out.add("  - 중복 시간: %s", keys.FormatTimeForDisplay(c.Time))
		for _, p := range c.People {
			out.add("    * 성명: %s, 생년월일: %s", p.Name, p.Birth)
		}
	}
	return out.flush(w)
}
