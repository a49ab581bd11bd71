/*
Package schedule reconciles the authority schedule against the facility
attendance log.

PURPOSE:
  The authority says who should attend on which day (keyed by recognition
  number). The facility logs who actually came (keyed by name + birth
  fragment). The engine puts both on the same key and reports the
  differences.

RUN PHASES:
  1. Build     roster.Index from the master list        (fatal on header)
  2. Extract   schedule records and attendance records  (fatal on schedule header)
  3. Resolve   every attendance person key              (Found / NotFound / Ambiguous)
  4. Compare   set algebra on ReconciledKey
  5. Report    counts, sorted details, deduplicated capped error lists

SET ALGEBRA:
  scheduleSet         keys of all schedule records
  attendedAnySet      keys of all resolved attendance records, any status
  attendedPresentSet  keys of resolved attendance records with a present status

  absent      = scheduleSet − attendedAnySet
  unscheduled = attendedPresentSet − scheduleSet

  A logged non-present status still counts as "has a record" and keeps the
  schedule entry out of absent.

NO SHARED STATE:
  Engine holds options only. Each Run takes its three row sets as arguments
  and returns a fresh Report; nothing survives between runs.

SEE ALSO:
  - records.go: Sheet extraction
  - report.go: Report types
  - roster/roster.go: Identity resolution
*/
package schedule

import (
	"fmt"
	"sort"

	"github.com/carecheck/attendance-engine/roster"
	"github.com/carecheck/attendance-engine/sheet"
)

// DefaultReportLimit caps the unresolved listings in a report.
const DefaultReportLimit = 20

// Engine runs schedule verifications.
type Engine struct {
	Roster      roster.Options
	Schedule    ScheduleOptions
	Attendance  AttendanceLayout
	ReportLimit int
}

// NewEngine returns an engine with the default sheet layouts.
func NewEngine() *Engine {
	return &Engine{
		Roster:      roster.DefaultOptions(),
		Schedule:    DefaultScheduleOptions(),
		Attendance:  DefaultAttendanceLayout(),
		ReportLimit: DefaultReportLimit,
	}
}

// Input carries the three sheets of one run.
type Input struct {
	Master     []sheet.Row
	Schedule   []sheet.Row
	Attendance []sheet.Row
}

// Run executes one verification. Only structural problems with the master
// or schedule sheet return an error; everything else is report data.
func (e *Engine) Run(in Input) (*Report, error) {
	// 1. Build
	idx, err := roster.Build(in.Master, e.Roster)
	if err != nil {
		return nil, fmt.Errorf("building roster: %w", err)
	}

	// 2. Extract
	schedules, schedSkipped, err := ExtractSchedule(in.Schedule, e.Schedule)
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}
	attendance, attSkipped := ExtractAttendance(in.Attendance, e.Attendance)

	// 3. Resolve
	resolved, notFound, ambiguous := resolveAll(idx, attendance)

	// 4. Compare
	scheduleSet := make(map[ReconciledKey]ScheduleRecord, len(schedules))
	for _, s := range schedules {
		if _, seen := scheduleSet[s.Key()]; !seen {
			scheduleSet[s.Key()] = s
		}
	}

	attendedAny := make(map[ReconciledKey]resolvedAttendance, len(resolved))
	attendedPresent := make(map[ReconciledKey]resolvedAttendance)
	for _, r := range resolved {
		k := r.key()
		if _, seen := attendedAny[k]; !seen {
			attendedAny[k] = r
		}
		if r.Present {
			if _, seen := attendedPresent[k]; !seen {
				attendedPresent[k] = r
			}
		}
	}

	var absent []AbsentEntry
	for k, s := range scheduleSet {
		if _, ok := attendedAny[k]; !ok {
			absent = append(absent, AbsentEntry{Key: k, Name: s.Name})
		}
	}
	sort.Slice(absent, func(i, j int) bool { return absent[i].Key.less(absent[j].Key) })

	var unscheduled []UnscheduledEntry
	for k, r := range attendedPresent {
		if _, ok := scheduleSet[k]; !ok {
			unscheduled = append(unscheduled, UnscheduledEntry{
				Key:   k,
				Name:  r.Name,
				Birth: r.Key.Birth,
			})
		}
	}
	sort.Slice(unscheduled, func(i, j int) bool { return unscheduled[i].Key.less(unscheduled[j].Key) })

	// 5. Report
	limit := e.ReportLimit
	if limit <= 0 {
		limit = DefaultReportLimit
	}

	report := &Report{
		Stats: Stats{
			RosterKeys:         idx.Len(),
			ScheduleRecords:    len(schedules),
			ScheduleKeys:       len(scheduleSet),
			AttendanceRecords:  len(attendance),
			AttendanceResolved: len(resolved),
			AttendedAnyKeys:    len(attendedAny),
			AttendedPresent:    len(attendedPresent),
			SkippedMasterRows:  idx.Skipped(),
			SkippedSchedule:    schedSkipped,
			SkippedAttendance:  attSkipped,
		},
		Absent:      absent,
		Unscheduled: unscheduled,
	}
	report.NotFound, report.NotFoundTotal = capList(dedupNotFound(notFound), limit)
	report.Ambiguous, report.AmbiguousTotal = capList(dedupAmbiguous(ambiguous), limit)
	return report, nil
}

// =============================================================================
// RESOLUTION
// =============================================================================

type resolvedAttendance struct {
	AttendanceRecord
	ID string
}

func (r resolvedAttendance) key() ReconciledKey { return ReconciledKey{ID: r.ID, Date: r.Date} }

func resolveAll(idx *roster.Index, records []AttendanceRecord) (resolved []resolvedAttendance, notFound []NotFoundEntry, ambiguous []AmbiguousEntry) {
	for _, rec := range records {
		res := idx.Resolve(rec.Key)
		switch res.Status {
		case roster.Found:
			resolved = append(resolved, resolvedAttendance{AttendanceRecord: rec, ID: res.ID})
		case roster.Ambiguous:
			ambiguous = append(ambiguous, AmbiguousEntry{
				Date:       rec.Date,
				Name:       rec.Name,
				Birth:      rec.Key.Birth,
				Candidates: res.Candidates,
			})
		default:
			notFound = append(notFound, NotFoundEntry{Date: rec.Date, Name: rec.Name, Birth: rec.Key.Birth})
		}
	}
	return resolved, notFound, ambiguous
}

// a person appearing on many rows is reported once, at first sighting
func dedupNotFound(in []NotFoundEntry) []NotFoundEntry {
	seen := make(map[string]bool, len(in))
	var out []NotFoundEntry
	for _, e := range in {
		k := e.Name + "|" + e.Birth
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func dedupAmbiguous(in []AmbiguousEntry) []AmbiguousEntry {
	seen := make(map[string]bool, len(in))
	var out []AmbiguousEntry
	for _, e := range in {
		k := e.Name + "|" + e.Birth
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func capList[T any](in []T, limit int) ([]T, int) {
	if len(in) > limit {
		return in[:limit], len(in)
	}
	return in, len(in)
}
