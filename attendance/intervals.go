/*
Package attendance runs the checks that need only the facility's own log:
session length buckets and vehicle double bookings.

PURPOSE:
  Interval aggregator: a beneficiary who left after two hours on a day billed
  as a full day is worth a second look. Sessions are measured from the in/out
  time codes, full-length days are dropped, the rest are bucketed by length.

  Collision detector: two beneficiaries recorded on the same vehicle at the
  same minute usually means a copy-paste error in the transport log.

SEE ALSO:
  - collisions.go: Collision detector
  - keys/timecode.go: Time code arithmetic
*/
package attendance

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carecheck/attendance-engine/keys"
	"github.com/carecheck/attendance-engine/sheet"
)

// =============================================================================
// SESSIONS
// =============================================================================

// Session is one in/out pair from the time log.
type Session struct {
	Name   string
	Birth  string
	Date   string // YYYYMMDD when derivable
	Status string
	Start  string // HHMM
	End    string // HHMM
}

// Minutes returns the session length, rolling over midnight.
func (s Session) Minutes() int { return keys.IntervalMinutes(s.Start, s.End) }

// SessionLayout describes the fixed columns of the time log.
type SessionLayout struct {
	HeaderRows   int
	NameColumn   string
	BirthColumn  string
	DateColumn   string
	StatusColumn string
	StartColumn  string
	EndColumn    string
	// Statuses lists the status values that count as a session.
	Statuses []string
}

// DefaultSessionLayout matches the facility system's attendance export with
// in/out times in G and H.
func DefaultSessionLayout() SessionLayout {
	return SessionLayout{
		HeaderRows:   1,
		NameColumn:   "A",
		BirthColumn:  "B",
		DateColumn:   "C",
		StatusColumn: "E",
		StartColumn:  "G",
		EndColumn:    "H",
		Statuses:     []string{"입퇴소"},
	}
}

// ExtractSessions reads sessions with a counted status and both times set.
func ExtractSessions(rows []sheet.Row, layout SessionLayout) ([]Session, int) {
	return sheet.Extract(rows, layout.HeaderRows-1, func(_ int, r sheet.Row) (Session, bool) {
		s := Session{
			Name:   strings.TrimSpace(r.At(layout.NameColumn)),
			Birth:  r.At(layout.BirthColumn),
			Date:   keys.NormalizeDate(r.At(layout.DateColumn)),
			Status: r.At(layout.StatusColumn),
			Start:  keys.NormalizeTimeCode(r.At(layout.StartColumn)),
			End:    keys.NormalizeTimeCode(r.At(layout.EndColumn)),
		}
		if !contains(layout.Statuses, s.Status) {
			return s, false
		}
		return s, s.Start != "" && s.End != ""
	})
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Bucket is a half-open duration range [Min, Max) in minutes.
type Bucket struct {
	Label string `yaml:"label" json:"label"`
	Min   int    `yaml:"min" json:"min"`
	Max   int    `yaml:"max" json:"max"`
}

// Contains reports whether minutes falls in the bucket.
func (b Bucket) Contains(minutes int) bool { return minutes >= b.Min && minutes < b.Max }

// IntervalOptions configure Aggregate.
type IntervalOptions struct {
	// CeilingMinutes drops sessions at or above this length as full days.
	CeilingMinutes int
	Buckets        []Bucket
}

// DefaultIntervalOptions: under 3h, 3h to 6h, 6h to 8h; 8h and more is a
// full day.
func DefaultIntervalOptions() IntervalOptions {
	return IntervalOptions{
		CeilingMinutes: 480,
		Buckets: []Bucket{
			{Label: "3시간 미만", Min: 0, Max: 180},
			{Label: "3시간 이상 6시간 미만", Min: 180, Max: 360},
			{Label: "6시간 이상 8시간 미만", Min: 360, Max: 480},
		},
	}
}

// Interval is a measured session.
type Interval struct {
	Session
	Minutes int
	Hours   decimal.Decimal // Minutes / 60, two decimal places
}

// BucketResult holds the intervals of one bucket, longest first.
type BucketResult struct {
	Bucket    Bucket
	Intervals []Interval
}

// IntervalReport is the outcome of Aggregate.
type IntervalReport struct {
	Buckets []BucketResult
	// Sessions counts every session measured.
	Sessions int
	// FullDay counts sessions at or above the ceiling.
	FullDay int
	// Unbucketed counts sessions below the ceiling that no bucket covers.
	Unbucketed int
	// Skipped counts log rows that were not sessions.
	Skipped int
}

// Total returns the number of bucketed intervals.
func (r IntervalReport) Total() int {
	n := 0
	for _, b := range r.Buckets {
		n += len(b.Intervals)
	}
	return n
}

var sixty = decimal.NewFromInt(60)

// Aggregate measures each session, drops full days and buckets the rest.
// Sessions in the first matching bucket win when buckets overlap.
func Aggregate(sessions []Session, opts IntervalOptions) IntervalReport {
	report := IntervalReport{Buckets: make([]BucketResult, len(opts.Buckets)), Sessions: len(sessions)}
	for i, b := range opts.Buckets {
		report.Buckets[i].Bucket = b
	}

	for _, s := range sessions {
		minutes := s.Minutes()
		if opts.CeilingMinutes > 0 && minutes >= opts.CeilingMinutes {
			report.FullDay++
			continue
		}
		iv := Interval{
			Session: s,
			Minutes: minutes,
			Hours:   decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2),
		}
		placed := false
		for i := range report.Buckets {
			if report.Buckets[i].Bucket.Contains(minutes) {
				report.Buckets[i].Intervals = append(report.Buckets[i].Intervals, iv)
				placed = true
				break
			}
		}
		if !placed {
			report.Unbucketed++
		}
	}

	for i := range report.Buckets {
		ivs := report.Buckets[i].Intervals
		sort.SliceStable(ivs, func(a, b int) bool { return ivs[a].Minutes > ivs[b].Minutes })
	}
	return report
}

func contains(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
