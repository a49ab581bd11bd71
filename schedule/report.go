package schedule

// Report is the structured outcome of one verification run. Rendering it as
// text or JSON is left to the caller.
type Report struct {
	Stats Stats

	// Absent lists scheduled pairs with no attendance row at all, sorted.
	Absent []AbsentEntry

	// Unscheduled lists present attendance pairs missing from the schedule,
	// sorted.
	Unscheduled []UnscheduledEntry

	// NotFound and Ambiguous are deduplicated by (name, birth) and capped;
	// the totals count every distinct person before the cap.
	NotFound       []NotFoundEntry
	NotFoundTotal  int
	Ambiguous      []AmbiguousEntry
	AmbiguousTotal int
}

// Stats describe the data that went into a run.
type Stats struct {
	RosterKeys         int `json:"roster_keys"`
	ScheduleRecords    int `json:"schedule_records"`
	ScheduleKeys       int `json:"schedule_keys"`
	AttendanceRecords  int `json:"attendance_records"`
	AttendanceResolved int `json:"attendance_resolved"`
	AttendedAnyKeys    int `json:"attended_any_keys"`
	AttendedPresent    int `json:"attended_present_keys"`

	// Rows dropped for a missing name, identifier or usable date. Every
	// skipped row is a row the comparison could not see.
	SkippedMasterRows int `json:"skipped_master_rows"`
	SkippedSchedule   int `json:"skipped_schedule_rows"`
	SkippedAttendance int `json:"skipped_attendance_rows"`
}

// Counts summarizes the four discrepancy categories.
type Counts struct {
	Absent              int
	UnscheduledPresence int
	UnresolvedNotFound  int
	UnresolvedAmbiguous int
}

// Counts returns the category totals.
func (r *Report) Counts() Counts {
	return Counts{
		Absent:              len(r.Absent),
		UnscheduledPresence: len(r.Unscheduled),
		UnresolvedNotFound:  r.NotFoundTotal,
		UnresolvedAmbiguous: r.AmbiguousTotal,
	}
}

// Clean reports whether the run found no discrepancy of any kind.
func (r *Report) Clean() bool {
	c := r.Counts()
	return c == Counts{}
}

// AbsentEntry is a scheduled pair without attendance.
type AbsentEntry struct {
	Key  ReconciledKey
	Name string
}

// UnscheduledEntry is a present attendance pair without a schedule entry.
type UnscheduledEntry struct {
	Key   ReconciledKey
	Name  string
	Birth string
}

// NotFoundEntry is an attendance person key unknown to the roster.
type NotFoundEntry struct {
	Date  string
	Name  string
	Birth string
}

// AmbiguousEntry is an attendance person key matching several beneficiaries.
type AmbiguousEntry struct {
	Date       string
	Name       string
	Birth      string
	Candidates []string
}
