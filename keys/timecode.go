package keys

import (
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// TIME CODES - HHMM strings as written in attendance logs
// =============================================================================

// MinutesPerDay is the rollover applied when an interval crosses midnight.
const MinutesPerDay = 24 * 60

// NormalizeTimeCode converts a time cell to a 4-digit HHMM string.
//
//	"0830", "830", 830.0, "8:30" -> "0830"
//	"2:30 PM", "오후 2:30"       -> "1430"
//
// Spreadsheet tools often store times as numbers, which drops the leading
// zero and sometimes adds a fractional part; both are repaired here.
func NormalizeTimeCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if rest, pm, ok := cutMeridiem(s); ok {
		return to24Hour(NormalizeTimeCode(rest), pm)
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		// "08:30:00" keeps only hours and minutes
		m, _, _ = strings.Cut(m, ":")
		return leftPad(Digits(h), 2) + leftPad(Digits(m), 2)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return leftPad(strconv.FormatInt(int64(math.Floor(f)), 10), 4)
	}

	return leftPad(Digits(s), 4)
}

var meridiems = []struct {
	marker string
	pm     bool
}{
	{"AM", false},
	{"PM", true},
	{"오전", false},
	{"오후", true},
}

// cutMeridiem removes a 12-hour clock marker ("2:30 PM", "오후 2:30").
func cutMeridiem(s string) (rest string, pm, ok bool) {
	upper := strings.ToUpper(s)
	for _, m := range meridiems {
		if i := strings.Index(upper, m.marker); i >= 0 {
			rest = strings.TrimSpace(upper[:i] + upper[i+len(m.marker):])
			return rest, m.pm, true
		}
	}
	return s, false, false
}

// to24Hour shifts a 12-hour HHMM code: 12 AM is hour 0, PM adds 12.
func to24Hour(code string, pm bool) string {
	if len(code) != 4 || !isAllDigits(code) {
		return code
	}
	hours, _ := strconv.Atoi(code[:2])
	hours %= 12
	if pm {
		hours += 12
	}
	return leftPad(strconv.Itoa(hours), 2) + code[2:]
}

// TimeCodeToMinutes interprets code as HHMM and returns minutes past
// midnight. Empty input yields 0.
func TimeCodeToMinutes(code string) int {
	c := NormalizeTimeCode(code)
	if len(c) < 4 {
		return 0
	}
	hours, _ := strconv.Atoi(c[:2])
	minutes, _ := strconv.Atoi(c[2:4])
	return hours*60 + minutes
}

// IntervalMinutes returns the minutes from start to end. An end earlier than
// the start is taken to be on the following day.
func IntervalMinutes(startCode, endCode string) int {
	start := TimeCodeToMinutes(startCode)
	end := TimeCodeToMinutes(endCode)
	if end < start {
		return (MinutesPerDay - start) + end
	}
	return end - start
}

// FormatTimeForDisplay renders a time code as HH:MM. Input that does not
// normalize to exactly four digits is returned unchanged.
func FormatTimeForDisplay(code string) string {
	c := NormalizeTimeCode(code)
	if len(c) != 4 || !isAllDigits(c) {
		return code
	}
	return c[:2] + ":" + c[2:]
}
