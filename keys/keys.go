/*
Package keys turns raw spreadsheet cells into canonical join keys.

PURPOSE:
  Facility and authority spreadsheets disagree on how they write the same
  value: "2025-06-01", "2025.6.1" and "20250601" are one date; "1955-03-02"
  and "550302" are one birth fragment; "830", "8:30" and "0830" are one time
  code. Every comparison in the engine runs on the canonical forms produced
  here.

CONTRACT:
  Every function is total. Malformed input yields a best-effort value
  (usually the digits that could be extracted), never a panic or an error.
  Callers that need a trustworthy key validate its shape with IsDateKey /
  IsBirthFragment before using it.

CANONICAL FORMS:
  Name            whitespace removed, NFC-composed Hangul
  Date            YYYYMMDD (8 digits)
  Birth fragment  YYMMDD (6 digits)
  Time code       HHMM (4 digits)

SEE ALSO:
  - timecode.go: time codes, intervals and display helpers
  - sheet/header.go: label matching uses the same whitespace rule
*/
package keys

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// separatedDate matches year-month-day with '-', '.' or '/' separators.
var separatedDate = regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)

// =============================================================================
// NAMES
// =============================================================================

// NormalizeName removes every whitespace rune and composes Hangul jamo so
// that names typed on different systems compare equal.
func NormalizeName(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	return norm.NFC.String(stripped)
}

// =============================================================================
// DATES
// =============================================================================

// NormalizeDate converts a date cell to YYYYMMDD.
//
// Eight extracted digits are returned unchanged. Otherwise a separated
// year-month-day is zero-padded. Anything else falls back to the extracted
// digits, which may be short.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	digits := Digits(s)
	if len(digits) == 8 {
		return digits
	}

	if m := separatedDate.FindStringSubmatch(s); m != nil {
		return m[1] + pad2(m[2]) + pad2(m[3])
	}

	return digits
}

// NormalizeBirthFragment converts a birth date cell to YYMMDD. A separated
// date with a four-digit year is split on its separators; other input keeps
// six digits as-is and drops the century from eight.
func NormalizeBirthFragment(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// "1955.3.2" has six digits too; a four-digit year with separators
	// must be split before the digit-count shortcut
	if strings.ContainsAny(s, "-./") {
		if m := separatedDate.FindStringSubmatch(s); m != nil {
			return m[1][2:] + pad2(m[2]) + pad2(m[3])
		}
	}

	digits := Digits(s)
	switch len(digits) {
	case 6:
		return digits
	case 8:
		return digits[2:]
	}

	return digits
}

// IsDateKey reports whether s is a canonical 8-digit date.
func IsDateKey(s string) bool { return len(s) == 8 && isAllDigits(s) }

// IsBirthFragment reports whether s is a canonical 6-digit birth fragment.
func IsBirthFragment(s string) bool { return len(s) == 6 && isAllDigits(s) }

// FormatDateForDisplay renders YYYYMMDD as YYYY-MM-DD. Other input is
// returned unchanged.
func FormatDateForDisplay(yyyymmdd string) string {
	if len(yyyymmdd) != 8 {
		return yyyymmdd
	}
	return yyyymmdd[:4] + "-" + yyyymmdd[4:6] + "-" + yyyymmdd[6:]
}

// =============================================================================
// HELPERS
// =============================================================================

// Digits returns only the ASCII digits of s, in order.
func Digits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func pad2(s string) string { return leftPad(s, 2) }

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
