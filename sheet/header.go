package sheet

import (
	"strings"
	"unicode"
)

// =============================================================================
// LABELS - Tolerant column-label matching
// =============================================================================

// Label describes how to recognize one column in a header row.
//
// Real header cells carry inconsistent prefixes and suffixes ("수급자명",
// "수급자 인정번호", "인정번호(L)"), so matching is substring containment on
// the whitespace-stripped cell. Exact alternatives cover short generic labels
// such as "성명" that would match too much as substrings.
type Label struct {
	Name     string   `yaml:"name" json:"name"`
	Contains []string `yaml:"contains" json:"contains,omitempty"`
	Exact    []string `yaml:"exact" json:"exact,omitempty"`
}

// ContainsLabel builds a Label matching any of the given substrings.
func ContainsLabel(name string, substrings ...string) Label {
	return Label{Name: name, Contains: substrings}
}

// Matches reports whether a header cell carries this label.
func (l Label) Matches(cell string) bool {
	c := stripSpace(cell)
	if c == "" {
		return false
	}
	for _, s := range l.Contains {
		if s != "" && strings.Contains(c, stripSpace(s)) {
			return true
		}
	}
	for _, s := range l.Exact {
		if c == stripSpace(s) {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// =============================================================================
// HEADER SCANNER
// =============================================================================

// HeaderScanner finds the header row of a sheet whose column positions are
// not fixed.
type HeaderScanner struct {
	// Window is the number of leading rows searched.
	Window int
	// Width limits the columns searched per row; 0 searches the whole row.
	Width int
	// Strict rejects sheets where more than one row qualifies as header.
	// Otherwise the first qualifying row, scanning top-down, wins.
	Strict bool
}

// HeaderMatch is the located header row and the column of every label.
type HeaderMatch struct {
	Row     int
	Columns map[string]int
}

// Column returns the column index for a label name, or -1.
func (m HeaderMatch) Column(label string) int {
	if i, ok := m.Columns[label]; ok {
		return i
	}
	return -1
}

// Scan searches the window for a row carrying every label. Within a row the
// leftmost matching cell is taken for each label.
func (s HeaderScanner) Scan(sheetName string, rows []Row, labels ...Label) (HeaderMatch, error) {
	window := s.Window
	if window <= 0 || window > len(rows) {
		window = len(rows)
	}

	var (
		found   []HeaderMatch
		seenAny = make(map[string]bool, len(labels))
	)

	for i := 0; i < window; i++ {
		cols := s.matchRow(rows[i], labels)
		for name := range cols {
			seenAny[name] = true
		}
		if len(cols) < len(labels) {
			continue
		}
		found = append(found, HeaderMatch{Row: i, Columns: cols})
		if !s.Strict {
			break
		}
	}

	if len(found) == 0 {
		missing := make([]string, 0, len(labels))
		for _, l := range labels {
			if !seenAny[l.Name] {
				missing = append(missing, l.Name)
			}
		}
		if len(missing) == 0 {
			// every label appeared somewhere, but never together in one row
			for _, l := range labels {
				missing = append(missing, l.Name)
			}
		}
		return HeaderMatch{}, &HeaderNotFoundError{Sheet: sheetName, Missing: missing, Window: window}
	}

	if len(found) > 1 {
		idx := make([]int, len(found))
		for i, f := range found {
			idx[i] = f.Row
		}
		return HeaderMatch{}, &AmbiguousHeaderError{Sheet: sheetName, Rows: idx}
	}

	return found[0], nil
}

// FindOptional looks for extra labels in an already located header row.
// Labels that are absent are simply left out of the result.
func (s HeaderScanner) FindOptional(row Row, labels ...Label) map[string]int {
	return s.matchRow(row, labels)
}

func (s HeaderScanner) matchRow(row Row, labels []Label) map[string]int {
	width := len(row)
	if s.Width > 0 && s.Width < width {
		width = s.Width
	}
	cols := make(map[string]int, len(labels))
	for j := 0; j < width; j++ {
		cell := row[j]
		for _, l := range labels {
			if _, done := cols[l.Name]; done {
				continue
			}
			if l.Matches(cell) {
				cols[l.Name] = j
			}
		}
	}
	return cols
}
