/*
Package sheet models spreadsheet rows and locates the columns inside them.

PURPOSE:
  Spreadsheet parsing itself is a library concern (excelize, encoding/csv).
  This package turns a parsed sheet into rows addressed by column letter,
  finds the header row by label, and walks the data rows below it.

KEY CONCEPTS:
  - Row: cells of one spreadsheet row, addressed as "A", "B", ... "AA"
  - Label: a tolerant column-label matcher (substring or exact)
  - HeaderScanner: finds the row carrying every required label
  - Extract: yields typed records from the rows after the header

SEE ALSO:
  - header.go: Header scanning
  - read.go: CSV/XLSX readers
  - upload.go: Stored uploads
*/
package sheet

import "strings"

// Row is one spreadsheet row. Index 0 is column A.
type Row []string

// Cell returns the trimmed cell at index i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// At returns the trimmed cell in the given column letter.
func (r Row) At(column string) string {
	return r.Cell(ColumnIndex(column))
}

// IsBlank reports whether every cell is empty after trimming.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ColumnLetter converts a zero-based column index to its spreadsheet letter:
// 0 -> "A", 25 -> "Z", 26 -> "AA".
func ColumnLetter(i int) string {
	if i < 0 {
		return ""
	}
	var buf []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

// ColumnIndex converts a spreadsheet column letter to a zero-based index.
// Invalid letters yield -1.
func ColumnIndex(letter string) int {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return -1
	}
	n := 0
	for i := 0; i < len(letter); i++ {
		c := letter[i]
		if c < 'A' || c > 'Z' {
			return -1
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1
}

// FromStrings converts raw records into rows.
func FromStrings(records [][]string) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row(rec)
	}
	return rows
}
