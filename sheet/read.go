/*
read.go - Readers turning spreadsheet files into rows

PURPOSE:
  The engine never parses files itself. These readers hand it rows of
  strings, whatever the source:

    .xlsx / .xlsm  excelize, first worksheet unless a name is given
    .csv           encoding/csv, UTF-8 (BOM tolerated) or EUC-KR

  Korean office software still exports CSV as EUC-KR (CP949). Content that is
  not valid UTF-8 is decoded as EUC-KR before parsing.

DATES:
  Cells with a built-in short date format come back as yyyy-mm-dd so that
  the key normalizers see the year first.

BLANK ROWS:
  Rows with no content are dropped, so row indices count only rows that
  carry data. Header windows are measured on those rows.
*/
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses r according to the extension of filename.
func Read(filename string, r io.Reader, sheetName string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r, sheetName)
	case ".csv", ".txt":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadFile opens path and parses it with Read.
func ReadFile(path, sheetName string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sheet: %w", err)
	}
	defer f.Close()
	return Read(path, f, sheetName)
}

// ReadXLSX reads one worksheet of an XLSX workbook. An empty sheetName
// selects the first worksheet.
func ReadXLSX(r io.Reader, sheetName string) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	// date-styled cells otherwise render as mm-dd-yy
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{ShortDatePattern: "yyyy-mm-dd"})
	if err != nil {
		return nil, fmt.Errorf("%w: workbook: %w", ErrUnreadableSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrSheetNotFound)
	}
	if sheetName == "" {
		sheetName = sheets[0]
	} else if !slices.Contains(sheets, sheetName) {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheetName, strings.Join(sheets, ", "))
	}

	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", sheetName, err)
	}
	return dropBlank(FromStrings(records)), nil
}

// ReadCSV reads comma-separated rows. Ragged rows are allowed.
func ReadCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, korean.EUCKR.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %w", ErrUnreadableSheet, err)
	}
	return dropBlank(FromStrings(records)), nil
}

func dropBlank(rows []Row) []Row {
	out := rows[:0]
	for _, r := range rows {
		if !r.IsBlank() {
			out = append(out, r)
		}
	}
	return out
}
