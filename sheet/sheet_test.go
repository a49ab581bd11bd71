package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/carecheck/attendance-engine/keys"
)

func rows(records ...[]string) []Row { return FromStrings(records) }

func masterLabels() []Label {
	return []Label{
		{Name: "name", Contains: []string{"수급자명"}, Exact: []string{"성명", "이름"}},
		ContainsLabel("birth", "생년월일"),
		ContainsLabel("id", "인정번호"),
	}
}

// =============================================================================
// COLUMN LETTERS
// =============================================================================

func TestColumnLetterRoundTrip(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for i, letter := range cases {
		assert.Equal(t, letter, ColumnLetter(i))
		assert.Equal(t, i, ColumnIndex(letter))
	}
	assert.Equal(t, -1, ColumnIndex(""))
	assert.Equal(t, -1, ColumnIndex("A1"))
	assert.Equal(t, 2, ColumnIndex(" c "))
}

func TestRowAccessors(t *testing.T) {
	r := Row{" a ", "b"}
	assert.Equal(t, "a", r.At("A"))
	assert.Equal(t, "", r.At("Z"))
	assert.Equal(t, "", r.Cell(-1))
	assert.False(t, r.IsBlank())
	assert.True(t, Row{" ", ""}.IsBlank())
}

// =============================================================================
// HEADER SCANNING
// =============================================================================

func TestScan_FindsHeaderAtArbitraryPosition(t *testing.T) {
	// GIVEN a title row, a blank-ish row, then the header in columns C..E
	data := rows(
		[]string{"수급자 현황", "", ""},
		[]string{"출력일 2025-06-01"},
		[]string{"번호", "비고", " 수급자명 ", "생 년 월 일", "수급자 인정번호"},
		[]string{"1", "", "김영희", "1955-03-02", "L1234"},
	)

	// WHEN scanning
	m, err := HeaderScanner{Window: 20}.Scan("master", data, masterLabels()...)

	// THEN the header row and each column are located
	require.NoError(t, err)
	assert.Equal(t, 2, m.Row)
	assert.Equal(t, 2, m.Column("name"))
	assert.Equal(t, 3, m.Column("birth"))
	assert.Equal(t, 4, m.Column("id"))
	assert.Equal(t, -1, m.Column("missing"))
}

func TestScan_ExactLabelDoesNotMatchAsSubstring(t *testing.T) {
	l := Label{Name: "name", Exact: []string{"성명"}}
	assert.True(t, l.Matches(" 성 명 "))
	assert.False(t, l.Matches("보호자성명"))
}

func TestScan_MissingLabelIsFatal(t *testing.T) {
	data := rows(
		[]string{"수급자명", "인정번호"},
		[]string{"김영희", "L1"},
	)

	_, err := HeaderScanner{Window: 20}.Scan("master", data, masterLabels()...)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHeaderNotFound))
	var hnf *HeaderNotFoundError
	require.ErrorAs(t, err, &hnf)
	assert.Equal(t, []string{"birth"}, hnf.Missing)
	assert.Equal(t, "master", hnf.Sheet)
	assert.True(t, IsStructural(err))
}

func TestScan_LabelsSplitAcrossRowsDoNotQualify(t *testing.T) {
	data := rows(
		[]string{"수급자명", "생년월일"},
		[]string{"인정번호"},
	)
	_, err := HeaderScanner{Window: 20}.Scan("master", data, masterLabels()...)

	var hnf *HeaderNotFoundError
	require.ErrorAs(t, err, &hnf)
	assert.ElementsMatch(t, []string{"name", "birth", "id"}, hnf.Missing)
}

func TestScan_HeaderOutsideWindow(t *testing.T) {
	data := rows(
		[]string{"x"}, []string{"x"}, []string{"x"},
		[]string{"수급자명", "생년월일", "인정번호"},
	)
	_, err := HeaderScanner{Window: 3}.Scan("master", data, masterLabels()...)
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	_, err = HeaderScanner{Window: 4}.Scan("master", data, masterLabels()...)
	assert.NoError(t, err)
}

func TestScan_WidthLimitsColumns(t *testing.T) {
	data := rows([]string{"일자", "", "", "인정번호"})
	label := ContainsLabel("id", "인정번호")

	_, err := HeaderScanner{Window: 10, Width: 3}.Scan("schedule", data, label)
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	m, err := HeaderScanner{Window: 10, Width: 4}.Scan("schedule", data, label)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Column("id"))
}

func TestScan_FirstQualifyingRowWins(t *testing.T) {
	// GIVEN a title row that also contains the label
	data := rows(
		[]string{"인정번호별 일정"},
		[]string{"일자", "인정번호"},
	)
	label := ContainsLabel("id", "인정번호")

	// WHEN scanning leniently THEN the first row wins
	m, err := HeaderScanner{Window: 10}.Scan("schedule", data, label)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Row)

	// WHEN scanning strictly THEN the ambiguity is an error
	_, err = HeaderScanner{Window: 10, Strict: true}.Scan("schedule", data, label)
	var amb *AmbiguousHeaderError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []int{0, 1}, amb.Rows)
	assert.Contains(t, amb.Error(), "rows 1, 2")
}

func TestScan_LeftmostColumnWinsWithinRow(t *testing.T) {
	data := rows([]string{"인정번호", "수급자 인정번호"})
	m, err := HeaderScanner{}.Scan("schedule", data, ContainsLabel("id", "인정번호"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Column("id"))
}

func TestFindOptional(t *testing.T) {
	header := Row{"일자", "요일", "시간", "수급자명", "인정번호"}
	cols := HeaderScanner{}.FindOptional(header,
		ContainsLabel("date", "일자"),
		ContainsLabel("vehicle", "차량"),
	)
	assert.Equal(t, map[string]int{"date": 0}, cols)
}

// =============================================================================
// EXTRACTION
// =============================================================================

func TestExtract_SkipsRejectedRowsAndHeader(t *testing.T) {
	data := rows(
		[]string{"name"},
		[]string{"a"},
		[]string{""},
		[]string{"b"},
	)
	got, skipped := Extract(data, 0, func(_ int, r Row) (string, bool) {
		v := r.At("A")
		return v, v != ""
	})
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, skipped)
}

// =============================================================================
// READERS
// =============================================================================

func TestReadCSV_BOMAndBlankRows(t *testing.T) {
	input := "\xEF\xBB\xBF성명,생년월일\n\n김영희,550302\n,\n이철수,600101,extra\n"
	got, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "성명", got[0].At("A"))
	assert.Equal(t, "extra", got[2].At("C"))
}

func TestReadCSV_EUCKR(t *testing.T) {
	// "성명" in EUC-KR
	input := []byte{0xBC, 0xBA, 0xB8, 0xED, ',', 'x', '\n'}
	got, err := ReadCSV(strings.NewReader(string(input)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "성명", got[0].At("A"))
}

func TestReadXLSX_DateStyledCells(t *testing.T) {
	// GIVEN: a workbook whose date and birth cells are Excel serials with
	// the built-in short date format
	f := excelize.NewFile()
	defer f.Close()
	sheetName := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheetName, "A1", &[]any{"일자", "생년월일"}))
	require.NoError(t, f.SetCellValue(sheetName, "A2", 45809)) // 2025-06-01
	require.NoError(t, f.SetCellValue(sheetName, "B2", 20150)) // 1955-03-02
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheetName, "A2", "B2", style))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	// WHEN: the workbook is read
	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// THEN: dates come back year first and normalize to the right keys
	assert.Equal(t, "2025-06-01", got[1].At("A"))
	assert.Equal(t, "1955-03-02", got[1].At("B"))
	assert.Equal(t, "20250601", keys.NormalizeDate(got[1].At("A")))
	assert.Equal(t, "550302", keys.NormalizeBirthFragment(got[1].At("B")))
}

func TestReadXLSX_CorruptWorkbookIsStructural(t *testing.T) {
	_, err := Read("master.xlsx", strings.NewReader("not a zip archive"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableSheet)
	assert.True(t, IsStructural(err))
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read("roster.pdf", strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("schedule")
	require.NoError(t, err)
	assert.Equal(t, KindSchedule, k)

	_, err = ParseKind("payroll")
	assert.ErrorIs(t, err, ErrInvalidKind)
}
