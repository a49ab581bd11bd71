package sheet

// Extract walks the rows strictly after the header row and collects the
// records fn accepts. Rows fn rejects (missing name, unusable date, ...) are
// skipped and counted; they never fail the extraction.
func Extract[T any](rows []Row, headerRow int, fn func(index int, row Row) (T, bool)) (records []T, skipped int) {
	for i := headerRow + 1; i < len(rows); i++ {
		rec, ok := fn(i, rows[i])
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}
