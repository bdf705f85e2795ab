package convert

import "github.com/dalfonso89/currency-converter/internal/models"

// Row is one configured source/target pair with the amount to convert
type Row struct {
	Source string
	Target string
	Amount float64
}

// RowResult holds the outcome for a single row; Err is set instead of Result on failure
type RowResult struct {
	Row
	Result float64
	Err    error
}

// ConvertRows converts every row against the same table. Rows do not
// influence each other, so one bad row leaves the others intact.
func ConvertRows(table models.RateTable, rows []Row, direction Direction) []RowResult {
	results := make([]RowResult, len(rows))
	for i, row := range rows {
		result, err := Convert(table, row.Source, row.Target, row.Amount, direction)
		results[i] = RowResult{Row: row, Result: result, Err: err}
	}
	return results
}
