package google

import (
	"fmt"
	"strings"

	"financas/internal/core"
	"financas/internal/report"
)

// a1Range quotes sheet for A1 notation, so names with spaces are safe.
func a1Range(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

// findRowByID returns the zero-based index of the first row whose first cell
// equals id, or -1.
func findRowByID(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

// transactionRow lays a transaction out as ID, date, type, description,
// category, amount and notes. The amount uses a dot separator so the sheet
// parses it as a number.
func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID,
		core.FormatDate(t.Date.Time),
		string(t.Type),
		t.Description,
		t.Category,
		t.Amount.StringFixed(2),
		t.Notes,
	}
}

// reportValues renders the report header, its table and the total line.
func reportValues(r report.Report) [][]any {
	out := [][]any{
		{report.Title},
		{"Gerado em: " + r.GeneratedOn()},
		{"Periodo: " + r.PeriodLabel},
		{},
	}
	for _, line := range r.Table() {
		out = append(out, toCells(line))
	}
	t := r.Totals
	out = append(out, []any{t.Key, core.FormatAmount(t.Entries), core.FormatAmount(t.Exits), core.FormatAmount(t.Balance)})
	return out
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
