package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"financas/internal/core"
)

// WriteCSV writes the table followed by a Total line. Amounts keep the
// localized currency format shown on screen.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(append(r.Table(), r.totalLine())); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func (r Report) totalLine() []string {
	t := r.Totals
	return []string{t.Key, core.FormatAmount(t.Entries), core.FormatAmount(t.Exits), core.FormatAmount(t.Balance)}
}
