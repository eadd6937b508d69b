// Package report builds the per-category financial report and renders it as
// PDF or CSV.
package report

import (
	"fmt"
	"time"

	"financas/internal/analytics"
	"financas/internal/core"
)

const Title = "Finance David - Relatorio Financeiro"

// Header is the table header shared by every export format.
var Header = []string{"Categoria", "Entradas", "Saidas", "Saldo"}

var monthNames = [...]string{
	"janeiro", "fevereiro", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

type Report struct {
	Period      analytics.Period      `json:"period"`
	PeriodLabel string                `json:"period_label"`
	GeneratedAt time.Time             `json:"generated_at"`
	Rows        []analytics.ReportRow `json:"rows"`
	Totals      analytics.ReportRow   `json:"totals"`
}

// Build aggregates entries and exits inside period, relative to now.
func Build(entries, exits []core.Record, period analytics.Period, now time.Time) Report {
	rows := analytics.AggregateByPeriod(entries, exits, period, now)
	return Report{
		Period:      period,
		PeriodLabel: period.Label(),
		GeneratedAt: now,
		Rows:        rows,
		Totals:      analytics.Totals(rows),
	}
}

// GeneratedOn renders the generation date as "16 de outubro de 2026".
func (r Report) GeneratedOn() string {
	t := r.GeneratedAt
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// Filename returns "relatorio-<period>-<unix ms>.<ext>".
func (r Report) Filename(ext string) string {
	return fmt.Sprintf("relatorio-%s-%d.%s", r.Period, r.GeneratedAt.UnixMilli(), ext)
}

// SheetTitle names the spreadsheet tab a report is exported to.
func (r Report) SheetTitle() string {
	return fmt.Sprintf("Relatorio %s %s", r.Period, r.GeneratedAt.Format(core.DateLayout))
}

// Table returns the header followed by one formatted line per row.
func (r Report) Table() [][]string {
	out := make([][]string, 0, len(r.Rows)+1)
	out = append(out, Header)
	for _, row := range r.Rows {
		out = append(out, []string{
			row.Key,
			core.FormatAmount(row.Entries),
			core.FormatAmount(row.Exits),
			core.FormatAmount(row.Balance),
		})
	}
	return out
}
