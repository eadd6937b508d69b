package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Period selects the reporting window.
type Period string

const (
	Weekly  Period = "semanal"
	Monthly Period = "mensal"
)

// Default row keys for uncategorized records in reports. They differ from
// UncategorizedLabel on purpose: a report row keeps the stream visible.
const (
	DefaultEntryCategory = "Entradas"
	DefaultExitCategory  = "Saidas"
)

const week = 7 * 24 * time.Hour

// ParsePeriod maps user input to a Period. Anything unrecognised is Monthly.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly
	default:
		return Monthly
	}
}

// Label is the human readable description printed on reports.
func (p Period) Label() string {
	if p == Weekly {
		return "Semana atual"
	}
	return "Ultimo mes"
}

// Contains reports whether day d falls in the period relative to now.
// Weekly accepts dates whose start is at most seven days away from now in
// either direction, measured on the wall clock so DST shifts do not move the
// edge; any other value behaves as Monthly (same calendar month and year).
func (p Period) Contains(d, now time.Time) bool {
	if p == Weekly {
		n := now.In(d.Location())
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		wall := time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), n.Nanosecond(), time.UTC)
		diff := wall.Sub(start)
		if diff < 0 {
			diff = -diff
		}
		return diff <= week
	}
	n := now.In(d.Location())
	return d.Year() == n.Year() && d.Month() == n.Month()
}

// AggregateByPeriod groups the records inside period by category and returns
// one row per category with its balance, largest balance first. Category
// names are trimmed but otherwise kept as typed; records with malformed dates
// are left out.
func AggregateByPeriod(entries, exits []core.Record, period Period, now time.Time) []ReportRow {
	loc := location(now)
	index := make(map[string]int)
	rows := []ReportRow{}
	add := func(records []core.Record, fallback string, entry bool) {
		for _, r := range records {
			d, ok := core.ParseRecordDate(r.Date, loc)
			if !ok || !period.Contains(d, now) {
				continue
			}
			k := strings.TrimSpace(r.Category)
			if k == "" {
				k = fallback
			}
			i, ok := index[k]
			if !ok {
				i = len(rows)
				index[k] = i
				rows = append(rows, ReportRow{Key: k})
			}
			if entry {
				rows[i].Entries = rows[i].Entries.Add(r.Amount)
			} else {
				rows[i].Exits = rows[i].Exits.Add(r.Amount)
			}
			rows[i].Balance = rows[i].Entries.Sub(rows[i].Exits)
		}
	}
	add(entries, DefaultEntryCategory, true)
	add(exits, DefaultExitCategory, false)

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Balance.GreaterThan(rows[j].Balance)
	})
	return rows
}

// Totals sums report rows.
func Totals(rows []ReportRow) ReportRow {
	var t ReportRow
	for _, r := range rows {
		t.Entries = t.Entries.Add(r.Entries)
		t.Exits = t.Exits.Add(r.Exits)
	}
	t.Balance = t.Entries.Sub(t.Exits)
	t.Key = "Total"
	return t
}

// Sum adds up the amounts of all records.
func Sum(records []core.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
