package analytics

import (
	"fmt"
	"time"

	"financas/internal/core"
)

var monthLabels = [12]string{"JAN", "FEV", "MAR", "ABR", "MAI", "JUN", "JUL", "AGO", "SET", "OUT", "NOV", "DEZ"}

// MonthKey returns the "YYYY-M" key of t's month (month not zero padded).
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

// MonthLabel returns the short pt-BR month name, upper case and without the trailing dot.
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthLabels[m-1]
}

// LastMonths returns the first day of each of the n months ending at now's
// month, oldest first.
func LastMonths(n int, now time.Time) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	loc := location(now)
	y, m, _ := now.In(loc).Date()
	base := time.Date(y, m, 1, 12, 0, 0, 0, loc)
	out := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, base.AddDate(0, -i, 0))
	}
	return out
}

// AggregateByMonth sums entries and exits per calendar month over the months
// window ending at now. Months without activity are included with zero
// totals; records outside the window or with unparsable dates are ignored.
func AggregateByMonth(entries, exits []core.Record, months int, now time.Time) []MonthBucket {
	window := LastMonths(months, now)
	if len(window) == 0 {
		return []MonthBucket{}
	}
	loc := location(now)
	key := func(r core.Record) (string, bool) {
		d, ok := core.ParseRecordDate(r.Date, loc)
		if !ok {
			return "", false
		}
		return MonthKey(d), true
	}
	entryTotals := sumByKey(entries, key)
	exitTotals := sumByKey(exits, key)

	out := make([]MonthBucket, 0, len(window))
	for _, m := range window {
		k := MonthKey(m)
		out = append(out, MonthBucket{
			Key:     k,
			Label:   MonthLabel(m.Month()),
			Entries: entryTotals[k],
			Exits:   exitTotals[k],
		})
	}
	return out
}
