package analytics

import (
	"time"

	"financas/internal/core"
)

// BuildMonthMatrix returns the weeks, Sunday first, covering the month of
// visible. Days from neighbouring months pad the first and last weeks.
func BuildMonthMatrix(visible time.Time) [][]time.Time {
	loc := location(visible)
	first := time.Date(visible.Year(), visible.Month(), 1, 12, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	var weeks [][]time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 7) {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = day.AddDate(0, 0, i)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// GroupAccountsByDue indexes bills by their due date (YYYY-MM-DD), keeping input order.
func GroupAccountsByDue(accounts []core.Account) map[string][]core.Account {
	out := make(map[string][]core.Account)
	for _, a := range accounts {
		k := a.DueDate.String()
		if k == "" {
			continue
		}
		out[k] = append(out[k], a)
	}
	return out
}
