package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Overview feeds the summary cards at the top of the dashboard.
type Overview struct {
	Balance         decimal.Decimal `json:"balance"`
	BalanceDelta    string          `json:"balance_delta"`
	MonthEntries    decimal.Decimal `json:"month_entries"`
	MonthEntryDelta string          `json:"month_entries_delta"`
	MonthExits      decimal.Decimal `json:"month_exits"`
	MonthExitDelta  string          `json:"month_exits_delta"`
	PendingAccounts int             `json:"pending_accounts"`
	PaidAccounts    int             `json:"paid_accounts"`
	TotalAccounts   int             `json:"total_accounts"`
}

// BuildOverview computes the all-time balance and the current month figures
// with their change relative to the previous month.
func BuildOverview(entries, exits []core.Record, accounts []core.Account, now time.Time) Overview {
	monthly := AggregateByMonth(entries, exits, 2, now)
	prev, cur := monthly[0], monthly[1]

	o := Overview{
		Balance:         Sum(entries).Sub(Sum(exits)),
		BalanceDelta:    Delta(cur.Entries.Sub(cur.Exits), prev.Entries.Sub(prev.Exits)),
		MonthEntries:    cur.Entries,
		MonthEntryDelta: Delta(cur.Entries, prev.Entries),
		MonthExits:      cur.Exits,
		MonthExitDelta:  Delta(cur.Exits, prev.Exits),
		TotalAccounts:   len(accounts),
	}
	for _, a := range accounts {
		if a.Status == core.StatusPaid {
			o.PaidAccounts++
		} else {
			o.PendingAccounts++
		}
	}
	return o
}

var hundred = decimal.NewFromInt(100)

// Delta renders the percentage change from previous to current with one
// decimal, "+" for increases. It is "-" when previous is zero.
func Delta(current, previous decimal.Decimal) string {
	if previous.IsZero() {
		return "-"
	}
	d := current.Sub(previous).Div(previous).Mul(hundred)
	s := d.StringFixed(1) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}
