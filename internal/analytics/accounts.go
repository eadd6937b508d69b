package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// UpcomingLimit is how many unpaid bills the accounts summary lists.
const UpcomingLimit = 6

type (
	StatusGroup struct {
		Count int             `json:"count"`
		Total decimal.Decimal `json:"total"`
	}

	AccountSummary struct {
		// OpenTotal is the amount still owed: every bill not yet paid.
		OpenTotal decimal.Decimal                    `json:"open_total"`
		ByStatus  map[core.AccountStatus]StatusGroup `json:"by_status"`
		Overdue   []core.Account                     `json:"overdue"`
		Upcoming  []core.Account                     `json:"upcoming"`
	}
)

// SummarizeAccounts groups bills by status and picks the next unpaid ones by due date.
func SummarizeAccounts(accounts []core.Account) AccountSummary {
	s := AccountSummary{
		ByStatus: map[core.AccountStatus]StatusGroup{
			core.StatusPending: {},
			core.StatusOverdue: {},
			core.StatusPaid:    {},
		},
		Overdue:  []core.Account{},
		Upcoming: []core.Account{},
	}
	for _, a := range accounts {
		g := s.ByStatus[a.Status]
		g.Count++
		g.Total = g.Total.Add(a.Amount)
		s.ByStatus[a.Status] = g

		if a.Status == core.StatusPaid {
			continue
		}
		s.OpenTotal = s.OpenTotal.Add(a.Amount)
		s.Upcoming = append(s.Upcoming, a)
		if a.Status == core.StatusOverdue {
			s.Overdue = append(s.Overdue, a)
		}
	}
	sort.SliceStable(s.Upcoming, func(i, j int) bool {
		return s.Upcoming[i].DueDate.Before(s.Upcoming[j].DueDate.Time)
	})
	if len(s.Upcoming) > UpcomingLimit {
		s.Upcoming = s.Upcoming[:UpcomingLimit]
	}
	return s
}
