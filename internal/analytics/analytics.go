// Package analytics turns entry and exit records into the buckets behind the
// dashboard charts and the exported reports.
//
// Every function is pure: the reference time is passed in, inputs are never
// mutated and malformed records are skipped instead of failing the call.
// Calendar bucketing happens in now.Location().
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

const (
	// DefaultMonths is the monthly window shown on the dashboard.
	DefaultMonths = 9
	// DefaultDays is the performance window shown on the dashboard.
	DefaultDays = 16
	// DefaultTopCategories is how many categories the dashboard chart keeps.
	DefaultTopCategories = 6
)

type (
	MonthBucket struct {
		Key     string          `json:"key"`
		Label   string          `json:"label"`
		Entries decimal.Decimal `json:"entries"`
		Exits   decimal.Decimal `json:"exits"`
	}

	DayBucket struct {
		Key                  string          `json:"key"`
		Date                 time.Time       `json:"date"`
		Label                string          `json:"label"`
		Profit               decimal.Decimal `json:"profit"`
		Loss                 decimal.Decimal `json:"loss"`
		CumulativeProfit     decimal.Decimal `json:"cumulative_profit"`
		CumulativeLoss       decimal.Decimal `json:"cumulative_loss"`
		CumulativeProfitLine decimal.Decimal `json:"cumulative_profit_line"`
		CumulativeLossLine   decimal.Decimal `json:"cumulative_loss_line"`
	}

	CategoryBucket struct {
		Category string          `json:"category"`
		Entries  decimal.Decimal `json:"entries"`
		Exits    decimal.Decimal `json:"exits"`
	}

	ReportRow struct {
		Key     string          `json:"key"`
		Entries decimal.Decimal `json:"entries"`
		Exits   decimal.Decimal `json:"exits"`
		Balance decimal.Decimal `json:"balance"`
	}
)

func location(now time.Time) *time.Location {
	if loc := now.Location(); loc != nil {
		return loc
	}
	return time.UTC
}

// sumByKey accumulates record amounts under key(r). Records for which key
// reports false are skipped.
func sumByKey(records []core.Record, key func(core.Record) (string, bool)) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		totals[k] = totals[k].Add(r.Amount)
	}
	return totals
}
