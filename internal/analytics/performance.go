package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// LastDays returns noon of each of the n days ending at now, oldest first.
func LastDays(n int, now time.Time) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	today := core.DayOf(now.In(location(now)))
	out := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

// AggregatePerformance builds the daily profit/loss series for the days
// window ending at now. Each record counts toward its calendar day whatever
// its position in the input; the cumulative sums run in date order and are
// never reset inside the window.
func AggregatePerformance(entries, exits []core.Record, days int, now time.Time) []DayBucket {
	window := LastDays(days, now)
	if len(window) == 0 {
		return []DayBucket{}
	}
	loc := location(now)
	key := func(r core.Record) (string, bool) {
		d, ok := core.ParseRecordDate(r.Date, loc)
		if !ok {
			return "", false
		}
		return d.Format(core.DateLayout), true
	}
	entryTotals := sumByKey(entries, key)
	exitTotals := sumByKey(exits, key)

	var cumProfit, cumLoss decimal.Decimal
	out := make([]DayBucket, 0, len(window))
	for _, day := range window {
		k := day.Format(core.DateLayout)
		net := entryTotals[k].Sub(exitTotals[k])
		profit, loss := decimal.Zero, decimal.Zero
		if net.IsPositive() {
			profit = net
			cumProfit = cumProfit.Add(profit)
		}
		if net.IsNegative() {
			loss = net
			cumLoss = cumLoss.Add(net.Abs())
		}
		b := DayBucket{
			Key:                  k,
			Date:                 day,
			Label:                day.Format("02/01"),
			Profit:               profit,
			Loss:                 loss,
			CumulativeProfit:     cumProfit,
			CumulativeLoss:       cumLoss,
			CumulativeProfitLine: cumProfit,
			CumulativeLossLine:   decimal.Zero,
		}
		if cumLoss.IsPositive() {
			b.CumulativeLossLine = cumLoss.Neg()
		}
		out = append(out, b)
	}
	return out
}
