package core

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the shape the aggregation engine reads: an amount, the date as
// supplied by the data source and an optional category label.
type Record struct {
	Amount   decimal.Decimal
	Date     string
	Category string
}

// Records converts transactions to aggregation records, preserving order.
func Records(txs []Transaction) []Record {
	out := make([]Record, len(txs))
	for i, t := range txs {
		out[i] = t.Record()
	}
	return out
}

// AmountFromFloat converts a float coming from an external source. Values that
// are not finite contribute nothing.
func AmountFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseRecordDate interprets a record date in loc. Plain YYYY-MM-DD values are
// calendar dates in loc; timestamps carrying an offset are converted to loc.
// The result is noon of the calendar day (see DayOf).
func ParseRecordDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 12, 0, 0, 0, loc), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return DayOf(t.In(loc)), true
		}
	}
	return time.Time{}, false
}

// DayOf returns noon of t's calendar day, keeping t's location. Midnight is
// skipped by some DST transitions; noon exists on every day, so AddDate steps
// from it never repeat or skip a date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, t.Location())
}
