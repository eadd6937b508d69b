package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, Weekly, ParsePeriod("semanal"))
	assert.Equal(t, Weekly, ParsePeriod(" SEMANAL "))
	assert.Equal(t, Monthly, ParsePeriod("mensal"))
	assert.Equal(t, Monthly, ParsePeriod("anual"))
	assert.Equal(t, Monthly, ParsePeriod(""))
}

func TestAggregateByPeriod_Monthly(t *testing.T) {
	now := time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC)
	entries := []core.Record{
		rec(100, "2024-01-05", "Vendas"),
		rec(50, "2023-12-31", "Vendas"),
		rec(20, "2024-01-07", ""),
		rec(5, "garbage", "Vendas"),
	}
	exits := []core.Record{
		rec(40, "2024-01-10", "Fixas"),
		rec(30, "2024-01-11", "Vendas"),
		rec(8, "2024-01-12", ""),
	}

	got := AggregateByPeriod(entries, exits, Monthly, now)

	require.Len(t, got, 4)
	assert.Equal(t, "Vendas", got[0].Key)
	assert.True(t, got[0].Balance.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, DefaultEntryCategory, got[1].Key)
	assert.True(t, got[1].Balance.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, DefaultExitCategory, got[2].Key)
	assert.True(t, got[2].Balance.Equal(decimal.NewFromInt(-8)))
	assert.Equal(t, "Fixas", got[3].Key)
	assert.True(t, got[3].Exits.Equal(decimal.NewFromInt(40)))

	totals := Totals(got)
	assert.True(t, totals.Entries.Equal(decimal.NewFromInt(120)))
	assert.True(t, totals.Exits.Equal(decimal.NewFromInt(78)))
	assert.True(t, totals.Balance.Equal(decimal.NewFromInt(42)))
}

func TestAggregateByPeriod_Weekly(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	entries := []core.Record{
		rec(10, "2024-01-14", "A"), // 6.5 days before
		rec(20, "2024-01-13", "A"), // 7.5 days before
		rec(30, "2024-01-26", "A"), // 5.5 days ahead
		rec(40, "2024-01-27", "A"), // 6.5 days ahead
		rec(50, "2024-01-28", "A"), // 7.5 days ahead
	}

	got := AggregateByPeriod(entries, nil, Weekly, now)

	require.Len(t, got, 1)
	assert.True(t, got[0].Entries.Equal(decimal.NewFromInt(80)), "entries %s", got[0].Entries)
}

func TestAggregateByPeriod_UnknownPeriodIsMonthly(t *testing.T) {
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	entries := []core.Record{rec(10, "2024-01-01", "A"), rec(10, "2023-01-01", "A")}

	got := AggregateByPeriod(entries, nil, Period("trimestral"), now)

	require.Len(t, got, 1)
	assert.True(t, got[0].Entries.Equal(decimal.NewFromInt(10)))
}

func TestAggregateByPeriod_Empty(t *testing.T) {
	got := AggregateByPeriod(nil, nil, Weekly, time.Now())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
