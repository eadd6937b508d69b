package analytics

import (
	"math/rand"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func TestAggregatePerformance_Window(t *testing.T) {
	now := time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC)

	got := AggregatePerformance(nil, nil, 4, now)

	require.Len(t, got, 4)
	assert.Equal(t, "2024-02-28", got[0].Key)
	assert.Equal(t, "2024-02-29", got[1].Key)
	assert.Equal(t, "2024-03-02", got[3].Key)
	assert.Equal(t, "02/03", got[3].Label)
	assert.Equal(t, 12, got[3].Date.Hour())
	assert.Empty(t, AggregatePerformance(nil, nil, 0, now))
}

func TestAggregatePerformance_ProfitAndLoss(t *testing.T) {
	now := time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC)
	entries := []core.Record{
		rec(100, "2024-01-01", ""),
		rec(30, "2024-01-02", ""),
		rec(20, "2024-01-04T08:00:00Z", ""),
	}
	exits := []core.Record{
		rec(40, "2024-01-01", ""),
		rec(80, "2024-01-02", ""),
		rec(5, "2024-01-03", ""),
	}

	got := AggregatePerformance(entries, exits, 4, now)

	require.Len(t, got, 4)
	want := []struct {
		profit, loss, cumProfit, cumLoss, lossLine int64
	}{
		{60, 0, 60, 0, 0},
		{0, -50, 60, 50, -50},
		{0, -5, 60, 55, -55},
		{20, 0, 80, 55, -55},
	}
	for i, w := range want {
		b := got[i]
		assert.True(t, b.Profit.Equal(decimal.NewFromInt(w.profit)), "day %d profit %s", i, b.Profit)
		assert.True(t, b.Loss.Equal(decimal.NewFromInt(w.loss)), "day %d loss %s", i, b.Loss)
		assert.True(t, b.CumulativeProfit.Equal(decimal.NewFromInt(w.cumProfit)), "day %d cum profit %s", i, b.CumulativeProfit)
		assert.True(t, b.CumulativeLoss.Equal(decimal.NewFromInt(w.cumLoss)), "day %d cum loss %s", i, b.CumulativeLoss)
		assert.True(t, b.CumulativeProfitLine.Equal(b.CumulativeProfit))
		assert.True(t, b.CumulativeLossLine.Equal(decimal.NewFromInt(w.lossLine)), "day %d loss line %s", i, b.CumulativeLossLine)
	}
}

func TestAggregatePerformance_OrderIndependent(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	var entries, exits []core.Record
	for d := 1; d <= 20; d++ {
		date := time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC).Format(core.DateLayout)
		entries = append(entries, rec(int64(d*7%13), date, ""))
		exits = append(exits, rec(int64(d*5%11), date, ""))
	}
	want := AggregatePerformance(entries, exits, 16, now)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		se := append([]core.Record(nil), entries...)
		sx := append([]core.Record(nil), exits...)
		r.Shuffle(len(se), func(a, b int) { se[a], se[b] = se[b], se[a] })
		r.Shuffle(len(sx), func(a, b int) { sx[a], sx[b] = sx[b], sx[a] })

		got := AggregatePerformance(se, sx, 16, now)

		require.Len(t, got, len(want))
		for j := range want {
			assert.Equal(t, want[j].Key, got[j].Key)
			assert.True(t, want[j].CumulativeProfit.Equal(got[j].CumulativeProfit))
			assert.True(t, want[j].CumulativeLoss.Equal(got[j].CumulativeLoss))
		}
	}
}

func TestAggregatePerformance_Monotonic(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	entries := []core.Record{rec(10, "2024-05-10", ""), rec(3, "2024-05-15", ""), rec(1, "2024-05-19", "")}
	exits := []core.Record{rec(12, "2024-05-11", ""), rec(9, "2024-05-15", ""), rec(4, "2024-05-20", "")}

	got := AggregatePerformance(entries, exits, 16, now)

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].CumulativeProfit.GreaterThanOrEqual(got[i-1].CumulativeProfit))
		assert.True(t, got[i].CumulativeLoss.GreaterThanOrEqual(got[i-1].CumulativeLoss))
		assert.True(t, got[i].CumulativeLossLine.Equal(got[i].CumulativeLoss.Neg()))
	}
}

func TestAggregatePerformance_MidnightDSTGap(t *testing.T) {
	// Clocks in Santiago jump from 00:00 to 01:00 on 2024-09-08.
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	now := time.Date(2024, 9, 9, 12, 0, 0, 0, loc)
	entries := []core.Record{rec(10, "2024-09-08", "")}

	got := AggregatePerformance(entries, nil, 3, now)

	require.Len(t, got, 3)
	assert.Equal(t, "2024-09-07", got[0].Key)
	assert.Equal(t, "2024-09-08", got[1].Key)
	assert.Equal(t, "2024-09-09", got[2].Key)
	assert.True(t, got[0].Profit.IsZero())
	assert.True(t, got[1].Profit.Equal(decimal.NewFromInt(10)), "profit %s", got[1].Profit)
	assert.True(t, got[2].CumulativeProfit.Equal(decimal.NewFromInt(10)), "cum profit %s", got[2].CumulativeProfit)
}
