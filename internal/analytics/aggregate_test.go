package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/robot-analytics/internal/periods"
	"github.com/camuig/robot-analytics/internal/trades"
)

func loadedStore(t *testing.T) *periods.Store {
	t.Helper()
	s := periods.NewStore()

	twoWeeks := []trades.TradeRecord{
		{GroupName: "alpha", RDMainClass: 0.02, PackSizeRound: 10, TotalProfit2: 10},
		{GroupName: "alpha", RDMainClass: 0.02, PackSizeRound: 10, TotalProfit2: -5},
	}
	oneMonth := []trades.TradeRecord{
		{GroupName: "beta", RDMainClass: 0.02, PackSizeRound: 10, TotalProfit2: 0},
	}
	require.NoError(t, s.Replace(trades.BucketTwoWeeks, twoWeeks, periods.Upload{}))
	require.NoError(t, s.Replace(trades.BucketOneMonth, oneMonth, periods.Upload{}))
	return s
}

func TestComputeByBucket(t *testing.T) {
	rows := ComputeByBucket(loadedStore(t), fullRange)

	require.Len(t, rows, 3)
	assert.Equal(t, trades.BucketTwoWeeks, rows[0].Bucket)
	assert.Equal(t, trades.BucketOneMonth, rows[1].Bucket)
	assert.Equal(t, trades.BucketTwoMonths, rows[2].Bucket)

	require.True(t, rows[0].HasData())
	assert.Equal(t, 2, rows[0].Metrics.DealCount)
	assert.InDelta(t, 5.0, rows[0].Metrics.TotalProfit, 1e-12)

	// real zero-valued metrics stay distinguishable from "no data"
	require.True(t, rows[1].HasData())
	assert.Equal(t, Metrics{DealCount: 1}, *rows[1].Metrics)

	assert.False(t, rows[2].HasData())
	assert.Nil(t, rows[2].Metrics)
}

func TestComputeByBucket_FilteredToNothing(t *testing.T) {
	spec := fullRange
	spec.Groups = []string{"beta"}

	rows := ComputeByBucket(loadedStore(t), spec)

	assert.False(t, rows[0].HasData())
	assert.True(t, rows[1].HasData())
	assert.False(t, rows[2].HasData())
}

func TestComputeCombined(t *testing.T) {
	m := ComputeCombined(loadedStore(t), fullRange)

	require.NotNil(t, m)
	assert.Equal(t, 3, m.DealCount)
	assert.Equal(t, 1, m.Wins)
	assert.Equal(t, 1, m.Losses)

	assert.Nil(t, ComputeCombined(periods.NewStore(), fullRange))
}
