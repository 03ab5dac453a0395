package analytics

import (
	"math"

	"github.com/camuig/robot-analytics/internal/trades"
)

// Metrics summarizes total_profit2 over a record subset. Values are full
// precision; rounding belongs to the display layer.
type Metrics struct {
	DealCount     int     `json:"deal_count"`
	TotalProfit   float64 `json:"total_profit"`
	MeanProfit    float64 `json:"mean_profit"`
	StdDev        float64 `json:"std_dev"`
	RiskRatio     float64 `json:"risk_ratio"`
	WinPercentage float64 `json:"win_percentage"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
}

// Compute returns the metrics of records. The standard deviation is the
// population one (divisor n) around the subset's own mean. An empty input
// yields all zeros.
func Compute(records []trades.TradeRecord) Metrics {
	n := len(records)
	if n == 0 {
		return Metrics{}
	}

	var total float64
	var wins, losses int
	for _, r := range records {
		total += r.TotalProfit2
		switch {
		case r.TotalProfit2 > 0:
			wins++
		case r.TotalProfit2 < 0:
			losses++
		}
	}
	mean := total / float64(n)

	var sumSq float64
	for _, r := range records {
		d := r.TotalProfit2 - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(n))

	ratio := 0.0
	if stddev != 0 {
		ratio = mean / stddev
	}

	return Metrics{
		DealCount:     n,
		TotalProfit:   total,
		MeanProfit:    mean,
		StdDev:        stddev,
		RiskRatio:     ratio,
		WinPercentage: float64(wins) / float64(n) * 100,
		Wins:          wins,
		Losses:        losses,
	}
}
