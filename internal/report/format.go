package report

import (
	"github.com/shopspring/decimal"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/trades"
)

// MetricsView is Metrics rounded for display: money and ratios to two
// decimals, the win share to one decimal with a percent sign.
type MetricsView struct {
	DealCount     int    `json:"deal_count"`
	TotalProfit   string `json:"total_profit"`
	MeanProfit    string `json:"mean_profit"`
	StdDev        string `json:"std_dev"`
	RiskRatio     string `json:"risk_ratio"`
	WinPercentage string `json:"win_percentage"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
}

// BucketView is one row of the per-period table.
type BucketView struct {
	Bucket  trades.Bucket      `json:"bucket"`
	Label   string             `json:"label"`
	HasData bool               `json:"has_data"`
	Metrics *MetricsView       `json:"metrics"`
	Raw     *analytics.Metrics `json:"raw"`
}

func FormatMetrics(m analytics.Metrics) MetricsView {
	return MetricsView{
		DealCount:     m.DealCount,
		TotalProfit:   Fixed(m.TotalProfit, 2),
		MeanProfit:    Fixed(m.MeanProfit, 2),
		StdDev:        Fixed(m.StdDev, 2),
		RiskRatio:     Fixed(m.RiskRatio, 2),
		WinPercentage: Fixed(m.WinPercentage, 1) + "%",
		Wins:          m.Wins,
		Losses:        m.Losses,
	}
}

func FormatBuckets(rows []analytics.BucketMetrics) []BucketView {
	out := make([]BucketView, 0, len(rows))
	for _, r := range rows {
		v := BucketView{Bucket: r.Bucket, Label: r.Bucket.Label(), HasData: r.HasData(), Raw: r.Metrics}
		if r.Metrics != nil {
			mv := FormatMetrics(*r.Metrics)
			v.Metrics = &mv
		}
		out = append(out, v)
	}
	return out
}

// Fixed rounds half away from zero and always prints the given number of
// decimals.
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
