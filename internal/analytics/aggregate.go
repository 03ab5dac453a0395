package analytics

import (
	"github.com/camuig/robot-analytics/internal/trades"
)

// Source is the read side of the period store.
type Source interface {
	Buckets() []trades.Bucket
	Records(bucket trades.Bucket) []trades.TradeRecord
	Flatten() []trades.TradeRecord
}

// BucketMetrics is one row of the per-period comparison. Metrics is nil when
// no record of the bucket passed the filter.
type BucketMetrics struct {
	Bucket  trades.Bucket `json:"bucket"`
	Metrics *Metrics      `json:"metrics"`
}

func (b BucketMetrics) HasData() bool {
	return b.Metrics != nil
}

// ComputeByBucket filters and summarizes every bucket independently, in
// bucket declaration order.
func ComputeByBucket(src Source, spec FilterSpec) []BucketMetrics {
	buckets := src.Buckets()
	out := make([]BucketMetrics, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BucketMetrics{
			Bucket:  b,
			Metrics: summarize(Apply(src.Records(b), spec)),
		})
	}
	return out
}

// ComputeCombined summarizes all buckets pooled together.
func ComputeCombined(src Source, spec FilterSpec) *Metrics {
	return summarize(Apply(src.Flatten(), spec))
}

func summarize(subset []trades.TradeRecord) *Metrics {
	if len(subset) == 0 {
		return nil
	}
	m := Compute(subset)
	return &m
}
