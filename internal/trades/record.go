package trades

import (
	"errors"
	"fmt"
)

// Bucket identifies one of the fixed upload slots.
type Bucket string

const (
	BucketTwoWeeks  Bucket = "2_weeks"
	BucketOneMonth  Bucket = "1_month"
	BucketTwoMonths Bucket = "2_months"
)

var ErrUnknownBucket = errors.New("unknown bucket")

// Buckets returns all buckets in declaration order.
func Buckets() []Bucket {
	return []Bucket{BucketTwoWeeks, BucketOneMonth, BucketTwoMonths}
}

// ParseBucket validates a bucket identifier coming from a form or a flag.
func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Label is the human-readable slot name ("2 weeks").
func (b Bucket) Label() string {
	switch b {
	case BucketTwoWeeks:
		return "2 weeks"
	case BucketOneMonth:
		return "1 month"
	case BucketTwoMonths:
		return "2 months"
	}
	return string(b)
}

// Statuses is the vocabulary of for_analysis_group values.
var Statuses = []string{
	"REAL",
	"POSSIBLE",
	"RESTRICTED",
	"NO DEAL TYPE",
	"TRADE NO STAT",
	"TRADE DUBLICATE",
}

// Periods is the vocabulary of trade_period values. The empty string means "any".
var Periods = []string{
	"",
	"WEEKEND",
	"MONDAY_12_20",
	"TUESDAY_14_24",
	"WEDNESDAY_14_24",
	"OTHER",
}

func IsStatus(s string) bool {
	return contains(Statuses, s)
}

func IsPeriod(s string) bool {
	return contains(Periods, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// TradeRecord is one normalized spreadsheet row. Numeric fields are never NaN
// and string fields are never missing, so filters and aggregates can use them
// directly.
type TradeRecord struct {
	GroupName        string  `json:"group_name"`
	OrderSide        string  `json:"order_side"`
	RDMainClass      float64 `json:"rd_main_class"`
	PackSizeRound    float64 `json:"pack_size_round"`
	TotalProfit2     float64 `json:"total_profit2"`
	DealCount        int64   `json:"deal_count"`
	LossCount        int64   `json:"loss_count"`
	ForAnalysisGroup string  `json:"for_analysis_group"`
	TradePeriod      string  `json:"trade_period"`

	ForAnalysisReason string  `json:"for_analysis_reason"`
	AvgProfit         float64 `json:"avg_profit"`
	LossPercent       float64 `json:"loss_percent"`

	SourceBucket Bucket `json:"source_bucket"`
}
