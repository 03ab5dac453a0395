package trades

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Source columns tried for each canonical field, in priority order.
// Localized headers come from the Russian export of the robot reports.
var (
	groupNameKeys         = []string{"group_name", "Группа"}
	orderSideKeys         = []string{"order_side", "Сторона"}
	rdMainClassKeys       = []string{"rd_main_class", "RD"}
	packSizeRoundKeys     = []string{"pack_size_round", "PackSizeRound", "Pack Size"}
	totalProfit2Keys      = []string{"total_profit2", "Прибыль"}
	dealCountKeys         = []string{"deal_count", "Сделки"}
	lossCountKeys         = []string{"loss_count", "Потери"}
	forAnalysisGroupKeys  = []string{"for_analysis_group", "Статус"}
	tradePeriodKeys       = []string{"trade_period", "Период"}
	forAnalysisReasonKeys = []string{"for_analysis_reason"}
	avgProfitKeys         = []string{"avg_profit"}
	lossPercentKeys       = []string{"loss_percent"}
)

// Normalize maps a raw spreadsheet row onto a TradeRecord. It never fails:
// missing or malformed numbers become zero and missing strings become "".
func Normalize(raw map[string]any, bucket Bucket) TradeRecord {
	return TradeRecord{
		GroupName:         toString(lookup(raw, groupNameKeys)),
		OrderSide:         toString(lookup(raw, orderSideKeys)),
		RDMainClass:       toFloat(lookup(raw, rdMainClassKeys)),
		PackSizeRound:     toFloat(lookup(raw, packSizeRoundKeys)),
		TotalProfit2:      toFloat(lookup(raw, totalProfit2Keys)),
		DealCount:         toInt(lookup(raw, dealCountKeys)),
		LossCount:         toInt(lookup(raw, lossCountKeys)),
		ForAnalysisGroup:  toString(lookup(raw, forAnalysisGroupKeys)),
		TradePeriod:       toString(lookup(raw, tradePeriodKeys)),
		ForAnalysisReason: toString(lookup(raw, forAnalysisReasonKeys)),
		AvgProfit:         toFloat(lookup(raw, avgProfitKeys)),
		LossPercent:       toFloat(lookup(raw, lossPercentKeys)),
		SourceBucket:      bucket,
	}
}

// NormalizeAll normalizes a whole upload, preserving row order.
func NormalizeAll(rows []map[string]any, bucket Bucket) []TradeRecord {
	records := make([]TradeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, Normalize(row, bucket))
	}
	return records
}

// lookup returns the first candidate value that is present and not blank.
func lookup(raw map[string]any, keys []string) any {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return toString(float64(x))
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func toFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toInt truncates toward zero after a float parse so "12.7" and 12.7 agree.
func toInt(v any) int64 {
	f := math.Trunc(toFloat(v))
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}
