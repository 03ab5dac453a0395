package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/trades"
)

// RecordColumns is the column order of the grid and of CSV exports.
var RecordColumns = []string{
	"source_bucket",
	"group_name",
	"order_side",
	"rd_main_class",
	"pack_size_round",
	"total_profit2",
	"deal_count",
	"loss_count",
	"for_analysis_group",
	"trade_period",
	"for_analysis_reason",
}

// WriteRecordsCSV writes records with full-precision numbers.
func WriteRecordsCSV(w io.Writer, records []trades.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			string(r.SourceBucket),
			r.GroupName,
			r.OrderSide,
			strconv.FormatFloat(r.RDMainClass, 'f', -1, 64),
			strconv.FormatFloat(r.PackSizeRound, 'f', -1, 64),
			strconv.FormatFloat(r.TotalProfit2, 'f', -1, 64),
			strconv.FormatInt(r.DealCount, 10),
			strconv.FormatInt(r.LossCount, 10),
			r.ForAnalysisGroup,
			r.TradePeriod,
			r.ForAnalysisReason,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetricsTable prints the per-bucket rows followed by the pooled total.
// Buckets without matching records print "no data".
func WriteMetricsTable(w io.Writer, rows []analytics.BucketMetrics, combined *analytics.Metrics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "period\tdeals\ttotal\tmean\tstd dev\trisk ratio\twin %\t")

	for _, v := range FormatBuckets(rows) {
		writeMetricsRow(tw, v.Label, v.Metrics)
	}

	var all *MetricsView
	if combined != nil {
		mv := FormatMetrics(*combined)
		all = &mv
	}
	writeMetricsRow(tw, "all", all)

	return tw.Flush()
}

func writeMetricsRow(w io.Writer, label string, m *MetricsView) {
	if m == nil {
		fmt.Fprintf(w, "%s\tno data\t\t\t\t\t\t\n", label)
		return
	}
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
		label, m.DealCount, m.TotalProfit, m.MeanProfit, m.StdDev, m.RiskRatio, m.WinPercentage)
}
