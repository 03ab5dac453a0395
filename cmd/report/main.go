package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/ingest"
	"github.com/camuig/robot-analytics/internal/logger"
	"github.com/camuig/robot-analytics/internal/periods"
	"github.com/camuig/robot-analytics/internal/report"
	"github.com/camuig/robot-analytics/internal/trades"
)

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	configPath := flag.String("config", "", "optional config file for default filter windows")
	twoWeeks := flag.String("2w", "", "spreadsheet for the 2 weeks bucket")
	oneMonth := flag.String("1m", "", "spreadsheet for the 1 month bucket")
	twoMonths := flag.String("2m", "", "spreadsheet for the 2 months bucket")
	var groups, statuses multiFlag
	flag.Var(&groups, "group", "robot group to include (repeatable)")
	flag.Var(&statuses, "status", "for_analysis_group status to include (repeatable)")
	period := flag.String("period", "", "trade period to include")
	rdMin := flag.Float64("rd-min", -1, "lower rd_main_class bound")
	rdMax := flag.Float64("rd-max", -1, "upper rd_main_class bound")
	psMin := flag.Float64("ps-min", -1, "lower pack_size_round bound")
	psMax := flag.Float64("ps-max", -1, "upper pack_size_round bound")
	asCSV := flag.Bool("csv", false, "print filtered records as CSV instead of metrics")
	verbose := flag.Bool("v", false, "log uploads to stderr")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
	}

	log := logger.Discard()
	if *verbose {
		log = logger.NewWithWriter("info", os.Stderr)
	}

	store := periods.NewStore()
	svc := ingest.NewService(store, nil, nil, nil, log)

	files := map[trades.Bucket]string{
		trades.BucketTwoWeeks:  *twoWeeks,
		trades.BucketOneMonth:  *oneMonth,
		trades.BucketTwoMonths: *twoMonths,
	}
	var loaded, failed int
	for _, b := range trades.Buckets() {
		path := files[b]
		if path == "" {
			continue
		}
		if _, err := svc.LoadFile(b, path); err != nil {
			fmt.Fprintf(os.Stderr, "  [FAIL] %s: %v\n", b.Label(), err)
			failed++
			continue
		}
		loaded++
	}
	if loaded == 0 {
		fmt.Fprintln(os.Stderr, "No data loaded: pass at least one of -2w, -1m, -2m.")
		os.Exit(1)
	}

	if *period != "" && !trades.IsPeriod(*period) {
		fmt.Fprintf(os.Stderr, "unknown period %q\n", *period)
		os.Exit(1)
	}

	spec := analytics.FilterSpec{
		Groups:   groups,
		Statuses: statuses,
		Period:   *period,
		RDRange: analytics.Range{
			Min: orDefault(*rdMin, cfg.Filters.RD.DefaultMin),
			Max: orDefault(*rdMax, cfg.Filters.RD.DefaultMax),
		},
		PackSizeRange: analytics.Range{
			Min: orDefault(*psMin, cfg.Filters.PackSize.DefaultMin),
			Max: orDefault(*psMax, cfg.Filters.PackSize.DefaultMax),
		},
	}

	var err error
	if *asCSV {
		err = report.WriteRecordsCSV(os.Stdout, analytics.Apply(store.Flatten(), spec))
	} else {
		err = report.WriteMetricsTable(os.Stdout, analytics.ComputeByBucket(store, spec), analytics.ComputeCombined(store, spec))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		os.Exit(1)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// orDefault treats negative flag values as "not set"; both filter axes are
// non-negative.
func orDefault(v, def float64) float64 {
	if v < 0 {
		return def
	}
	return v
}
