package web

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/trades"
)

// parseFilter builds the zone view FilterSpec from query parameters. It
// never fails: unknown statuses and periods are dropped, and missing or
// malformed bounds fall back to the configured default window.
func parseFilter(q url.Values, f config.FiltersConfig) analytics.FilterSpec {
	return parseWindowed(q,
		analytics.Range{Min: f.RD.DefaultMin, Max: f.RD.DefaultMax},
		analytics.Range{Min: f.PackSize.DefaultMin, Max: f.PackSize.DefaultMax},
	)
}

// parseGridFilter is parseFilter for the records grid: bounds only apply
// when given explicitly.
func parseGridFilter(q url.Values) analytics.FilterSpec {
	return parseWindowed(q, analytics.AnyRange, analytics.AnyRange)
}

func parseWindowed(q url.Values, rd, ps analytics.Range) analytics.FilterSpec {
	spec := analytics.FilterSpec{
		RDRange: analytics.Range{
			Min: floatParam(q, "rd_min", rd.Min),
			Max: floatParam(q, "rd_max", rd.Max),
		},
		PackSizeRange: analytics.Range{
			Min: floatParam(q, "ps_min", ps.Min),
			Max: floatParam(q, "ps_max", ps.Max),
		},
	}

	for _, g := range q["group"] {
		if g = strings.TrimSpace(g); g != "" {
			spec.Groups = append(spec.Groups, g)
		}
	}
	for _, st := range q["status"] {
		if trades.IsStatus(st) {
			spec.Statuses = append(spec.Statuses, st)
		}
	}
	if p := q.Get("period"); trades.IsPeriod(p) {
		spec.Period = p
	}

	return spec
}

// encodeFilter is the inverse of parseFilter, used for links that must keep
// the current selection. Infinite bounds are left out.
func encodeFilter(spec analytics.FilterSpec) url.Values {
	q := url.Values{}
	for _, g := range spec.Groups {
		q.Add("group", g)
	}
	for _, st := range spec.Statuses {
		q.Add("status", st)
	}
	if spec.Period != "" {
		q.Set("period", spec.Period)
	}
	setBound(q, "rd_min", spec.RDRange.Min)
	setBound(q, "rd_max", spec.RDRange.Max)
	setBound(q, "ps_min", spec.PackSizeRange.Min)
	setBound(q, "ps_max", spec.PackSizeRange.Max)
	return q
}

func setBound(q url.Values, key string, v float64) {
	if !math.IsInf(v, 0) {
		q.Set(key, formatFloat(v))
	}
}

func floatParam(q url.Values, key string, def float64) float64 {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func intParam(q url.Values, key string, def int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return def
	}
	return n
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}
