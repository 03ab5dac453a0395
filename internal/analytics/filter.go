package analytics

import (
	"math"

	"github.com/camuig/robot-analytics/internal/trades"
)

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AnyRange contains every finite value.
var AnyRange = Range{Min: math.Inf(-1), Max: math.Inf(1)}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Bounded reports whether both ends of the range are finite.
func (r Range) Bounded() bool {
	return !math.IsInf(r.Min, 0) && !math.IsInf(r.Max, 0)
}

// FilterSpec selects records. Empty Groups/Statuses and an empty Period match
// everything; the two ranges are always applied.
type FilterSpec struct {
	Groups        []string `json:"groups"`
	Statuses      []string `json:"statuses"`
	Period        string   `json:"period"`
	RDRange       Range    `json:"rd_range"`
	PackSizeRange Range    `json:"pack_size_range"`
}

// Categorical keeps the group, status and period selection and drops the
// numeric windows.
func (s FilterSpec) Categorical() FilterSpec {
	s.RDRange = AnyRange
	s.PackSizeRange = AnyRange
	return s
}

// Apply returns the records matching spec, keeping input order.
func Apply(records []trades.TradeRecord, spec FilterSpec) []trades.TradeRecord {
	groups := toSet(spec.Groups)
	statuses := toSet(spec.Statuses)

	out := make([]trades.TradeRecord, 0, len(records))
	for _, r := range records {
		if matches(r, spec, groups, statuses) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r trades.TradeRecord, spec FilterSpec, groups, statuses map[string]struct{}) bool {
	if len(groups) > 0 {
		if _, ok := groups[r.GroupName]; !ok {
			return false
		}
	}
	if len(statuses) > 0 {
		if _, ok := statuses[r.ForAnalysisGroup]; !ok {
			return false
		}
	}
	if spec.Period != "" && r.TradePeriod != spec.Period {
		return false
	}
	return spec.RDRange.Contains(r.RDMainClass) && spec.PackSizeRange.Contains(r.PackSizeRound)
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Groups returns the distinct non-empty group names in first-seen order.
func Groups(records []trades.TradeRecord) []string {
	seen := make(map[string]struct{})
	groups := make([]string, 0)
	for _, r := range records {
		if r.GroupName == "" {
			continue
		}
		if _, ok := seen[r.GroupName]; ok {
			continue
		}
		seen[r.GroupName] = struct{}{}
		groups = append(groups, r.GroupName)
	}
	return groups
}
