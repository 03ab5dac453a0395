package web

import (
	"html/template"
	"time"

	"github.com/camuig/robot-analytics/internal/report"
)

var templateFuncs = template.FuncMap{
	"fixed": func(v float64, places int) string {
		return report.Fixed(v, int32(places))
	},
	"num": formatFloat,
	"when": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02.01.2006 15:04")
	},
	"profitClass": func(v float64) string {
		switch {
		case v > 0:
			return "win"
		case v < 0:
			return "loss"
		}
		return ""
	},
}
