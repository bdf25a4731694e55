package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// wantsJSON reports whether the client asked for a JSON response rather
// than a redirect to the dashboard.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(mt), "application/json") {
			return true
		}
	}
	return false
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":      func(d decimal.Decimal) string { return "$" + core.FormatMoney(d) },
		"pct":        func(d decimal.Decimal) string { return d.StringFixed(1) + "%" },
		"chartTitle": chartTitle,
		"month":      func(k core.MonthKey) string { return k.Start().Format("Jan 2006") },
	}
}

// chartTitle turns a chart kind like "monthly_trends" into "Monthly trends".
func chartTitle(k core.ChartKind) string {
	s := strings.ReplaceAll(string(k), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
