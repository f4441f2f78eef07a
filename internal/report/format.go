package report

import (
	"fmt"
	"math"
	"strings"
)

// Formatting helpers shared by the Markdown report and the tabular exports.

// Number renders a float with the given precision, using the infinity glyph
// for non-finite values.
func Number(v float64, precision int) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	if math.IsInf(v, 1) {
		return "∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}
	return fmt.Sprintf("%.*f", precision, v)
}

// Percent renders a float as a signed percentage.
func Percent(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%+.*f%%", precision, v)
}

// PValue renders a p-value, collapsing very small values to "< 0.001".
func PValue(p *float64) string {
	if p == nil {
		return "N/A"
	}
	if *p < 0.001 {
		return "< 0.001"
	}
	return fmt.Sprintf("%.4f", *p)
}

// Optional renders an optional float.
func Optional(v *float64, precision int) string {
	if v == nil {
		return "N/A"
	}
	return Number(*v, precision)
}

// Interval renders a confidence interval as [lower, upper].
func Interval(lower, upper float64, precision int) string {
	return fmt.Sprintf("[%s, %s]", Number(lower, precision), Number(upper, precision))
}

// Concentration renders an amount with its unit, trimming trailing zeros.
func Concentration(amount float64, unit string) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", amount), "0"), ".")
	if s == "" || s == "-" {
		s = "0"
	}
	return s + " " + unit
}
