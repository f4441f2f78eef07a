package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"gosynergy/domain/analysis"
	"gosynergy/internal/errors"
	"gosynergy/internal/report"
)

// WriteCSV writes the condition summary and synergy metrics as CSV rows.
// Non-finite values use the same sentinels as the report formatter.
func WriteCSV(w io.Writer, r *analysis.Result, precision int) error {
	cw := csv.NewWriter(w)

	header := []string{
		"condition", "amount_a", "amount_b", "mean", "std_dev", "n",
		"observed", "expected_additive", "combination_index",
		"enhancement_percent", "classification", "p_value", "cohens_d",
	}
	if err := cw.Write(header); err != nil {
		return errors.ExportError("csv", err)
	}

	for _, key := range r.Conditions.SortedKeys() {
		cond := r.Conditions[key]
		row := []string{
			string(key),
			formatFloat(cond.AmountA, precision),
			formatFloat(cond.AmountB, precision),
			formatFloat(cond.Mean(), precision),
			formatFloat(cond.StdDev(), precision),
			strconv.Itoa(cond.N()),
			"", "", "", "", "", "", "",
		}

		if m, ok := r.Synergy[key]; ok {
			row[6] = formatFloat(m.ObservedEffect, precision)
			row[7] = formatFloat(m.ExpectedAdditive, precision)
			row[8] = formatFloat(m.CombinationIndex, precision)
			row[9] = formatFloat(m.EnhancementPercent, precision)
			row[10] = m.SynergyType
			row[11] = report.PValue(m.PValue)
			row[12] = report.Optional(m.CohensD, precision)
		}

		if err := cw.Write(row); err != nil {
			return errors.ExportError("csv", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.ExportError("csv", err)
	}
	return nil
}

func formatFloat(v float64, precision int) string {
	s := report.Number(v, precision)
	if s == "∞" {
		return "Infinity"
	}
	if s == "-∞" {
		return "-Infinity"
	}
	return s
}

// ReplicateRows writes the raw replicate values in long format, one row per
// measurement. Useful for re-analysis in external tools.
func ReplicateRows(w io.Writer, r *analysis.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"condition", "amount_a", "amount_b", "replicate", "value"}); err != nil {
		return errors.ExportError("csv", err)
	}

	for _, key := range r.Conditions.SortedKeys() {
		cond := r.Conditions[key]
		for i, v := range cond.Values() {
			row := []string{
				string(key),
				strconv.FormatFloat(cond.AmountA, 'g', -1, 64),
				strconv.FormatFloat(cond.AmountB, 'g', -1, 64),
				strconv.Itoa(i + 1),
				strconv.FormatFloat(v, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return errors.ExportError("csv", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.ExportError("csv", err)
	}
	return nil
}
