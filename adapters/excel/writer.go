package excel

import (
	"fmt"
	"io"
	"math"

	"gosynergy/domain/analysis"
	"gosynergy/internal/errors"
	"gosynergy/internal/report"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary    = "Summary"
	sheetConditions = "Conditions"
	sheetSynergy    = "Synergy"
	sheetRawData    = "Raw Data"
)

// Writer exports an analysis result as a multi-sheet xlsx workbook.
type Writer struct {
	precision int
}

// NewWriter creates an xlsx writer with the given float precision.
func NewWriter(precision int) *Writer {
	if precision <= 0 {
		precision = 4
	}
	return &Writer{precision: precision}
}

// Write renders the workbook to w.
func (x *Writer) Write(w io.Writer, r *analysis.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := x.writeSummarySheet(f, r); err != nil {
		return errors.ExportError("xlsx", err)
	}
	if err := x.writeConditionSheet(f, r); err != nil {
		return errors.ExportError("xlsx", err)
	}
	if err := x.writeSynergySheet(f, r); err != nil {
		return errors.ExportError("xlsx", err)
	}
	if err := x.writeRawDataSheet(f, r); err != nil {
		return errors.ExportError("xlsx", err)
	}

	// Drop the default sheet and make Summary first.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.ExportError("xlsx", err)
	}
	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return errors.ExportError("xlsx", err)
	}
	f.SetActiveSheet(idx)

	if err := f.Write(w); err != nil {
		return errors.ExportError("xlsx", err)
	}
	return nil
}

func (x *Writer) writeSummarySheet(f *excelize.File, r *analysis.Result) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	summary := r.Summarize()
	rows := [][]interface{}{
		{"Additive A", r.Metadata.AdditiveAName},
		{"Additive B", r.Metadata.AdditiveBName},
		{"Effect parameter", r.Metadata.EffectParameter},
		{"Unit", r.Metadata.Unit},
		{"Generated", r.CreatedAt.Time().Format("2006-01-02 15:04:05")},
		{},
		{"Combinations analyzed", summary.TotalCombinations},
		{"Synergistic", summary.Synergistic},
		{"Antagonistic", summary.Antagonistic},
		{"Additive", summary.Additive},
		{"Statistically significant", summary.Significant},
	}
	return writeRows(f, sheetSummary, rows)
}

func (x *Writer) writeConditionSheet(f *excelize.File, r *analysis.Result) error {
	if _, err := f.NewSheet(sheetConditions); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Condition", "Amount A", "Amount B", "Mean", "Std Dev", "n", "CI Lower", "CI Upper"},
	}
	for _, key := range r.Conditions.SortedKeys() {
		cond := r.Conditions[key]
		row := []interface{}{
			string(key), cond.AmountA, cond.AmountB,
			x.cell(cond.Mean()), x.cell(cond.StdDev()), cond.N(), nil, nil,
		}
		if ci := cond.CI(); ci != nil {
			row[6] = x.cell(ci.Lower)
			row[7] = x.cell(ci.Upper)
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheetConditions, rows)
}

func (x *Writer) writeSynergySheet(f *excelize.File, r *analysis.Result) error {
	if _, err := f.NewSheet(sheetSynergy); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Combination", "Observed", "Expected (Additive)", "Expected (Bliss)",
			"Combination Index", "Enhancement %", "Classification", "p-value", "Cohen's d"},
	}
	for _, key := range r.Conditions.CombinationKeys() {
		m, ok := r.Synergy[key]
		if !ok {
			continue
		}
		row := []interface{}{
			string(key), x.cell(m.ObservedEffect), x.cell(m.ExpectedAdditive),
			x.cell(m.ExpectedBliss), x.cell(m.CombinationIndex),
			x.cell(m.EnhancementPercent), m.SynergyType,
			report.PValue(m.PValue), report.Optional(m.CohensD, x.precision),
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheetSynergy, rows)
}

func (x *Writer) writeRawDataSheet(f *excelize.File, r *analysis.Result) error {
	if _, err := f.NewSheet(sheetRawData); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Condition", "Amount A", "Amount B", "Replicate", "Value"},
	}
	for _, key := range r.Conditions.SortedKeys() {
		cond := r.Conditions[key]
		for i, v := range cond.Values() {
			rows = append(rows, []interface{}{string(key), cond.AmountA, cond.AmountB, i + 1, v})
		}
	}
	return writeRows(f, sheetRawData, rows)
}

// cell keeps numeric cells numeric where possible, falling back to the
// formatter's text sentinels for non-finite values.
func (x *Writer) cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return report.Number(v, x.precision)
	}
	return v
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		for j, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates (%d, %d): %w", j+1, i+1, err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
