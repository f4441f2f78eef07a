package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gosynergy/domain/core"
	"gosynergy/domain/experiment"
	"gosynergy/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader imports replicate measurements from xlsx or csv files. The
// expected layout is long format: condition, amount_a, amount_b, value, with
// one row per replicate (a replicate index column is tolerated and ignored).
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"

	// Confidence is the level for replicate CIs on imported conditions;
	// zero means the experiment default.
	Confidence float64
}

// NewDataReader creates a reader that handles both Excel and CSV files.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadConditions parses the file into a condition set.
func (r *DataReader) ReadConditions() (experiment.ConditionSet, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("file not found: %s", r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	confidence := r.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = experiment.DefaultConfidenceLevel
	}
	return buildConditions(rows, confidence)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	// Prefer an exported "Raw Data" sheet, else read the first one.
	sheet := sheets[0]
	for _, name := range sheets {
		if name == sheetRawData {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

type columnIndex struct {
	condition int
	amountA   int
	amountB   int
	value     int
}

func buildConditions(rows [][]string, confidence float64) (experiment.ConditionSet, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file has no data rows")
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	type group struct {
		amountA, amountB float64
		values           []float64
	}
	groups := make(map[core.ConditionKey]*group)
	var order []core.ConditionKey

	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) <= cols.value {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d has too few columns", i+2))
		}

		key := core.ConditionKey(strings.TrimSpace(row[cols.condition]))
		if key == "" {
			continue
		}

		amountA, err := parseNumber(row[cols.amountA])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: bad amount_a: %v", i+2, err))
		}
		amountB, err := parseNumber(row[cols.amountB])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: bad amount_b: %v", i+2, err))
		}
		value, err := parseNumber(row[cols.value])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: bad value: %v", i+2, err))
		}

		g, ok := groups[key]
		if !ok {
			g = &group{amountA: amountA, amountB: amountB}
			groups[key] = g
			order = append(order, key)
		} else if g.amountA != amountA || g.amountB != amountB {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: conflicting amounts for condition %s", i+2, key))
		}
		g.values = append(g.values, value)
	}

	conditions := make(experiment.ConditionSet, len(groups))
	for _, key := range order {
		g := groups[key]
		cond, err := experiment.NewCondition(g.amountA, g.amountB, g.values, confidence)
		if err != nil {
			return nil, fmt.Errorf("condition %s: %w", key, err)
		}
		conditions[key] = cond
	}
	return conditions, nil
}

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{condition: -1, amountA: -1, amountB: -1, value: -1}
	for i, name := range header {
		switch normalizeHeader(name) {
		case "condition":
			cols.condition = i
		case "amount_a", "a":
			cols.amountA = i
		case "amount_b", "b":
			cols.amountB = i
		case "value", "effect", "measurement":
			cols.value = i
		}
	}
	if cols.condition < 0 || cols.amountA < 0 || cols.amountB < 0 || cols.value < 0 {
		return cols, errors.InvalidInput("header must contain condition, amount_a, amount_b and value columns")
	}
	return cols, nil
}

func normalizeHeader(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
