// Package tabular loads experiment datasets from Excel or CSV files. It is
// an external collaborator of the statistical core: it only maps named
// columns onto the dataset contract, which then validates as usual.
package tabular

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"abx/domain/core"
	"abx/domain/experiment"
	"abx/internal/logging"
)

// ColumnSpec names the file columns that map onto the dataset contract.
// Exposed and Baseline are optional; leave them empty to skip.
type ColumnSpec struct {
	Unit     string
	Group    string
	Metric   string
	Exposed  string
	Baseline string
}

// Reader handles reading Excel and CSV files into datasets.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *logging.Logger
}

// NewReader creates a reader; the file type is inferred from the extension.
func NewReader(filePath string) *Reader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType, log: logging.Default}
}

// ReadDataset reads the file and builds a validated dataset from the named
// columns.
func (r *Reader) ReadDataset(spec ColumnSpec) (*experiment.Dataset, error) {
	if spec.Unit == "" || spec.Group == "" || spec.Metric == "" {
		return nil, core.SchemaError("column spec must name unit, group and metric columns")
	}
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.SchemaError("input file not found: %s", r.filePath)
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	r.log.Debug("read %d rows from %s in %.2fms", len(rows), r.filePath, float64(time.Since(start).Nanoseconds())/1e6)

	if len(rows) < 2 {
		return nil, core.SchemaError("file %s must have a header row and at least one data row", r.filePath)
	}
	return buildDataset(rows, spec)
}

func (r *Reader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, core.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, core.Wrap(err, "failed to read sheet "+sheet)
	}
	return rows, nil
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, core.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.Wrap(err, "failed to parse CSV file")
	}
	return rows, nil
}

func buildDataset(rows [][]string, spec ColumnSpec) (*experiment.Dataset, error) {
	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	col := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, core.SchemaError("column %q not found in header %v", name, header)
		}
		return i, nil
	}

	unitIdx, err := col(spec.Unit)
	if err != nil {
		return nil, err
	}
	groupIdx, err := col(spec.Group)
	if err != nil {
		return nil, err
	}
	metricIdx, err := col(spec.Metric)
	if err != nil {
		return nil, err
	}
	exposedIdx, baselineIdx := -1, -1
	if spec.Exposed != "" {
		if exposedIdx, err = col(spec.Exposed); err != nil {
			return nil, err
		}
	}
	if spec.Baseline != "" {
		if baselineIdx, err = col(spec.Baseline); err != nil {
			return nil, err
		}
	}

	cols := experiment.Columns{}
	if exposedIdx >= 0 {
		cols.Exposed = []bool{}
	}
	if baselineIdx >= 0 {
		cols.Baseline = []float64{}
	}

	cell := func(row []string, idx int) string {
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for rowNum, row := range rows[1:] {
		cols.Units = append(cols.Units, core.UnitID(cell(row, unitIdx)))
		cols.Groups = append(cols.Groups, experiment.Group(cell(row, groupIdx)))

		metric, err := strconv.ParseFloat(cell(row, metricIdx), 64)
		if err != nil {
			return nil, core.SchemaError("metric at data row %d is not numeric: %q", rowNum+1, cell(row, metricIdx))
		}
		cols.Metric = append(cols.Metric, metric)

		if exposedIdx >= 0 {
			exposed, err := parseBool(cell(row, exposedIdx))
			if err != nil {
				return nil, core.SchemaError("exposed at data row %d is not boolean: %q", rowNum+1, cell(row, exposedIdx))
			}
			cols.Exposed = append(cols.Exposed, exposed)
		}
		if baselineIdx >= 0 {
			raw := cell(row, baselineIdx)
			if raw == "" {
				// Missing baseline stays missing; CUPED reports the drop.
				cols.Baseline = append(cols.Baseline, math.NaN())
				continue
			}
			baseline, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, core.SchemaError("baseline at data row %d is not numeric: %q", rowNum+1, raw)
			}
			cols.Baseline = append(cols.Baseline, baseline)
		}
	}
	return experiment.New(cols)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes":
		return true, nil
	case "false", "f", "0", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}
