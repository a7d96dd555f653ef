package salesparser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// EncodingWorkbook is reported as Result.Encoding for xlsx input.
const EncodingWorkbook = "xlsx"

// IsWorkbook reports whether path names an Excel workbook.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ParseWorkbook reads sales rows from a workbook. The sheet named "Sales" is
// used when present, otherwise the first sheet. Each row's cells are the
// record fields, so the delimiter and encoding options do not apply.
//
// Trailing empty cells are dropped by the workbook reader; rows are padded
// back to the header width (or the input arity when there is no header).
func ParseWorkbook(path string, opts Options) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, "Sales") {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	result := &Result{Encoding: EncodingWorkbook}
	headerPending := opts.HasHeader
	width := types.InputArity

	for i, row := range rows {
		result.Lines++
		if isRowEmpty(row) {
			result.Blank++
			continue
		}

		if headerPending {
			headerPending = false
			result.Header = trimAll(row)
			width = len(result.Header)
			continue
		}

		fields := padRow(row, width)
		rec := types.RawRecord{Line: i + 1, Fields: fields}
		if rec.Arity() == types.InputArity {
			rec.Fields = NormalizeFields(fields)
		} else {
			result.Malformed++
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
