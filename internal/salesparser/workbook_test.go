package salesparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Notes"))
	require.NoError(t, f.SetCellValue("Notes", "A1", "ignore me"))
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseWorkbook(t *testing.T) {
	path := writeWorkbook(t, "Sales", [][]string{
		types.InputColumns,
		{"T001", "2024-12-01", "P101", "Laptop,Pro", "2", "45,000", "C001", "North"},
		nil,
		{"T002", "2024-12-02", "P102", "Mouse", "1", "500", "C002"},
		{"T003", "2024-12-03", "P103", "Webcam", "1", "900", "C003", "East", "extra"},
	})

	res, err := ParseFile(path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, EncodingWorkbook, res.Encoding)
	assert.Equal(t, types.InputColumns, res.Header)
	require.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.Malformed)

	first := res.Records[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Laptop Pro", first.Field(types.ColProductName))
	assert.Equal(t, "45000", first.Field(types.ColUnitPrice))

	padded := res.Records[1]
	assert.Equal(t, types.InputArity, padded.Arity())
	assert.Equal(t, "", padded.Field(types.ColRegion))

	assert.Equal(t, 9, res.Records[2].Arity())
}

func TestParseWorkbookFirstSheetFallback(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	row := []string{"T001", "2024-12-01", "P101", "Laptop", "2", "45000", "C001", "North"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &row))
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))

	opts := DefaultOptions()
	opts.HasHeader = false
	res, err := ParseWorkbook(path, opts)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Nil(t, res.Header)
	assert.Equal(t, "T001", res.Records[0].Field(types.ColTransactionID))
}

func TestParseWorkbookMissingFile(t *testing.T) {
	_, err := ParseWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"), DefaultOptions())
	assert.Error(t, err)
}

func TestIsWorkbook(t *testing.T) {
	assert.True(t, IsWorkbook("data/sales.xlsx"))
	assert.True(t, IsWorkbook("SALES.XLSX"))
	assert.False(t, IsWorkbook("data/sales_data.txt"))
}
