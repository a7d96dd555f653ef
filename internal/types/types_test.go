package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/sales-analytics/internal/money"
)

func TestColumnLayout(t *testing.T) {
	assert.Len(t, InputColumns, InputArity)
	assert.Len(t, OutputColumns, 12)
	assert.Equal(t, "Total", OutputColumns[11])
	assert.Equal(t, "Region", InputColumns[ColRegion])
}

func TestRawRecordField(t *testing.T) {
	r := RawRecord{Line: 3, Fields: []string{"T001", "2024-12-01"}}
	assert.Equal(t, 2, r.Arity())
	assert.Equal(t, "T001", r.Field(ColTransactionID))
	assert.Equal(t, "", r.Field(ColRegion))
	assert.Equal(t, "", r.Field(-1))
}

func TestEnrichedRecordRow(t *testing.T) {
	rec := EnrichedRecord{
		CleanRecord: CleanRecord{
			TransactionID: "T004",
			Date:          time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC),
			ProductID:     "P101",
			ProductName:   "Laptop",
			Quantity:      4,
			UnitPrice:     money.MustParse("45000"),
			CustomerID:    "C005",
			Region:        "South",
		},
		Category: UnknownCategory,
		Brand:    UnknownBrand,
		Rating:   NoRating,
	}

	row := rec.Row()
	assert.Len(t, row, len(OutputColumns))
	assert.Equal(t, []string{
		"T004", "2024-12-05", "P101", "Laptop", "4", "45000", "C005", "South",
		"Unknown", "Unknown", "N/A", "180000.00",
	}, row)
	assert.Equal(t, "none", rec.Match.String())
}
