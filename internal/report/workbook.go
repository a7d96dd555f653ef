package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-analytics/internal/enrich"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
)

// Workbook sheet names, in tab order.
const (
	SheetSummary   = "Summary"
	SheetDaily     = "Daily"
	SheetCustomers = "Customers"
	SheetProducts  = "Products"
	SheetRegions   = "Regions"
	SheetEnriched  = "Enriched"
)

// WriteWorkbook writes the analytics and enriched rows as an xlsx workbook.
// Money columns are numeric cells so the workbook can be re-aggregated.
func WriteWorkbook(path string, in Input) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{SheetDaily, SheetCustomers, SheetProducts, SheetRegions, SheetEnriched} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	s := in.summary()
	stats := enrich.StatsOf(in.Enriched)

	summary := [][]any{
		{"Metric", "Value"},
		{"Total Revenue", s.TotalRevenue.Float64()},
		{"Transactions", s.Transactions},
		{"Average Order Value", s.AverageOrderValue.Float64()},
		{"Total Records", in.Counts.Total},
		{"Invalid Records", in.Counts.Invalid},
		{"Valid Records", in.Counts.Valid},
		{"Filtered Out", in.Counts.Filtered},
		{"Products Fetched", in.Counts.ProductsFetched},
		{"Enriched Rows", stats.Total},
		{"Matched Rows", stats.Matched},
	}
	if s.PeakDay != nil {
		summary = append(summary,
			[]any{"Peak Day", s.PeakDay.Date.Format(types.DateLayout)},
			[]any{"Peak Day Revenue", s.PeakDay.Revenue.Float64()},
		)
	}

	daily := [][]any{{"Date", "Revenue", "Transactions", "Customers"}}
	for _, d := range s.DailyTrend {
		daily = append(daily, []any{d.Date.Format(types.DateLayout), d.Revenue.Float64(), d.Transactions, d.UniqueCustomers})
	}

	customers := [][]any{{"Customer", "Revenue", "Orders", "Average Order", "Products"}}
	for _, c := range s.Customers {
		customers = append(customers, []any{c.CustomerID, c.Revenue.Float64(), c.Transactions, c.AverageOrder.Float64(), len(c.Products)})
	}

	products := [][]any{{"Product", "Revenue", "Quantity", "Transactions"}}
	for _, p := range s.Products {
		products = append(products, []any{p.ProductName, p.Revenue.Float64(), p.Quantity, p.Transactions})
	}

	regions := [][]any{{"Region", "Revenue", "Percentage", "Transactions"}}
	for _, g := range s.Regions {
		regions = append(regions, []any{g.Region, g.Revenue.Float64(), g.Percentage.Float64(), g.Transactions})
	}

	enriched := make([][]any, 0, len(in.Enriched)+1)
	header := make([]any, len(types.OutputColumns))
	for i, c := range types.OutputColumns {
		header[i] = c
	}
	enriched = append(enriched, header)
	for _, r := range in.Enriched {
		row := make([]any, 0, len(types.OutputColumns))
		for _, v := range r.Row() {
			row = append(row, v)
		}
		enriched = append(enriched, row)
	}

	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summary},
		{SheetDaily, daily},
		{SheetCustomers, customers},
		{SheetProducts, products},
		{SheetRegions, regions},
		{SheetEnriched, enriched},
	} {
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		if err := f.Write(w); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	})
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
