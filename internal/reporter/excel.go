package reporter

import (
	"sort"

	"github.com/xuri/excelize/v2"

	"order-costing-service/internal/aggregate"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/errors"
	"order-costing-service/pkg/logger"
)

// Sheet names of the XLSX export.
const (
	DataSheet        = "Processed Data"
	ShopSummarySheet = "Shop Summary"
)

// ExportXLSX writes the processed dataset, and optionally a per-shop summary
// sheet, to an XLSX workbook at path.
func (g *Generator) ExportXLSX(processed *dataset.Dataset, analysis *aggregate.AnalysisRecord, path string) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), DataSheet); err != nil {
		return errors.ProcessingError("failed to prepare workbook", err)
	}

	if err := writeDatasetSheet(book, DataSheet, processed); err != nil {
		return err
	}

	if g.config.ShopSummarySheet && analysis != nil && len(analysis.ShopBreakdown) > 0 {
		if err := writeShopSummarySheet(book, analysis); err != nil {
			return err
		}
	}

	if err := book.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}

	g.logger.WithFields(logger.Fields{
		"path": path,
		"rows": processed.NumRows(),
	}).Info("Exported XLSX workbook")
	return nil
}

func writeDatasetSheet(book *excelize.File, sheet string, df *dataset.Dataset) error {
	columns := df.Columns()
	header := make([]interface{}, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := setRow(book, sheet, 1, header); err != nil {
		return err
	}

	for row := 0; row < df.NumRows(); row++ {
		cells := df.RowValues(row)
		out := make([]interface{}, len(cells))
		for i, cell := range cells {
			out[i] = cellValue(cell)
		}
		if err := setRow(book, sheet, row+2, out); err != nil {
			return err
		}
	}
	return nil
}

func writeShopSummarySheet(book *excelize.File, analysis *aggregate.AnalysisRecord) error {
	if _, err := book.NewSheet(ShopSummarySheet); err != nil {
		return errors.ProcessingError("failed to add shop summary sheet", err)
	}

	header := []interface{}{"shop", "total_orders", "total_revenue", "total_cost", "total_profit", "avg_margin"}
	if err := setRow(book, ShopSummarySheet, 1, header); err != nil {
		return err
	}

	names := make([]string, 0, len(analysis.ShopBreakdown))
	for name := range analysis.ShopBreakdown {
		names = append(names, name)
	}
	// Deterministic sheet order.
	sort.Strings(names)

	for i, name := range names {
		m := analysis.ShopBreakdown[name]
		row := []interface{}{m.ShopName, m.TotalOrders, m.TotalRevenue, m.TotalCost, m.TotalProfit, m.AvgMargin}
		if err := setRow(book, ShopSummarySheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(book *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.ProcessingError("failed to compute cell coordinates", err)
	}
	if err := book.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.ProcessingError("failed to write sheet row", err)
	}
	return nil
}

// cellValue converts a dataset cell to the value type excelize expects.
func cellValue(cell dataset.Value) interface{} {
	if cell.IsNull() {
		return nil
	}
	if f, ok := cell.Float(); ok {
		return f
	}
	return cell.Text()
}
