// Package reporter writes processing results to concrete outputs.
//
// It is the tabular-data sink collaborator of the pipeline: the processed
// dataset can be written as CSV or XLSX, the analysis record as pretty JSON
// or a console summary. The core never depends on these formats.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"order-costing-service/internal/aggregate"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/errors"
	"order-costing-service/pkg/logger"
)

// Format selects the report output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

// Config holds report generation options.
type Config struct {
	Format       Format
	CSVDelimiter rune
	// ShopSummarySheet adds a per-shop summary sheet to XLSX exports.
	ShopSummarySheet bool
}

// DefaultConfig returns console output.
func DefaultConfig() *Config {
	return &Config{
		Format:           FormatConsole,
		CSVDelimiter:     ',',
		ShopSummarySheet: true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return nil
	default:
		return fmt.Errorf("invalid report format: %s", c.Format)
	}
}

// Generator writes processing results in the configured format.
type Generator struct {
	config *Config
	logger logger.Logger
}

// NewGenerator creates a Generator. A nil config selects the defaults.
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError("invalid report configuration", err)
	}
	return &Generator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("reporter"),
	}, nil
}

// Generate writes the processed dataset and analysis record to output.
// The XLSX format writes files, not streams; use ExportXLSX for it.
func (g *Generator) Generate(processed *dataset.Dataset, analysis *aggregate.AnalysisRecord, output io.Writer) error {
	switch g.config.Format {
	case FormatJSON:
		return g.writeJSON(analysis, output)
	case FormatCSV:
		return g.writeCSV(processed, output)
	case FormatConsole:
		return g.writeConsole(processed, analysis, output)
	default:
		return fmt.Errorf("format %s cannot write to a stream", g.config.Format)
	}
}

// writeJSON renders the analysis record as indented JSON. The record is
// sanitized upstream, so encoding never meets NaN or infinities.
func (g *Generator) writeJSON(analysis *aggregate.AnalysisRecord, output io.Writer) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(analysis); err != nil {
		return errors.ProcessingError("failed to encode analysis record", err)
	}
	return nil
}

// writeCSV renders the processed dataset with a header row.
func (g *Generator) writeCSV(processed *dataset.Dataset, output io.Writer) error {
	writer := csv.NewWriter(output)
	writer.Comma = g.config.CSVDelimiter

	columns := processed.Columns()
	if err := writer.Write(columns); err != nil {
		return errors.ProcessingError("failed to write CSV header", err)
	}

	record := make([]string, len(columns))
	for row := 0; row < processed.NumRows(); row++ {
		cells := processed.RowValues(row)
		for i, cell := range cells {
			record[i] = cell.Text()
		}
		if err := writer.Write(record); err != nil {
			return errors.ProcessingError("failed to write CSV row", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeConsole renders a human-readable run summary.
func (g *Generator) writeConsole(processed *dataset.Dataset, analysis *aggregate.AnalysisRecord, output io.Writer) error {
	fmt.Fprintln(output, "=== Processing Summary ===")
	fmt.Fprintf(output, "Processed rows: %d\n", processed.NumRows())

	if analysis == nil || analysis.Summary == nil {
		fmt.Fprintln(output, "Nothing qualified for processing.")
		return nil
	}

	s := analysis.Summary
	fmt.Fprintf(output, "Shops:          %d\n", s.TotalShops)
	fmt.Fprintf(output, "Total revenue:  %.2f\n", s.TotalRevenue)
	fmt.Fprintf(output, "Total cost:     %.2f\n", s.TotalCost)
	fmt.Fprintf(output, "Total profit:   %.2f\n", s.TotalProfit)
	fmt.Fprintf(output, "Average margin: %.2f%%\n", s.AvgMargin*100)

	if info := analysis.ProcessingInfo; info != nil {
		fmt.Fprintln(output, "\n=== Processing Info ===")
		fmt.Fprintf(output, "Original rows: %d, cleaned rows: %d, orders: %d, matched rows: %d\n",
			info.OriginalRows, info.CleanedRows, info.CleanedOrderCount, info.MatchedRows)
	}

	if audit := analysis.DeduplicationAudit; audit != nil && audit.Before != nil {
		fmt.Fprintln(output, "\n=== Deduplication ===")
		fmt.Fprintf(output, "Before: %d rows, %d duplicates (%.2f%%)\n",
			audit.Before.TotalRows, audit.Before.DuplicateRows, audit.Before.DuplicateRate)
		if audit.After != nil {
			fmt.Fprintf(output, "After:  %d rows, %d duplicates (%.2f%%)\n",
				audit.After.TotalRows, audit.After.DuplicateRows, audit.After.DuplicateRate)
		}
	}

	if len(analysis.ShopBreakdown) > 0 {
		fmt.Fprintln(output, "\n=== Shop Breakdown ===")
		names := make([]string, 0, len(analysis.ShopBreakdown))
		for name := range analysis.ShopBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := analysis.ShopBreakdown[name]
			fmt.Fprintf(output, "%-30s orders=%-6d revenue=%-12.2f profit=%-12.2f margin=%.2f%%\n",
				name, m.TotalOrders, m.TotalRevenue, m.TotalProfit, m.AvgMargin*100)
		}
	}

	return nil
}
