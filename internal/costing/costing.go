// Package costing derives unit cost, revenue, profit and margin for matched
// order rows.
package costing

import (
	"time"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/logger"
)

// Names of the computed columns appended to the processed dataset.
const (
	ColumnUnitCost    = "unit_cost"
	ColumnQuantity    = "quantity"
	ColumnRevenue     = "revenue"
	ColumnTotalCost   = "total_cost"
	ColumnProfit      = "profit"
	ColumnMargin      = "margin"
	ColumnProcessedAt = "processed_at"
)

// Defaults applied when a source column is missing or a cell has no numeric
// reading. Each is a named policy constant so tests can assert on it.
const (
	// DefaultUnitCost applies when no catalog-side cost column exists.
	DefaultUnitCost = 0.0
	// DefaultQuantity applies when no quantity column exists or a cell is
	// unparseable.
	DefaultQuantity = 1.0
	// DefaultRevenue applies when no amount column exists or a cell is
	// unparseable.
	DefaultRevenue = 0.0
)

// TimestampFormat renders the processing timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// Calculator computes cost and profit columns over a matched dataset.
type Calculator struct {
	keywords *classify.KeywordConfig
	logger   logger.Logger
	clock    func() time.Time
}

// New creates a Calculator using the given keyword tables. A nil config
// selects the defaults.
func New(keywords *classify.KeywordConfig) *Calculator {
	if keywords == nil {
		keywords = classify.DefaultKeywordConfig()
	}
	return &Calculator{
		keywords: keywords,
		logger:   logger.GetGlobalLogger().WithComponent("costing"),
		clock:    time.Now,
	}
}

// Compute appends the computed columns to the matched dataset.
//
// The unit cost source must be a cost-classified column originating from the
// catalog side of the join (catalogColumns); order-side columns that merely
// look like costs are never trusted. Quantities default to 1, revenues to 0.
// total_cost = round(unit_cost*quantity, 2), profit = round(revenue-
// total_cost, 2), margin = round(profit/revenue, 4) when revenue is
// positive, else 0. The returned dataset is fully sanitized: no numeric cell
// is NaN or infinite.
func (c *Calculator) Compute(matched *dataset.Dataset, catalogColumns []string) *dataset.Dataset {
	if matched.IsEmpty() {
		return matched
	}

	costColumn, hasCost := c.findCostColumn(matched, catalogColumns)
	roles := classify.Classify(matched.Columns(), c.keywords)
	quantityColumn, hasQuantity := roles.First(classify.RoleQuantity)
	amountColumn, hasAmount := roles.First(classify.RoleAmount)

	if hasCost {
		c.logger.WithField("cost_column", costColumn).Info("Using catalog cost column")
	} else {
		c.logger.Warn("No catalog-side cost column found, unit cost defaults to 0")
	}

	rows := matched.NumRows()
	unitCost := make([]dataset.Value, rows)
	quantity := make([]dataset.Value, rows)
	revenue := make([]dataset.Value, rows)
	totalCost := make([]dataset.Value, rows)
	profit := make([]dataset.Value, rows)
	margin := make([]dataset.Value, rows)
	processedAt := make([]dataset.Value, rows)

	stamp := dataset.String(c.clock().Format(TimestampFormat))

	for row := 0; row < rows; row++ {
		cost := DefaultUnitCost
		if hasCost {
			if f, ok := matched.Value(row, costColumn).Numeric(); ok {
				cost = f
			}
		}

		qty := DefaultQuantity
		if hasQuantity {
			if f, ok := matched.Value(row, quantityColumn).Numeric(); ok {
				qty = f
			}
		}

		rev := DefaultRevenue
		if hasAmount {
			if f, ok := matched.Value(row, amountColumn).Numeric(); ok {
				rev = dataset.RoundTo(f, 2)
			}
		}

		total := dataset.RoundTo(cost*qty, 2)
		prf := dataset.RoundTo(rev-total, 2)
		mgn := 0.0
		if rev > 0 {
			mgn = dataset.RoundTo(prf/rev, 4)
		}

		unitCost[row] = dataset.Number(cost)
		quantity[row] = dataset.Number(qty)
		revenue[row] = dataset.Number(rev)
		totalCost[row] = dataset.Number(total)
		profit[row] = dataset.Number(prf)
		margin[row] = dataset.Number(mgn)
		processedAt[row] = stamp
	}

	out := matched
	for _, col := range []struct {
		name   string
		values []dataset.Value
	}{
		{ColumnUnitCost, unitCost},
		{ColumnQuantity, quantity},
		{ColumnRevenue, revenue},
		{ColumnTotalCost, totalCost},
		{ColumnProfit, profit},
		{ColumnMargin, margin},
		{ColumnProcessedAt, processedAt},
	} {
		next, err := out.WithColumn(col.name, col.values)
		if err != nil {
			// Value counts always match the row count here.
			continue
		}
		out = next
	}

	return Sanitize(out)
}

// findCostColumn returns the first cost-classified column that originates
// from the catalog side of the join, in output column order.
func (c *Calculator) findCostColumn(matched *dataset.Dataset, catalogColumns []string) (string, bool) {
	fromCatalog := make(map[string]bool, len(catalogColumns))
	for _, name := range catalogColumns {
		fromCatalog[name] = true
	}

	costCandidates := classify.Classify(matched.Columns(), c.keywords).All(classify.RoleCost)
	for _, name := range costCandidates {
		if fromCatalog[name] {
			return name, true
		}
	}
	return "", false
}

// Sanitize replaces non-finite numbers with 0 everywhere, and null cells
// with 0 in columns that carry numbers. Null cells of purely textual columns
// are left null.
func Sanitize(df *dataset.Dataset) *dataset.Dataset {
	out := df
	for _, column := range df.Columns() {
		numeric := false
		dirty := false
		for row := 0; row < df.NumRows(); row++ {
			cell := out.Value(row, column)
			if f, ok := cell.Float(); ok {
				numeric = true
				if dataset.SanitizeNumber(f) != f {
					dirty = true
				}
			} else if cell.IsNull() {
				dirty = true
			}
		}
		if !numeric || !dirty {
			continue
		}

		values := make([]dataset.Value, df.NumRows())
		for row := range values {
			cell := out.Value(row, column)
			if f, ok := cell.Float(); ok {
				values[row] = dataset.Number(dataset.SanitizeNumber(f))
			} else if cell.IsNull() {
				values[row] = dataset.Number(0)
			} else {
				values[row] = cell
			}
		}
		next, err := out.WithColumn(column, values)
		if err == nil {
			out = next
		}
	}
	return out
}
