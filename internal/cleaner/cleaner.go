// Package cleaner removes invalid and duplicate rows from a raw order
// ledger before matching.
package cleaner

import (
	"strings"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/logger"
)

// Exclusion policies. Each is a named constant set so tests can assert the
// triggering condition directly. Status values are normalized (trimmed,
// lower-cased) before comparison: closed and offline markers are exact
// matches, refund markers are substring matches.
var (
	// EmptyOrderMarks excludes rows whose mark column contains any entry.
	EmptyOrderMarks = []string{"空单", "empty order"}
	// ClosedStatuses excludes rows whose status equals any entry.
	ClosedStatuses = []string{"关闭", "closed"}
	// OfflineStatuses excludes rows whose status equals any entry.
	OfflineStatuses = []string{"[线下订单]", "[offline order]"}
	// RefundMarkers excludes rows whose status contains any entry.
	RefundMarkers = []string{"退款", "refund"}
)

// DefaultAmount is substituted for amount cells with no numeric reading.
const DefaultAmount = 0.0

// Stats describes one cleaning pass.
type Stats struct {
	OriginalRows         int    `json:"original_rows"`
	DuplicateRowsRemoved int    `json:"duplicate_rows_removed"`
	CleanedRows          int    `json:"cleaned_rows"`
	OriginalOrders       int    `json:"original_orders,omitempty"`
	CleanedOrders        int    `json:"cleaned_orders,omitempty"`
	OrderIDColumn        string `json:"order_id_column,omitempty"`
	AmountColumn         string `json:"amount_column,omitempty"`
}

// Cleaner removes duplicate, closed, refunded, offline and empty-order rows
// and applies the order-level monetary filter.
type Cleaner struct {
	keywords *classify.KeywordConfig
	logger   logger.Logger
}

// New creates a Cleaner using the given keyword tables. A nil config selects
// the defaults.
func New(keywords *classify.KeywordConfig) *Cleaner {
	if keywords == nil {
		keywords = classify.DefaultKeywordConfig()
	}
	return &Cleaner{
		keywords: keywords,
		logger:   logger.GetGlobalLogger().WithComponent("cleaner"),
	}
}

// Clean produces a cleaned copy of the order ledger.
//
// Rows are removed when they are exact duplicates, when the mark column
// flags an empty order, or when any status column reports the order closed,
// refunded or offline. Amounts are coerced to numbers, then the order-level
// monetary filter keeps every row of an order whose amount sum is strictly
// positive. When shopFilter is non-empty only rows of the listed shops
// survive.
//
// Missing columns never fail the pass; the corresponding step degrades to a
// no-op (or to row-level amount filtering when no order identifier exists).
func (c *Cleaner) Clean(orders *dataset.Dataset, shopFilter []string) (*dataset.Dataset, *Stats) {
	stats := &Stats{OriginalRows: orders.NumRows()}
	if orders.IsEmpty() {
		return orders, stats
	}

	df, removed := orders.DropExactDuplicates()
	stats.DuplicateRowsRemoved = removed
	if removed > 0 {
		c.logger.WithFields(logger.Fields{
			"original_rows": orders.NumRows(),
			"removed":       removed,
		}).Info("Removed exact duplicate order rows")
	}

	roles := classify.Classify(df.Columns(), c.keywords)
	markColumn, hasMark := roles.First(classify.RoleMark)
	statusColumns := roles.All(classify.RoleStatus)
	amountColumn, hasAmount := roles.First(classify.RoleAmount)
	orderIDColumn, hasOrderID := roles.First(classify.RoleOrderID)
	shopColumn, hasShop := roles.First(classify.RoleShop)

	if !hasMark {
		c.logger.Warn("No order mark column found")
	}
	if !hasAmount {
		c.logger.Warn("No amount column found, skipping monetary filter")
	}
	stats.OrderIDColumn = orderIDColumn
	stats.AmountColumn = amountColumn
	if hasOrderID {
		stats.OriginalOrders = df.DistinctCount(orderIDColumn)
	}

	// Mark and status exclusions.
	df = df.Filter(func(row int) bool {
		if hasMark && containsAny(normalize(df.Value(row, markColumn).Text()), EmptyOrderMarks) {
			return false
		}
		for _, statusColumn := range statusColumns {
			cell := df.Value(row, statusColumn)
			if cell.IsNull() {
				continue
			}
			status := normalize(cell.Text())
			if equalsAny(status, ClosedStatuses) || equalsAny(status, OfflineStatuses) {
				return false
			}
			if containsAny(status, RefundMarkers) {
				return false
			}
		}
		return true
	})

	if hasAmount {
		df = coerceAmounts(df, amountColumn)
		df = c.applyMonetaryFilter(df, amountColumn, orderIDColumn, hasOrderID)
	}

	if len(shopFilter) > 0 && hasShop {
		selected := make(map[string]bool, len(shopFilter))
		for _, shop := range shopFilter {
			selected[shop] = true
		}
		df = df.Filter(func(row int) bool {
			return selected[df.Value(row, shopColumn).Text()]
		})
	}

	stats.CleanedRows = df.NumRows()
	if hasOrderID {
		stats.CleanedOrders = df.DistinctCount(orderIDColumn)
	}

	c.logger.WithFields(logger.Fields{
		"original_rows":  stats.OriginalRows,
		"cleaned_rows":   stats.CleanedRows,
		"cleaned_orders": stats.CleanedOrders,
	}).Info("Order cleaning complete")

	return df, stats
}

// applyMonetaryFilter keeps every row of an order whose summed amount is
// strictly positive. Rows without an order identifier, and the entire
// dataset when no identifier column exists, fall back to row-level
// amount > 0 filtering.
func (c *Cleaner) applyMonetaryFilter(df *dataset.Dataset, amountColumn, orderIDColumn string, hasOrderID bool) *dataset.Dataset {
	if !hasOrderID {
		return df.Filter(func(row int) bool {
			amount, _ := df.Value(row, amountColumn).Float()
			return amount > 0
		})
	}

	sums := make(map[string]float64)
	for row := 0; row < df.NumRows(); row++ {
		id := df.Value(row, orderIDColumn)
		if id.IsNull() {
			continue
		}
		amount, _ := df.Value(row, amountColumn).Float()
		sums[id.Text()] += amount
	}

	return df.Filter(func(row int) bool {
		id := df.Value(row, orderIDColumn)
		amount, _ := df.Value(row, amountColumn).Float()
		if id.IsNull() {
			return amount > 0
		}
		return sums[id.Text()] > 0
	})
}

// coerceAmounts rewrites the amount column as numbers, substituting
// DefaultAmount for cells with no numeric reading.
func coerceAmounts(df *dataset.Dataset, amountColumn string) *dataset.Dataset {
	values := make([]dataset.Value, df.NumRows())
	for row := range values {
		amount, ok := df.Value(row, amountColumn).Numeric()
		if !ok {
			amount = DefaultAmount
		}
		values[row] = dataset.Number(amount)
	}
	out, err := df.WithColumn(amountColumn, values)
	if err != nil {
		// Value count always matches the row count here.
		return df
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func equalsAny(s string, set []string) bool {
	for _, entry := range set {
		if s == entry {
			return true
		}
	}
	return false
}

func containsAny(s string, set []string) bool {
	for _, entry := range set {
		if strings.Contains(s, entry) {
			return true
		}
	}
	return false
}
