// Package aggregate computes summary statistics over the processed dataset
// and assembles the analysis record returned to callers.
package aggregate

import (
	"sort"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/costing"
	"order-costing-service/internal/dataset"
	"order-costing-service/internal/dedup"
	"order-costing-service/pkg/logger"
)

// Summary holds the overall metrics of one processing run. Every numeric
// field is sanitized: never NaN or infinite.
type Summary struct {
	TotalRecords int     `json:"total_records"`
	TotalShops   int     `json:"total_shops"`
	TotalCost    float64 `json:"total_cost"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
	AvgMargin    float64 `json:"avg_margin"`
}

// ShopMetrics holds the same metric set for a single shop.
type ShopMetrics struct {
	ShopName     string  `json:"shop_name"`
	TotalOrders  int     `json:"total_orders"`
	TotalCost    float64 `json:"total_cost"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
	AvgMargin    float64 `json:"avg_margin"`
}

// ProcessingInfo records row counts and provenance of one run.
type ProcessingInfo struct {
	RunID             string `json:"run_id"`
	OriginalRows      int    `json:"original_rows"`
	CleanedRows       int    `json:"cleaned_rows"`
	CleanedOrderCount int    `json:"cleaned_order_count"`
	MatchedRows       int    `json:"matched_rows"`
	ProcessedTime     string `json:"processed_time"`
}

// DeduplicationAudit pairs the before/after duplicate reports with the key
// columns used.
type DeduplicationAudit struct {
	Before     *dedup.Report `json:"before,omitempty"`
	After      *dedup.Report `json:"after,omitempty"`
	KeyColumns []string      `json:"key_columns,omitempty"`
}

// AnalysisRecord is the structured analysis returned alongside the processed
// dataset. An empty record (all nil fields) means nothing qualified.
type AnalysisRecord struct {
	Summary            *Summary                `json:"summary,omitempty"`
	ShopBreakdown      map[string]*ShopMetrics `json:"shop_breakdown,omitempty"`
	ProcessingInfo     *ProcessingInfo         `json:"processing_info,omitempty"`
	DeduplicationAudit *DeduplicationAudit     `json:"deduplication_audit,omitempty"`
}

// Aggregator computes summary and per-shop statistics.
type Aggregator struct {
	keywords *classify.KeywordConfig
	logger   logger.Logger
}

// New creates an Aggregator using the given keyword tables. A nil config
// selects the defaults.
func New(keywords *classify.KeywordConfig) *Aggregator {
	if keywords == nil {
		keywords = classify.DefaultKeywordConfig()
	}
	return &Aggregator{
		keywords: keywords,
		logger:   logger.GetGlobalLogger().WithComponent("aggregate"),
	}
}

// Summarize computes the overall metrics and the per-shop breakdown of a
// processed dataset. Rows with a null or missing shop value are excluded
// from the breakdown but still counted in the overall metrics.
func (a *Aggregator) Summarize(processed *dataset.Dataset) (*Summary, map[string]*ShopMetrics) {
	if processed.IsEmpty() {
		return &Summary{}, nil
	}

	shopColumn, hasShop := classify.Classify(processed.Columns(), a.keywords).First(classify.RoleShop)

	summary := &Summary{TotalRecords: processed.NumRows()}
	if hasShop {
		summary.TotalShops = processed.DistinctCount(shopColumn)
	}

	summary.TotalCost, summary.TotalRevenue, summary.TotalProfit, summary.AvgMargin = a.metrics(processed, nil)

	var breakdown map[string]*ShopMetrics
	if hasShop {
		shopRows := make(map[string][]int)
		var shopNames []string
		for row := 0; row < processed.NumRows(); row++ {
			cell := processed.Value(row, shopColumn)
			if cell.IsNull() {
				continue
			}
			name := cell.Text()
			if _, seen := shopRows[name]; !seen {
				shopNames = append(shopNames, name)
			}
			shopRows[name] = append(shopRows[name], row)
		}
		sort.Strings(shopNames)

		breakdown = make(map[string]*ShopMetrics, len(shopNames))
		for _, name := range shopNames {
			rows := shopRows[name]
			cost, revenue, profit, margin := a.metrics(processed, rows)
			breakdown[name] = &ShopMetrics{
				ShopName:     name,
				TotalOrders:  len(rows),
				TotalCost:    cost,
				TotalRevenue: revenue,
				TotalProfit:  profit,
				AvgMargin:    margin,
			}
		}
	}

	a.logger.WithFields(logger.Fields{
		"records":       summary.TotalRecords,
		"shops":         summary.TotalShops,
		"total_revenue": summary.TotalRevenue,
		"total_profit":  summary.TotalProfit,
	}).Info("Aggregation complete")

	return summary, breakdown
}

// metrics computes cost/revenue/profit/margin over the given rows, or over
// every row when rows is nil. The average margin covers only rows with
// positive revenue and is 0 when none qualify. All outputs are sanitized.
func (a *Aggregator) metrics(processed *dataset.Dataset, rows []int) (cost, revenue, profit, margin float64) {
	if rows == nil {
		rows = make([]int, processed.NumRows())
		for i := range rows {
			rows[i] = i
		}
	}

	var marginSum float64
	var marginCount int
	for _, row := range rows {
		c, _ := processed.Value(row, costing.ColumnTotalCost).Float()
		r, _ := processed.Value(row, costing.ColumnRevenue).Float()
		cost += dataset.SanitizeNumber(c)
		revenue += dataset.SanitizeNumber(r)
		if r > 0 {
			m, _ := processed.Value(row, costing.ColumnMargin).Float()
			marginSum += dataset.SanitizeNumber(m)
			marginCount++
		}
	}

	cost = dataset.SanitizeNumber(dataset.RoundTo(cost, 2))
	revenue = dataset.SanitizeNumber(dataset.RoundTo(revenue, 2))
	profit = dataset.SanitizeNumber(dataset.RoundTo(revenue-cost, 2))
	if marginCount > 0 {
		margin = dataset.SanitizeNumber(dataset.RoundTo(marginSum/float64(marginCount), 4))
	}
	return cost, revenue, profit, margin
}
