// Package pipeline orchestrates the full costing run: clean, match, compute,
// deduplicate, aggregate.
//
// Every stage is a deterministic, side-effect-free function of its inputs;
// the pipeline itself holds no state between runs. Callers needing shared
// "currently loaded" data use a Session.
package pipeline

import (
	"time"

	"order-costing-service/internal/aggregate"
	"order-costing-service/internal/classify"
	"order-costing-service/internal/cleaner"
	"order-costing-service/internal/costing"
	"order-costing-service/internal/dataset"
	"order-costing-service/internal/dedup"
	"order-costing-service/internal/matcher"
	"order-costing-service/pkg/logger"

	"github.com/google/uuid"
)

// Request carries the inputs of one processing run.
type Request struct {
	// Catalog is the authoritative product reference table.
	Catalog *dataset.Dataset
	// Orders is the raw order ledger.
	Orders *dataset.Dataset
	// SelectedShops optionally restricts processing to the listed shops.
	SelectedShops []string
}

// Result pairs the processed dataset with its analysis record. An empty
// dataset and an empty analysis record mean nothing qualified, not an error.
type Result struct {
	Processed *dataset.Dataset
	Analysis  *aggregate.AnalysisRecord
}

// Processor runs the reconciliation pipeline over freshly supplied inputs.
type Processor struct {
	keywords   *classify.KeywordConfig
	cleaner    *cleaner.Cleaner
	matcher    *matcher.Matcher
	calculator *costing.Calculator
	deduper    *dedup.Deduper
	aggregator *aggregate.Aggregator
	logger     logger.Logger
	clock      func() time.Time
}

// NewProcessor creates a Processor using the given keyword tables. A nil
// config selects the defaults.
func NewProcessor(keywords *classify.KeywordConfig) *Processor {
	if keywords == nil {
		keywords = classify.DefaultKeywordConfig()
	}
	return &Processor{
		keywords:   keywords,
		cleaner:    cleaner.New(keywords),
		matcher:    matcher.New(keywords),
		calculator: costing.New(keywords),
		deduper:    dedup.New(keywords),
		aggregator: aggregate.New(keywords),
		logger:     logger.GetGlobalLogger().WithComponent("pipeline"),
		clock:      time.Now,
	}
}

// Run executes the full pipeline. It never fails: empty or fully filtered
// inputs yield the empty-result sentinel.
func (p *Processor) Run(request *Request) *Result {
	if request == nil || request.Orders == nil || request.Orders.IsEmpty() ||
		request.Catalog == nil || request.Catalog.IsEmpty() {
		p.logger.Warn("Empty input dataset, nothing to process")
		return emptyResult()
	}

	p.logger.WithFields(logger.Fields{
		"order_rows":   request.Orders.NumRows(),
		"catalog_rows": request.Catalog.NumRows(),
		"shop_filter":  len(request.SelectedShops),
	}).Info("Starting processing run")

	cleaned, cleanStats := p.cleaner.Clean(request.Orders, request.SelectedShops)
	if cleaned.IsEmpty() {
		p.logger.Info("Cleaning removed every row")
		return emptyResult()
	}

	matchResult := p.matcher.Match(request.Catalog, cleaned)

	processed := p.calculator.Compute(matchResult.Data, matchResult.CatalogColumns)

	dedupResult := p.deduper.Dedupe(processed)
	processed = dedupResult.Data

	summary, breakdown := p.aggregator.Summarize(processed)

	analysis := &aggregate.AnalysisRecord{
		Summary:       summary,
		ShopBreakdown: breakdown,
		ProcessingInfo: &aggregate.ProcessingInfo{
			RunID:             uuid.NewString(),
			OriginalRows:      cleanStats.OriginalRows,
			CleanedRows:       cleanStats.CleanedRows,
			CleanedOrderCount: p.cleanedOrderCount(processed),
			MatchedRows:       processed.NumRows(),
			ProcessedTime:     p.clock().Format(time.RFC3339),
		},
		DeduplicationAudit: &aggregate.DeduplicationAudit{
			Before:     dedupResult.Before,
			After:      dedupResult.After,
			KeyColumns: dedupResult.KeyColumns,
		},
	}

	p.logger.WithFields(logger.Fields{
		"processed_rows": processed.NumRows(),
		"matched_rows":   matchResult.MatchedRows,
		"match_status":   string(matchResult.Status),
	}).Info("Processing run complete")

	return &Result{Processed: processed, Analysis: analysis}
}

// cleanedOrderCount counts distinct order identifiers in the final dataset,
// 0 when no identifier column exists.
func (p *Processor) cleanedOrderCount(processed *dataset.Dataset) int {
	column, ok := classify.Classify(processed.Columns(), p.keywords).First(classify.RoleOrderID)
	if !ok {
		return 0
	}
	return processed.DistinctCount(column)
}

func emptyResult() *Result {
	return &Result{
		Processed: dataset.Empty(),
		Analysis:  &aggregate.AnalysisRecord{},
	}
}
