// Package dedup collapses duplicate processed records using a composite
// business key and produces duplicate audit reports.
//
// The audit reports are purely diagnostic: they describe how much
// duplication existed before and after the final pass but never feed back
// into computation.
package dedup

import (
	"strings"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/logger"
)

// Report describes the duplication found in one dataset.
type Report struct {
	TotalRows     int                    `json:"total_rows"`
	UniqueRows    int                    `json:"unique_rows"`
	DuplicateRows int                    `json:"duplicate_rows"`
	// DuplicateRate is a percentage rounded to two decimals.
	DuplicateRate   float64                `json:"duplicate_rate"`
	FieldDuplicates map[string]FieldReport `json:"field_duplicates,omitempty"`
}

// FieldReport describes value duplication within a single key column.
type FieldReport struct {
	Total         int     `json:"total"`
	Unique        int     `json:"unique"`
	Duplicates    int     `json:"duplicates"`
	DuplicateRate float64 `json:"duplicate_rate"`
}

// Result holds the deduplicated dataset and both audit reports.
type Result struct {
	Data *dataset.Dataset
	// Before audits the input dataset.
	Before *Report
	// After audits the output; nil when no key component existed and the
	// pass was skipped.
	After *Report
	// KeyColumns lists the composite key components actually used.
	KeyColumns []string
}

// Deduper removes rows sharing a composite business key.
type Deduper struct {
	keywords *classify.KeywordConfig
	logger   logger.Logger
}

// New creates a Deduper using the given keyword tables. A nil config selects
// the defaults.
func New(keywords *classify.KeywordConfig) *Deduper {
	if keywords == nil {
		keywords = classify.DefaultKeywordConfig()
	}
	return &Deduper{
		keywords: keywords,
		logger:   logger.GetGlobalLogger().WithComponent("dedup"),
	}
}

// Audit reports the duplication present in the dataset: full-row duplicates
// plus per-column duplication for every detected order-identifier, SKU and
// spec column.
func (d *Deduper) Audit(df *dataset.Dataset) *Report {
	report := &Report{TotalRows: df.NumRows()}
	if df.IsEmpty() {
		return report
	}

	seen := make(map[string]bool, df.NumRows())
	for row := 0; row < df.NumRows(); row++ {
		seen[df.Fingerprint(row)] = true
	}
	report.UniqueRows = len(seen)
	report.DuplicateRows = report.TotalRows - report.UniqueRows
	report.DuplicateRate = dataset.RoundTo(float64(report.DuplicateRows)/float64(report.TotalRows)*100, 2)

	roles := classify.Classify(df.Columns(), d.keywords)
	var keyFields []string
	for _, role := range []classify.Role{classify.RoleOrderID, classify.RoleSKU, classify.RoleSpec} {
		keyFields = append(keyFields, roles.All(role)...)
	}
	if len(keyFields) > 0 {
		report.FieldDuplicates = make(map[string]FieldReport, len(keyFields))
		for _, field := range keyFields {
			if _, done := report.FieldDuplicates[field]; done {
				continue
			}
			unique := df.DistinctCount(field)
			report.FieldDuplicates[field] = FieldReport{
				Total:         df.NumRows(),
				Unique:        unique,
				Duplicates:    df.NumRows() - unique,
				DuplicateRate: dataset.RoundTo(float64(df.NumRows()-unique)/float64(df.NumRows())*100, 2),
			}
		}
	}

	return report
}

// Dedupe drops rows sharing a composite business key, keeping the first
// occurrence. The key is assembled from the first detected order-identifier,
// SKU and spec columns, in that priority order, using only the columns
// actually present; when none exists the pass is skipped and only the
// "before" report is produced.
func (d *Deduper) Dedupe(df *dataset.Dataset) *Result {
	result := &Result{
		Data:   df,
		Before: d.Audit(df),
	}

	roles := classify.Classify(df.Columns(), d.keywords)
	for _, role := range []classify.Role{classify.RoleOrderID, classify.RoleSKU, classify.RoleSpec} {
		if column, ok := roles.First(role); ok {
			result.KeyColumns = append(result.KeyColumns, column)
		}
	}

	if len(result.KeyColumns) == 0 {
		d.logger.Warn("No business key columns found, skipping deduplication")
		return result
	}

	seen := make(map[string]bool, df.NumRows())
	deduped := df.Filter(func(row int) bool {
		key := d.compositeKey(df, row, result.KeyColumns)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	if removed := df.NumRows() - deduped.NumRows(); removed > 0 {
		d.logger.WithFields(logger.Fields{
			"removed":     removed,
			"key_columns": strings.Join(result.KeyColumns, ","),
		}).Info("Removed duplicate business records")
	}

	result.Data = deduped
	result.After = d.Audit(deduped)
	return result
}

// compositeKey encodes the business key cells of one row unambiguously.
func (d *Deduper) compositeKey(df *dataset.Dataset, row int, keyColumns []string) string {
	var b strings.Builder
	for _, column := range keyColumns {
		cell := df.Value(row, column)
		text := cell.Text()
		if cell.IsNull() {
			b.WriteString("\x00|")
			continue
		}
		b.WriteString(text)
		b.WriteString("|")
	}
	return b.String()
}
