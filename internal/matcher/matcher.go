// Package matcher joins cleaned order rows to their catalog entries.
//
// Neither table has a fixed schema, so the join key cannot be declared up
// front. The matcher classifies SKU-like columns on both sides, evaluates
// every (catalog column, order column) pairing by actually performing the
// join, and keeps the pairing that resolves the most rows. The strategy is
// data dependent and deliberately brute force; candidate lists are short in
// practice.
package matcher

import (
	"strings"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/dataset"
	"order-costing-service/pkg/logger"
)

// StatusColumn is the name of the match status column appended to the
// output when matching cannot be performed.
const StatusColumn = "match_status"

// Status describes the outcome of a matching pass.
type Status string

const (
	// StatusMatched means a pairing resolved at least one row.
	StatusMatched Status = "matched"
	// StatusUnmatched means no SKU-like column existed on one side.
	StatusUnmatched Status = "unmatched"
	// StatusFailed means every evaluated pairing resolved zero rows.
	StatusFailed Status = "match_failed"
)

// Candidate is one evaluated (catalog column, order column) pairing.
type Candidate struct {
	CatalogColumn string
	OrderColumn   string
	// Matched counts order rows whose catalog-side key resolved non-null
	// after the join.
	Matched int
}

// Result holds the matched dataset and diagnostics about the pairing search.
type Result struct {
	Data   *dataset.Dataset
	Status Status
	// Winner is the selected pairing; nil unless Status is StatusMatched.
	Winner *Candidate
	// Evaluated lists every pairing in enumeration order.
	Evaluated []Candidate
	// CatalogColumns names the output columns that originate from the
	// catalog side of the join.
	CatalogColumns []string
	// MatchedRows counts order rows with a resolved catalog entry.
	MatchedRows int
	// JoinDuplicatesRemoved counts exact duplicates dropped from the joined
	// result.
	JoinDuplicatesRemoved int
}

// Matcher joins order rows to catalog rows over inferred SKU columns.
type Matcher struct {
	keywords *classify.KeywordConfig
	logger   logger.Logger
}

// New creates a Matcher using the given keyword tables. A nil config selects
// the defaults.
func New(keywords *classify.KeywordConfig) *Matcher {
	if keywords == nil {
		keywords = classify.DefaultKeywordConfig()
	}
	return &Matcher{
		keywords: keywords,
		logger:   logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Match left-joins orders to catalog on the best-scoring SKU column pairing.
//
// When either side has no SKU-like column the orders are returned unchanged
// with every row tagged unmatched; when every pairing scores zero they are
// returned tagged match_failed. Neither case is an error.
func (m *Matcher) Match(catalog, orders *dataset.Dataset) *Result {
	catalogColumns := classify.Classify(catalog.Columns(), m.keywords).All(classify.RoleSKU)
	orderColumns := classify.Classify(orders.Columns(), m.keywords).All(classify.RoleSKU)

	if len(catalogColumns) == 0 || len(orderColumns) == 0 {
		m.logger.Warn("No SKU-like columns found, orders left unmatched")
		return &Result{
			Data:   tagStatus(orders, StatusUnmatched),
			Status: StatusUnmatched,
		}
	}

	winner, evaluated := EvaluatePairings(catalog, orders, catalogColumns, orderColumns)
	if winner < 0 {
		m.logger.WithFields(logger.Fields{
			"pairings": len(evaluated),
		}).Warn("Every SKU pairing resolved zero rows")
		return &Result{
			Data:      tagStatus(orders, StatusFailed),
			Status:    StatusFailed,
			Evaluated: evaluated,
		}
	}

	best := evaluated[winner]
	m.logger.WithFields(logger.Fields{
		"catalog_column": best.CatalogColumn,
		"order_column":   best.OrderColumn,
		"matched_rows":   best.Matched,
		"order_rows":     orders.NumRows(),
	}).Info("Selected SKU column pairing")

	joined, catalogOut := join(catalog, orders, best.CatalogColumn, best.OrderColumn)

	// Ambiguous join keys can duplicate merged rows.
	joined, removed := joined.DropExactDuplicates()

	return &Result{
		Data:                  joined,
		Status:                StatusMatched,
		Winner:                &best,
		Evaluated:             evaluated,
		CatalogColumns:        catalogOut,
		MatchedRows:           best.Matched,
		JoinDuplicatesRemoved: removed,
	}
}

// EvaluatePairings scores every (catalog column, order column) pairing and
// returns the index of the winner, or -1 when no pairing resolves a row.
// Catalog candidates form the outer loop; ties keep the first-enumerated
// pairing. The function is pure: it reads both datasets but builds no join.
func EvaluatePairings(catalog, orders *dataset.Dataset, catalogColumns, orderColumns []string) (int, []Candidate) {
	evaluated := make([]Candidate, 0, len(catalogColumns)*len(orderColumns))
	winner := -1
	bestScore := 0

	for _, catalogColumn := range catalogColumns {
		index := keyIndex(catalog, catalogColumn)
		for _, orderColumn := range orderColumns {
			matched := 0
			for row := 0; row < orders.NumRows(); row++ {
				key := joinKey(orders.Value(row, orderColumn))
				if key == "" {
					continue
				}
				if _, ok := index[key]; ok {
					matched++
				}
			}

			evaluated = append(evaluated, Candidate{
				CatalogColumn: catalogColumn,
				OrderColumn:   orderColumn,
				Matched:       matched,
			})
			if matched > bestScore {
				bestScore = matched
				winner = len(evaluated) - 1
			}
		}
	}

	return winner, evaluated
}

// keyIndex maps each normalized key of the catalog column to the first row
// carrying it. Keeping the first occurrence deduplicates the catalog: one
// SKU appearing multiple times would otherwise multiply joined rows.
func keyIndex(catalog *dataset.Dataset, column string) map[string]int {
	index := make(map[string]int, catalog.NumRows())
	for row := 0; row < catalog.NumRows(); row++ {
		key := joinKey(catalog.Value(row, column))
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = row
		}
	}
	return index
}

// joinKey normalizes a cell to its trimmed textual form. Null and blank
// cells yield the empty key, which never participates in a join.
func joinKey(v dataset.Value) string {
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// join performs a left outer join of orders to the deduplicated catalog.
// Output columns are the order columns followed by the catalog columns;
// names present on both sides are suffixed _order and _catalog. The second
// return lists the catalog columns as named in the output.
func join(catalog, orders *dataset.Dataset, catalogColumn, orderColumn string) (*dataset.Dataset, []string) {
	index := keyIndex(catalog, catalogColumn)

	orderNames := orders.Columns()
	catalogNames := catalog.Columns()
	collisions := make(map[string]bool)
	for _, name := range catalogNames {
		if orders.HasColumn(name) {
			collisions[name] = true
		}
	}

	// Names kept verbatim can never clash with each other, so seed the
	// used set with them and uniquify only the suffixed names against it.
	used := make(map[string]bool, len(orderNames)+len(catalogNames))
	for _, name := range orderNames {
		if !collisions[name] {
			used[name] = true
		}
	}
	for _, name := range catalogNames {
		if !collisions[name] {
			used[name] = true
		}
	}

	outNames := make([]string, 0, len(orderNames)+len(catalogNames))
	for _, name := range orderNames {
		if collisions[name] {
			name = suffixName(name, "_order", used)
			used[name] = true
		}
		outNames = append(outNames, name)
	}
	catalogOut := make([]string, 0, len(catalogNames))
	for _, name := range catalogNames {
		if collisions[name] {
			name = suffixName(name, "_catalog", used)
			used[name] = true
		}
		catalogOut = append(catalogOut, name)
		outNames = append(outNames, name)
	}

	out := dataset.MustNew(outNames)
	for row := 0; row < orders.NumRows(); row++ {
		cells := orders.RowValues(row)
		key := joinKey(orders.Value(row, orderColumn))
		if catalogRow, ok := index[key]; ok && key != "" {
			cells = append(cells, catalog.RowValues(catalogRow)...)
		} else {
			for range catalogNames {
				cells = append(cells, dataset.Null())
			}
		}
		// Arity is columns(orders)+columns(catalog) on every path.
		_ = out.AppendRow(cells)
	}

	return out, catalogOut
}

// suffixName appends the side suffix to a colliding column name. Column
// names are arbitrary, so the suffixed form can itself already exist; the
// suffix is repeated until the name is unused.
func suffixName(name, suffix string, used map[string]bool) string {
	name += suffix
	for used[name] {
		name += suffix
	}
	return name
}

// tagStatus appends the match status column with the same value on every
// row, leaving the order data untouched otherwise.
func tagStatus(orders *dataset.Dataset, status Status) *dataset.Dataset {
	values := make([]dataset.Value, orders.NumRows())
	for i := range values {
		values[i] = dataset.String(string(status))
	}
	tagged, err := orders.WithColumn(StatusColumn, values)
	if err != nil {
		return orders
	}
	return tagged
}
