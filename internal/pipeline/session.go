package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"order-costing-service/internal/classify"
	"order-costing-service/internal/dataset"
)

// Session owns the currently loaded catalog/orders pair for hosting layers
// that serve multiple requests over one upload.
//
// Loading-and-replacing the pair is not atomic with in-flight processing, so
// the pair is guarded by an RWMutex and replaced copy-and-swap: Replace
// installs both datasets together only after both loaded successfully, and
// readers always observe a consistent pair.
type Session struct {
	mu        sync.RWMutex
	catalog   *dataset.Dataset
	orders    *dataset.Dataset
	processor *Processor
}

// NewSession creates a Session without loaded data.
func NewSession(processor *Processor) *Session {
	if processor == nil {
		processor = NewProcessor(nil)
	}
	return &Session{processor: processor}
}

// Replace installs a new catalog/orders pair. Both datasets must be non-nil;
// a partial pair is rejected so in-flight readers never see mixed uploads.
func (s *Session) Replace(catalog, orders *dataset.Dataset) error {
	if catalog == nil || orders == nil {
		return fmt.Errorf("both catalog and orders datasets are required")
	}

	s.mu.Lock()
	s.catalog = catalog
	s.orders = orders
	s.mu.Unlock()
	return nil
}

// Loaded reports whether a dataset pair is installed.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog != nil && s.orders != nil
}

// Process runs the pipeline over the loaded pair.
func (s *Session) Process(selectedShops []string) (*Result, error) {
	s.mu.RLock()
	catalog, orders := s.catalog, s.orders
	s.mu.RUnlock()

	if catalog == nil || orders == nil {
		return nil, fmt.Errorf("no datasets loaded")
	}

	return s.processor.Run(&Request{
		Catalog:       catalog,
		Orders:        orders,
		SelectedShops: selectedShops,
	}), nil
}

// AvailableShops returns the sorted distinct shop values of the loaded order
// ledger, or nil when no shop column exists.
func (s *Session) AvailableShops() []string {
	s.mu.RLock()
	orders := s.orders
	s.mu.RUnlock()

	if orders == nil {
		return nil
	}
	return AvailableShops(orders, s.processor.keywords)
}

// AvailableShops lists the sorted distinct values of the first shop column.
func AvailableShops(orders *dataset.Dataset, keywords *classify.KeywordConfig) []string {
	column, ok := classify.Classify(orders.Columns(), keywords).First(classify.RoleShop)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var shops []string
	for row := 0; row < orders.NumRows(); row++ {
		cell := orders.Value(row, column)
		if cell.IsNull() {
			continue
		}
		name := cell.Text()
		if !seen[name] {
			seen[name] = true
			shops = append(shops, name)
		}
	}
	sort.Strings(shops)
	return shops
}
