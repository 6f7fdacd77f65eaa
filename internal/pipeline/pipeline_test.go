package pipeline

import (
	"testing"

	"order-costing-service/internal/costing"
	"order-costing-service/internal/dataset"
	"order-costing-service/internal/matcher"
)

func str(s string) dataset.Value { return dataset.String(s) }

func buildTable(t *testing.T, columns []string, rows [][]dataset.Value) *dataset.Dataset {
	t.Helper()
	df, err := dataset.New(columns)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i, row := range rows {
		if err := df.AppendRow(row); err != nil {
			t.Fatalf("AppendRow %d failed: %v", i, err)
		}
	}
	return df
}

func testCatalog(t *testing.T) *dataset.Dataset {
	// S1 appears twice; the first entry must win.
	return buildTable(t, []string{"商家编码", "成本", "规格"}, [][]dataset.Value{
		{str("S1"), str("4"), str("500g")},
		{str("S2"), str("12.5"), str("1kg")},
		{str("S1"), str("9"), str("500g")},
	})
}

func testOrders(t *testing.T) *dataset.Dataset {
	return buildTable(t,
		[]string{"订单号", "商家编码", "买家实付", "订单状态", "订单标记", "店铺", "数量"},
		[][]dataset.Value{
			{str("A1"), str("S1"), str("10"), str("已完成"), dataset.Null(), str("Shop A"), str("1")},
			{str("B2"), str("S2"), str("0"), str("已完成"), dataset.Null(), str("Shop B"), str("2")},
			{str("C3"), str("S1"), str("20"), str("关闭"), dataset.Null(), str("Shop A"), str("1")},
			{str("D4"), str("S2"), str("30"), str("已完成"), str("空单"), str("Shop B"), str("1")},
			{str("E5"), str("S1"), str("25"), str("已完成"), dataset.Null(), str("Shop A"), str("2")},
		})
}

func TestRunEndToEnd(t *testing.T) {
	result := NewProcessor(nil).Run(&Request{
		Catalog: testCatalog(t),
		Orders:  testOrders(t),
	})

	// B2 (zero-sum order), C3 (closed) and D4 (empty-order mark) drop;
	// A1 and E5 survive.
	if result.Processed.NumRows() != 2 {
		t.Fatalf("Expected 2 processed rows, got %d", result.Processed.NumRows())
	}

	// Row A1: cost 4*1=4, revenue 10, profit 6, margin 0.6.
	if f, _ := result.Processed.Value(0, costing.ColumnProfit).Float(); f != 6 {
		t.Errorf("A1 profit = %v, expected 6", f)
	}
	if f, _ := result.Processed.Value(0, costing.ColumnMargin).Float(); f != 0.6 {
		t.Errorf("A1 margin = %v, expected 0.6", f)
	}
	// Row E5: cost 4*2=8, revenue 25, profit 17. The duplicate catalog
	// entry with cost 9 must not be used.
	if f, _ := result.Processed.Value(1, costing.ColumnUnitCost).Float(); f != 4 {
		t.Errorf("E5 unit_cost = %v, expected first catalog occurrence 4", f)
	}
	if f, _ := result.Processed.Value(1, costing.ColumnProfit).Float(); f != 17 {
		t.Errorf("E5 profit = %v, expected 17", f)
	}

	analysis := result.Analysis
	if analysis.Summary == nil {
		t.Fatal("Expected a summary")
	}
	if analysis.Summary.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, expected 2", analysis.Summary.TotalRecords)
	}
	if analysis.Summary.TotalRevenue != 35 {
		t.Errorf("TotalRevenue = %v, expected 35", analysis.Summary.TotalRevenue)
	}
	if analysis.Summary.TotalProfit != 23 {
		t.Errorf("TotalProfit = %v, expected 23", analysis.Summary.TotalProfit)
	}

	info := analysis.ProcessingInfo
	if info == nil {
		t.Fatal("Expected processing info")
	}
	if info.RunID == "" {
		t.Error("Expected a run id")
	}
	if info.OriginalRows != 5 {
		t.Errorf("OriginalRows = %d, expected 5", info.OriginalRows)
	}
	if info.CleanedRows != 2 {
		t.Errorf("CleanedRows = %d, expected 2", info.CleanedRows)
	}
	if info.CleanedOrderCount != 2 {
		t.Errorf("CleanedOrderCount = %d, expected 2", info.CleanedOrderCount)
	}
	if info.MatchedRows != 2 {
		t.Errorf("MatchedRows = %d, expected 2", info.MatchedRows)
	}

	if analysis.DeduplicationAudit == nil || analysis.DeduplicationAudit.Before == nil {
		t.Error("Expected a deduplication audit")
	}
}

func TestRunShopFilter(t *testing.T) {
	result := NewProcessor(nil).Run(&Request{
		Catalog:       testCatalog(t),
		Orders:        testOrders(t),
		SelectedShops: []string{"Shop B"},
	})

	// Shop B rows are B2 (zero-sum) and D4 (empty-order mark): nothing
	// survives cleaning, so the run yields the empty sentinel.
	if !result.Processed.IsEmpty() {
		t.Errorf("Expected empty result, got %d rows", result.Processed.NumRows())
	}
	if result.Analysis == nil || result.Analysis.Summary != nil {
		t.Error("Expected an empty analysis record")
	}
}

func TestRunEmptyInputs(t *testing.T) {
	tests := []struct {
		name    string
		request *Request
	}{
		{"nil request", nil},
		{"nil orders", &Request{Catalog: testCatalog(t)}},
		{"nil catalog", &Request{Orders: testOrders(t)}},
		{"empty orders", &Request{Catalog: testCatalog(t), Orders: dataset.Empty()}},
		{"empty catalog", &Request{Catalog: dataset.Empty(), Orders: testOrders(t)}},
	}

	processor := NewProcessor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := processor.Run(tt.request)
			if result == nil || result.Processed == nil {
				t.Fatal("Expected the empty sentinel, not nil")
			}
			if !result.Processed.IsEmpty() {
				t.Errorf("Expected empty dataset, got %d rows", result.Processed.NumRows())
			}
			if result.Analysis == nil {
				t.Error("Expected an empty analysis record, not nil")
			}
		})
	}
}

func TestRunZeroAmountLineSurvivesItsOrder(t *testing.T) {
	// An order with lines paying 10 and 0 sums positive, so cleaning keeps
	// both lines. They then share the (order, sku) business key, so the
	// final dedup keeps only the first.
	catalog := buildTable(t, []string{"商家编码", "成本"}, [][]dataset.Value{
		{str("A1"), str("4")},
	})
	orders := buildTable(t, []string{"订单号", "商家编码", "买家实付"}, [][]dataset.Value{
		{str("1"), str("A1"), str("10")},
		{str("1"), str("A1"), str("0")},
	})

	result := NewProcessor(nil).Run(&Request{Catalog: catalog, Orders: orders})

	if result.Analysis.ProcessingInfo.CleanedRows != 2 {
		t.Errorf("CleanedRows = %d, expected both lines to survive the monetary filter",
			result.Analysis.ProcessingInfo.CleanedRows)
	}
	if result.Processed.NumRows() != 1 {
		t.Fatalf("Expected 1 row after business dedup, got %d", result.Processed.NumRows())
	}
	// matched_rows reports the lines that survived the whole run, so the
	// deduped line does not count twice.
	if result.Analysis.ProcessingInfo.MatchedRows != 1 {
		t.Errorf("MatchedRows = %d, expected the final line count",
			result.Analysis.ProcessingInfo.MatchedRows)
	}
	if f, _ := result.Processed.Value(0, costing.ColumnProfit).Float(); f != 6 {
		t.Errorf("profit = %v, expected the first line (revenue 10, cost 4) kept", f)
	}
	if result.Analysis.DeduplicationAudit.After == nil {
		t.Error("Expected an after-dedup audit")
	}
}

func TestRunUnmatchableOrders(t *testing.T) {
	// Catalog keys share nothing with the ledger: the run completes with
	// default costs rather than failing.
	catalog := buildTable(t, []string{"商家编码", "成本"}, [][]dataset.Value{
		{str("ZZZ"), str("4")},
	})
	orders := buildTable(t, []string{"订单号", "商家编码", "买家实付"}, [][]dataset.Value{
		{str("A1"), str("S1"), str("10")},
	})

	result := NewProcessor(nil).Run(&Request{Catalog: catalog, Orders: orders})

	if result.Processed.NumRows() != 1 {
		t.Fatalf("Expected 1 row, got %d", result.Processed.NumRows())
	}
	if got := result.Processed.Value(0, matcher.StatusColumn).Text(); got != string(matcher.StatusFailed) {
		t.Errorf("Expected %s tag, got %q", matcher.StatusFailed, got)
	}
	if f, _ := result.Processed.Value(0, costing.ColumnUnitCost).Float(); f != 0 {
		t.Errorf("unit_cost = %v, expected default 0", f)
	}
	if f, _ := result.Processed.Value(0, costing.ColumnProfit).Float(); f != 10 {
		t.Errorf("profit = %v, expected 10", f)
	}
}

func TestRunNumericSafety(t *testing.T) {
	// Unparseable costs and amounts must never produce NaN in the output.
	catalog := buildTable(t, []string{"商家编码", "成本"}, [][]dataset.Value{
		{str("S1"), str("not a number")},
	})
	orders := buildTable(t, []string{"订单号", "商家编码", "买家实付"}, [][]dataset.Value{
		{str("A1"), str("S1"), str("10")},
	})

	result := NewProcessor(nil).Run(&Request{Catalog: catalog, Orders: orders})

	for _, column := range []string{costing.ColumnUnitCost, costing.ColumnTotalCost, costing.ColumnProfit, costing.ColumnMargin} {
		f, ok := result.Processed.Value(0, column).Float()
		if !ok {
			t.Errorf("Column %s is not numeric", column)
			continue
		}
		if f != f {
			t.Errorf("Column %s is NaN", column)
		}
	}
}

func TestRunIDsUniquePerRun(t *testing.T) {
	processor := NewProcessor(nil)
	first := processor.Run(&Request{Catalog: testCatalog(t), Orders: testOrders(t)})
	second := processor.Run(&Request{Catalog: testCatalog(t), Orders: testOrders(t)})

	if first.Analysis.ProcessingInfo.RunID == second.Analysis.ProcessingInfo.RunID {
		t.Error("Expected distinct run ids")
	}
}
