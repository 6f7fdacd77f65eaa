package cleaner

import (
	"testing"

	"order-costing-service/internal/dataset"
)

// orderColumns is the canonical ledger layout used by the tests.
var orderColumns = []string{"订单号", "商家编码", "买家实付", "订单状态", "订单标记", "店铺"}

func orderRow(id, sku string, amount dataset.Value, status, mark, shop string) []dataset.Value {
	cell := func(s string) dataset.Value {
		if s == "" {
			return dataset.Null()
		}
		return dataset.String(s)
	}
	return []dataset.Value{cell(id), cell(sku), amount, cell(status), cell(mark), cell(shop)}
}

func buildOrders(t *testing.T, rows [][]dataset.Value) *dataset.Dataset {
	t.Helper()
	df, err := dataset.New(orderColumns)
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

func TestCleanRemovesExactDuplicates(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("10"), "已完成", "", "Shop A"),
		orderRow("A1", "S1", dataset.String("10"), "已完成", "", "Shop A"),
		orderRow("A2", "S2", dataset.String("20"), "已完成", "", "Shop A"),
	})

	cleaned, stats := New(nil).Clean(orders, nil)

	if stats.DuplicateRowsRemoved != 1 {
		t.Errorf("Expected 1 duplicate removed, got %d", stats.DuplicateRowsRemoved)
	}
	if cleaned.NumRows() != 2 {
		t.Errorf("Expected 2 rows, got %d", cleaned.NumRows())
	}
}

func TestCleanStatusExclusions(t *testing.T) {
	tests := []struct {
		name   string
		status string
		kept   bool
	}{
		{"completed kept", "已完成", true},
		{"closed removed", "关闭", false},
		{"closed english removed", "Closed", false},
		{"closed with padding removed", "  关闭  ", false},
		{"refund substring removed", "退款中", false},
		{"partial refund removed", "部分退款", false},
		{"refund english removed", "Refund pending", false},
		{"offline removed", "[线下订单]", false},
		{"offline english removed", "[Offline Order]", false},
		// Closed markers are exact matches, not substrings.
		{"closing note kept", "关闭前已发货", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := buildOrders(t, [][]dataset.Value{
				orderRow("A1", "S1", dataset.String("10"), tt.status, "", "Shop A"),
			})
			cleaned, _ := New(nil).Clean(orders, nil)

			kept := cleaned.NumRows() == 1
			if kept != tt.kept {
				t.Errorf("Status %q: kept=%v, expected %v", tt.status, kept, tt.kept)
			}
		})
	}
}

func TestCleanNullStatusKept(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("10"), "", "", "Shop A"),
	})
	cleaned, _ := New(nil).Clean(orders, nil)
	if cleaned.NumRows() != 1 {
		t.Error("Row with null status must be kept")
	}
}

func TestCleanEmptyOrderMark(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("10"), "已完成", "空单", "Shop A"),
		orderRow("A2", "S2", dataset.String("20"), "已完成", "补发", "Shop A"),
	})

	cleaned, _ := New(nil).Clean(orders, nil)
	if cleaned.NumRows() != 1 {
		t.Fatalf("Expected 1 row, got %d", cleaned.NumRows())
	}
	if got := cleaned.Value(0, "订单号").Text(); got != "A2" {
		t.Errorf("Expected A2 kept, got %q", got)
	}
}

func TestCleanOrderLevelMonetaryFilter(t *testing.T) {
	// Order A1 sums to 25: both rows survive, including the 0-amount row.
	// Order B2 sums to 0: removed. Order C3 has offsetting rows summing to
	// 5: both survive.
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("25"), "已完成", "", "Shop A"),
		orderRow("A1", "S2", dataset.String("0"), "已完成", "", "Shop A"),
		orderRow("B2", "S3", dataset.String("0"), "已完成", "", "Shop A"),
		orderRow("C3", "S1", dataset.String("-10"), "已完成", "", "Shop A"),
		orderRow("C3", "S2", dataset.String("15"), "已完成", "", "Shop A"),
	})

	cleaned, stats := New(nil).Clean(orders, nil)

	if cleaned.NumRows() != 4 {
		t.Fatalf("Expected 4 rows, got %d", cleaned.NumRows())
	}
	for row := 0; row < cleaned.NumRows(); row++ {
		if id := cleaned.Value(row, "订单号").Text(); id == "B2" {
			t.Error("Zero-sum order B2 must be removed entirely")
		}
	}
	if stats.CleanedOrders != 2 {
		t.Errorf("Expected 2 cleaned orders, got %d", stats.CleanedOrders)
	}
}

func TestCleanRowLevelFallbackWithoutOrderID(t *testing.T) {
	columns := []string{"商家编码", "买家实付"}
	df, _ := dataset.New(columns)
	df.AppendRow([]dataset.Value{dataset.String("S1"), dataset.String("10")})
	df.AppendRow([]dataset.Value{dataset.String("S2"), dataset.String("0")})
	df.AppendRow([]dataset.Value{dataset.String("S3"), dataset.String("-5")})

	cleaned, stats := New(nil).Clean(df, nil)

	if cleaned.NumRows() != 1 {
		t.Fatalf("Expected row-level filter to keep 1 row, got %d", cleaned.NumRows())
	}
	if got := cleaned.Value(0, "商家编码").Text(); got != "S1" {
		t.Errorf("Expected S1 kept, got %q", got)
	}
	if stats.CleanedOrders != 0 {
		t.Errorf("Expected no order count without an identifier column, got %d", stats.CleanedOrders)
	}
}

func TestCleanNullOrderIDUsesRowLevelAmount(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("", "S1", dataset.String("10"), "已完成", "", "Shop A"),
		orderRow("", "S2", dataset.String("0"), "已完成", "", "Shop A"),
	})

	cleaned, _ := New(nil).Clean(orders, nil)
	if cleaned.NumRows() != 1 {
		t.Fatalf("Expected 1 row, got %d", cleaned.NumRows())
	}
	if got := cleaned.Value(0, "商家编码").Text(); got != "S1" {
		t.Errorf("Expected the positive-amount row kept, got %q", got)
	}
}

func TestCleanCoercesUnparseableAmounts(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("abc"), "已完成", "", "Shop A"),
		orderRow("A1", "S2", dataset.String("¥15"), "已完成", "", "Shop A"),
	})

	cleaned, _ := New(nil).Clean(orders, nil)

	// Order sum is 0+15 > 0, so both rows survive with numeric amounts.
	if cleaned.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", cleaned.NumRows())
	}
	if f, ok := cleaned.Value(0, "买家实付").Float(); !ok || f != DefaultAmount {
		t.Errorf("Expected unparseable amount coerced to %v, got %v (ok=%v)", DefaultAmount, f, ok)
	}
	if f, _ := cleaned.Value(1, "买家实付").Float(); f != 15 {
		t.Errorf("Expected currency symbol stripped, got %v", f)
	}
}

func TestCleanShopFilter(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("10"), "已完成", "", "Shop A"),
		orderRow("B2", "S2", dataset.String("20"), "已完成", "", "Shop B"),
		orderRow("C3", "S3", dataset.String("30"), "已完成", "", "Shop C"),
	})

	cleaned, _ := New(nil).Clean(orders, []string{"Shop A", "Shop C"})

	if cleaned.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", cleaned.NumRows())
	}
	for row := 0; row < cleaned.NumRows(); row++ {
		if shop := cleaned.Value(row, "店铺").Text(); shop == "Shop B" {
			t.Error("Shop B must be filtered out")
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	orders := buildOrders(t, [][]dataset.Value{
		orderRow("A1", "S1", dataset.String("10"), "已完成", "", "Shop A"),
		orderRow("A1", "S1", dataset.String("10"), "已完成", "", "Shop A"),
		orderRow("B2", "S2", dataset.String("0"), "已完成", "", "Shop B"),
		orderRow("C3", "S3", dataset.String("20"), "关闭", "", "Shop A"),
	})

	c := New(nil)
	once, _ := c.Clean(orders, nil)
	twice, _ := c.Clean(once, nil)

	if once.NumRows() != twice.NumRows() {
		t.Errorf("Cleaning is not idempotent: %d then %d rows", once.NumRows(), twice.NumRows())
	}
}

func TestCleanEmptyInput(t *testing.T) {
	df, _ := dataset.New(orderColumns)
	cleaned, stats := New(nil).Clean(df, nil)
	if !cleaned.IsEmpty() {
		t.Error("Expected empty output for empty input")
	}
	if stats.OriginalRows != 0 || stats.CleanedRows != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}
