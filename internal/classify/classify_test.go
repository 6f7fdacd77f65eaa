package classify

import (
	"reflect"
	"testing"
)

func TestClassifyChineseColumns(t *testing.T) {
	columns := []string{"订单号", "商家编码", "买家实付", "订单状态", "订单标记", "店铺", "数量", "成本", "规格"}
	roles := Classify(columns, nil)

	expected := map[Role]string{
		RoleOrderID:  "订单号",
		RoleSKU:      "商家编码",
		RoleAmount:   "买家实付",
		RoleStatus:   "订单状态",
		RoleMark:     "订单标记",
		RoleShop:     "店铺",
		RoleQuantity: "数量",
		RoleCost:     "成本",
		RoleSpec:     "规格",
	}
	for role, column := range expected {
		got, ok := roles.First(role)
		if !ok {
			t.Errorf("Role %s not detected", role)
			continue
		}
		if got != column {
			t.Errorf("Role %s = %q, expected %q", role, got, column)
		}
	}
}

func TestClassifyEnglishColumnsCaseInsensitive(t *testing.T) {
	columns := []string{"Order Number", "SKU Code", "Amount Paid", "Status", "Shop Name"}
	roles := Classify(columns, nil)

	if got, _ := roles.First(RoleOrderID); got != "Order Number" {
		t.Errorf("RoleOrderID = %q", got)
	}
	if got, _ := roles.First(RoleSKU); got != "SKU Code" {
		t.Errorf("RoleSKU = %q", got)
	}
	if got, _ := roles.First(RoleAmount); got != "Amount Paid" {
		t.Errorf("RoleAmount = %q", got)
	}
	if got, _ := roles.First(RoleShop); got != "Shop Name" {
		t.Errorf("RoleShop = %q", got)
	}
}

func TestClassifyPreservesSourceOrder(t *testing.T) {
	columns := []string{"商品编码", "sku_id", "商家编码"}
	roles := Classify(columns, nil)

	got := roles.All(RoleSKU)
	if !reflect.DeepEqual(got, columns) {
		t.Errorf("Expected candidates in source order %v, got %v", columns, got)
	}
	if first, _ := roles.First(RoleSKU); first != "商品编码" {
		t.Errorf("First() = %q, expected leftmost column", first)
	}
}

func TestClassifyColumnMayMatchSeveralRoles(t *testing.T) {
	// "订单编号" contains both an order-id keyword and the SKU keyword "编号".
	roles := Classify([]string{"订单编号"}, nil)

	if _, ok := roles.First(RoleOrderID); !ok {
		t.Error("Expected order-id role")
	}
	if _, ok := roles.First(RoleSKU); !ok {
		t.Error("Expected SKU role on the same column")
	}
}

func TestClassifyUnknownColumns(t *testing.T) {
	roles := Classify([]string{"備考", "random", "xyz"}, nil)
	for _, role := range []Role{RoleOrderID, RoleSKU, RoleAmount, RoleStatus, RoleShop} {
		if cols := roles.All(role); len(cols) != 0 {
			t.Errorf("Role %s unexpectedly matched %v", role, cols)
		}
	}
	if _, ok := roles.First(RoleSKU); ok {
		t.Error("First() must report absence for unmatched roles")
	}
}

func TestClassifyCustomKeywords(t *testing.T) {
	config := &KeywordConfig{Keywords: map[Role][]string{
		RoleSKU: {"artikel"},
	}}
	roles := Classify([]string{"Artikelnummer", "sku"}, config)

	got := roles.All(RoleSKU)
	if len(got) != 1 || got[0] != "Artikelnummer" {
		t.Errorf("Custom keywords not honored, got %v", got)
	}
}

func TestKeywordConfigValidate(t *testing.T) {
	if err := DefaultKeywordConfig().Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}

	empty := &KeywordConfig{Keywords: map[Role][]string{}}
	if err := empty.Validate(); err == nil {
		t.Error("Expected error for empty config")
	}

	noKeywords := &KeywordConfig{Keywords: map[Role][]string{RoleSKU: {}}}
	if err := noKeywords.Validate(); err == nil {
		t.Error("Expected error for role without keywords")
	}

	blank := &KeywordConfig{Keywords: map[Role][]string{RoleSKU: {"  "}}}
	if err := blank.Validate(); err == nil {
		t.Error("Expected error for blank keyword")
	}
}

func TestKeywordConfigClone(t *testing.T) {
	original := DefaultKeywordConfig()
	clone := original.Clone()

	clone.Keywords[RoleSKU][0] = "mutated"
	if original.Keywords[RoleSKU][0] == "mutated" {
		t.Error("Clone shares keyword storage with the original")
	}
}
