// Package classify infers the semantic roles of dataset columns from their
// names.
//
// Inbound spreadsheets carry no guaranteed schema: column names vary by
// export and by marketplace, and many are Chinese. Roles are therefore
// discovered by keyword containment over lower-cased column names. A column
// may match several roles; every matching column is retained, in source
// order, so downstream stages can choose among candidates.
//
// Classification is a pure function of the column names and the keyword
// tables. It never inspects cell values and never mutates a dataset.
package classify

import (
	"fmt"
	"strings"
)

// Role is a semantic column role recognized by the pipeline.
type Role string

const (
	// RoleOrderID marks order identifier columns.
	RoleOrderID Role = "order_id"
	// RoleSKU marks merchant-code / SKU identifier columns.
	RoleSKU Role = "sku"
	// RoleAmount marks buyer-paid amount columns.
	RoleAmount Role = "amount"
	// RoleStatus marks order status columns.
	RoleStatus Role = "status"
	// RoleMark marks order annotation columns.
	RoleMark Role = "mark"
	// RoleShop marks shop / store name columns.
	RoleShop Role = "shop"
	// RoleQuantity marks piece count columns.
	RoleQuantity Role = "quantity"
	// RoleCost marks unit cost columns on the catalog side.
	RoleCost Role = "cost"
	// RoleSpec marks specification / model columns.
	RoleSpec Role = "spec"
)

// KeywordConfig holds the keyword table driving classification. The tables
// are configuration, not literals: callers may replace or extend them per
// deployment.
type KeywordConfig struct {
	Keywords map[Role][]string
}

// DefaultKeywordConfig returns keyword tables covering the column names seen
// in real marketplace exports, in both Chinese and English.
func DefaultKeywordConfig() *KeywordConfig {
	return &KeywordConfig{
		Keywords: map[Role][]string{
			RoleOrderID:  {"订单号", "订单编号", "order"},
			RoleSKU:      {"商家编码", "商品编码", "sku", "编号", "货号", "code", "merchant", "article"},
			RoleAmount:   {"买家实付", "实付", "付款", "应付", "支付", "金额", "收款", "成交价", "paid", "payment", "amount", "price"},
			RoleStatus:   {"状态", "status"},
			RoleMark:     {"订单标记", "标记", "mark"},
			RoleShop:     {"店铺", "shop", "store"},
			RoleQuantity: {"数量", "件数", "qty", "num", "quantity", "pieces"},
			RoleCost:     {"成本", "进货", "采购", "cost", "purchase", "procurement"},
			RoleSpec:     {"规格", "型号", "spec", "model"},
		},
	}
}

// Validate checks the keyword tables for empty entries.
func (c *KeywordConfig) Validate() error {
	if len(c.Keywords) == 0 {
		return fmt.Errorf("keyword config has no roles")
	}
	for role, keywords := range c.Keywords {
		if len(keywords) == 0 {
			return fmt.Errorf("role %s has no keywords", role)
		}
		for _, kw := range keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("role %s has an empty keyword", role)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the keyword tables.
func (c *KeywordConfig) Clone() *KeywordConfig {
	out := &KeywordConfig{Keywords: make(map[Role][]string, len(c.Keywords))}
	for role, keywords := range c.Keywords {
		out.Keywords[role] = append([]string(nil), keywords...)
	}
	return out
}

// Candidates maps each role to its matching columns in source order.
type Candidates map[Role][]string

// First returns the first candidate column for a role, if any.
func (c Candidates) First(role Role) (string, bool) {
	if cols := c[role]; len(cols) > 0 {
		return cols[0], true
	}
	return "", false
}

// All returns every candidate column for a role in source order.
func (c Candidates) All(role Role) []string {
	return append([]string(nil), c[role]...)
}

// Classify assigns roles to the given column names. A column matches a role
// when its lower-cased name contains any of the role's keywords; a column may
// match several roles.
func Classify(columns []string, config *KeywordConfig) Candidates {
	if config == nil {
		config = DefaultKeywordConfig()
	}

	result := make(Candidates, len(config.Keywords))
	for _, column := range columns {
		lower := strings.ToLower(column)
		for role, keywords := range config.Keywords {
			for _, kw := range keywords {
				if strings.Contains(lower, strings.ToLower(kw)) {
					result[role] = append(result[role], column)
					break
				}
			}
		}
	}
	return result
}
