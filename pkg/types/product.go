package types

import "github.com/shopspring/decimal"

// ProductSummary is the slice of a catalog listing record the price resolver
// needs. The price fields arrive as raw strings from the commerce API and may
// be empty or non-numeric.
type ProductSummary struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	FinalPrice  string `json:"final_price"`
	HasVariants bool   `json:"has_variants"`
}

// VariantOption is a concrete choice within a variant group.
type VariantOption struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// VariantGroup is one selectable product axis, e.g. size or shade.
type VariantGroup struct {
	Name    string          `json:"variant_name" validate:"required"`
	Options []VariantOption `json:"options" validate:"min=1,dive"`
}

// VariantPriceInfo is the displayable price resolved for a product.
// HasVariants=true tells the UI the number shown is a representative price,
// not the price of a chosen variant.
type VariantPriceInfo struct {
	Price            decimal.Decimal  `json:"price"`
	SalePrice        *decimal.Decimal `json:"sale_price,omitempty"`
	HasVariants      bool             `json:"has_variants"`
	Stock            int              `json:"stock,omitempty"`
	StockOrderStatus string           `json:"stock_order_status,omitempty"`
}
