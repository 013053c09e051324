package types

import "github.com/shopspring/decimal"

// CartLineItem is one row of the cart. ID is the product identifier and is
// unique within a cart; Quantity is always >= 1 while the row exists, removal
// is expressed by dropping the row.
type CartLineItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Image        string          `json:"image"`
	Quantity     int             `json:"quantity"`
	VariantLabel string          `json:"variant_label,omitempty"`
	VariantID    string          `json:"variant_id,omitempty"`
}

// LineTotal returns unit price multiplied by quantity.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CouponInfo describes an applied (or rejected) coupon. Applied=false implies
// a zero discount.
type CouponInfo struct {
	Code           string          `json:"code"`
	DiscountType   string          `json:"discount_type"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Applied        bool            `json:"applied"`
}

// RemoteCartSnapshot is the authoritative cart representation returned by the
// commerce API once a customer is signed in.
type RemoteCartSnapshot struct {
	Items         []CartLineItem  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Coupon        *CouponInfo     `json:"coupon,omitempty"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	TotalQuantity int             `json:"total_quantity"`
}

// CartState is the single source of truth consumed by the UI. Total is
// derived: the snapshot's final price when a snapshot exists, otherwise the
// sum of line totals.
type CartState struct {
	Items    []CartLineItem      `json:"items"`
	Total    decimal.Decimal     `json:"total"`
	IsOpen   bool                `json:"is_open"`
	Loading  bool                `json:"loading"`
	Error    string              `json:"error,omitempty"`
	Snapshot *RemoteCartSnapshot `json:"remote_snapshot,omitempty"`
}
