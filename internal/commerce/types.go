package commerce

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// statusOK is the success flag used by every commerce endpoint; any other
// value is a business failure carrying the envelope message.
const statusOK = 1

// envelope is the outer shape shared by all commerce responses.
type envelope struct {
	Status  FlexInt         `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FlexInt decodes an integer that the API sometimes serializes as a string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*f = FlexInt(parsed)
		return nil
	}
	var parsed int
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*f = FlexInt(parsed)
	return nil
}

// FlexString decodes a field that arrives either as a JSON string or a number,
// which is how the API serializes identifiers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = FlexString(raw)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = FlexString(num.String())
	return nil
}

// AddToCartResult is the payload of a successful add call.
type AddToCartResult struct {
	Count int `json:"count"`
}

// RawCartLine is one line item exactly as the cart endpoints return it: price
// as a string, image as a relative-or-absolute path, variant name free text.
type RawCartLine struct {
	ProductID   FlexString `json:"product_id"`
	Name        string     `json:"name"`
	Price       string     `json:"price"`
	Image       string     `json:"image"`
	Qty         int        `json:"qty"`
	VariantName string     `json:"variant_name"`
	VariantID   FlexString `json:"variant_id"`
}

// RawCoupon mirrors the coupon block of a cart payload.
type RawCoupon struct {
	CouponCode     string `json:"coupon_code"`
	DiscountType   string `json:"discount_type"`
	DiscountAmount string `json:"discount_amount"`
	FinalAmount    string `json:"final_amount"`
	IsApplied      bool   `json:"is_applied"`
}

// RawCart is the RemoteCartSnapshot-shaped JSON returned by getCart and
// applyCoupon before normalization.
type RawCart struct {
	ProductList      []RawCartLine `json:"product_list"`
	SubTotal         string        `json:"sub_total"`
	CouponInfo       *RawCoupon    `json:"coupon_info"`
	TaxAmount        string        `json:"tax_amount"`
	FinalPrice       string        `json:"final_price"`
	CartTotalProduct int           `json:"cart_total_product"`
	TotalQuantity    int           `json:"total_quantity"`
}

// RawVariantPrice is the variant-price endpoint payload.
type RawVariantPrice struct {
	Price            string `json:"price"`
	SalePrice        string `json:"sale_price"`
	ProductStock     int    `json:"product_stock"`
	StockOrderStatus string `json:"stock_order_status"`
}

// RawProductDetail carries the price fields a product-detail lookup exposes.
// The catalog duplicates the price under several names depending on the
// product type, hence the alternates.
type RawProductDetail struct {
	ProductID     FlexString `json:"product_id"`
	Name          string     `json:"name"`
	Price         string     `json:"price"`
	SalePrice     string     `json:"sale_price"`
	OriginalPrice string     `json:"original_price"`
	ProductPrice  string     `json:"product_price"`
}

// Direction is the directional quantity mutation the cart update endpoint
// expects instead of an absolute value.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)
