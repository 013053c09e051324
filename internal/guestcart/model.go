package guestcart

import "time"

// schemaVersion tags every persisted row so a future field change can be told
// apart from corruption. Rows carrying an unknown version are discarded on
// read, same as corrupt ones.
const schemaVersion = 1

// Record is the persisted form of one guest cart line.
type Record struct {
	ProductID     string `gorm:"primaryKey;column:product_id"`
	Name          string
	UnitPrice     string
	Image         string
	Quantity      int
	VariantLabel  string
	VariantID     string
	Position      int
	SchemaVersion int
	UpdatedAt     time.Time
}

func (Record) TableName() string {
	return "guest_cart_items"
}
