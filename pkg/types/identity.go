package types

// Identity is the authenticated customer threaded explicitly into every cart
// and pricing call. A nil *Identity means guest mode.
type Identity struct {
	CustomerID string `json:"customer_id"`
}
