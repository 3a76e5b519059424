package domain

import "time"

// OrderTotals is derived from the cart on every read and never stored on it.
type OrderTotals struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// OrderRequest is the payload sent to the order boundary.
type OrderRequest struct {
	OrderItems      []LineItem `json:"orderItems"`
	ShippingAddress *Address   `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	OrderTotals
}

// Order is owned by the order service; checkout only keeps its id.
type Order struct {
	ID              string     `json:"_id"`
	UserID          string     `json:"user,omitempty"`
	OrderItems      []LineItem `json:"orderItems"`
	ShippingAddress Address    `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	OrderTotals
	IsPaid      bool      `json:"isPaid"`
	IsDelivered bool      `json:"isDelivered"`
	CreatedAt   time.Time `json:"createdAt"`
}
