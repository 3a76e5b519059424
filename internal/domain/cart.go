package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Cart is the client-held checkout record: selected items, where to ship
// them and how the customer intends to pay.
type Cart struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId,omitempty"`
	SessionID       string     `json:"sessionId"`
	Items           []LineItem `json:"cartItems"`
	ShippingAddress *Address   `json:"shippingAddress,omitempty"`
	PaymentMethod   string     `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// LineItem is a product snapshot taken when it was added to the cart.
type LineItem struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Image    string  `json:"image,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Address struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Complete reports whether every address field is filled in. Guards treat a
// partial address the same as a missing one.
func (a *Address) Complete() bool {
	if a == nil {
		return false
	}
	for _, v := range []string{a.FullName, a.Address, a.City, a.PostalCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func (c *Cart) HasPaymentMethod() bool {
	return c != nil && strings.TrimSpace(c.PaymentMethod) != ""
}

func (c *Cart) HasShippingAddress() bool {
	return c != nil && c.ShippingAddress.Complete()
}

// Clone returns a deep copy so callers can hold a snapshot while the store
// keeps mutating its own value.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]LineItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.ShippingAddress != nil {
		addr := *c.ShippingAddress
		out.ShippingAddress = &addr
	}
	return &out
}

// ValidateItems checks the line item invariants: unique ids, quantity of at
// least one and a non-negative price.
func ValidateItems(items []LineItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate line item %q", ErrInvalidCart, item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line item %q has quantity %d", ErrInvalidCart, item.ID, item.Quantity)
		}
		if item.Price < 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
			return fmt.Errorf("%w: line item %q has invalid price", ErrInvalidCart, item.ID)
		}
	}
	return nil
}
