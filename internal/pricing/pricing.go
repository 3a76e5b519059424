// Package pricing derives order totals from cart contents.
//
// All arithmetic is done in float64 and rounded with Round2 so that totals
// match, to the cent, what the storefront shows the customer.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
)

const (
	// FreeShippingThreshold: orders whose items price is strictly above it ship free.
	FreeShippingThreshold = 200.0
	// FlatShippingPrice applies at or below the threshold.
	FlatShippingPrice = 15.0
	// TaxRate is applied to the rounded items price.
	TaxRate = 0.15
)

// epsilon is the gap between 1 and the next representable float64.
var epsilon = math.Nextafter(1, 2) - 1

// Round2 rounds to two fractional digits, half up, after nudging the scaled
// value by epsilon: Round2(123.4567) == 123.46.
//
// The explicit float64 conversions round every product before the addition
// so the compiler cannot fuse them into one FMA instruction.
func Round2(v float64) float64 {
	return roundHalfUp(float64(v*100)+epsilon) / 100
}

// roundHalfUp returns the nearest integer, resolving ties toward +Inf.
func roundHalfUp(v float64) float64 {
	r := math.Floor(v)
	if v-r >= 0.5 {
		r++
	}
	return r
}

// ItemsPrice sums quantity × unit price in cart order and rounds the result.
func ItemsPrice(items []domain.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += float64(float64(item.Quantity) * item.Price)
	}
	return Round2(sum)
}

func ShippingPrice(itemsPrice float64) float64 {
	if itemsPrice > FreeShippingThreshold {
		return 0
	}
	return FlatShippingPrice
}

func TaxPrice(itemsPrice float64) float64 {
	return Round2(float64(itemsPrice * TaxRate))
}

// Compute returns the totals for items. An empty slice is priced like any
// other cart; callers decide whether to show a summary for it.
func Compute(items []domain.LineItem) (domain.OrderTotals, error) {
	if err := domain.ValidateItems(items); err != nil {
		return domain.OrderTotals{}, err
	}
	itemsPrice := ItemsPrice(items)
	shipping := ShippingPrice(itemsPrice)
	tax := TaxPrice(itemsPrice)
	return domain.OrderTotals{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    Round2(itemsPrice + shipping + tax),
	}, nil
}

// ForCart is Compute over the cart's items.
func ForCart(c *domain.Cart) (domain.OrderTotals, error) {
	if c == nil {
		return Compute(nil)
	}
	return Compute(c.Items)
}

// Decimal converts an already rounded amount for NUMERIC storage and display.
func Decimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Float converts a stored amount back to the float64 used on the wire.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// LineSubtotal is quantity × price for one row of the summary table.
func LineSubtotal(item domain.LineItem) float64 {
	return float64(item.Quantity) * item.Price
}
