package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressComplete(t *testing.T) {
	full := &Address{FullName: "Ann", Address: "1 Main", City: "Oslo", PostalCode: "0150", Country: "NO"}
	assert.True(t, full.Complete())

	var missing *Address
	assert.False(t, missing.Complete())

	partial := *full
	partial.PostalCode = "  "
	assert.False(t, partial.Complete())
}

func TestCartPredicates(t *testing.T) {
	var nilCart *Cart
	assert.False(t, nilCart.HasPaymentMethod())
	assert.False(t, nilCart.HasShippingAddress())

	c := &Cart{PaymentMethod: " PayPal "}
	assert.True(t, c.HasPaymentMethod())
	assert.False(t, c.HasShippingAddress())
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Cart{
		ID:              "c1",
		Items:           []LineItem{{ID: "p1", Price: 10, Quantity: 1}},
		ShippingAddress: &Address{City: "Oslo"},
	}
	cp := orig.Clone()
	cp.Items[0].Quantity = 5
	cp.ShippingAddress.City = "Bergen"

	assert.Equal(t, 1, orig.Items[0].Quantity)
	assert.Equal(t, "Oslo", orig.ShippingAddress.City)
	assert.Nil(t, (*Cart)(nil).Clone())
}

func TestValidateItems(t *testing.T) {
	require.NoError(t, ValidateItems(nil))
	require.NoError(t, ValidateItems([]LineItem{{ID: "a", Price: 0, Quantity: 1}}))

	bad := [][]LineItem{
		{{ID: "a", Price: 1, Quantity: 0}},
		{{ID: "a", Price: -0.01, Quantity: 1}},
		{{ID: "a", Price: math.NaN(), Quantity: 1}},
		{{ID: "a", Price: math.Inf(1), Quantity: 1}},
		{{ID: "a", Price: 1, Quantity: 1}, {ID: "a", Price: 2, Quantity: 1}},
	}
	for _, items := range bad {
		err := ValidateItems(items)
		assert.True(t, errors.Is(err, ErrInvalidCart), "%+v", items)
	}
}

func TestSessionAuthenticated(t *testing.T) {
	assert.False(t, Session{}.Authenticated())
	assert.True(t, Session{UserID: "u1"}.Authenticated())
}
