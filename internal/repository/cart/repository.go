package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-checkout/internal/domain"
)

// Repository persists whole carts. Every store keeps the cart as one
// structured record shaped like domain.Cart.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
}

func encode(cart *domain.Cart) ([]byte, error) {
	raw, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("encode cart %s: %w", cart.ID, err)
	}
	return raw, nil
}

func decode(raw []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	return &cart, nil
}
