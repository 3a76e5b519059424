package order

import (
	"context"

	"storefront-checkout/internal/domain"
)

type Repository interface {
	// Create stores a new order. The caller assigns ID and CreatedAt.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUser returns the user's orders, newest first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
}
