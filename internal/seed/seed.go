package seed

import (
	"context"
	"fmt"

	"storefront-checkout/internal/domain"
)

type productUpserter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Products is the demo catalog used for local runs.
var Products = []domain.Product{
	{Slug: "free-shirt", Name: "Free Shirt", Brand: "Nike", Image: "/images/shirt1.jpg", Price: 70},
	{Slug: "fit-shirt", Name: "Fit Shirt", Brand: "Adidas", Image: "/images/shirt2.jpg", Price: 80},
	{Slug: "slim-shirt", Name: "Slim Shirt", Brand: "Raymond", Image: "/images/shirt3.jpg", Price: 90},
	{Slug: "golf-pants", Name: "Golf Pants", Brand: "Oliver", Image: "/images/pants1.jpg", Price: 90},
	{Slug: "fit-pants", Name: "Fit Pants", Brand: "Zara", Image: "/images/pants2.jpg", Price: 95},
	{Slug: "classic-pants", Name: "Classic Pants", Brand: "Casely", Image: "/images/pants3.jpg", Price: 75},
	{Slug: "travel-mug", Name: "Travel Mug", Brand: "Casely", Image: "/images/mug1.jpg", Price: 19.99},
}

// Apply upserts the demo catalog. It is idempotent: products are keyed by slug.
func Apply(ctx context.Context, repo productUpserter) error {
	for _, p := range Products {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}
	return nil
}
