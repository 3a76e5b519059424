package product

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/migrate"
)

func TestMemory_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory(domain.Product{Slug: "shirt", Name: "Shirt", Price: 70})

	first, err := repo.GetBySlug(ctx, "shirt")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	updated, err := repo.Upsert(ctx, domain.Product{Slug: "shirt", Name: "Fit Shirt", Price: 80})
	require.NoError(t, err)
	require.Equal(t, first.ID, updated.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Fit Shirt", list[0].Name)

	_, err = repo.GetBySlug(ctx, "missing")
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPostgres_UpsertListAndGet(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE products`); err != nil {
		t.Fatalf("truncate products: %v", err)
	}

	repo := NewPostgres(pool, nil)
	created, err := repo.Upsert(ctx, domain.Product{Slug: "golf-pants", Name: "Golf Pants", Brand: "Oliver", Price: 90.5})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	again, err := repo.Upsert(ctx, domain.Product{Slug: "golf-pants", Name: "Golf Pants", Brand: "Oliver", Price: 95})
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected stable id, got %s and %s", created.ID, again.ID)
	}

	got, err := repo.GetBySlug(ctx, "golf-pants")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.Price != 95 || got.Brand != "Oliver" {
		t.Fatalf("unexpected product %+v", got)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 product, got %d", len(list))
	}
}
