package product

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-checkout/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

func NewPostgres(pool *pgxpool.Pool, logger *logrus.Entry) Repository {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = logrus.NewEntry(discard)
	}
	return &postgresRepo{pool: pool, logger: logger.WithField("repo", "product")}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Image, &price, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d.InexactFloat64()
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT id, slug, name, COALESCE(brand, ''), COALESCE(image, ''), price::text, created_at
FROM products
ORDER BY created_at DESC, slug
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.WithError(err).Error("list products")
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.WithError(err).Error("list products rows")
		return nil, err
	}
	r.logger.WithField("count", len(result)).Debug("listed products")
	return result, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	const q = `
SELECT id, slug, name, COALESCE(brand, ''), COALESCE(image, ''), price::text, created_at
FROM products
WHERE slug = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithField("slug", slug).Debug("product not found")
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("slug", slug).Error("get product")
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, slug, name, brand, image, price)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6::numeric)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    brand = EXCLUDED.brand,
    image = EXCLUDED.image,
    price = EXCLUDED.price
RETURNING id, created_at
`
	id := product.ID
	if id == "" {
		id = uuid.NewString()
	}
	price := decimal.NewFromFloat(product.Price).Round(2).StringFixed(2)
	res := product
	if err := r.pool.QueryRow(ctx, q, id, product.Slug, product.Name, product.Brand, product.Image, price).Scan(&res.ID, &res.CreatedAt); err != nil {
		r.logger.WithError(err).WithField("slug", product.Slug).Error("upsert product")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"slug": res.Slug, "id": res.ID}).Debug("upserted product")
	return &res, nil
}
