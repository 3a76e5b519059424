package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const selectOrder = `
SELECT id, user_id, order_items, shipping_address, payment_method,
       items_price::text, shipping_price::text, tax_price::text, total_price::text,
       is_paid, is_delivered, created_at
FROM orders
`

func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func (r *postgresRepo) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.OrderItems)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	const q = `
INSERT INTO orders (id, user_id, order_items, shipping_address, payment_method,
                    items_price, shipping_price, tax_price, total_price, is_paid, is_delivered, created_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12)
`
	_, err = r.pool.Exec(ctx, q,
		order.ID,
		order.UserID,
		items,
		address,
		order.PaymentMethod,
		money(order.ItemsPrice),
		money(order.ShippingPrice),
		money(order.TaxPrice),
		money(order.TotalPrice),
		order.IsPaid,
		order.IsDelivered,
		order.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	q := selectOrder + `WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (domain.Order, error) {
	var (
		order                            domain.Order
		items, address                   []byte
		itemsPrice, shipping, tax, total string
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&items,
		&address,
		&order.PaymentMethod,
		&itemsPrice,
		&shipping,
		&tax,
		&total,
		&order.IsPaid,
		&order.IsDelivered,
		&order.CreatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(items, &order.OrderItems); err != nil {
		return domain.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	amounts := []struct {
		raw string
		dst *float64
	}{
		{itemsPrice, &order.ItemsPrice},
		{shipping, &order.ShippingPrice},
		{tax, &order.TaxPrice},
		{total, &order.TotalPrice},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.raw)
		if err != nil {
			return domain.Order{}, fmt.Errorf("parse amount %q: %w", a.raw, err)
		}
		*a.dst = d.InexactFloat64()
	}
	return order, nil
}
