package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-checkout/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	const q = `
SELECT state
FROM carts
WHERE id = $1
`
	var raw []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decode(raw)
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	raw, err := encode(cart)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO carts (id, owner_id, session_id, state, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET owner_id = EXCLUDED.owner_id,
    session_id = EXCLUDED.session_id,
    state = EXCLUDED.state,
    updated_at = EXCLUDED.updated_at
`
	_, err = r.pool.Exec(ctx, q, cart.ID, cart.OwnerID, cart.SessionID, raw, cart.CreatedAt, cart.UpdatedAt)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
