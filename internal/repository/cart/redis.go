package cart

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"storefront-checkout/internal/domain"
)

const redisKeyPrefix = "checkout:cart:"

type redisRepo struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

// NewRedis stores each cart under its own key. A positive ttl is refreshed on
// every save so abandoned carts expire.
func NewRedis(rdb goredis.UniversalClient, ttl time.Duration) Repository {
	return &redisRepo{rdb: rdb, ttl: ttl}
}

func (r *redisRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decode(raw)
}

func (r *redisRepo) Save(ctx context.Context, cart *domain.Cart) error {
	raw, err := encode(cart)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisKeyPrefix+cart.ID, raw, r.ttl).Err()
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
