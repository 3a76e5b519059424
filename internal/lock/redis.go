// Package lock provides a submission lock shared by every replica of the
// service.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "checkout:submit:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	logger *log.Entry
}

// NewRedis returns a lock whose keys expire after ttl, so a replica that
// dies mid-submission cannot block the cart forever.
func NewRedis(rdb goredis.UniversalClient, ttl time.Duration, logger *log.Entry) *Redis {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Redis{rdb: rdb, ttl: ttl, logger: logger.WithField("component", "submit_lock")}
}

// TryLock takes the lock for key without waiting. ok is false when another
// holder has it.
func (l *Redis) TryLock(ctx context.Context, key string) (func(), bool, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire submit lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
			l.logger.WithError(err).WithField("cart_id", key).Warn("release submit lock")
		}
	}
	return unlock, true, nil
}
