package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	pkgredis "github.com/angelmondragon/orderstock/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Script return codes.
const (
	scriptMissing      = -1
	scriptInsufficient = 0
	scriptReserved     = 1
)

var reserveScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return -1
end
local qty = tonumber(ARGV[1])
if tonumber(current) < qty then
	return 0
end
redis.call('DECRBY', KEYS[1], qty)
return 1
`)

var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
redis.call('INCRBY', KEYS[1], ARGV[1])
return 1
`)

type redisClient interface {
	RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	InventoryKey(productID string) string
}

// RedisStore keeps quantities as integer keys; Lua scripts make the
// check-and-decrement atomic on the server.
type RedisStore struct {
	client redisClient
}

func NewRedisStore(client redisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(productID uuid.UUID) string {
	return s.client.InventoryKey(productID.String())
}

func (s *RedisStore) TryReserve(ctx context.Context, productID uuid.UUID, qty int) (Outcome, error) {
	if err := requirePositive(qty); err != nil {
		return NotFound, err
	}
	code, err := s.run(ctx, reserveScript, productID, qty)
	if err != nil {
		return NotFound, dependencyErr(err, "reserve inventory", productID)
	}
	switch code {
	case scriptReserved:
		return Reserved, nil
	case scriptInsufficient:
		return InsufficientStock, nil
	case scriptMissing:
		return NotFound, nil
	default:
		return NotFound, dependencyErr(fmt.Errorf("unexpected script result %d", code), "reserve inventory", productID)
	}
}

func (s *RedisStore) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	code, err := s.run(ctx, releaseScript, productID, qty)
	if err != nil {
		return dependencyErr(err, "release inventory", productID)
	}
	if code == scriptMissing {
		return productNotFound(productID)
	}
	return nil
}

func (s *RedisStore) SetStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := requireNonNegative(qty); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(productID), qty, 0); err != nil {
		return dependencyErr(err, "set stock", productID)
	}
	return nil
}

func (s *RedisStore) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	raw, err := s.client.Get(ctx, s.key(productID))
	if errors.Is(err, pkgredis.Nil) {
		return 0, productNotFound(productID)
	}
	if err != nil {
		return 0, dependencyErr(err, "read inventory", productID)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dependencyErr(err, "parse inventory", productID)
	}
	return n, nil
}

func (s *RedisStore) run(ctx context.Context, script *redis.Script, productID uuid.UUID, qty int) (int64, error) {
	res, err := s.client.RunScript(ctx, script, []string{s.key(productID)}, qty)
	if err != nil {
		return 0, err
	}
	code, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script reply %T", res)
	}
	return code, nil
}
