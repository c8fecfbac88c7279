package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache stores every user's entries in one hash so invalidation is a
// DEL plus an INCR of the generation key. Redis failures are logged and
// treated as cache misses.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func ownerHash(userID uuid.UUID) string {
	return "filecollab:owner:" + userID.String()
}

func grantHash(grantee uuid.UUID) string {
	return "filecollab:grant:" + grantee.String()
}

// generation counters live next to their hash and never expire, so a
// reader that started before an invalidation cannot match them again
func genKey(hash string) string {
	return hash + ":gen"
}

// setIfCurrent writes the field only while the generation still matches.
var setIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

func (c *RedisCache) OwnerGeneration(ctx context.Context, userID uuid.UUID) uint64 {
	return c.generation(ctx, ownerHash(userID))
}

func (c *RedisCache) SetOwner(ctx context.Context, userID uuid.UUID, gen uint64, key CacheKey, value []byte) {
	c.set(ctx, ownerHash(userID), gen, key, value)
}

func (c *RedisCache) GetOwner(ctx context.Context, userID uuid.UUID, key CacheKey) ([]byte, bool) {
	return c.get(ctx, ownerHash(userID), key)
}

func (c *RedisCache) InvalidateOwner(ctx context.Context, userID uuid.UUID) {
	c.del(ctx, ownerHash(userID))
}

func (c *RedisCache) GrantGeneration(ctx context.Context, grantee uuid.UUID) uint64 {
	return c.generation(ctx, grantHash(grantee))
}

func (c *RedisCache) SetGrant(ctx context.Context, grantee uuid.UUID, gen uint64, key CacheKey, value []byte) {
	c.set(ctx, grantHash(grantee), gen, key, value)
}

func (c *RedisCache) GetGrant(ctx context.Context, grantee uuid.UUID, key CacheKey) ([]byte, bool) {
	return c.get(ctx, grantHash(grantee), key)
}

func (c *RedisCache) InvalidateGrant(ctx context.Context, grantees []uuid.UUID) {
	if len(grantees) == 0 {
		return
	}
	hashes := make([]string, 0, len(grantees))
	for _, g := range grantees {
		hashes = append(hashes, grantHash(g))
	}
	c.del(ctx, hashes...)
}

func (c *RedisCache) generation(ctx context.Context, hash string) uint64 {
	gen, err := c.client.Get(ctx, genKey(hash)).Uint64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("hash", hash).Msg("redis cache generation failed")
		}
		return 0
	}
	return gen
}

func (c *RedisCache) set(ctx context.Context, hash string, gen uint64, key CacheKey, value []byte) {
	keys := []string{hash, genKey(hash)}
	args := []interface{}{strconv.FormatUint(gen, 10), string(key), value, c.ttl.Milliseconds()}
	if err := setIfCurrent.Run(ctx, c.client, keys, args...).Err(); err != nil {
		c.log.Warn().Err(err).Str("hash", hash).Msg("redis cache set failed")
	}
}

func (c *RedisCache) get(ctx context.Context, hash string, key CacheKey) ([]byte, bool) {
	value, err := c.client.HGet(ctx, hash, string(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("hash", hash).Msg("redis cache get failed")
		}
		return nil, false
	}
	return value, true
}

func (c *RedisCache) del(ctx context.Context, hashes ...string) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, hashes...)
	for _, hash := range hashes {
		pipe.Incr(ctx, genKey(hash))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Strs("hashes", hashes).Msg("redis cache invalidate failed")
	}
}
