package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = "alerta:cache:"
	}
	return &RedisCache{client: client, prefix: p}
}

func (c *RedisCache) keyByID(id int64) string {
	return c.prefix + "report:" + strconv.FormatInt(id, 10)
}

func (c *RedisCache) keyList() string {
	return c.prefix + "report:list"
}

func (c *RedisCache) GetByID(ctx context.Context, id int64) (*Report, bool, error) {
	var r Report
	ok, err := c.get(ctx, c.keyByID(id), &r)
	if !ok {
		return nil, false, err
	}
	return &r, true, nil
}

func (c *RedisCache) SetByID(ctx context.Context, r *Report, ttl time.Duration) error {
	return c.set(ctx, c.keyByID(r.ID), r, ttl)
}

func (c *RedisCache) DeleteByID(ctx context.Context, id int64) error {
	return c.client.Del(ctx, c.keyByID(id)).Err()
}

func (c *RedisCache) GetList(ctx context.Context) ([]*Report, bool, error) {
	var out []*Report
	ok, err := c.get(ctx, c.keyList(), &out)
	if !ok {
		return nil, false, err
	}
	return out, true, nil
}

func (c *RedisCache) SetList(ctx context.Context, list []*Report, ttl time.Duration) error {
	return c.set(ctx, c.keyList(), list, ttl)
}

func (c *RedisCache) DeleteList(ctx context.Context) error {
	return c.client.Del(ctx, c.keyList()).Err()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
