package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "edumon:session:"

// NewClient connects to Redis and checks the connection with a PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// PrefsRepo stores one session record as a Redis hash.
type PrefsRepo struct {
	rdb *goredis.Client
	key string
}

func NewPrefsRepo(rdb *goredis.Client, recordID string) *PrefsRepo {
	return &PrefsRepo{rdb: rdb, key: keyPrefix + recordID}
}

func (r *PrefsRepo) Load(ctx context.Context) (map[string]string, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", r.key, err)
	}
	return fields, nil
}

// Update runs HDEL and HSET inside MULTI/EXEC so both land together.
func (r *PrefsRepo) Update(ctx context.Context, set map[string]string, remove []string) error {
	if len(set) == 0 && len(remove) == 0 {
		return nil
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if len(remove) > 0 {
			pipe.HDel(ctx, r.key, remove...)
		}
		if len(set) > 0 {
			values := make(map[string]interface{}, len(set))
			for k, v := range set {
				values[k] = v
			}
			pipe.HSet(ctx, r.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", r.key, err)
	}
	return nil
}

func (r *PrefsRepo) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", r.key, err)
	}
	return nil
}
