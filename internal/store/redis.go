package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"healthkit-bridge/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash (sample key -> JSON) and one sorted set (sample
// key scored by start) per data type, plus a set of known data types.
type RedisStore struct {
	client *database.RedisClient
}

func NewRedis(client *database.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) typesKey() string               { return r.client.Key("samples:types") }
func (r *RedisStore) hashKey(dataType string) string { return r.client.Key("samples:data:" + dataType) }
func (r *RedisStore) indexKey(dataType string) string {
	return r.client.Key("samples:index:" + dataType)
}

func (r *RedisStore) Insert(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	pipe := r.client.Client.TxPipeline()
	for _, s := range samples {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode sample: %w", err)
		}
		pipe.SAdd(ctx, r.typesKey(), s.DataType)
		pipe.HSet(ctx, r.hashKey(s.DataType), s.Key(), data)
		pipe.ZAdd(ctx, r.indexKey(s.DataType), redis.Z{Score: float64(s.Start), Member: s.Key()})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis insert samples: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, dataType string, from, to int64) (int, error) {
	samples, err := r.Query(ctx, dataType, from, to)
	if err != nil || len(samples) == 0 {
		return 0, err
	}
	keys := make([]string, len(samples))
	members := make([]interface{}, len(samples))
	for i, s := range samples {
		keys[i] = s.Key()
		members[i] = s.Key()
	}
	pipe := r.client.Client.TxPipeline()
	pipe.HDel(ctx, r.hashKey(dataType), keys...)
	pipe.ZRem(ctx, r.indexKey(dataType), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis delete samples: %w", err)
	}
	return len(samples), nil
}

func (r *RedisStore) Query(ctx context.Context, dataType string, from, to int64) ([]Sample, error) {
	keys, err := r.client.Client.ZRangeByScore(ctx, r.indexKey(dataType), &redis.ZRangeBy{
		Min: strconv.FormatInt(from, 10),
		Max: strconv.FormatInt(to, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis query index: %w", err)
	}
	out := make([]Sample, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := r.client.Client.HMGet(ctx, r.hashKey(dataType), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis query samples: %w", err)
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var s Sample
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		if s.Within(from, to) {
			out = append(out, s)
		}
	}
	sortSamples(out)
	return out, nil
}

func (r *RedisStore) All(ctx context.Context) ([]Sample, error) {
	types, err := r.client.Client.SMembers(ctx, r.typesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list types: %w", err)
	}
	out := make([]Sample, 0)
	for _, dt := range types {
		vals, err := r.client.Client.HGetAll(ctx, r.hashKey(dt)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis read samples: %w", err)
		}
		for _, v := range vals {
			var s Sample
			if err := json.Unmarshal([]byte(v), &s); err != nil {
				return nil, fmt.Errorf("decode sample: %w", err)
			}
			out = append(out, s)
		}
	}
	sortSamples(out)
	return out, nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	types, err := r.client.Client.SMembers(ctx, r.typesKey()).Result()
	if err != nil {
		return fmt.Errorf("redis list types: %w", err)
	}
	keys := []string{r.typesKey()}
	for _, dt := range types {
		keys = append(keys, r.hashKey(dt), r.indexKey(dt))
	}
	if err := r.client.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear samples: %w", err)
	}
	return nil
}
