package workspace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "nextstep:graph:"

// RedisStore keeps saved graphs in Redis, one key per graph plus a set
// indexing the ids.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on client. An empty prefix uses
// "nextstep:graph:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }
func (s *RedisStore) index() string        { return s.prefix + "index" }

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(rec.ID), data, 0)
		p.SAdd(ctx, s.index(), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return Record{}, notFound(id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis load %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse graph %s: %w", id, err)
	}
	return rec, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}

	out := make([]Summary, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if json.Unmarshal([]byte(str), &rec) == nil {
			out = append(out, rec.summary())
		}
	}
	sortSummaries(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key(id))
		p.SRem(ctx, s.index(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
