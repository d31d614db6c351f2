package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "cellgraph:workbook:"

// RedisStore keeps each workbook as a hash with the fields data, digest,
// cells, and updated_at.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to the Redis server at addr and verifies the
// connection with PING.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis store: address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis store: ping %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, DefaultRedisPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client. Keys are prefix+name.
// Close closes the client.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

func (s *RedisStore) Get(ctx context.Context, name string) (*pkgio.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, s.key(name), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get: %w", err)
	}
	return decode(name, data)
}

func (s *RedisStore) Put(ctx context.Context, name string, doc *pkgio.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	enc, err := encode(doc)
	if err != nil {
		return err
	}
	key := s.key(name)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"data", enc.data,
			"digest", enc.digest,
			"cells", enc.cells,
			"updated_at", s.now().UTC().Format(time.RFC3339Nano),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store: put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return fmt.Errorf("redis store: delete: %w", err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		name := strings.TrimPrefix(iter.Val(), s.prefix)
		if checkName(name) != nil {
			continue
		}
		fields, err := s.client.HMGet(ctx, iter.Val(), "digest", "cells", "updated_at").Result()
		if err != nil {
			return nil, fmt.Errorf("redis store: list %s: %w", name, err)
		}
		info, err := redisInfo(name, fields)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis store: scan: %w", err)
	}
	slices.SortFunc(infos, byName)
	return infos, nil
}

func redisInfo(name string, fields []any) (Info, error) {
	info := Info{Name: name}
	str := func(v any) string {
		s, _ := v.(string)
		return s
	}
	info.Digest = str(fields[0])
	if c := str(fields[1]); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			return Info{}, fmt.Errorf("redis store: %s: bad cells field: %w", name, err)
		}
		info.Cells = n
	}
	if u := str(fields[2]); u != "" {
		t, err := time.Parse(time.RFC3339Nano, u)
		if err != nil {
			return Info{}, fmt.Errorf("redis store: %s: bad updated_at field: %w", name, err)
		}
		info.UpdatedAt = t
	}
	return info, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
