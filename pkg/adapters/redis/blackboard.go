package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces blackboard keys.
const DefaultPrefix = "arbor:bb:"

// Blackboard implements ports.Blackboard using Redis.
// Each key is a Redis string holding the JSON encoded value.
type Blackboard struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Blackboard)

// WithTTL sets the expiration applied on every Put.
func WithTTL(ttl time.Duration) Option {
	return func(b *Blackboard) {
		b.ttl = ttl
	}
}

// WithPrefix sets the key prefix for blackboard entries.
func WithPrefix(prefix string) Option {
	return func(b *Blackboard) {
		b.prefix = prefix
	}
}

// New creates a new Redis blackboard with options.
func New(address, password string, db int, opts ...Option) *Blackboard {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis blackboard from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Blackboard {
	bb := &Blackboard{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(bb)
	}

	return bb
}

// Client exposes the underlying client, e.g. to build a Locker on it.
func (b *Blackboard) Client() *backend.Client {
	return b.client
}

// Prefix returns the key prefix in use.
func (b *Blackboard) Prefix() string {
	return b.prefix
}

func (b *Blackboard) key(k string) string {
	return b.prefix + k
}

// Get retrieves a value from Redis.
func (b *Blackboard) Get(ctx context.Context, key string) (any, bool, error) {
	val, err := b.client.Get(ctx, b.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get from redis: %w", err)
	}

	v, err := domain.DecodeValue(val)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, true, nil
}

// Put persists a value to Redis.
func (b *Blackboard) Put(ctx context.Context, key string, v any) error {
	data, err := domain.EncodeValue(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	// Use 0 for no expiration if ttl is not set.
	if err := b.client.Set(ctx, b.key(key), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes a key.
func (b *Blackboard) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.key(key)).Err()
}

// Snapshot scans every key under the prefix.
func (b *Blackboard) Snapshot(ctx context.Context) (map[string]any, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, b.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan blackboard: %w", err)
	}

	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	pipe := b.client.Pipeline()
	cmds := make([]*backend.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to read blackboard: %w", err)
	}

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, backend.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		v, err := domain.DecodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}
		out[strings.TrimPrefix(keys[i], b.prefix)] = v
	}
	return out, nil
}

// Close closes the redis client.
func (b *Blackboard) Close() error {
	return b.client.Close()
}
