package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
)

const (
	objectURLScheme = "blob:"
	objectKeyPrefix = "objurl:"
)

// ErrObjectURLNotFound is returned for URLs that were revoked, expired or never created.
var ErrObjectURLNotFound = errors.New("object url not found")

// Object is the resource behind an object URL.
type Object struct {
	URL  string
	MIME string
	Data []byte
}

// Backend stores object URL payloads. Get returns nil, nil for unknown keys.
type Backend interface {
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ObjectURLs hands out short-lived URLs for in-memory byte buffers. Every URL must be revoked
// once used; the TTL only bounds what a missed Revoke can leak.
type ObjectURLs struct {
	backend Backend
	ttl     time.Duration
}

// NewObjectURLs returns a registry over backend. A non-positive ttl defaults to five minutes.
func NewObjectURLs(backend Backend, ttl time.Duration) *ObjectURLs {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ObjectURLs{backend: backend, ttl: ttl}
}

// Create registers data under a fresh blob: URL.
func (o *ObjectURLs) Create(ctx context.Context, data []byte, mime string) (string, error) {
	url := objectURLScheme + xid.New().String()
	val := make([]byte, 0, len(mime)+1+len(data))
	val = append(val, mime...)
	val = append(val, 0)
	val = append(val, data...)
	if err := o.backend.Set(ctx, objectKey(url), val, o.ttl); err != nil {
		return "", fmt.Errorf("create object url: %w", err)
	}
	return url, nil
}

// Open resolves url to its object.
func (o *ObjectURLs) Open(ctx context.Context, url string) (Object, error) {
	if !strings.HasPrefix(url, objectURLScheme) {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectURLNotFound, url)
	}
	val, err := o.backend.Get(ctx, objectKey(url))
	if err != nil {
		return Object{}, fmt.Errorf("open object url: %w", err)
	}
	if val == nil {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectURLNotFound, url)
	}
	mime, data, ok := bytes.Cut(val, []byte{0})
	if !ok {
		return Object{}, fmt.Errorf("open object url %s: corrupt entry", url)
	}
	return Object{URL: url, MIME: string(mime), Data: data}, nil
}

// Revoke releases url. Revoking an unknown URL is not an error.
func (o *ObjectURLs) Revoke(ctx context.Context, url string) error {
	if err := o.backend.Delete(ctx, objectKey(url)); err != nil {
		return fmt.Errorf("revoke object url: %w", err)
	}
	return nil
}

func objectKey(url string) string {
	return objectKeyPrefix + strings.TrimPrefix(url, objectURLScheme)
}

// MemoryBackend keeps objects in process memory.
type MemoryBackend struct {
	store *memoryStorage.Storage
}

// NewMemoryBackend returns an in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{store: memoryStorage.New()}
}

func (m *MemoryBackend) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	return m.store.Set(key, val, ttl)
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	return m.store.Get(key)
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	return m.store.Delete(key)
}

// RedisBackend keeps objects in Redis so several processes can serve the same URLs.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend returns a backend over rdb.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, val, ttl).Err()
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
