// Package cache provides the byte cache used to memoise assessments.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Provider defines the minimal cache operations needed by the pipeline.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// NoopProvider implements Provider but never stores data.
type NoopProvider struct{}

// Get always returns ErrCacheMiss.
func (NoopProvider) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set discards the value.
func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Del is a no-op.
func (NoopProvider) Del(context.Context, string) error { return nil }

// Close is a no-op.
func (NoopProvider) Close() error { return nil }

// Backend names.
const (
	BackendLRU   = "lru"
	BackendRedis = "redis"
)

// Options selects and configures a cache backend.
type Options struct {
	Enabled bool
	Backend string
	Size    int
	TTL     time.Duration
	Redis   RedisConfig
}

// New builds the provider described by opts. A disabled cache is a NoopProvider.
func New(opts Options, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.Enabled {
		return NoopProvider{}, nil
	}
	switch strings.ToLower(opts.Backend) {
	case "", BackendLRU:
		logger.Info("assessment cache enabled", slog.String("backend", BackendLRU), slog.Int("size", opts.Size))
		return NewLRUProvider(opts.Size, opts.TTL), nil
	case BackendRedis, "valkey":
		provider, err := NewRedisProvider(opts.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("assessment cache enabled", slog.String("backend", BackendRedis))
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
