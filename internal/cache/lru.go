package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultLRUSize bounds the in-process cache when no size is configured.
const DefaultLRUSize = 4096

// LRUProvider is an in-process, size-bounded cache. Entries expire after the
// TTL fixed at construction; the per-call ttl of Set is ignored.
type LRUProvider struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUProvider creates an LRU cache holding up to size entries for ttl. A zero
// ttl keeps entries until evicted.
func NewLRUProvider(size int, ttl time.Duration) *LRUProvider {
	if size <= 0 {
		size = DefaultLRUSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &LRUProvider{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements Provider.
func (p *LRUProvider) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := p.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

// Set implements Provider.
func (p *LRUProvider) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	p.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Del implements Provider.
func (p *LRUProvider) Del(_ context.Context, key string) error {
	p.lru.Remove(key)
	return nil
}

// Close purges the cache.
func (p *LRUProvider) Close() error {
	p.lru.Purge()
	return nil
}

// Len reports the number of live entries.
func (p *LRUProvider) Len() int {
	return p.lru.Len()
}
