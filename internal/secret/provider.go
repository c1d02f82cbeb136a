package secret

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

var ErrEmptySecret = errors.New("secret value is empty")

// Source fetches the current secret value from its backing store.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// CachedProvider fetches the secret once and keeps it for the life of the
// process. Concurrent first calls share one fetch; failures are not cached.
type CachedProvider struct {
	source Source
	group  singleflight.Group

	mu     sync.RWMutex
	value  string
	loaded bool
}

func NewCachedProvider(source Source) *CachedProvider {
	return &CachedProvider{source: source}
}

func (p *CachedProvider) Credential(ctx context.Context) (string, error) {
	if value, ok := p.cached(); ok {
		return value, nil
	}

	v, err, _ := p.group.Do("credential", func() (interface{}, error) {
		if value, ok := p.cached(); ok {
			return value, nil
		}
		value, err := p.source.Fetch(ctx)
		if err != nil {
			return "", err
		}
		if value == "" {
			return "", ErrEmptySecret
		}
		return p.store(value), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *CachedProvider) cached() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.loaded
}

// store keeps the first value written and returns whatever is cached.
func (p *CachedProvider) store(value string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		p.value = value
		p.loaded = true
	}
	return p.value
}

// StaticSource returns a fixed value, for local runs without a vault.
type StaticSource string

func (s StaticSource) Fetch(context.Context) (string, error) {
	if s == "" {
		return "", ErrEmptySecret
	}
	return string(s), nil
}
