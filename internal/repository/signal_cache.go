package repository

import (
	"context"
	"encoding/json"
	"time"

	"MarketSense/internal/domain/models"
	"MarketSense/internal/domain/repository"
	"MarketSense/internal/service/cache"
)

// CachedSignals implements SignalCache over a BytesCache backend, so the
// same adapter serves both the in-process TTL cache and Redis.
type CachedSignals struct {
	backend cache.BytesCache
	prefix  string
}

// NewCachedSignals wraps backend with JSON encoding and key prefixing.
func NewCachedSignals(backend cache.BytesCache) repository.SignalCache {
	return &CachedSignals{backend: backend, prefix: "signal:"}
}

func (c *CachedSignals) Get(_ context.Context, key string) (*models.Signal, bool) {
	b, ok, err := c.backend.GetBytes(c.prefix + key)
	if err != nil || !ok {
		return nil, false
	}
	var sig models.Signal
	if err := json.Unmarshal(b, &sig); err != nil {
		return nil, false
	}
	return &sig, true
}

func (c *CachedSignals) Set(_ context.Context, key string, s *models.Signal, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.backend.SetBytes(c.prefix+key, b, ttl)
}
