package repository

import (
	"context"
	"time"

	"MarketSense/internal/domain/models"
)

// TradeStore is the ledger of closed trades used for training and the
// session win-rate statistics.
type TradeStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Record(ctx context.Context, t *models.TradeRecord) error
	Query(ctx context.Context, asset string, from, to time.Time, limit int) ([]*models.TradeRecord, error)
	CountLabeled(ctx context.Context) (int, error)
	SessionStats(ctx context.Context, asset string) ([]models.SessionPerformance, error)
	Health(ctx context.Context) error
	Close() error
}

// ModelStore persists trained probability model bundles by version.
type ModelStore interface {
	Save(ctx context.Context, version string, payload []byte) error
	Load(ctx context.Context, version string) ([]byte, error)
	LoadLatest(ctx context.Context) (version string, payload []byte, err error)
}

// SignalPublisher emits generated signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// SignalCache caches full signal responses per asset/timeframe for the
// length of one candle interval.
type SignalCache interface {
	Get(ctx context.Context, key string) (*models.Signal, bool)
	Set(ctx context.Context, key string, s *models.Signal, ttl time.Duration) error
}

type Metrics interface {
	RecordSignal(asset, action string)
	RecordTrapDetected(trapType string)
	RecordError(kind string)
	RecordScore(asset string, score float64)
	RecordLatency(op string, seconds float64)
}
