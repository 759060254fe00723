package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
	"MarketSense/internal/services/analytics"
	"MarketSense/internal/services/indicators"
	"MarketSense/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// risingCandles returns n one-minute bars climbing by step per bar.
func risingCandles(n int, start, step float64) []models.Candle {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := start + float64(i)*step
		out[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Asset:     "EUR/USD",
			Open:      c - step/2,
			High:      c + 0.1,
			Low:       c - step/2 - 0.1,
			Close:     c,
			Volume:    100,
		}
	}
	return out
}

type fakeCandleStore struct {
	mu      sync.Mutex
	candles map[string][]models.Candle
	errs    map[string]error
	calls   int
}

func (s *fakeCandleStore) GetCandles(_ context.Context, asset string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.errs[asset]; err != nil {
		return nil, err
	}
	return s.candles[asset], nil
}

func (s *fakeCandleStore) GetLatestNCandles(_ context.Context, asset string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.errs[asset]; err != nil {
		return nil, err
	}
	candles := s.candles[asset]
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	return candles, nil
}

type fakeTradeStore struct {
	mu       sync.Mutex
	recorded []*models.TradeRecord
	stats    []models.SessionPerformance
	queryErr error
	saveErr  error
}

func (s *fakeTradeStore) Init(context.Context) error { return nil }

func (s *fakeTradeStore) Record(_ context.Context, t *models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.recorded = append(s.recorded, t)
	return nil
}

func (s *fakeTradeStore) Query(_ context.Context, asset string, _, _ time.Time, limit int) ([]*models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make([]*models.TradeRecord, 0, len(s.recorded))
	for _, t := range s.recorded {
		if asset != "" && t.Asset != asset {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeTradeStore) CountLabeled(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded), nil
}

func (s *fakeTradeStore) SessionStats(context.Context, string) ([]models.SessionPerformance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

func (s *fakeTradeStore) Health(context.Context) error { return nil }
func (s *fakeTradeStore) Close() error                 { return nil }

type fakePredictor struct {
	estimate    models.ProbabilityEstimate
	trainResult models.TrainResult
	trainErr    error
	status      models.TrainResult
	trainCalls  int
}

func (p *fakePredictor) Predict(context.Context, models.IndicatorSnapshot, models.TradeDirection) models.ProbabilityEstimate {
	return p.estimate
}

func (p *fakePredictor) Train(context.Context, []*models.TradeRecord) (models.TrainResult, error) {
	p.trainCalls++
	return p.trainResult, p.trainErr
}

func (p *fakePredictor) Status() models.TrainResult { return p.status }

type memSignalCache struct {
	mu      sync.Mutex
	signals map[string]*models.Signal
	sets    int
}

func newMemSignalCache() *memSignalCache {
	return &memSignalCache{signals: make(map[string]*models.Signal)}
}

func (c *memSignalCache) Get(_ context.Context, key string) (*models.Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.signals[key]
	return s, ok
}

func (c *memSignalCache) Set(_ context.Context, key string, s *models.Signal, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals[key] = s
	c.sets++
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Signal
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, s *models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, s)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu      sync.Mutex
	signals map[string]int
	errors  map[string]int
	traps   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{signals: make(map[string]int), errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordSignal(_, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[action]++
}

func (m *fakeMetrics) RecordTrapDetected(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traps++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordScore(string, float64)   {}
func (m *fakeMetrics) RecordLatency(string, float64) {}

// newTestGenerator assembles a generator over the real analysis services
// with fakes at the storage and messaging edges.
func newTestGenerator(t *testing.T, candles *fakeCandleStore, trades *fakeTradeStore, predictor *fakePredictor, cache *memSignalCache, publisher *fakePublisher, metrics *fakeMetrics) *SignalGenerator {
	t.Helper()
	var sigCache domrepo.SignalCache
	if cache != nil {
		sigCache = cache
	}
	var pub domrepo.SignalPublisher
	if publisher != nil {
		pub = publisher
	}
	return NewSignalGenerator(
		candles,
		trades,
		indicators.NewEngine(),
		analytics.NewVolatilityAnalyzer(),
		analytics.NewTrendAnalyzer(),
		analytics.NewTrapDetector(),
		analytics.NewScorer(),
		predictor,
		sigCache,
		pub,
		metrics,
		testLogger(t),
	)
}
