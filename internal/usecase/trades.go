package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
	"MarketSense/internal/services/analytics"
	"MarketSense/pkg/logger"
)

// TradeLedgerUseCase records closed trade outcomes. The ledger feeds the
// session win-rate blending and the probability model training set.
type TradeLedgerUseCase struct {
	trades  domrepo.TradeStore
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewTradeLedgerUseCase(trades domrepo.TradeStore, metrics domrepo.Metrics, log *logger.Logger) *TradeLedgerUseCase {
	return &TradeLedgerUseCase{trades: trades, metrics: metrics, log: log}
}

// Record validates and stores one closed trade.
func (uc *TradeLedgerUseCase) Record(ctx context.Context, rec *models.TradeRecord) error {
	if rec.Asset == "" {
		return fmt.Errorf("asset required")
	}
	if rec.Outcome != models.OutcomeWin && rec.Outcome != models.OutcomeLoss {
		return fmt.Errorf("outcome must be %s or %s", models.OutcomeWin, models.OutcomeLoss)
	}
	if rec.ClosedAt.IsZero() {
		rec.ClosedAt = time.Now().UTC()
	}
	if rec.Session == "" {
		rec.Session = analytics.SessionFor(rec.ClosedAt)
	}

	start := time.Now()
	if err := uc.trades.Record(ctx, rec); err != nil {
		uc.metrics.RecordError("trade_record")
		return fmt.Errorf("record trade: %w", err)
	}
	uc.metrics.RecordLatency("trade_record", time.Since(start).Seconds())

	uc.log.Info("trade recorded",
		logger.String("asset", rec.Asset),
		logger.String("direction", string(rec.Direction)),
		logger.String("outcome", string(rec.Outcome)),
		logger.Float64("score", rec.Score),
	)
	return nil
}

// List returns the most recent closed trades, optionally narrowed by asset.
func (uc *TradeLedgerUseCase) List(ctx context.Context, asset string, limit int) ([]*models.TradeRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return uc.trades.Query(ctx, asset, time.Time{}, time.Now().UTC(), limit)
}
