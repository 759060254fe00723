package repository

import (
	"context"
	"time"

	"MarketSense/internal/domain/models"
)

// CandleStore provides read-only access to OHLCV history for analysis.
type CandleStore interface {
	GetCandles(ctx context.Context, asset string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, asset string, n int, tf Timeframe) ([]models.Candle, error)
}
