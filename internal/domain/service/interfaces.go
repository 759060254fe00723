package service

import (
	"context"

	"MarketSense/internal/domain/models"
)

// IndicatorEngine computes the technical indicator snapshot for a candle window.
type IndicatorEngine interface {
	Analyze(candles []models.Candle) models.IndicatorSnapshot
	WidthHistory(candles []models.Candle) []float64
}

// VolatilityAnalyzer computes ATR-based volatility metrics.
type VolatilityAnalyzer interface {
	Analyze(candles []models.Candle) models.VolatilityMetrics
}

// TrendAnalyzer fits a regression trend over a candle window.
type TrendAnalyzer interface {
	Analyze(candles []models.Candle) models.TrendMetrics
}

// TrapDetector runs the manipulation heuristics against a snapshot.
type TrapDetector interface {
	Detect(snap models.IndicatorSnapshot, widthHistory []float64) models.TrapAssessment
}

// Scorer produces the weighted multi-factor setup score.
type Scorer interface {
	Score(ctx context.Context, in ScoreInput) models.ScoreResult
}

// ScoreInput bundles everything the scorer weighs.
type ScoreInput struct {
	Snapshot        models.IndicatorSnapshot
	Volatility      models.VolatilityMetrics
	Trend           models.TrendMetrics
	Traps           models.TrapAssessment
	Session         models.MarketSession
	SessionWinRates []models.SessionPerformance
}

// Predictor estimates the win probability of a setup. direction, when set,
// discounts counter-trend estimates.
type Predictor interface {
	Predict(ctx context.Context, snap models.IndicatorSnapshot, direction models.TradeDirection) models.ProbabilityEstimate
	Train(ctx context.Context, trades []*models.TradeRecord) (models.TrainResult, error)
	Status() models.TrainResult
}
