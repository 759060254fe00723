package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
	domsvc "MarketSense/internal/domain/service"
	pkgcache "MarketSense/pkg/cache"
	"MarketSense/pkg/logger"
)

// TrainUseCase drives model training and the surrounding analysis over the
// trade ledger.
type TrainUseCase struct {
	trades    domrepo.TradeStore
	predictor domsvc.Predictor
	metrics   domrepo.Metrics
	log       *logger.Logger

	reports   pkgcache.Service
	reportTTL time.Duration
}

// TrainOption configures TrainUseCase.
type TrainOption func(*TrainUseCase)

// WithReportCache caches effectiveness reports for ttl. The report scans the
// whole ledger window, so repeated dashboard polls hit the cache.
func WithReportCache(c pkgcache.Service, ttl time.Duration) TrainOption {
	return func(u *TrainUseCase) {
		u.reports = c
		if ttl > 0 {
			u.reportTTL = ttl
		}
	}
}

func NewTrainUseCase(trades domrepo.TradeStore, predictor domsvc.Predictor, metrics domrepo.Metrics, log *logger.Logger, opts ...TrainOption) *TrainUseCase {
	uc := &TrainUseCase{trades: trades, predictor: predictor, metrics: metrics, log: log, reportTTL: 5 * time.Minute}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type TrainParams struct {
	Asset string // optional, narrows the training set
	Force bool   // retrain even when a model is already loaded
}

// Train fits a fresh model from the trade ledger. Without Force, an already
// trained model short-circuits.
func (uc *TrainUseCase) Train(ctx context.Context, p TrainParams) (models.TrainResult, error) {
	if !p.Force {
		if status := uc.predictor.Status(); status.Success {
			return status, nil
		}
	}

	started := time.Now()
	trades, err := uc.trades.Query(ctx, p.Asset, time.Time{}, time.Now().UTC(), 10000)
	if err != nil {
		uc.metrics.RecordError("train_query")
		return models.TrainResult{}, fmt.Errorf("load trades: %w", err)
	}

	result, err := uc.predictor.Train(ctx, trades)
	if err != nil {
		uc.metrics.RecordError("train")
		return models.TrainResult{}, err
	}
	uc.metrics.RecordLatency("train_model", time.Since(started).Seconds())

	if result.Success {
		uc.log.Info("model training finished",
			logger.String("version", result.ModelVersion),
			logger.Int("samples", result.Samples))
	} else {
		uc.log.Warn("model training skipped", logger.String("reason", result.Message),
			logger.Int("samples", result.CurrentSamples))
	}
	return result, nil
}

// Status reports the currently loaded model without side effects.
func (uc *TrainUseCase) Status() models.TrainResult {
	return uc.predictor.Status()
}

// scoreBands partition the 0-100 score range with the same cut points as
// grades. Bands are contiguous: a trade falls into the first band whose upper
// bound covers its score, so fractional scores cannot fall between bands.
var scoreBands = []struct {
	label string
	max   float64
}{
	{"0-40", 40},
	{"41-60", 60},
	{"61-75", 75},
	{"76-100", 100},
}

func bandFor(score float64) string {
	for _, band := range scoreBands {
		if score <= band.max {
			return band.label
		}
	}
	return scoreBands[len(scoreBands)-1].label
}

type EffectivenessParams struct {
	Asset string
	Days  int
}

// Effectiveness correlates historical setup scores with trade outcomes,
// bucketed by score band and by session.
func (uc *TrainUseCase) Effectiveness(ctx context.Context, p EffectivenessParams) (*models.EffectivenessReport, error) {
	if p.Days <= 0 {
		p.Days = 30
	}

	cacheKey := pkgcache.GenerateKeyWithParams("effectiveness", p.Asset, p.Days)
	if uc.reports != nil {
		var cached models.EffectivenessReport
		if err := uc.reports.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -p.Days)

	trades, err := uc.trades.Query(ctx, p.Asset, from, to, 10000)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	report := &models.EffectivenessReport{GeneratedAt: to}
	wins := 0
	bandTrades := make(map[string]int, len(scoreBands))
	bandWins := make(map[string]int, len(scoreBands))

	for _, t := range trades {
		if t == nil || t.Outcome == "" {
			continue
		}
		report.TotalTrades++
		if t.Won() {
			wins++
		}
		band := bandFor(t.Score)
		bandTrades[band]++
		if t.Won() {
			bandWins[band]++
		}
	}
	if report.TotalTrades > 0 {
		report.Overall = float64(wins) / float64(report.TotalTrades)
	}

	for _, band := range scoreBands {
		n := bandTrades[band.label]
		if n == 0 {
			continue
		}
		report.ByBand = append(report.ByBand, models.ScoreBandStats{
			Band:    band.label,
			Trades:  n,
			Wins:    bandWins[band.label],
			WinRate: float64(bandWins[band.label]) / float64(n),
		})
	}

	if stats, err := uc.trades.SessionStats(ctx, p.Asset); err == nil {
		report.BySession = stats
	}

	if uc.reports != nil {
		if err := uc.reports.Set(ctx, cacheKey, report, uc.reportTTL); err != nil {
			uc.log.Warn("effectiveness cache set failed", logger.Error(err))
		}
	}
	return report, nil
}
