package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
	domsvc "MarketSense/internal/domain/service"
	"MarketSense/internal/services/analytics"
	"MarketSense/pkg/logger"
)

// SignalGenerator orchestrates the full analysis pipeline for one asset:
// candles, indicators, volatility, trend, traps, probability, score and the
// final entry decision.
type SignalGenerator struct {
	candles    domrepo.CandleStore
	trades     domrepo.TradeStore
	indicators domsvc.IndicatorEngine
	volatility domsvc.VolatilityAnalyzer
	trend      domsvc.TrendAnalyzer
	traps      domsvc.TrapDetector
	scorer     domsvc.Scorer
	predictor  domsvc.Predictor
	cache      domrepo.SignalCache
	publisher  domrepo.SignalPublisher
	metrics    domrepo.Metrics
	log        *logger.Logger

	timeout time.Duration
}

// NewSignalGenerator wires the pipeline. cache and publisher may be nil.
func NewSignalGenerator(
	candles domrepo.CandleStore,
	trades domrepo.TradeStore,
	indicators domsvc.IndicatorEngine,
	volatility domsvc.VolatilityAnalyzer,
	trend domsvc.TrendAnalyzer,
	traps domsvc.TrapDetector,
	scorer domsvc.Scorer,
	predictor domsvc.Predictor,
	cache domrepo.SignalCache,
	publisher domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *SignalGenerator {
	return &SignalGenerator{
		candles:    candles,
		trades:     trades,
		indicators: indicators,
		volatility: volatility,
		trend:      trend,
		traps:      traps,
		scorer:     scorer,
		predictor:  predictor,
		cache:      cache,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		timeout:    10 * time.Second,
	}
}

type GenerateParams struct {
	Asset     string
	N         int
	Timeframe domrepo.Timeframe
}

// Generate produces the signal for one asset. Results are cached for one
// candle interval per asset and timeframe.
func (g *SignalGenerator) Generate(ctx context.Context, p GenerateParams) (*models.Signal, error) {
	if p.Asset == "" {
		return nil, fmt.Errorf("asset required")
	}
	if p.N <= 0 {
		p.N = 120
	}
	if !domrepo.IsValidTimeframe(p.Timeframe) {
		p.Timeframe = domrepo.DefaultTimeframe()
	}

	cacheKey := p.Asset + ":" + string(p.Timeframe)
	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	candles, err := g.candles.GetLatestNCandles(ctx, p.Asset, p.N, p.Timeframe)
	if err != nil {
		g.metrics.RecordError("candle_fetch")
		return nil, fmt.Errorf("get candles: %w", err)
	}

	now := time.Now().UTC()
	session := analytics.SessionFor(now)

	if len(candles) < models.MinBarsIndicators {
		sig := &models.Signal{
			Asset:       p.Asset,
			Timeframe:   string(p.Timeframe),
			Action:      models.ActionNoData,
			Confidence:  models.ConfidenceLow,
			Bias:        models.BiasNeutral,
			Session:     session,
			Reasons:     []string{fmt.Sprintf("only %d bars available, need %d", len(candles), models.MinBarsIndicators)},
			GeneratedAt: now,
			Indicators:  models.NeutralSnapshot(),
		}
		g.metrics.RecordSignal(p.Asset, string(sig.Action))
		return sig, nil
	}

	snap := g.indicators.Analyze(candles)
	widthHistory := g.indicators.WidthHistory(candles)
	direction := biasDirection(snap.Bias.Direction)

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{"volatility", g.volatility.Analyze(candles), nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{"trend", g.trend.Analyze(candles), nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{"probability", g.predictor.Predict(ctx, snap, direction), nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, err := g.trades.SessionStats(ctx, p.Asset)
		ch <- item{"sessions", stats, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	var volatility models.VolatilityMetrics
	var trend models.TrendMetrics
	var estimate models.ProbabilityEstimate
	var sessionStats []models.SessionPerformance

	for it := range ch {
		if it.err != nil {
			// session stats are an optional enrichment
			g.log.Warn("signal component failed", logger.String("component", it.name), logger.Error(it.err))
			g.metrics.RecordError(it.name)
			continue
		}
		switch it.name {
		case "volatility":
			volatility = it.val.(models.VolatilityMetrics)
		case "trend":
			trend = it.val.(models.TrendMetrics)
		case "probability":
			estimate = it.val.(models.ProbabilityEstimate)
		case "sessions":
			sessionStats = it.val.([]models.SessionPerformance)
		}
	}

	trapAssessment := g.traps.Detect(snap, widthHistory)
	for _, trap := range trapAssessment.TrapsDetected {
		g.metrics.RecordTrapDetected(string(trap.Type))
	}

	score := g.scorer.Score(ctx, domsvc.ScoreInput{
		Snapshot:        snap,
		Volatility:      volatility,
		Trend:           trend,
		Traps:           trapAssessment,
		Session:         session,
		SessionWinRates: sessionStats,
	})

	decision := analytics.Decide(analytics.DecisionInput{
		Score:      score,
		Estimate:   estimate,
		Traps:      trapAssessment,
		Bias:       snap.Bias.Direction,
		Volatility: volatility,
	})

	sig := &models.Signal{
		Asset:       p.Asset,
		Timeframe:   string(p.Timeframe),
		Action:      decision.Action,
		Direction:   decision.Direction,
		Confidence:  decision.Confidence,
		Score:       score.FinalScore,
		Probability: estimate.Probability,
		Bias:        snap.Bias.Direction,
		Session:     session,
		Reasons:     append(describeSetup(snap, trend, session), decision.Reasons...),
		Warnings:    decision.Warnings,
		GeneratedAt: now,
		Indicators:  snap,
		Volatility:  volatility,
		Trend:       trend,
		Traps:       trapAssessment,
		ScoreDetail: score,
		Estimate:    estimate,
	}
	if len(candles) < models.MinBarsFullSetup {
		sig.Warnings = append(sig.Warnings, fmt.Sprintf("limited history, %d bars", len(candles)))
	}

	g.metrics.RecordSignal(p.Asset, string(sig.Action))
	g.metrics.RecordScore(p.Asset, score.FinalScore)
	g.metrics.RecordLatency("generate_signal", time.Since(started).Seconds())

	if g.cache != nil {
		_ = g.cache.Set(ctx, cacheKey, sig, timeframeTTL(p.Timeframe))
	}
	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, sig); err != nil {
			g.log.Warn("signal publish failed", logger.String("asset", p.Asset), logger.Error(err))
			g.metrics.RecordError("publish")
		}
	}
	return sig, nil
}

func biasDirection(bias models.BiasDirection) models.TradeDirection {
	switch bias {
	case models.BiasBullish:
		return models.DirectionCall
	case models.BiasBearish:
		return models.DirectionPut
	default:
		return models.DirectionNone
	}
}

func timeframeTTL(tf domrepo.Timeframe) time.Duration {
	switch tf {
	case domrepo.TF5m:
		return 5 * time.Minute
	case domrepo.TF15m:
		return 15 * time.Minute
	default:
		return time.Minute
	}
}

// describeSetup turns the indicator state into human-readable reasons.
func describeSetup(snap models.IndicatorSnapshot, trend models.TrendMetrics, session models.MarketSession) []string {
	reasons := make([]string, 0, 6)

	switch snap.RSI.Signal {
	case models.SignalOverbought:
		reasons = append(reasons, fmt.Sprintf("RSI overbought at %.1f", snap.RSI.Value))
	case models.SignalOversold:
		reasons = append(reasons, fmt.Sprintf("RSI oversold at %.1f", snap.RSI.Value))
	case models.SignalBullish, models.SignalBearish:
		reasons = append(reasons, fmt.Sprintf("RSI %s at %.1f", lower(string(snap.RSI.Signal)), snap.RSI.Value))
	}

	if snap.EMA.Crossover != models.CrossNone {
		reasons = append(reasons, fmt.Sprintf("fresh EMA %s", lower(string(snap.EMA.Crossover))))
	} else if snap.EMA.Signal != models.SignalNeutral {
		reasons = append(reasons, fmt.Sprintf("EMA alignment %s", lower(string(snap.EMA.Signal))))
	}

	if snap.MACD.Trend != models.SignalNeutral {
		reasons = append(reasons, fmt.Sprintf("MACD trend %s", lower(string(snap.MACD.Trend))))
	}

	if trend.Direction != models.TrendUnknown && trend.Direction != models.TrendSideways {
		strength := "weak"
		if trend.IsStrongTrend {
			strength = "strong"
		}
		reasons = append(reasons, fmt.Sprintf("%s %s", strength, lower(string(trend.Direction))))
	}

	reasons = append(reasons, fmt.Sprintf("%s session", lower(string(session))))
	return reasons
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + 32
		} else if r == '_' {
			out[i] = ' '
		}
	}
	return string(out)
}
