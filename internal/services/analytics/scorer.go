package analytics

import (
	"context"
	"math"

	"MarketSense/internal/domain/models"
	"MarketSense/internal/domain/service"
)

// Factor weights. psychology_risk is a penalty and carries a negative weight.
var scoringWeights = map[string]float64{
	"trend_alignment": 0.25,
	"momentum":        0.20,
	"volatility":      0.15,
	"candle_pattern":  0.15,
	"session_quality": 0.10,
	"psychology_risk": -0.15,
}

// Scorer produces the weighted multi-factor setup score.
type Scorer struct{}

// NewScorer builds a scorer with the standard weights.
func NewScorer() *Scorer { return &Scorer{} }

// Score evaluates all factors and combines them into a 0-100 score.
func (s *Scorer) Score(_ context.Context, in service.ScoreInput) models.ScoreResult {
	raw := map[string]float64{
		"trend_alignment": trendScore(in.Snapshot, in.Trend),
		"momentum":        momentumScore(in.Snapshot),
		"volatility":      volatilityScore(in.Snapshot, in.Volatility),
		"candle_pattern":  candleScore(in.Snapshot),
		"session_quality": SessionScore(in.Session, in.SessionWinRates),
		"psychology_risk": psychologyPenalty(in.Traps),
	}

	final := 0.0
	breakdown := make(map[string]models.FactorScore, len(raw))
	for factor, score := range raw {
		weight := scoringWeights[factor]
		contribution := score * math.Abs(weight) * 100
		if weight < 0 {
			final -= contribution
			contribution = -contribution
		} else {
			final += contribution
		}
		breakdown[factor] = models.FactorScore{
			RawScore:     score,
			Weight:       weight,
			Contribution: contribution,
		}
	}

	final = math.Max(0, math.Min(100, final))
	grade, label, recommendation := gradeFor(final)
	return models.ScoreResult{
		FinalScore:     final,
		Grade:          grade,
		GradeLabel:     label,
		Recommendation: recommendation,
		Breakdown:      breakdown,
	}
}

func trendScore(snap models.IndicatorSnapshot, trend models.TrendMetrics) float64 {
	score := 0.5

	if snap.EMA.Signal == models.SignalBullish || snap.EMA.Signal == models.SignalBearish {
		score += 0.2
	}
	if snap.EMA.Crossover != models.CrossNone {
		score += 0.15
	}
	if trend.IsStrongTrend {
		score += 0.15
	}
	if (trend.Direction == models.TrendUp && snap.Bias.Direction == models.BiasBullish) ||
		(trend.Direction == models.TrendDown && snap.Bias.Direction == models.BiasBearish) {
		score += 0.1
	}
	return math.Min(1, score)
}

func momentumScore(snap models.IndicatorSnapshot) float64 {
	score := 0.5

	// RSI near the midline favors continuation; extremes favor reversal plays.
	switch {
	case snap.RSI.Value >= 40 && snap.RSI.Value <= 60:
		score += 0.15
	case snap.RSI.Signal == models.SignalOversold || snap.RSI.Signal == models.SignalOverbought:
		score += 0.1
	}

	if snap.MACD.Strength > 0.5 {
		score += 0.15
	}
	if snap.MACD.Trend == models.SignalBullish || snap.MACD.Trend == models.SignalBearish {
		score += 0.1
	}

	score += snap.Bias.Confidence * 0.1
	return math.Min(1, score)
}

func volatilityScore(snap models.IndicatorSnapshot, vol models.VolatilityMetrics) float64 {
	score := 0.5

	width := snap.Bollinger.Width
	switch {
	case width >= 0.01 && width <= 0.03:
		score += 0.25
	case width < 0.01:
		score += 0.1 // tight bands, potential breakout
	default:
		score -= 0.1
	}

	pct := snap.Bollinger.Percent
	switch {
	case pct >= 0.3 && pct <= 0.7:
		score += 0.15
	case pct < 0.2 || pct > 0.8:
		score -= 0.1
	}

	if vol.IsHighVolatility {
		score -= 0.15
	}
	if vol.VolatilityPct >= 0.5 && vol.VolatilityPct <= 2.0 {
		score += 0.1
	}
	return math.Max(0, math.Min(1, score))
}

var patternScores = map[models.CandlePattern]float64{
	models.PatternHammer:          0.25,
	models.PatternInvertedHammer:  0.2,
	models.PatternMarubozuBullish: 0.3,
	models.PatternMarubozuBearish: 0.3,
	models.PatternDoji:            0.1,
	models.PatternSpinningTop:     0.05,
	models.PatternStandard:        0.15,
	models.PatternNone:            0,
}

func candleScore(snap models.IndicatorSnapshot) float64 {
	score := 0.5 + patternScores[snap.Candle.Pattern]

	if (snap.Candle.Type == models.CandleBullish && snap.Bias.Direction == models.BiasBullish) ||
		(snap.Candle.Type == models.CandleBearish && snap.Bias.Direction == models.BiasBearish) {
		score += 0.15
	}
	return math.Min(1, score)
}

func psychologyPenalty(traps models.TrapAssessment) float64 {
	penalty := 0.0

	switch traps.Assessment {
	case models.RiskHighTrap:
		penalty += 0.5
	case models.RiskModerate:
		penalty += 0.25
	}

	for _, trap := range traps.TrapsDetected {
		switch trap.Type {
		case models.TrapPerfectSetup:
			penalty += 0.2
		case models.TrapLateEntry:
			penalty += 0.15
		case models.TrapVolatilitySpike:
			penalty += 0.15
		}
	}
	return math.Min(1, penalty)
}

func gradeFor(score float64) (models.ScoreGrade, string, string) {
	switch {
	case score <= 40:
		return models.GradeNoTrade, "F - No Trade", "AVOID this setup. Score too low for any trade."
	case score <= 60:
		return models.GradeRisky, "D - Risky", "HIGH RISK setup. Only consider with reduced position size."
	case score <= 75:
		return models.GradeAcceptable, "C - Acceptable", "MODERATE setup. Proceed with caution and standard risk."
	default:
		return models.GradeHighQuality, "A - High Quality", "STRONG setup. Good entry opportunity."
	}
}
