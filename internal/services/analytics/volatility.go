package analytics

import (
	"math"

	"MarketSense/internal/domain/models"
)

// VolatilityAnalyzer computes ATR-based volatility metrics for a candle window.
type VolatilityAnalyzer struct {
	period      int
	spikeFactor float64
}

// NewVolatilityAnalyzer builds an analyzer with the standard ATR period and
// the spike multiple used to flag abnormal volatility.
func NewVolatilityAnalyzer() *VolatilityAnalyzer {
	return &VolatilityAnalyzer{period: 14, spikeFactor: 2.0}
}

// Analyze computes the metrics for candles. Fewer than period bars yields
// zero metrics.
func (a *VolatilityAnalyzer) Analyze(candles []models.Candle) models.VolatilityMetrics {
	if len(candles) < a.period {
		return models.VolatilityMetrics{}
	}

	trs := trueRanges(candles)

	// ATR is the rolling mean of the last period true ranges.
	atr := 0.0
	for _, tr := range trs[len(trs)-a.period:] {
		atr += tr
	}
	atr /= float64(a.period)

	avg := 0.0
	for _, tr := range trs {
		avg += tr
	}
	avg /= float64(len(trs))

	m := models.VolatilityMetrics{
		ATR:               atr,
		AverageVolatility: avg,
		IsHighVolatility:  atr > avg*a.spikeFactor,
	}
	if close := candles[len(candles)-1].Close; close > 0 {
		m.VolatilityPct = atr / close * 100
	}
	return m
}

func trueRanges(candles []models.Candle) []float64 {
	trs := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			prev := candles[i-1].Close
			tr = math.Max(tr, math.Abs(c.High-prev))
			tr = math.Max(tr, math.Abs(c.Low-prev))
		}
		trs[i] = tr
	}
	return trs
}

// TrendAnalyzer fits a least-squares line over closes to classify the trend.
type TrendAnalyzer struct {
	slopeThreshold float64
	strongTrendRSq float64
}

// NewTrendAnalyzer builds an analyzer with the standard thresholds.
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{slopeThreshold: 0.1, strongTrendRSq: 0.7}
}

// Analyze fits the trend over all of candles. Fewer than
// models.MinBarsTrend bars yields UNKNOWN.
func (a *TrendAnalyzer) Analyze(candles []models.Candle) models.TrendMetrics {
	if len(candles) < models.MinBarsTrend {
		return models.TrendMetrics{Direction: models.TrendUnknown}
	}

	n := float64(len(candles))
	var sumX, sumY, sumXY, sumXX float64
	for i, c := range candles {
		x := float64(i)
		sumX += x
		sumY += c.Close
		sumXY += x * c.Close
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return models.TrendMetrics{Direction: models.TrendUnknown}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	mean := sumY / n

	normalizedSlope := 0.0
	if mean != 0 {
		normalizedSlope = slope / mean * 100
	}

	direction := models.TrendSideways
	switch {
	case normalizedSlope > a.slopeThreshold:
		direction = models.TrendUp
	case normalizedSlope < -a.slopeThreshold:
		direction = models.TrendDown
	}

	var ssRes, ssTot float64
	for i, c := range candles {
		pred := intercept + slope*float64(i)
		ssRes += (c.Close - pred) * (c.Close - pred)
		ssTot += (c.Close - mean) * (c.Close - mean)
	}
	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return models.TrendMetrics{
		Direction:     direction,
		Strength:      rSquared,
		Slope:         normalizedSlope,
		IsStrongTrend: rSquared > a.strongTrendRSq,
	}
}
