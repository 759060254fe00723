package analytics

import (
	"math"
	"testing"
	"time"

	"MarketSense/internal/domain/models"
)

func bar(ts time.Time, high, low, close float64) models.Candle {
	return models.Candle{
		Timestamp: ts,
		Asset:     "EUR/USD",
		Open:      close,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    1,
	}
}

func series(n int, high, low, close float64) []models.Candle {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = bar(start.Add(time.Duration(i)*time.Minute), high, low, close)
	}
	return out
}

func TestVolatilityTooFewBars(t *testing.T) {
	m := NewVolatilityAnalyzer().Analyze(series(13, 101, 99, 100))
	if m != (models.VolatilityMetrics{}) {
		t.Fatalf("expected zero metrics for short window, got %+v", m)
	}
}

func TestVolatilityConstantRanges(t *testing.T) {
	m := NewVolatilityAnalyzer().Analyze(series(20, 101, 99, 100))

	if math.Abs(m.ATR-2) > 1e-9 {
		t.Errorf("ATR = %v, want 2", m.ATR)
	}
	if math.Abs(m.AverageVolatility-2) > 1e-9 {
		t.Errorf("AverageVolatility = %v, want 2", m.AverageVolatility)
	}
	if m.IsHighVolatility {
		t.Error("constant ranges flagged as high volatility")
	}
	if math.Abs(m.VolatilityPct-2) > 1e-9 {
		t.Errorf("VolatilityPct = %v, want 2", m.VolatilityPct)
	}
}

func TestVolatilitySpikeFlagged(t *testing.T) {
	candles := series(56, 100.5, 99.5, 100)
	candles = append(candles, series(14, 105, 95, 100)...)

	m := NewVolatilityAnalyzer().Analyze(candles)

	if math.Abs(m.ATR-10) > 1e-9 {
		t.Errorf("ATR = %v, want 10", m.ATR)
	}
	// 56 quiet bars of 1 plus 14 wide bars of 10 over 70 bars.
	if math.Abs(m.AverageVolatility-2.8) > 1e-9 {
		t.Errorf("AverageVolatility = %v, want 2.8", m.AverageVolatility)
	}
	if !m.IsHighVolatility {
		t.Error("recent wide ranges not flagged as high volatility")
	}
}

func TestTrueRangeUsesPreviousClose(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := []models.Candle{
		bar(start, 100.5, 99.5, 100),
		// Gapped up: the bar range is 0.5 but the move from the prior
		// close is 2.
		bar(start.Add(time.Minute), 102, 101.5, 102),
	}

	trs := trueRanges(candles)
	if math.Abs(trs[0]-1) > 1e-9 {
		t.Errorf("trs[0] = %v, want 1", trs[0])
	}
	if math.Abs(trs[1]-2) > 1e-9 {
		t.Errorf("trs[1] = %v, want 2", trs[1])
	}
}

func trendSeries(n int, start, step float64) []models.Candle {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := start + float64(i)*step
		out[i] = bar(base.Add(time.Duration(i)*time.Minute), c+0.1, c-0.1, c)
	}
	return out
}

func TestTrendTooFewBars(t *testing.T) {
	m := NewTrendAnalyzer().Analyze(trendSeries(models.MinBarsTrend-1, 100, 1))
	if m.Direction != models.TrendUnknown {
		t.Fatalf("Direction = %v, want %v", m.Direction, models.TrendUnknown)
	}
}

func TestTrendPerfectUptrend(t *testing.T) {
	m := NewTrendAnalyzer().Analyze(trendSeries(30, 100, 1))

	if m.Direction != models.TrendUp {
		t.Errorf("Direction = %v, want %v", m.Direction, models.TrendUp)
	}
	if math.Abs(m.Strength-1) > 1e-9 {
		t.Errorf("Strength = %v, want 1 for a perfect line", m.Strength)
	}
	if !m.IsStrongTrend {
		t.Error("perfect line not flagged as a strong trend")
	}
	// Slope 1 on a mean price of 114.5, as a percent.
	if want := 100.0 / 114.5; math.Abs(m.Slope-want) > 1e-9 {
		t.Errorf("Slope = %v, want %v", m.Slope, want)
	}
}

func TestTrendPerfectDowntrend(t *testing.T) {
	m := NewTrendAnalyzer().Analyze(trendSeries(30, 200, -1))

	if m.Direction != models.TrendDown {
		t.Errorf("Direction = %v, want %v", m.Direction, models.TrendDown)
	}
	if m.Slope >= 0 {
		t.Errorf("Slope = %v, want negative", m.Slope)
	}
	if !m.IsStrongTrend {
		t.Error("perfect downtrend not flagged as strong")
	}
}

func TestTrendFlat(t *testing.T) {
	m := NewTrendAnalyzer().Analyze(trendSeries(30, 100, 0))

	if m.Direction != models.TrendSideways {
		t.Errorf("Direction = %v, want %v", m.Direction, models.TrendSideways)
	}
	if m.Slope != 0 {
		t.Errorf("Slope = %v, want 0", m.Slope)
	}
	if m.Strength != 0 {
		t.Errorf("Strength = %v, want 0 for zero variance", m.Strength)
	}
	if m.IsStrongTrend {
		t.Error("flat series flagged as a strong trend")
	}
}

func TestTrendDriftBelowThreshold(t *testing.T) {
	// A clean line whose normalized slope is far below 0.1 percent per
	// bar still classifies as sideways.
	m := NewTrendAnalyzer().Analyze(trendSeries(30, 1000, 0.001))

	if m.Direction != models.TrendSideways {
		t.Errorf("Direction = %v, want %v", m.Direction, models.TrendSideways)
	}
	if m.Strength < 0.99 {
		t.Errorf("Strength = %v, want near 1 for a clean line", m.Strength)
	}
}
