package indicators

import (
	"math"
	"testing"
	"time"

	"MarketSense/internal/domain/models"
)

func ramp(n int, start, step float64) []models.Candle {
	out := make([]models.Candle, n)
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := range out {
		close := start + float64(i)*step
		open := close - step/2
		hi, lo := math.Max(open, close), math.Min(open, close)
		out[i] = models.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			Asset:     "EUR/USD",
			Open:      open,
			High:      hi + math.Abs(step)/10,
			Low:       lo - math.Abs(step)/10,
			Close:     close,
			Volume:    1000,
		}
	}
	return out
}

func flat(n int, price float64) []models.Candle {
	out := make([]models.Candle, n)
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			Asset:     "EUR/USD",
			Open:      price, High: price, Low: price, Close: price,
			Volume: 1000,
		}
	}
	return out
}

func TestAnalyzeTooFewBars(t *testing.T) {
	e := NewEngine()
	snap := e.Analyze(ramp(models.MinBarsIndicators-1, 100, 1))

	if snap.Valid {
		t.Fatalf("expected invalid snapshot")
	}
	if snap.RSI.Value != 50 || snap.RSI.Signal != models.SignalNeutral {
		t.Fatalf("rsi = %+v, want neutral", snap.RSI)
	}
	if snap.Bias.Direction != models.BiasNeutral || snap.Bias.Confidence != 0.5 {
		t.Fatalf("bias = %+v, want neutral", snap.Bias)
	}
}

func TestAnalyzeRisingMarket(t *testing.T) {
	e := NewEngine()
	snap := e.Analyze(ramp(60, 100, 1))

	if !snap.Valid {
		t.Fatalf("expected valid snapshot")
	}
	if snap.RSI.Signal != models.SignalOverbought {
		t.Fatalf("rsi signal = %s, want OVERBOUGHT", snap.RSI.Signal)
	}
	if snap.RSI.Value != 100 || snap.RSI.Strength != 1 {
		t.Fatalf("rsi = %+v", snap.RSI)
	}
	if snap.EMA.Signal != models.SignalBullish {
		t.Fatalf("ema signal = %s, want BULLISH", snap.EMA.Signal)
	}
	if snap.EMA.Crossover != models.CrossNone {
		t.Fatalf("crossover = %s, want NONE on a steady trend", snap.EMA.Crossover)
	}
	if snap.EMA.Fast <= snap.EMA.Slow {
		t.Fatalf("fast %v <= slow %v", snap.EMA.Fast, snap.EMA.Slow)
	}
	if snap.MACD.Trend != models.SignalBullish {
		t.Fatalf("macd trend = %s, want BULLISH", snap.MACD.Trend)
	}
	if snap.Bollinger.Signal != models.SignalBullish {
		t.Fatalf("bb signal = %s, want BULLISH", snap.Bollinger.Signal)
	}
	if snap.Candle.Type != models.CandleBullish {
		t.Fatalf("candle type = %s, want BULLISH", snap.Candle.Type)
	}
	// RSI overbought counts bearish; the other four lean bullish.
	if snap.Bias.Direction != models.BiasBullish {
		t.Fatalf("bias = %+v, want BULLISH", snap.Bias)
	}
	if snap.Bias.BullishSignals != 4 || snap.Bias.BearishSignals != 1 {
		t.Fatalf("bias tally = %+v", snap.Bias)
	}
	if snap.Bias.Confidence != 0.8 {
		t.Fatalf("bias confidence = %v, want 0.8", snap.Bias.Confidence)
	}
}

func TestAnalyzeFallingMarket(t *testing.T) {
	e := NewEngine()
	snap := e.Analyze(ramp(60, 200, -1))

	if snap.RSI.Signal != models.SignalOversold {
		t.Fatalf("rsi signal = %s, want OVERSOLD", snap.RSI.Signal)
	}
	if snap.EMA.Signal != models.SignalBearish {
		t.Fatalf("ema signal = %s, want BEARISH", snap.EMA.Signal)
	}
	if snap.MACD.Trend != models.SignalBearish {
		t.Fatalf("macd trend = %s, want BEARISH", snap.MACD.Trend)
	}
	if snap.Candle.Type != models.CandleBearish {
		t.Fatalf("candle type = %s, want BEARISH", snap.Candle.Type)
	}
}

func TestAnalyzeFlatMarket(t *testing.T) {
	e := NewEngine()
	snap := e.Analyze(flat(60, 100))

	if snap.RSI.Value != 50 || snap.RSI.Signal != models.SignalNeutral {
		t.Fatalf("rsi = %+v, want 50/NEUTRAL", snap.RSI)
	}
	if snap.EMA.Signal != models.SignalNeutral || snap.EMA.Strength != 0 {
		t.Fatalf("ema = %+v", snap.EMA)
	}
	if snap.Bollinger.Percent != 0.5 || snap.Bollinger.Width != 0 {
		t.Fatalf("bb = %+v, want degenerate band", snap.Bollinger)
	}
	if snap.Candle.Type != models.CandleDoji || snap.Candle.Pattern != models.PatternNone {
		t.Fatalf("candle = %+v", snap.Candle)
	}
	if snap.Bias.Direction != models.BiasNeutral {
		t.Fatalf("bias = %+v, want NEUTRAL", snap.Bias)
	}
}

func TestBollingerPercentNotClamped(t *testing.T) {
	e := NewEngine()
	candles := flat(60, 100)
	// final bar closes far above the band
	last := len(candles) - 1
	candles[last-1].Close = 101
	candles[last-1].High = 101
	candles[last].Open = 101
	candles[last].Close = 110
	candles[last].High = 110

	snap := e.Analyze(candles)
	if snap.Bollinger.Percent <= 1 {
		t.Fatalf("percent = %v, want > 1 for close outside band", snap.Bollinger.Percent)
	}
	if snap.Bollinger.Signal != models.SignalOverbought {
		t.Fatalf("bb signal = %s, want OVERBOUGHT", snap.Bollinger.Signal)
	}
}

func TestClassifyCandlePatterns(t *testing.T) {
	cases := []struct {
		name    string
		c       models.Candle
		typ     models.CandleType
		pattern models.CandlePattern
	}{
		{"zero range", models.Candle{Open: 10, High: 10, Low: 10, Close: 10}, models.CandleDoji, models.PatternNone},
		{"doji", models.Candle{Open: 10, High: 10.5, Low: 9.5, Close: 10.01}, models.CandleBullish, models.PatternDoji},
		{"hammer", models.Candle{Open: 10, High: 10.6, Low: 8, Close: 10.5}, models.CandleBullish, models.PatternHammer},
		{"inverted hammer", models.Candle{Open: 10.5, High: 13, Low: 9.95, Close: 10}, models.CandleBearish, models.PatternInvertedHammer},
		{"marubozu bullish", models.Candle{Open: 10, High: 11.02, Low: 9.99, Close: 11}, models.CandleBullish, models.PatternMarubozuBullish},
		{"marubozu bearish", models.Candle{Open: 11, High: 11.01, Low: 9.98, Close: 10}, models.CandleBearish, models.PatternMarubozuBearish},
		{"spinning top", models.Candle{Open: 10, High: 10.7, Low: 9.5, Close: 10.2}, models.CandleBullish, models.PatternSpinningTop},
		{"standard", models.Candle{Open: 10, High: 10.8, Low: 9.9, Close: 10.5}, models.CandleBullish, models.PatternStandard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyCandle(tc.c)
			if got.Type != tc.typ {
				t.Fatalf("type = %s, want %s", got.Type, tc.typ)
			}
			if got.Pattern != tc.pattern {
				t.Fatalf("pattern = %s, want %s", got.Pattern, tc.pattern)
			}
		})
	}
}

func TestOverallBiasTie(t *testing.T) {
	snap := models.IndicatorSnapshot{
		RSI:       models.RSIState{Signal: models.SignalBullish},
		EMA:       models.EMAState{Signal: models.SignalBearish},
		MACD:      models.MACDState{Trend: models.SignalNeutral},
		Bollinger: models.BollingerState{Signal: models.SignalNeutral},
		Candle:    models.CandleState{Type: models.CandleDoji},
	}
	bias := overallBias(snap)
	if bias.Direction != models.BiasNeutral || bias.Confidence != 0.5 {
		t.Fatalf("bias = %+v, want NEUTRAL 0.5", bias)
	}
}

func TestWidthHistoryLength(t *testing.T) {
	e := NewEngine()
	candles := ramp(60, 100, 1)
	widths := e.WidthHistory(candles)

	// width defined once the 20-bar window fills
	if len(widths) != 60-20+1 {
		t.Fatalf("len = %d, want %d", len(widths), 60-20+1)
	}
	for i, w := range widths {
		if w <= 0 {
			t.Fatalf("widths[%d] = %v, want > 0", i, w)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	e := NewEngine()
	candles := ramp(80, 1.105, 0.0004)
	a := e.Analyze(candles)
	b := e.Analyze(candles)
	if a != b {
		t.Fatalf("snapshots differ:\n%+v\n%+v", a, b)
	}
}
