package probability

import "MarketSense/internal/domain/models"

// FeatureNames lists the model inputs in vector order. The order is part of
// the persisted model contract and must not change between train and predict.
var FeatureNames = []string{
	"rsi_value", "rsi_strength", "rsi_signal",
	"ema_strength", "ema_signal", "ema_crossover",
	"macd_histogram", "macd_strength", "macd_trend",
	"bb_percent", "bb_width", "bb_signal",
	"candle_type", "candle_pattern",
	"bias_confidence", "bullish_signals", "bearish_signals",
}

var patternEncoding = map[models.CandlePattern]float64{
	models.PatternHammer:          1,
	models.PatternInvertedHammer:  0.5,
	models.PatternMarubozuBullish: 1,
	models.PatternMarubozuBearish: -1,
}

// FeatureVector encodes an indicator snapshot as the model input vector.
func FeatureVector(snap models.IndicatorSnapshot) []float64 {
	return []float64{
		snap.RSI.Value,
		snap.RSI.Strength,
		signedSignal(snap.RSI.Signal),
		snap.EMA.Strength,
		signedSignal(snap.EMA.Signal),
		signedCrossover(snap.EMA.Crossover),
		snap.MACD.Histogram,
		snap.MACD.Strength,
		signedSignal(snap.MACD.Trend),
		snap.Bollinger.Percent,
		snap.Bollinger.Width,
		signedSignal(snap.Bollinger.Signal),
		signedCandle(snap.Candle.Type),
		patternEncoding[snap.Candle.Pattern],
		snap.Bias.Confidence,
		float64(snap.Bias.BullishSignals),
		float64(snap.Bias.BearishSignals),
	}
}

func signedSignal(s models.IndicatorSignal) float64 {
	switch s {
	case models.SignalBullish:
		return 1
	case models.SignalBearish:
		return -1
	default:
		return 0
	}
}

func signedCrossover(c models.Crossover) float64 {
	switch c {
	case models.CrossBullish:
		return 1
	case models.CrossBearish:
		return -1
	default:
		return 0
	}
}

func signedCandle(t models.CandleType) float64 {
	switch t {
	case models.CandleBullish:
		return 1
	case models.CandleBearish:
		return -1
	default:
		return 0
	}
}
