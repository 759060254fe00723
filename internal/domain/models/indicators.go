package models

import "time"

// IndicatorSignal is a categorical per-indicator state.
type IndicatorSignal string

const (
	SignalNeutral    IndicatorSignal = "NEUTRAL"
	SignalBullish    IndicatorSignal = "BULLISH"
	SignalBearish    IndicatorSignal = "BEARISH"
	SignalOverbought IndicatorSignal = "OVERBOUGHT"
	SignalOversold   IndicatorSignal = "OVERSOLD"
)

// Crossover is the EMA fast/slow crossover state of the latest bar.
type Crossover string

const (
	CrossNone    Crossover = "NONE"
	CrossBullish Crossover = "BULLISH_CROSS"
	CrossBearish Crossover = "BEARISH_CROSS"
)

// CandleType classifies a bar by its close relative to its open.
type CandleType string

const (
	CandleBullish CandleType = "BULLISH"
	CandleBearish CandleType = "BEARISH"
	CandleDoji    CandleType = "DOJI"
)

// CandlePattern is a basic single-bar shape classification.
type CandlePattern string

const (
	PatternNone            CandlePattern = "NONE"
	PatternDoji            CandlePattern = "DOJI"
	PatternHammer          CandlePattern = "HAMMER"
	PatternInvertedHammer  CandlePattern = "INVERTED_HAMMER"
	PatternMarubozuBullish CandlePattern = "MARUBOZU_BULLISH"
	PatternMarubozuBearish CandlePattern = "MARUBOZU_BEARISH"
	PatternSpinningTop     CandlePattern = "SPINNING_TOP"
	PatternStandard        CandlePattern = "STANDARD"
)

// BiasDirection is the aggregate directional lean across indicators.
type BiasDirection string

const (
	BiasBullish BiasDirection = "BULLISH"
	BiasBearish BiasDirection = "BEARISH"
	BiasNeutral BiasDirection = "NEUTRAL"
)

// RSIState holds the RSI value and its categorical signal for the last bar.
type RSIState struct {
	Value    float64         `json:"value"`
	Signal   IndicatorSignal `json:"signal"`
	Strength float64         `json:"strength"`
}

// EMAState holds the dual-EMA values, signal and crossover for the last bar.
type EMAState struct {
	Fast      float64         `json:"fast"`
	Slow      float64         `json:"slow"`
	Signal    IndicatorSignal `json:"signal"`
	Crossover Crossover       `json:"crossover"`
	Strength  float64         `json:"strength"`
}

// MACDState holds the MACD line, signal line, histogram and trend.
type MACDState struct {
	Value      float64         `json:"value"`
	SignalLine float64         `json:"signal_line"`
	Histogram  float64         `json:"histogram"`
	Trend      IndicatorSignal `json:"trend"`
	Strength   float64         `json:"strength"`
}

// BollingerState holds the band values for the last bar.
// Percent is intentionally not clamped to [0,1]: a close outside the bands
// produces values below 0 or above 1, and the trap checks rely on that.
type BollingerState struct {
	Upper   float64         `json:"upper"`
	Middle  float64         `json:"middle"`
	Lower   float64         `json:"lower"`
	Width   float64         `json:"width"`
	Percent float64         `json:"percent"`
	Signal  IndicatorSignal `json:"signal"`
}

// CandleState holds the last bar's shape classification.
type CandleState struct {
	Type    CandleType    `json:"type"`
	Pattern CandlePattern `json:"pattern"`
}

// OverallBias tallies bullish-like vs bearish-like indicator states.
type OverallBias struct {
	Direction      BiasDirection `json:"direction"`
	Confidence     float64       `json:"confidence"`
	BullishSignals int           `json:"bullish_signals"`
	BearishSignals int           `json:"bearish_signals"`
	TotalSignals   int           `json:"total_signals"`
}

// IndicatorSnapshot is the fully-populated derived state of the last bar of a
// candle series. It is normalized at the indicator engine boundary: every
// field carries either a computed value or its neutral default, so downstream
// consumers never need per-field defaulting.
type IndicatorSnapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Price     float64        `json:"price"`
	RSI       RSIState       `json:"rsi"`
	EMA       EMAState       `json:"ema"`
	MACD      MACDState      `json:"macd"`
	Bollinger BollingerState `json:"bollinger"`
	Candle    CandleState    `json:"candle"`
	Bias      OverallBias    `json:"overall_bias"`
	Valid     bool           `json:"valid"`
}

// NeutralSnapshot returns the defaulted snapshot used when fewer than
// MinBarsIndicators bars are available.
func NeutralSnapshot() IndicatorSnapshot {
	return IndicatorSnapshot{
		RSI:       RSIState{Value: 50, Signal: SignalNeutral, Strength: 0.5},
		EMA:       EMAState{Signal: SignalNeutral, Crossover: CrossNone, Strength: 0.5},
		MACD:      MACDState{Trend: SignalNeutral, Strength: 0.5},
		Bollinger: BollingerState{Percent: 0.5, Signal: SignalNeutral},
		Candle:    CandleState{Type: CandleDoji, Pattern: PatternNone},
		Bias:      OverallBias{Direction: BiasNeutral, Confidence: 0.5, TotalSignals: 5},
	}
}
