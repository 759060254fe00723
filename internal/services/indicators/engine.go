package indicators

import (
	"math"

	"MarketSense/internal/domain/models"
)

// Config holds the lookback periods and thresholds for all indicators.
type Config struct {
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
	EMAFast       int
	EMASlow       int
	MACDFast      int
	MACDSlow      int
	MACDSignal    int
	BBPeriod      int
	BBStdDev      float64
}

// DefaultConfig returns the standard periods used across the system.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:     14,
		RSIOverbought: 70,
		RSIOversold:   30,
		EMAFast:       9,
		EMASlow:       21,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		BBPeriod:      20,
		BBStdDev:      2.0,
	}
}

// Option mutates the engine configuration.
type Option func(*Config)

// WithRSIPeriod overrides the RSI lookback.
func WithRSIPeriod(n int) Option { return func(c *Config) { c.RSIPeriod = n } }

// WithEMAPeriods overrides the fast/slow EMA lookbacks.
func WithEMAPeriods(fast, slow int) Option {
	return func(c *Config) { c.EMAFast = fast; c.EMASlow = slow }
}

// WithBollinger overrides the Bollinger period and band deviation.
func WithBollinger(period int, stdDev float64) Option {
	return func(c *Config) { c.BBPeriod = period; c.BBStdDev = stdDev }
}

// Engine computes indicator snapshots from OHLCV windows.
type Engine struct {
	cfg Config
}

// NewEngine builds an indicator engine with optional overrides.
func NewEngine(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{cfg: cfg}
}

// Analyze computes the full indicator snapshot for the last bar of candles.
// Fewer than models.MinBarsIndicators bars yields the neutral snapshot with
// Valid unset.
func (e *Engine) Analyze(candles []models.Candle) models.IndicatorSnapshot {
	if len(candles) < models.MinBarsIndicators {
		return models.NeutralSnapshot()
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	last := len(candles) - 1

	snap := models.IndicatorSnapshot{
		Timestamp: candles[last].Timestamp,
		Price:     closes[last],
		Valid:     true,
	}

	snap.RSI = e.analyzeRSI(closes)
	snap.EMA = e.analyzeEMA(closes)
	snap.MACD = e.analyzeMACD(closes)
	snap.Bollinger = e.analyzeBollinger(closes)
	snap.Candle = classifyCandle(candles[last])
	snap.Bias = overallBias(snap)
	return snap
}

// WidthHistory returns the Bollinger band width series for candles, one value
// per bar where the band is defined. Used as the baseline for volatility
// spike detection.
func (e *Engine) WidthHistory(candles []models.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	middle := rollingMean(closes, e.cfg.BBPeriod)
	stddev := rollingStd(closes, e.cfg.BBPeriod)

	out := make([]float64, 0, len(closes))
	for i := range closes {
		m := middle[i]
		if math.IsNaN(m) || m == 0 {
			continue
		}
		band := 2 * e.cfg.BBStdDev * stddev[i]
		out = append(out, band/m)
	}
	return out
}

func (e *Engine) analyzeRSI(closes []float64) models.RSIState {
	series := rsiSeries(closes, e.cfg.RSIPeriod)
	v := series[len(series)-1]
	if math.IsNaN(v) {
		return models.RSIState{Value: 50, Signal: models.SignalNeutral, Strength: 0.5}
	}
	return models.RSIState{
		Value:    v,
		Signal:   e.rsiSignal(v),
		Strength: math.Abs(v-50) / 50,
	}
}

func (e *Engine) rsiSignal(v float64) models.IndicatorSignal {
	switch {
	case v >= e.cfg.RSIOverbought:
		return models.SignalOverbought
	case v <= e.cfg.RSIOversold:
		return models.SignalOversold
	case v > 50:
		return models.SignalBullish
	case v < 50:
		return models.SignalBearish
	default:
		return models.SignalNeutral
	}
}

func (e *Engine) analyzeEMA(closes []float64) models.EMAState {
	fast := emaSeries(closes, e.cfg.EMAFast)
	slow := emaSeries(closes, e.cfg.EMASlow)
	last := len(closes) - 1

	f, s := fast[last], slow[last]
	if math.IsNaN(f) || math.IsNaN(s) {
		return models.EMAState{Signal: models.SignalNeutral, Crossover: models.CrossNone, Strength: 0.5}
	}

	state := models.EMAState{
		Fast:      f,
		Slow:      s,
		Signal:    models.SignalNeutral,
		Crossover: models.CrossNone,
	}
	switch {
	case f > s:
		state.Signal = models.SignalBullish
	case f < s:
		state.Signal = models.SignalBearish
	}

	if s == 0 {
		state.Strength = 0.5
	} else {
		state.Strength = math.Min(math.Abs(f-s)/s*10, 1.0)
	}

	// A cross only counts when it happened on the latest bar.
	if last > 0 && !math.IsNaN(fast[last-1]) && !math.IsNaN(slow[last-1]) {
		pf, ps := fast[last-1], slow[last-1]
		switch {
		case pf <= ps && f > s:
			state.Crossover = models.CrossBullish
		case pf >= ps && f < s:
			state.Crossover = models.CrossBearish
		}
	}
	return state
}

func (e *Engine) analyzeMACD(closes []float64) models.MACDState {
	fast := emaSeries(closes, e.cfg.MACDFast)
	slow := emaSeries(closes, e.cfg.MACDSlow)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i] // NaN propagates through the warmup
	}
	signal := emaSeriesFrom(macd, e.cfg.MACDSignal)

	last := len(closes) - 1
	m, sig := macd[last], signal[last]
	if math.IsNaN(m) {
		return models.MACDState{Trend: models.SignalNeutral, Strength: 0.5}
	}

	state := models.MACDState{Value: m, Trend: models.SignalNeutral, Strength: 0.5}
	if math.IsNaN(sig) {
		return state
	}
	state.SignalLine = sig
	state.Histogram = m - sig
	switch {
	case m > sig:
		state.Trend = models.SignalBullish
	case m < sig:
		state.Trend = models.SignalBearish
	}
	state.Strength = math.Min(math.Abs(state.Histogram)*100, 1.0)
	return state
}

func (e *Engine) analyzeBollinger(closes []float64) models.BollingerState {
	middle := rollingMean(closes, e.cfg.BBPeriod)
	stddev := rollingStd(closes, e.cfg.BBPeriod)

	last := len(closes) - 1
	m := middle[last]
	if math.IsNaN(m) {
		return models.BollingerState{Percent: 0.5, Signal: models.SignalNeutral}
	}

	dev := e.cfg.BBStdDev * stddev[last]
	upper := m + dev
	lower := m - dev
	close := closes[last]

	state := models.BollingerState{
		Upper:   upper,
		Middle:  m,
		Lower:   lower,
		Percent: 0.5,
		Signal:  models.SignalNeutral,
	}
	if m != 0 {
		state.Width = (upper - lower) / m
	}
	if band := upper - lower; band > 0 {
		state.Percent = (close - lower) / band
	}
	switch {
	case close >= upper:
		state.Signal = models.SignalOverbought
	case close <= lower:
		state.Signal = models.SignalOversold
	case close > m:
		state.Signal = models.SignalBullish
	case close < m:
		state.Signal = models.SignalBearish
	}
	return state
}

func classifyCandle(c models.Candle) models.CandleState {
	state := models.CandleState{Type: models.CandleDoji, Pattern: models.PatternNone}
	switch {
	case c.Close > c.Open:
		state.Type = models.CandleBullish
	case c.Close < c.Open:
		state.Type = models.CandleBearish
	}

	rng := c.Range()
	if rng == 0 {
		return state
	}

	body := c.Body()
	upper := c.UpperWick()
	lower := c.LowerWick()
	bodyRatio := body / rng

	switch {
	case bodyRatio < 0.1:
		state.Pattern = models.PatternDoji
	case lower > body*2 && upper < body*0.5:
		state.Pattern = models.PatternHammer
	case upper > body*2 && lower < body*0.5:
		state.Pattern = models.PatternInvertedHammer
	case bodyRatio > 0.8 && state.Type == models.CandleBullish:
		state.Pattern = models.PatternMarubozuBullish
	case bodyRatio > 0.8 && state.Type == models.CandleBearish:
		state.Pattern = models.PatternMarubozuBearish
	case bodyRatio < 0.3 && upper > body && lower > body:
		state.Pattern = models.PatternSpinningTop
	default:
		state.Pattern = models.PatternStandard
	}
	return state
}

func overallBias(snap models.IndicatorSnapshot) models.OverallBias {
	states := []string{
		string(snap.RSI.Signal),
		string(snap.EMA.Signal),
		string(snap.MACD.Trend),
		string(snap.Bollinger.Signal),
		string(snap.Candle.Type),
	}

	bullish, bearish := 0, 0
	for _, s := range states {
		switch s {
		case "BULLISH", "OVERSOLD", "BULLISH_CROSS":
			bullish++
		case "BEARISH", "OVERBOUGHT", "BEARISH_CROSS":
			bearish++
		}
	}

	bias := models.OverallBias{
		BullishSignals: bullish,
		BearishSignals: bearish,
		TotalSignals:   len(states),
	}
	switch {
	case bullish > bearish:
		bias.Direction = models.BiasBullish
		bias.Confidence = float64(bullish) / float64(len(states))
	case bearish > bullish:
		bias.Direction = models.BiasBearish
		bias.Confidence = float64(bearish) / float64(len(states))
	default:
		bias.Direction = models.BiasNeutral
		bias.Confidence = 0.5
	}
	return bias
}
