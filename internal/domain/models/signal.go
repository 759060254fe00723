package models

import "time"

// SignalAction is the final decision for an asset at a point in time.
type SignalAction string

const (
	ActionBuy        SignalAction = "BUY"
	ActionSell       SignalAction = "SELL"
	ActionWait       SignalAction = "WAIT"
	ActionDoNotTrade SignalAction = "DO_NOT_TRADE"
	ActionNoData     SignalAction = "NO_DATA"
)

// TradeDirection maps an action to the binary-option contract side.
type TradeDirection string

const (
	DirectionCall TradeDirection = "CALL"
	DirectionPut  TradeDirection = "PUT"
	DirectionNone TradeDirection = ""
)

// ConfidenceLevel is the qualitative confidence attached to a decision.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// MarketSession is the trading session bucket by UTC hour.
type MarketSession string

const (
	SessionAsian    MarketSession = "ASIAN"
	SessionLondon   MarketSession = "LONDON"
	SessionOverlap  MarketSession = "OVERLAP"
	SessionNewYork  MarketSession = "NEW_YORK"
	SessionOffHours MarketSession = "OFF_HOURS"
	SessionClosed   MarketSession = "CLOSED"
)

// Signal is the full analysis output for one asset and timeframe.
type Signal struct {
	Asset       string          `json:"asset"`
	Timeframe   string          `json:"timeframe"`
	Action      SignalAction    `json:"action"`
	Direction   TradeDirection  `json:"direction,omitempty"`
	Confidence  ConfidenceLevel `json:"confidence"`
	Score       float64         `json:"score"`
	Probability float64         `json:"probability"`
	Bias        BiasDirection   `json:"bias"`
	Session     MarketSession   `json:"session"`
	Reasons     []string        `json:"reasons"`
	Warnings    []string        `json:"warnings,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`

	Indicators  IndicatorSnapshot   `json:"indicators"`
	Volatility  VolatilityMetrics   `json:"volatility"`
	Trend       TrendMetrics        `json:"trend"`
	Traps       TrapAssessment      `json:"trap_analysis"`
	ScoreDetail ScoreResult         `json:"score_detail"`
	Estimate    ProbabilityEstimate `json:"probability_detail"`
}

// Tradeable reports whether the signal carries an actionable entry.
func (s *Signal) Tradeable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
