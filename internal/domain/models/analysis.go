package models

// TrendDirection is the regression-based trend classification.
type TrendDirection string

const (
	TrendUp       TrendDirection = "UPTREND"
	TrendDown     TrendDirection = "DOWNTREND"
	TrendSideways TrendDirection = "SIDEWAYS"
	TrendUnknown  TrendDirection = "UNKNOWN"
)

// VolatilityMetrics is the ATR-based volatility state of a candle window.
type VolatilityMetrics struct {
	ATR               float64 `json:"atr"`
	VolatilityPct     float64 `json:"volatility_pct"`
	AverageVolatility float64 `json:"avg_volatility"`
	IsHighVolatility  bool    `json:"is_high_volatility"`
}

// TrendMetrics is the least-squares trend fit over a candle window.
type TrendMetrics struct {
	Direction     TrendDirection `json:"trend"`
	Strength      float64        `json:"strength"` // R-squared of the fit
	Slope         float64        `json:"slope"`    // normalized, % of mean price per bar
	IsStrongTrend bool           `json:"is_strong_trend"`
}

// TrapType identifies one heuristic manipulation check.
type TrapType string

const (
	TrapPerfectSetup     TrapType = "PERFECT_SETUP_TRAP"
	TrapLateEntry        TrapType = "LATE_ENTRY_TRAP"
	TrapVolatilitySpike  TrapType = "VOLATILITY_SPIKE"
	TrapIndicatorDiverge TrapType = "INDICATOR_DIVERGENCE"
)

// TrapCheck is the result of a single trap heuristic.
type TrapCheck struct {
	Type      TrapType `json:"type"`
	Triggered bool     `json:"triggered"`
	Message   string   `json:"message"`
	// Check-specific numeric context.
	AlignmentRatio float64 `json:"alignment_ratio,omitempty"`
	BBPercent      float64 `json:"bb_percent,omitempty"`
	CurrentWidth   float64 `json:"current_width,omitempty"`
	RatioToAverage float64 `json:"ratio_to_average,omitempty"`
	BullishSignals int     `json:"bullish_signals,omitempty"`
	BearishSignals int     `json:"bearish_signals,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
}

// RiskAssessment buckets the cumulative trap risk score.
type RiskAssessment string

const (
	RiskLowAssessment RiskAssessment = "LOW_RISK"
	RiskModerate      RiskAssessment = "MODERATE_RISK"
	RiskHighTrap      RiskAssessment = "HIGH_RISK_TRAP"
)

// TrapAssessment aggregates the independent trap checks. OverallRiskScore is
// the raw sum of the triggered contributions (30+25+25+15 max); it is not
// clamped, matching the threshold comparisons that consume it.
type TrapAssessment struct {
	TrapsDetected    []TrapCheck    `json:"traps_detected"`
	RiskFactors      []TrapCheck    `json:"risk_factors"`
	OverallRiskScore float64        `json:"overall_risk_score"`
	Assessment       RiskAssessment `json:"assessment"`
	Recommendation   string         `json:"recommendation"`
}

// FactorScore is one weighted component of a strategy score.
type FactorScore struct {
	RawScore     float64 `json:"raw_score"` // clamped [0,1] before weighting
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"` // signed, 0-100 scale
}

// ScoreGrade labels a strategy score band.
type ScoreGrade string

const (
	GradeNoTrade     ScoreGrade = "NO_TRADE"
	GradeRisky       ScoreGrade = "RISKY"
	GradeAcceptable  ScoreGrade = "ACCEPTABLE"
	GradeHighQuality ScoreGrade = "HIGH_QUALITY"
)

// ScoreResult is the weighted multi-factor setup score.
type ScoreResult struct {
	FinalScore     float64                `json:"final_score"`
	Grade          ScoreGrade             `json:"grade"`
	GradeLabel     string                 `json:"grade_label"`
	Recommendation string                 `json:"recommendation"`
	Breakdown      map[string]FactorScore `json:"breakdown"`
}

// TradeRecommendation is the probability engine's verdict.
type TradeRecommendation string

const (
	RecommendEnter TradeRecommendation = "ENTER"
	RecommendWait  TradeRecommendation = "WAIT"
	RecommendAvoid TradeRecommendation = "AVOID"
)

// RiskLevel tiers a setup by estimated risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ProbabilityEstimate is the win-probability output of either predictor path.
type ProbabilityEstimate struct {
	Probability     float64             `json:"probability"` // 0-100
	Confidence      float64             `json:"confidence"`  // 0-100
	Recommendation  TradeRecommendation `json:"recommendation"`
	RiskLevel       RiskLevel           `json:"risk_level"`
	ModelVersion    string              `json:"model_version"`
	TrainingSamples int                 `json:"training_samples"`
}

// RuleBasedModelVersion marks estimates produced without a trained model.
const RuleBasedModelVersion = "rule_based"
