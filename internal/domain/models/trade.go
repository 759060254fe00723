package models

import "time"

// TradeOutcome is the recorded result of a closed trade.
type TradeOutcome string

const (
	OutcomeWin  TradeOutcome = "WIN"
	OutcomeLoss TradeOutcome = "LOSS"
)

// TradeRecord is one historical trade with the indicator snapshot captured
// at entry time. Snapshots feed model training and session statistics.
type TradeRecord struct {
	ID         uint64            `json:"id"`
	Asset      string            `json:"asset"`
	Timeframe  string            `json:"timeframe"`
	Direction  TradeDirection    `json:"direction"`
	Session    MarketSession     `json:"session"`
	Outcome    TradeOutcome      `json:"outcome"`
	Score      float64           `json:"score"`
	EntryPrice float64           `json:"entry_price"`
	ExitPrice  float64           `json:"exit_price"`
	Snapshot   IndicatorSnapshot `json:"snapshot"`
	OpenedAt   time.Time         `json:"opened_at"`
	ClosedAt   time.Time         `json:"closed_at"`
}

// Won reports whether the trade closed in profit.
func (t *TradeRecord) Won() bool { return t.Outcome == OutcomeWin }

// SessionPerformance is the historical win rate for one market session.
type SessionPerformance struct {
	Session MarketSession `json:"session"`
	Trades  int           `json:"trades"`
	Wins    int           `json:"wins"`
	WinRate float64       `json:"win_rate"` // 0-1
}

// MinSessionTrades is the sample floor below which session win rates are
// ignored in favor of the static session quality table.
const MinSessionTrades = 10

// TrainResult summarizes one training run of the probability model.
type TrainResult struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message,omitempty"`
	ModelVersion   string    `json:"model_version,omitempty"`
	Samples        int       `json:"samples"`
	CurrentSamples int       `json:"current_samples,omitempty"`
	Accuracy       float64   `json:"accuracy,omitempty"`
	Precision      float64   `json:"precision,omitempty"`
	Recall         float64   `json:"recall,omitempty"`
	F1             float64   `json:"f1,omitempty"`
	CVAccuracy     float64   `json:"cv_accuracy,omitempty"`
	CVStdDev       float64   `json:"cv_std_dev,omitempty"`
	TrainedAt      time.Time `json:"trained_at,omitempty"`

	// FeatureImportances maps each feature name to the absolute weight the
	// model assigned it.
	FeatureImportances map[string]float64 `json:"feature_importances,omitempty"`
}

// MinTrainingSamples is the minimum labeled trades needed before a model
// training run is attempted.
const MinTrainingSamples = 100

// ScoreBandStats is win-rate effectiveness aggregated by score band.
type ScoreBandStats struct {
	Band    string  `json:"band"` // e.g. "61-75"
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// EffectivenessReport correlates historical setup scores with outcomes.
type EffectivenessReport struct {
	TotalTrades int                  `json:"total_trades"`
	Overall     float64              `json:"overall_win_rate"`
	ByBand      []ScoreBandStats     `json:"by_band"`
	BySession   []SessionPerformance `json:"by_session"`
	GeneratedAt time.Time            `json:"generated_at"`
}
