package models

// Requests for the signal HTTP endpoints. Defined in domain for consistency and reuse.

type SignalRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	TF    string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m"`
	N     int    `query:"n" json:"n" default:"120" validate:"gte=30,lte=5000"`
}

type ScanRequest struct {
	Assets string `query:"assets" json:"assets"` // empty scans the configured universe
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=30,lte=5000"`
}

type CandlesRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
	TF    string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m"`
	N     int    `query:"n" json:"n" default:"200" validate:"gte=1,lte=10000"`
}

type TrainRequest struct {
	Asset string `query:"asset" json:"asset"`
	Force bool   `query:"force" json:"force"`
	Async bool   `query:"async" json:"async"` // queue the run instead of blocking
}

type RecordTradeRequest struct {
	Asset      string            `json:"asset" validate:"required"`
	Timeframe  string            `json:"timeframe" default:"1m" validate:"oneof=1m 5m 15m"`
	Direction  string            `json:"direction" validate:"required,oneof=CALL PUT"`
	Outcome    string            `json:"outcome" validate:"required,oneof=WIN LOSS"`
	Score      float64           `json:"score" validate:"gte=0,lte=100"`
	EntryPrice float64           `json:"entry_price" validate:"gt=0"`
	ExitPrice  float64           `json:"exit_price" validate:"gt=0"`
	Snapshot   IndicatorSnapshot `json:"snapshot"`
	OpenedAt   int64             `json:"opened_at"`  // unix seconds
	ClosedAt   int64             `json:"closed_at"`  // unix seconds
}

type ListTradesRequest struct {
	Asset string `query:"asset" json:"asset"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type EffectivenessRequest struct {
	Asset string `query:"asset" json:"asset"`
	Days  int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}
