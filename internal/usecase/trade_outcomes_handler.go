package usecase

import (
	"context"
	"encoding/json"
	"time"

	"MarketSense/internal/domain/models"
	pkgkafka "MarketSense/pkg/kafka"
)

// TradeOutcomesHandler consumes closed-trade outcome messages and appends
// them to the trade ledger.
type TradeOutcomesHandler struct {
	topic  string
	ledger *TradeLedgerUseCase
}

func NewTradeOutcomesHandler(topic string, ledger *TradeLedgerUseCase) *TradeOutcomesHandler {
	return &TradeOutcomesHandler{topic: topic, ledger: ledger}
}

func (h *TradeOutcomesHandler) Topic() string { return h.topic }

// incoming message schema: {asset, timeframe, direction, outcome, score,
// entry_price, exit_price, snapshot, opened_at, closed_at}
func (h *TradeOutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Asset      string                   `json:"asset"`
		Timeframe  string                   `json:"timeframe"`
		Direction  string                   `json:"direction"`
		Outcome    string                   `json:"outcome"`
		Score      float64                  `json:"score"`
		EntryPrice float64                  `json:"entry_price"`
		ExitPrice  float64                  `json:"exit_price"`
		Snapshot   models.IndicatorSnapshot `json:"snapshot"`
		OpenedAt   int64                    `json:"opened_at"`
		ClosedAt   int64                    `json:"closed_at"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m.OpenedAt > 1e11 { // ms
		m.OpenedAt = m.OpenedAt / 1000
	}
	if m.ClosedAt > 1e11 { // ms
		m.ClosedAt = m.ClosedAt / 1000
	}

	rec := &models.TradeRecord{
		Asset:      m.Asset,
		Timeframe:  m.Timeframe,
		Direction:  models.TradeDirection(m.Direction),
		Outcome:    models.TradeOutcome(m.Outcome),
		Score:      m.Score,
		EntryPrice: m.EntryPrice,
		ExitPrice:  m.ExitPrice,
		Snapshot:   m.Snapshot,
	}
	if m.OpenedAt > 0 {
		rec.OpenedAt = time.Unix(m.OpenedAt, 0).UTC()
	}
	if m.ClosedAt > 0 {
		rec.ClosedAt = time.Unix(m.ClosedAt, 0).UTC()
	}
	return h.ledger.Record(ctx, rec)
}

var _ pkgkafka.MessageHandler = (*TradeOutcomesHandler)(nil)
