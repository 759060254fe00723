package usecase

import (
	"context"
	"testing"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
)

func TestGetCandlesValidation(t *testing.T) {
	uc := NewCandlesUseCase(&fakeCandleStore{})
	ctx := context.Background()

	if _, err := uc.GetCandles(ctx, GetCandlesParams{}); err == nil {
		t.Error("expected error for missing asset")
	}

	from := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p := GetCandlesParams{Asset: "EUR/USD", From: from, To: from.Add(-time.Hour)}
	if _, err := uc.GetCandles(ctx, p); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestGetCandlesAppliesLimit(t *testing.T) {
	store := &fakeCandleStore{candles: map[string][]models.Candle{
		"EUR/USD": risingCandles(50, 100, 0.1),
	}}
	uc := NewCandlesUseCase(store)

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Asset: "EUR/USD",
		To:    time.Now().UTC(),
		Limit: 20,
	})
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if res.Count != 20 || len(res.Candles) != 20 {
		t.Errorf("Count = %d with %d candles, want 20", res.Count, len(res.Candles))
	}
	if res.Asset != "EUR/USD" {
		t.Errorf("Asset = %q", res.Asset)
	}
}

func TestGetCandlesAlignsRange(t *testing.T) {
	store := &fakeCandleStore{candles: map[string][]models.Candle{
		"EUR/USD": risingCandles(10, 100, 0.1),
	}}
	uc := NewCandlesUseCase(store)

	from := time.Date(2026, 3, 2, 9, 7, 33, 0, time.UTC)
	to := time.Date(2026, 3, 2, 10, 13, 59, 0, time.UTC)
	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Asset:     "EUR/USD",
		From:      from,
		To:        to,
		Timeframe: domrepo.TF5m,
	})
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if want := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC); !res.From.Equal(want) {
		t.Errorf("From = %v, want bucket boundary %v", res.From, want)
	}
	if want := time.Date(2026, 3, 2, 10, 10, 0, 0, time.UTC); !res.To.Equal(want) {
		t.Errorf("To = %v, want bucket boundary %v", res.To, want)
	}
}

func TestGetLatestReportsRange(t *testing.T) {
	candles := risingCandles(30, 100, 0.1)
	store := &fakeCandleStore{candles: map[string][]models.Candle{"EUR/USD": candles}}
	uc := NewCandlesUseCase(store)

	res, err := uc.GetLatest(context.Background(), "EUR/USD", 10, domrepo.TF1m)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if res.Count != 10 {
		t.Errorf("Count = %d, want 10", res.Count)
	}
	if !res.From.Equal(candles[20].Timestamp) || !res.To.Equal(candles[29].Timestamp) {
		t.Errorf("range %v..%v, want the last 10 bars", res.From, res.To)
	}
	if res.Timeframe != "1m" {
		t.Errorf("Timeframe = %q", res.Timeframe)
	}
}

func TestGetLatestRequiresAsset(t *testing.T) {
	uc := NewCandlesUseCase(&fakeCandleStore{})
	if _, err := uc.GetLatest(context.Background(), "", 10, domrepo.TF1m); err == nil {
		t.Fatal("expected error for missing asset")
	}
}
