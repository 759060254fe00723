package repository

import (
	"context"
	"testing"
	"time"

	"MarketSense/internal/domain/models"
	icache "MarketSense/internal/service/cache"
)

func TestCachedSignalsRoundTrip(t *testing.T) {
	backend := icache.NewTTLCache()
	c := NewCachedSignals(backend)
	ctx := context.Background()

	sig := &models.Signal{
		Asset:     "EUR/USD",
		Timeframe: "1m",
		Action:    models.ActionBuy,
		Score:     78,
	}
	if err := c.Set(ctx, "EUR/USD:1m", sig, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(ctx, "EUR/USD:1m")
	if !ok {
		t.Fatal("cached signal not found")
	}
	if got.Asset != sig.Asset || got.Action != sig.Action || got.Score != sig.Score {
		t.Errorf("got %+v, want %+v", got, sig)
	}
}

func TestCachedSignalsMiss(t *testing.T) {
	c := NewCachedSignals(icache.NewTTLCache())
	if _, ok := c.Get(context.Background(), "GBP/USD:1m"); ok {
		t.Fatal("unexpected hit for an unset key")
	}
}

func TestCachedSignalsKeysArePrefixed(t *testing.T) {
	backend := icache.NewTTLCache()
	c := NewCachedSignals(backend)
	ctx := context.Background()

	if err := c.Set(ctx, "EUR/USD:1m", &models.Signal{Asset: "EUR/USD"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := backend.GetBytes("signal:EUR/USD:1m"); !ok {
		t.Error("backend key missing the signal prefix")
	}
	if _, ok, _ := backend.GetBytes("EUR/USD:1m"); ok {
		t.Error("backend stored an unprefixed key")
	}
}

func TestCachedSignalsIgnoresCorruptEntries(t *testing.T) {
	backend := icache.NewTTLCache()
	c := NewCachedSignals(backend)

	if err := backend.SetBytes("signal:EUR/USD:1m", []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	if _, ok := c.Get(context.Background(), "EUR/USD:1m"); ok {
		t.Fatal("corrupt entry served as a hit")
	}
}
