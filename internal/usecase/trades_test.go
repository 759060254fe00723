package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketSense/internal/domain/models"
	"MarketSense/internal/services/analytics"
)

func TestRecordValidation(t *testing.T) {
	uc := NewTradeLedgerUseCase(&fakeTradeStore{}, newFakeMetrics(), testLogger(t))

	if err := uc.Record(context.Background(), &models.TradeRecord{Outcome: models.OutcomeWin}); err == nil {
		t.Error("expected error for missing asset")
	}
	if err := uc.Record(context.Background(), &models.TradeRecord{Asset: "EUR/USD", Outcome: "DRAW"}); err == nil {
		t.Error("expected error for invalid outcome")
	}
}

func TestRecordDefaultsClosedAtAndSession(t *testing.T) {
	store := &fakeTradeStore{}
	uc := NewTradeLedgerUseCase(store, newFakeMetrics(), testLogger(t))

	rec := &models.TradeRecord{Asset: "EUR/USD", Outcome: models.OutcomeWin}
	if err := uc.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if rec.ClosedAt.IsZero() {
		t.Error("ClosedAt not defaulted")
	}
	if want := analytics.SessionFor(rec.ClosedAt); rec.Session != want {
		t.Errorf("Session = %v, want %v", rec.Session, want)
	}
	if len(store.recorded) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.recorded))
	}
}

func TestRecordKeepsExplicitSession(t *testing.T) {
	store := &fakeTradeStore{}
	uc := NewTradeLedgerUseCase(store, newFakeMetrics(), testLogger(t))

	rec := &models.TradeRecord{
		Asset:    "EUR/USD",
		Outcome:  models.OutcomeLoss,
		Session:  models.SessionAsian,
		ClosedAt: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), // overlap hours
	}
	if err := uc.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Session != models.SessionAsian {
		t.Errorf("Session = %v, explicit value overwritten", rec.Session)
	}
}

func TestRecordSurfacesStoreErrors(t *testing.T) {
	store := &fakeTradeStore{saveErr: errors.New("storage down")}
	metrics := newFakeMetrics()
	uc := NewTradeLedgerUseCase(store, metrics, testLogger(t))

	rec := &models.TradeRecord{Asset: "EUR/USD", Outcome: models.OutcomeWin}
	if err := uc.Record(context.Background(), rec); err == nil {
		t.Fatal("expected store error")
	}
	if metrics.errors["trade_record"] != 1 {
		t.Errorf("trade_record error not recorded, got %v", metrics.errors)
	}
}

func TestListClampsLimit(t *testing.T) {
	store := &fakeTradeStore{}
	for i := 0; i < 150; i++ {
		store.recorded = append(store.recorded, &models.TradeRecord{Asset: "EUR/USD", Outcome: models.OutcomeWin})
	}
	uc := NewTradeLedgerUseCase(store, newFakeMetrics(), testLogger(t))

	out, err := uc.List(context.Background(), "EUR/USD", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 100 {
		t.Errorf("got %d trades for limit 0, want the default 100", len(out))
	}

	out, err = uc.List(context.Background(), "EUR/USD", 5000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 100 {
		t.Errorf("got %d trades for an oversized limit, want 100", len(out))
	}
}
