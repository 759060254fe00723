package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
	"MarketSense/pkg/util"
)

// CandlesUseCase provides business logic for retrieving candles.
type CandlesUseCase struct {
	store domrepo.CandleStore
}

func NewCandlesUseCase(store domrepo.CandleStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Asset     string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Asset     string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Asset == "" {
		return nil, fmt.Errorf("asset required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}
	p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Timeframe))

	candles, err := uc.store.GetCandles(ctx, p.Asset, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	return &GetCandlesResult{
		Asset:     p.Asset,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}

// GetLatest returns the most recent n candles for an asset.
func (uc *CandlesUseCase) GetLatest(ctx context.Context, asset string, n int, tf domrepo.Timeframe) (*GetCandlesResult, error) {
	if asset == "" {
		return nil, fmt.Errorf("asset required")
	}
	if n <= 0 {
		n = 200
	}

	candles, err := uc.store.GetLatestNCandles(ctx, asset, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get latest candles: %w", err)
	}

	res := &GetCandlesResult{
		Asset:     asset,
		Timeframe: string(tf),
		Count:     len(candles),
		Candles:   candles,
	}
	if len(candles) > 0 {
		res.From = candles[0].Timestamp
		res.To = candles[len(candles)-1].Timestamp
	}
	return res, nil
}
