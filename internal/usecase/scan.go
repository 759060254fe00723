package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
)

// DefaultAssets are the pairs scanned when the caller does not narrow the set.
var DefaultAssets = []string{
	"EUR/USD", "GBP/USD", "USD/JPY", "AUD/USD", "USD/CAD",
	"EUR/GBP", "EUR/JPY", "GBP/JPY", "GOLD", "SILVER",
}

// ScanUseCase runs the signal pipeline across a set of assets concurrently.
type ScanUseCase struct {
	generator   *SignalGenerator
	assets      []string
	concurrency int
	timeout     time.Duration
}

// ScanOption configures ScanUseCase.
type ScanOption func(*ScanUseCase)

// WithScanConcurrency bounds the number of assets analyzed in parallel.
func WithScanConcurrency(n int) ScanOption {
	return func(u *ScanUseCase) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// WithScanAssets overrides the default asset universe.
func WithScanAssets(assets []string) ScanOption {
	return func(u *ScanUseCase) {
		if len(assets) > 0 {
			u.assets = assets
		}
	}
}

func NewScanUseCase(generator *SignalGenerator, opts ...ScanOption) *ScanUseCase {
	u := &ScanUseCase{generator: generator, assets: DefaultAssets, concurrency: 4, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type ScanParams struct {
	Assets    []string
	N         int
	Timeframe domrepo.Timeframe
}

// ScanResult carries the per-asset signals plus any per-asset failures.
type ScanResult struct {
	Signals   []*models.Signal  `json:"signals"`
	Errors    map[string]string `json:"errors,omitempty"`
	ScannedAt time.Time         `json:"scanned_at"`
}

// Scan evaluates every asset with bounded concurrency. A failing asset does
// not fail the scan; it is reported in Errors. Signals come back sorted by
// score, best setups first.
func (uc *ScanUseCase) Scan(ctx context.Context, p ScanParams) (*ScanResult, error) {
	assets := p.Assets
	if len(assets) == 0 {
		assets = uc.assets
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	type item struct {
		asset string
		sig   *models.Signal
		err   error
	}
	ch := make(chan item, len(assets))
	sem := make(chan struct{}, uc.concurrency)
	var wg sync.WaitGroup

	for _, asset := range assets {
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sig, err := uc.generator.Generate(ctx, GenerateParams{
				Asset:     asset,
				N:         p.N,
				Timeframe: p.Timeframe,
			})
			ch <- item{asset, sig, err}
		}(asset)
	}
	go func() { wg.Wait(); close(ch) }()

	res := &ScanResult{ScannedAt: time.Now().UTC(), Errors: map[string]string{}}
	for it := range ch {
		if it.err != nil {
			res.Errors[it.asset] = it.err.Error()
			continue
		}
		res.Signals = append(res.Signals, it.sig)
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}

	sort.Slice(res.Signals, func(i, j int) bool {
		return res.Signals[i].Score > res.Signals[j].Score
	})
	return res, nil
}

// TopSetups returns the tradeable signals from a completed scan.
func (r *ScanResult) TopSetups(limit int) []*models.Signal {
	out := make([]*models.Signal, 0, limit)
	for _, s := range r.Signals {
		if !s.Tradeable() {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
