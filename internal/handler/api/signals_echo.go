package api

import (
	"strings"
	"time"

	models "MarketSense/internal/domain/models"
	domrepo "MarketSense/internal/domain/repository"
	"MarketSense/internal/service/metrics"
	"MarketSense/internal/service/ratelimit"
	"MarketSense/internal/usecase"
	xhttp "MarketSense/pkg/http"
	xlogger "MarketSense/pkg/logger"
	"MarketSense/pkg/queue"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type SignalsEchoHandler struct {
	logger    *xlogger.Logger
	generator *usecase.SignalGenerator
	scan      *usecase.ScanUseCase
	candles   *usecase.CandlesUseCase
	train     *usecase.TrainUseCase
	ledger    *usecase.TradeLedgerUseCase
	jobs      queue.QueueService // optional, enables async training
	rl        *ratelimit.Limiter
}

func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	generator *usecase.SignalGenerator,
	scan *usecase.ScanUseCase,
	candles *usecase.CandlesUseCase,
	train *usecase.TrainUseCase,
	ledger *usecase.TradeLedgerUseCase,
	jobs queue.QueueService,
) *SignalsEchoHandler {
	metrics.Register()
	return &SignalsEchoHandler{
		logger:    logger,
		generator: generator,
		scan:      scan,
		candles:   candles,
		train:     train,
		ledger:    ledger,
		jobs:      jobs,
		rl:        ratelimit.New(),
	}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/scan", h.Scan)
	g.GET("/candles", h.Candles)
	g.POST("/trades", h.RecordTrade)
	g.GET("/trades", h.ListTrades)
	g.POST("/model/train", h.Train)
	g.GET("/model/status", h.ModelStatus)
	g.GET("/analysis/effectiveness", h.Effectiveness)
}

func (h *SignalsEchoHandler) observe(endpoint string, start time.Time) {
	metrics.SignalLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *SignalsEchoHandler) Signal(c echo.Context) error {
	start := time.Now()
	defer h.observe("signal", start)

	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":signal", 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	sig, err := h.generator.Generate(c.Request().Context(), usecase.GenerateParams{
		Asset:     req.Asset,
		N:         req.N,
		Timeframe: tf,
	})
	if err != nil {
		metrics.SignalErrors.WithLabelValues("signal").Inc()
		h.logger.Error("signal usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, sig)
}

func (h *SignalsEchoHandler) Scan(c echo.Context) error {
	start := time.Now()
	defer h.observe("scan", start)

	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":scan", 2, 0.5) {
		return xhttp.TooManyRequestsResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	assets := splitAssets(req.Assets)
	res, err := h.scan.Scan(c.Request().Context(), usecase.ScanParams{
		Assets:    assets,
		N:         req.N,
		Timeframe: tf,
	})
	if err != nil {
		metrics.SignalErrors.WithLabelValues("scan").Inc()
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Candles(c echo.Context) error {
	start := time.Now()
	defer h.observe("candles", start)

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	var res *usecase.GetCandlesResult
	var err error
	if rawFrom, rawTo := c.QueryParam("from"), c.QueryParam("to"); rawFrom != "" || rawTo != "" {
		now := time.Now().UTC()
		res, err = h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
			Asset:     req.Asset,
			From:      xhttp.ParseTimeDefault(rawFrom, now.Add(-24*time.Hour)),
			To:        xhttp.ParseTimeDefault(rawTo, now),
			Timeframe: tf,
			Limit:     req.N,
		})
	} else {
		res, err = h.candles.GetLatest(c.Request().Context(), req.Asset, req.N, tf)
	}
	if err != nil {
		metrics.SignalErrors.WithLabelValues("candles").Inc()
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Train(c echo.Context) error {
	start := time.Now()
	defer h.observe("train", start)

	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// training is expensive, one run per minute per caller
	if !h.rl.Allow(c.RealIP()+":train", 1, 1.0/60) {
		return xhttp.TooManyRequestsResponse(c)
	}

	if req.Async && h.jobs != nil {
		if err := h.jobs.PublishMessage(c.Request().Context(), usecase.TrainMessageType, usecase.TrainParams{
			Asset: req.Asset,
			Force: req.Force,
		}); err != nil {
			metrics.SignalErrors.WithLabelValues("train").Inc()
			h.logger.Error("train enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.SuccessResponse(c, map[string]any{"queued": true})
	}

	res, err := h.train.Train(c.Request().Context(), usecase.TrainParams{
		Asset: req.Asset,
		Force: req.Force,
	})
	if err != nil {
		metrics.SignalErrors.WithLabelValues("train").Inc()
		h.logger.Error("train usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) RecordTrade(c echo.Context) error {
	start := time.Now()
	defer h.observe("record_trade", start)

	req := &models.RecordTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec := &models.TradeRecord{
		Asset:      req.Asset,
		Timeframe:  req.Timeframe,
		Direction:  models.TradeDirection(req.Direction),
		Outcome:    models.TradeOutcome(req.Outcome),
		Score:      req.Score,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Snapshot:   req.Snapshot,
	}
	if req.OpenedAt > 0 {
		rec.OpenedAt = time.Unix(req.OpenedAt, 0).UTC()
	}
	if req.ClosedAt > 0 {
		rec.ClosedAt = time.Unix(req.ClosedAt, 0).UTC()
	}

	if err := h.ledger.Record(c.Request().Context(), rec); err != nil {
		metrics.SignalErrors.WithLabelValues("record_trade").Inc()
		h.logger.Error("record trade error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *SignalsEchoHandler) ListTrades(c echo.Context) error {
	start := time.Now()
	defer h.observe("list_trades", start)

	req := &models.ListTradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	trades, err := h.ledger.List(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		metrics.SignalErrors.WithLabelValues("list_trades").Inc()
		h.logger.Error("list trades error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, trades)
}

func (h *SignalsEchoHandler) ModelStatus(c echo.Context) error {
	start := time.Now()
	defer h.observe("model_status", start)

	return xhttp.SuccessResponse(c, h.train.Status())
}

func (h *SignalsEchoHandler) Effectiveness(c echo.Context) error {
	start := time.Now()
	defer h.observe("effectiveness", start)

	req := &models.EffectivenessRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.train.Effectiveness(c.Request().Context(), usecase.EffectivenessParams{
		Asset: req.Asset,
		Days:  req.Days,
	})
	if err != nil {
		metrics.SignalErrors.WithLabelValues("effectiveness").Inc()
		h.logger.Error("effectiveness usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func splitAssets(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
