package api

import (
	"net/http"
	"time"

	domrepo "MarketSense/internal/domain/repository"
	"MarketSense/internal/service/ratelimit"
	"MarketSense/internal/usecase"
	xlogger "MarketSense/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPushInterval = 15 * time.Second
)

// SignalsWSHandler streams freshly generated signals over a websocket. Each
// connection subscribes to a set of assets and receives one message per asset
// per push interval.
type SignalsWSHandler struct {
	logger    *xlogger.Logger
	generator *usecase.SignalGenerator
	rl        *ratelimit.Limiter
	upgrader  websocket.Upgrader
}

func NewSignalsWSHandler(logger *xlogger.Logger, generator *usecase.SignalGenerator) *SignalsWSHandler {
	return &SignalsWSHandler{
		logger:    logger,
		generator: generator,
		rl:        ratelimit.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *SignalsWSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.Stream)
}

func (h *SignalsWSHandler) Stream(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":ws", 2, 0.2) {
		return c.NoContent(http.StatusTooManyRequests)
	}

	assets := splitAssets(c.QueryParam("assets"))
	if len(assets) == 0 {
		assets = usecase.DefaultAssets
	}
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	h.logger.Info("ws client connected",
		xlogger.String("remote", c.RealIP()),
		xlogger.Int("assets", len(assets)),
		xlogger.String("tf", string(tf)))

	ctx := c.Request().Context()
	done := make(chan struct{})

	// drain reads so close/pong frames are processed
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := time.NewTicker(wsPushInterval)
	defer push.Stop()
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	send := func() error {
		for _, asset := range assets {
			sig, err := h.generator.Generate(ctx, usecase.GenerateParams{Asset: asset, Timeframe: tf})
			if err != nil {
				h.logger.Warn("ws signal error", xlogger.String("asset", asset), xlogger.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(sig); err != nil {
				return err
			}
		}
		return nil
	}

	if err := send(); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-push.C:
			if err := send(); err != nil {
				return nil
			}
		}
	}
}
