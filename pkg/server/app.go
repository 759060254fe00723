package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketSense/internal/domain/repository"
	"MarketSense/internal/handler/api"
	"MarketSense/internal/usecase"
	pkgch "MarketSense/pkg/clickhouse"
	"MarketSense/pkg/config"
	xhttp "MarketSense/pkg/http"
	pkgkafka "MarketSense/pkg/kafka"
	applogger "MarketSense/pkg/logger"
	"MarketSense/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	generator  *usecase.SignalGenerator
	scan       *usecase.ScanUseCase
	candles    *usecase.CandlesUseCase
	train      *usecase.TrainUseCase
	ledger     *usecase.TradeLedgerUseCase
	outcomes   *usecase.TradeOutcomesHandler
	chClient   *pkgch.Client
	producer   *pkgkafka.Producer
	consumer   *pkgkafka.Consumer
	publisher  repository.SignalPublisher
	trainQueue *queue.RedisQueue
	jobs       queue.QueueService

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	generator *usecase.SignalGenerator,
	scan *usecase.ScanUseCase,
	candles *usecase.CandlesUseCase,
	train *usecase.TrainUseCase,
	ledger *usecase.TradeLedgerUseCase,
	outcomes *usecase.TradeOutcomesHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	publisher repository.SignalPublisher,
	trainQueue *queue.RedisQueue,
	jobs queue.QueueService,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		generator:  generator,
		scan:       scan,
		candles:    candles,
		train:      train,
		ledger:     ledger,
		outcomes:   outcomes,
		chClient:   chClient,
		producer:   producer,
		consumer:   consumer,
		publisher:  publisher,
		trainQueue: trainQueue,
		jobs:       jobs,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	restHandler := api.NewSignalsEchoHandler(a.log, a.generator, a.scan, a.candles, a.train, a.ledger, a.jobs)
	wsHandler := api.NewSignalsWSHandler(a.log, a.generator)

	a.httpServer = xhttp.NewServer(restHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	wsHandler.RegisterRoutes(a.httpServer.Echo())

	// Start trade outcomes consumer if configured
	if a.consumer != nil && a.outcomes != nil {
		a.consumer.RegisterHandler(a.outcomes)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.outcomes.Topic()))
	}

	// Start training job queue if configured
	if a.trainQueue != nil {
		if err := a.trainQueue.Start(); err != nil {
			a.log.Error("train queue start error", applogger.Error(err))
		} else {
			a.log.Info("train queue started")
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("assets", a.cfg.Signals.Assets),
		applogger.Bool("kafka", a.publisher != nil),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.trainQueue != nil {
		if err := a.trainQueue.Stop(shutdownCtx); err != nil {
			a.log.Warn("train queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("kafka publisher close error", applogger.Error(err))
		}
	} else if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
