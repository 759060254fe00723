//go:build wireinject
// +build wireinject

package di

import (
	"MarketSense/pkg/config"
	"MarketSense/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideCandleStore,
		ProvideTradeStore,
		ProvideModelStore,
		ProvideSignalCache,
		ProvideSignalPublisher,
		ProvideReportCache,

		// Analysis services
		ProvideIndicatorEngine,
		ProvideVolatilityAnalyzer,
		ProvideTrendAnalyzer,
		ProvideTrapDetector,
		ProvideScorer,
		ProvidePredictor,

		// Use cases
		ProvideSignalGenerator,
		ProvideScanUseCase,
		ProvideCandlesUseCase,
		ProvideTrainUseCase,
		ProvideTradeLedger,
		ProvideTradeOutcomesHandler,
		ProvideTrainQueue,
		ProvideQueueService,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
