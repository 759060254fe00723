package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"MarketSense/internal/domain/repository"
	domsvc "MarketSense/internal/domain/service"
	internalrepo "MarketSense/internal/repository"
	icache "MarketSense/internal/service/cache"
	"MarketSense/internal/services/analytics"
	"MarketSense/internal/services/indicators"
	"MarketSense/internal/services/probability"
	"MarketSense/internal/usecase"
	pkgcache "MarketSense/pkg/cache"
	pkgch "MarketSense/pkg/clickhouse"
	"MarketSense/pkg/config"
	pkgkafka "MarketSense/pkg/kafka"
	applogger "MarketSense/pkg/logger"
	"MarketSense/pkg/metrics"
	"MarketSense/pkg/queue"
	"MarketSense/pkg/server"

	"github.com/redis/go-redis/v9"
	segkafka "github.com/segmentio/kafka-go"
)

const candleTableDDL = `CREATE TABLE IF NOT EXISTS marketsense.candles_%s (
    bucket DateTime64(3),
    asset String,
    open Float64,
    high Float64,
    low Float64,
    close Float64,
    vol Float64
) ENGINE = MergeTree ORDER BY (asset, bucket)`

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS marketsense",
		fmt.Sprintf(candleTableDDL, "1m"),
		fmt.Sprintf(candleTableDDL, "5m"),
		fmt.Sprintf(candleTableDDL, "15m"),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka is
// disabled; publishing then degrades to a no-op.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates the trade outcomes consumer. Returns nil when
// the consumer is not configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSignalPublisher creates the Kafka-backed signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCandleStore creates the ClickHouse candle repository.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideTradeStore creates the ClickHouse trade outcome repository and
// ensures its table exists.
func ProvideTradeStore(chClient *pkgch.Client, cfg *config.Config) (repository.TradeStore, error) {
	store := internalrepo.NewClickHouseTradeStore(chClient, cfg.ClickHouse.TradesTable)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("trade store schema: %w", err)
	}
	return store, nil
}

// ProvideModelStore creates the on-disk model bundle store.
func ProvideModelStore(cfg *config.Config) (repository.ModelStore, error) {
	return internalrepo.NewFileModelStore(cfg.Model.Dir)
}

// ProvideSignalCache selects the cache backend. Redis when configured,
// otherwise an in-process TTL cache.
func ProvideSignalCache(cfg *config.Config) repository.SignalCache {
	var backend icache.BytesCache
	if cfg.Signals.Redis.Enabled {
		backend = icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Signals.Redis.Addr,
			Password: cfg.Signals.Redis.Password,
			DB:       cfg.Signals.Redis.DB,
		})
	} else {
		backend = icache.NewTTLCache()
	}
	return internalrepo.NewCachedSignals(backend)
}

// ProvideIndicatorEngine creates the indicator engine with default periods.
func ProvideIndicatorEngine() domsvc.IndicatorEngine {
	return indicators.NewEngine()
}

// ProvideVolatilityAnalyzer creates the ATR-based volatility analyzer.
func ProvideVolatilityAnalyzer() domsvc.VolatilityAnalyzer {
	return analytics.NewVolatilityAnalyzer()
}

// ProvideTrendAnalyzer creates the regression trend analyzer.
func ProvideTrendAnalyzer() domsvc.TrendAnalyzer {
	return analytics.NewTrendAnalyzer()
}

// ProvideTrapDetector creates the trap pattern detector.
func ProvideTrapDetector() domsvc.TrapDetector {
	return analytics.NewTrapDetector()
}

// ProvideScorer creates the weighted factor scorer.
func ProvideScorer() domsvc.Scorer {
	return analytics.NewScorer()
}

// ProvidePredictor creates the probability engine, loading any persisted
// model bundle.
func ProvidePredictor(store repository.ModelStore, l *applogger.Logger) domsvc.Predictor {
	return probability.NewEngine(store, l)
}

// ProvideSignalGenerator wires the full signal pipeline.
func ProvideSignalGenerator(
	candles repository.CandleStore,
	trades repository.TradeStore,
	engine domsvc.IndicatorEngine,
	volatility domsvc.VolatilityAnalyzer,
	trend domsvc.TrendAnalyzer,
	traps domsvc.TrapDetector,
	scorer domsvc.Scorer,
	predictor domsvc.Predictor,
	cache repository.SignalCache,
	publisher repository.SignalPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SignalGenerator {
	return usecase.NewSignalGenerator(
		candles, trades, engine, volatility, trend, traps,
		scorer, predictor, cache, publisher, m, l,
	)
}

// ProvideScanUseCase creates the multi-asset scanner.
func ProvideScanUseCase(generator *usecase.SignalGenerator, cfg *config.Config) *usecase.ScanUseCase {
	return usecase.NewScanUseCase(generator,
		usecase.WithScanConcurrency(cfg.Signals.ScanConcurrency),
		usecase.WithScanAssets(cfg.Signals.Assets),
	)
}

// ProvideTradeLedger creates the closed-trade recording use case.
func ProvideTradeLedger(
	trades repository.TradeStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TradeLedgerUseCase {
	return usecase.NewTradeLedgerUseCase(trades, m, l)
}

// ProvideTradeOutcomesHandler registers the handler for the trade outcomes topic.
func ProvideTradeOutcomesHandler(ledger *usecase.TradeLedgerUseCase, cfg *config.Config) *usecase.TradeOutcomesHandler {
	return usecase.NewTradeOutcomesHandler(cfg.Kafka.Consumer.TradesTopic, ledger)
}

// ProvideReportCache builds the analysis report cache. Layered with Redis
// when Redis is configured, in-memory otherwise.
func ProvideReportCache(cfg *config.Config) pkgcache.Service {
	if cfg.Signals.Redis.Enabled {
		host, port := splitHostPort(cfg.Signals.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Signals.Redis.Password),
			pkgcache.WithRedisDB(cfg.Signals.Redis.DB),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
	}
	return pkgcache.NewMemoryCache()
}

// ProvideTrainQueue builds the Redis-backed training job queue. Nil when
// Redis is not configured; training then always runs inline.
func ProvideTrainQueue(cfg *config.Config, l *applogger.Logger, train *usecase.TrainUseCase) *queue.RedisQueue {
	if !cfg.Signals.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Signals.Redis.Addr,
		Password: cfg.Signals.Redis.Password,
		DB:       cfg.Signals.Redis.DB,
	})
	q := queue.NewRedisQueue(l, &queue.QueueConfig{Workers: 1, RetryLimit: 1}, client, queue.ModeProducerConsumer,
		queue.WithKeyPrefix("marketsense:queue"))
	q.RegisterJob(usecase.NewTrainJob(train, l))
	return q
}

// ProvideQueueService narrows the queue to its publish side for handlers.
func ProvideQueueService(q *queue.RedisQueue) queue.QueueService {
	if q == nil {
		return nil
	}
	return q
}

// ProvideCandlesUseCase creates the raw candle query use case.
func ProvideCandlesUseCase(candles repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(candles)
}

// ProvideTrainUseCase creates the model training use case.
func ProvideTrainUseCase(
	trades repository.TradeStore,
	predictor domsvc.Predictor,
	m repository.Metrics,
	l *applogger.Logger,
	reports pkgcache.Service,
) *usecase.TrainUseCase {
	return usecase.NewTrainUseCase(trades, predictor, m, l,
		usecase.WithReportCache(reports, 5*time.Minute))
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
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
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(consumerMetricsHook(m))
	}
	return server.New(cfg, l, generator, scan, candles, train, ledger, outcomes,
		chClient, producer, consumer, publisher, trainQueue, jobs)
}

// consumerMetricsHook records per-message latency and errors around consumer
// handlers and threads the trace id from message headers.
func consumerMetricsHook(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km segkafka.Message, data []byte) (context.Context, segkafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, topic string, _ segkafka.Message, _ []byte, _ error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("consume_"+topic, time.Since(start).Seconds())
			}
		},
		Err: func(_ context.Context, _ string, _ segkafka.Message, _ []byte, _ error) {
			m.RecordError("consume")
		},
	}
}
