package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fbs-supply-service/internal/activities"
	"github.com/wms-platform/fbs-supply-service/internal/api/handlers"
	"github.com/wms-platform/fbs-supply-service/internal/application"
	"github.com/wms-platform/fbs-supply-service/internal/config"
	"github.com/wms-platform/fbs-supply-service/internal/infrastructure/messaging"
	mongoRepo "github.com/wms-platform/fbs-supply-service/internal/infrastructure/mongodb"
	redisInfra "github.com/wms-platform/fbs-supply-service/internal/infrastructure/redis"
	"github.com/wms-platform/fbs-supply-service/internal/workflows"
	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/idempotency"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
	"github.com/wms-platform/fbs-supply-service/pkg/middleware"
	"github.com/wms-platform/fbs-supply-service/pkg/mongodb"
	"github.com/wms-platform/fbs-supply-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/fbs-supply-service/pkg/outbox/mongodb"
	"github.com/wms-platform/fbs-supply-service/pkg/resilience"
	"github.com/wms-platform/fbs-supply-service/pkg/temporal"
	"github.com/wms-platform/fbs-supply-service/pkg/tracing"
)

const serviceName = config.ServiceName

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.DefaultConfig(serviceName))
		bootLogger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.LogLevel)
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting fbs-supply worker", "dispatchMode", cfg.DispatchMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := tracing.Initialize(ctx, cfg.TracingClient())
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB(), mongodb.NewCommandMetrics(m).Monitor())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())
	db := mongoClient.Database()
	logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceSupply)
	supplies := mongoRepo.NewSupplyRepository(db, eventFactory)
	packages := mongoRepo.NewPackageRepository(db, eventFactory)
	batches := mongoRepo.NewBatchReadModel(db)
	orderSnapshots := mongoRepo.NewOrderReadModel(db)

	operations := idempotency.NewMongoOperationRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"supplies":   supplies.EnsureIndexes,
		"packages":   packages.EnsureIndexes,
		"operations": operations.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.WithError(err).Error("Failed to create indexes", "collection", name)
			os.Exit(1)
		}
	}

	guardConfig := idempotency.DefaultGuardConfig(serviceName, operations)
	guardConfig.Metrics = idempotency.NewMetrics(m.Registry())
	dedup := idempotency.NewGuard(guardConfig)

	// Redis
	rdb, err := redisInfra.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	defer rdb.Close()

	breakerConfig := resilience.DefaultCircuitBreakerConfig("redis-notifier")
	breakerConfig.OnStateChange = resilience.MetricsHook(m)
	notifier := redisInfra.NewNotifier(rdb, cfg.Redis.NotifyChannel,
		resilience.NewCircuitBreaker(breakerConfig, logger.Logger), m)
	orders := redisInfra.NewOrderCache(rdb, orderSnapshots, cfg.Redis.CacheNamespace, cfg.OrderCacheTTL(), logger, m)

	// Handlers
	handlerConfig := cfg.HandlerConfig()
	opener := application.NewSupplyOpener(handlerConfig, application.SupplyOpenerDeps{
		Dedup:       dedup,
		Batches:     batches,
		Invariables: batches,
		Supplies:    supplies,
		Command:     application.NewOpenSupplyHandler(supplies, logger, m),
		Logger:      logger,
	})
	allocator := application.NewPackageAllocator(handlerConfig, application.PackageAllocatorDeps{
		Dedup:       dedup,
		Batches:     batches,
		Invariables: batches,
		Supplies:    supplies,
		OpenSupply:  supplies,
		Orders:      orders,
		Lines:       packages,
		Command:     application.NewCreatePackageHandler(packages, logger, m),
		Notifier:    notifier,
		Logger:      logger,
	})
	registry := application.NewRegistry(logger, m, opener, allocator)

	// Kafka producer and outbox
	kafkaConfig := cfg.KafkaClient()
	producer, baseProducer := kafka.NewProductionProducer(kafkaConfig, m, logger)
	defer baseProducer.Close()

	publisher := outbox.NewPublisher(outboxMongo.NewOutboxRepository(db), producer, logger, m, nil)
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer publisher.Stop()

	// Dispatch
	var dispatcher messaging.Dispatcher = registry
	if cfg.DispatchMode == messaging.DispatchTemporal {
		temporalClient, err := temporal.NewClient(ctx, &cfg.Temporal, logger.Logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Temporal")
			os.Exit(1)
		}
		defer temporalClient.Close()

		w := temporalClient.NewWorker(temporal.DefaultWorkerOptions(cfg.Temporal.TaskQueue))
		w.RegisterWorkflow(workflows.BatchCompletedWorkflow)
		w.RegisterActivity(activities.NewBatchActivities(registry, m))
		if err := w.Start(); err != nil {
			logger.WithError(err).Error("Failed to start Temporal worker")
			os.Exit(1)
		}
		defer w.Stop()

		dispatcher = messaging.NewWorkflowDispatcher(temporalClient, m)
		logger.Info("Temporal worker started", "taskQueue", cfg.Temporal.TaskQueue)
	}

	// Kafka consumer
	consumer := kafka.NewInstrumentedConsumer(kafka.NewConsumer(kafkaConfig, logger.Logger), m, logger)
	messaging.Register(consumer,
		messaging.Topics{Batches: cfg.Kafka.BatchTopic, Orders: cfg.Kafka.OrdersTopic},
		messaging.NewBatchEventHandler(dispatcher, logger),
		messaging.NewOrderEventHandler(application.NewOrderCacheInvalidator(orders, logger)),
	)

	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Start(ctx) }()
	logger.Info("Kafka consumer started", "batchTopic", cfg.Kafka.BatchTopic, "ordersTopic", cfg.Kafka.OrdersTopic)

	// Ops HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.Tracing(serviceName))
	router.NoRoute(middleware.NoRoute())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func(ctx context.Context) error {
		if err := mongoClient.HealthCheck(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))
	handlers.NewSupplyHandler(application.NewSupplyQueryService(supplies, packages)).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Consumer did not stop in time")
	}
	if err := consumer.Close(); err != nil {
		logger.WithError(err).Error("Failed to close consumer")
	}

	logger.Info("Worker stopped")
}
