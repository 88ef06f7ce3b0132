package cmd

import (
	"context"
	"errors"
	"fmt"

	apihttp "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/adapters/out/notifylog"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/rabbitmq"
	"fulfillment/internal/adapters/out/redis"
	"fulfillment/internal/core/application/notifications"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type CompositionRoot struct {
	cfg    Config
	logger *zap.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	uowFactory ports.UnitOfWorkFactory
	matcher    services.Matcher
	dispatcher *notifications.Dispatcher
	events     ports.EventPublisher
	cache      ports.AnalyticsCache

	closers []func() error
}

// NewCompositionRoot connects the configured adapters. Optional integrations
// fall back to in-process implementations: no brokers means no events, no
// RabbitMQ URL means notifications are logged, a disabled cache is a no-op.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *zap.Logger) (*CompositionRoot, error) {
	matcher, err := services.NewMatcher(services.Weights{
		Location: cfg.MatchWeightLocation,
		Headroom: cfg.MatchWeightHeadroom,
		Rating:   cfg.MatchWeightRating,
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &CompositionRoot{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
		matcher:  matcher,
	}

	if err = c.connect(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *CompositionRoot) connect(ctx context.Context) error {
	switch c.cfg.StorageDriver {
	case StorageMemory:
		c.logger.Warn("using in-memory storage; data is lost on restart")
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
	default:
		db, err := OpenDatabase(c.cfg)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		c.closers = append(c.closers, sqlDB.Close)
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	}

	notifier, err := c.notifier()
	if err != nil {
		return err
	}
	c.dispatcher = notifications.NewDispatcher(
		notifier,
		c.uowFactory.Create().NotificationRepository(),
		notifications.MustDefaultTemplates(),
		c.logger.Named("notifications"),
		notifications.WithTimeout(c.cfg.NotificationTimeout),
		notifications.WithMetrics(c.metrics),
	)

	if len(c.cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(kafka.NewWriter(kafka.Config{
			Brokers:      c.cfg.KafkaBrokers,
			Topic:        c.cfg.KafkaOrderChangedTopic,
			WriteTimeout: c.cfg.KafkaWriteTimeout,
		}), c.cfg.KafkaWriteTimeout, c.logger.Named("kafka"), kafka.WithQueueSize(c.cfg.KafkaQueueSize))
		c.events = publisher
		c.closers = append(c.closers, publisher.Close)
	}

	if c.cfg.CacheEnabled {
		cache, err := redis.Connect(ctx, redis.Config{
			Addr:       c.cfg.RedisAddr,
			Password:   c.cfg.RedisPassword,
			DB:         c.cfg.RedisDB,
			Prefix:     c.cfg.RedisPrefix,
			DefaultTTL: c.cfg.AnalyticsCacheTTL,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		c.cache = cache
		c.closers = append(c.closers, cache.Close)
	} else {
		c.cache = redis.Noop{}
	}

	return nil
}

func (c *CompositionRoot) notifier() (ports.Notifier, error) {
	channels := make([]notification.Channel, len(c.cfg.NotificationChannels))
	for i, name := range c.cfg.NotificationChannels {
		channels[i] = notification.Channel(name)
	}

	if c.cfg.RabbitURL == "" {
		return notifylog.New(c.logger.Named("notifications"), channels...), nil
	}

	n, err := rabbitmq.Dial(rabbitmq.Config{
		URL:      c.cfg.RabbitURL,
		Exchange: c.cfg.RabbitExchange,
		Channels: channels,
		Timeout:  c.cfg.NotificationTimeout,
	}, c.logger.Named("rabbitmq"))
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	c.closers = append(c.closers, n.Close)
	return n, nil
}

// OpenDatabase opens the gorm connection pool for cfg.
func OpenDatabase(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgresdriver.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	return db, nil
}

// Close waits for in-flight notifications, then releases connections in
// reverse order of acquisition.
func (c *CompositionRoot) Close() error {
	if c.dispatcher != nil {
		c.dispatcher.Wait()
	}
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	return errors.Join(errList...)
}

func (c *CompositionRoot) effects() commands.Effects {
	return commands.NewEffects(c.dispatcher, c.events, c.metrics, c.logger.Named("effects"))
}

func (c *CompositionRoot) CreateAssignProviderCommandHandler() commands.AssignProviderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignProviderCommandHandler(f, c.matcher, c.effects(), c.metrics, c.logger.Named("assign"))
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.CreateAssignProviderCommandHandler(), c.effects(), c.logger.Named("create"))
}

func (c *CompositionRoot) CreateAdvanceStatusCommandHandler() commands.AdvanceStatusCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAdvanceStatusCommandHandler(f, c.effects(), c.metrics, c.logger.Named("advance"))
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.CreateAdvanceStatusCommandHandler())
}

func (c *CompositionRoot) CreateCreateReviewCommandHandler() commands.CreateReviewCommandHandler {
	var f commands.ReviewUoWFactory = FuncReviewUoWFactory(func() commands.ReviewUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateReviewCommandHandler(f, c.logger.Named("review"))
}

func (c *CompositionRoot) CreateRegisterProviderCommandHandler() commands.RegisterProviderCommandHandler {
	var f commands.ProviderUoWFactory = FuncProviderUoWFactory(func() commands.ProviderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterProviderCommandHandler(f, c.logger.Named("provider"))
}

func (c *CompositionRoot) CreateAssignPendingOrdersCommandHandler() commands.AssignPendingOrdersCommandHandler {
	return commands.NewAssignPendingOrdersCommandHandler(
		c.uowFactory.Create().OrderRepository(),
		c.CreateAssignProviderCommandHandler(),
		c.logger.Named("sweep"),
	)
}

func (c *CompositionRoot) CreateReconcileCapacityCommandHandler() commands.ReconcileCapacityCommandHandler {
	var f commands.ProviderUoWFactory = FuncProviderUoWFactory(func() commands.ProviderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReconcileCapacityCommandHandler(f, c.metrics, c.logger.Named("reconcile"))
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateGetOrderHistoryQueryHandler() queries.GetOrderHistoryQueryHandler {
	return queries.NewGetOrderHistoryQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateListNotificationsQueryHandler() queries.ListNotificationsQueryHandler {
	reads := c.uowFactory.Create()
	return queries.NewListNotificationsQueryHandler(reads.OrderRepository(), reads.NotificationRepository())
}

func (c *CompositionRoot) CreateGetProviderRatingQueryHandler() queries.GetProviderRatingQueryHandler {
	reads := c.uowFactory.Create()
	return queries.NewGetProviderRatingQueryHandler(reads.ProviderRepository(), reads.ReviewRepository())
}

func (c *CompositionRoot) CreateGetAnalyticsQueryHandler() queries.GetAnalyticsQueryHandler {
	reads := c.uowFactory.Create()
	return queries.NewGetAnalyticsQueryHandler(
		reads.OrderRepository(), reads.ReviewRepository(),
		c.cache, c.cfg.AnalyticsCacheTTL, c.metrics, c.logger.Named("analytics"),
	)
}

// CreateEcho builds the HTTP router with every use case mounted.
func (c *CompositionRoot) CreateEcho() (*echo.Echo, error) {
	server := apihttp.NewServer(apihttp.Handlers{
		CreateOrder:      c.CreateCreateOrderCommandHandler(),
		AssignProvider:   c.CreateAssignProviderCommandHandler(),
		AdvanceStatus:    c.CreateAdvanceStatusCommandHandler(),
		CancelOrder:      c.CreateCancelOrderCommandHandler(),
		CreateReview:     c.CreateCreateReviewCommandHandler(),
		RegisterProvider: c.CreateRegisterProviderCommandHandler(),

		GetOrder:          c.CreateGetOrderQueryHandler(),
		GetOrderHistory:   c.CreateGetOrderHistoryQueryHandler(),
		ListNotifications: c.CreateListNotificationsQueryHandler(),
		GetProviderRating: c.CreateGetProviderRatingQueryHandler(),
		GetAnalytics:      c.CreateGetAnalyticsQueryHandler(),
	}, c.logger.Named("http"))

	return apihttp.NewEcho(server, c.registry, c.metrics, c.logger.Named("http"))
}

// CreateJobManager schedules the pending-order sweep and the capacity
// reconciliation.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	log := c.logger.Named("jobs")
	return jobs.NewJobManager(log,
		jobs.NewPendingAssignmentJob(
			c.CreateAssignPendingOrdersCommandHandler(), c.cfg.SweepSpec, c.cfg.SweepBatch, c.cfg.JobTimeout, log,
		),
		jobs.NewCapacityReconcileJob(
			c.CreateReconcileCapacityCommandHandler(), c.cfg.ReconcileSpec, c.cfg.JobTimeout, log,
		),
	)
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncProviderUoWFactory func() commands.ProviderUoW

func (f FuncProviderUoWFactory) Create() commands.ProviderUoW {
	return f()
}

type FuncReviewUoWFactory func() commands.ReviewUoW

func (f FuncReviewUoWFactory) Create() commands.ReviewUoW {
	return f()
}
