package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/events"
	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/migrations"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type storage struct {
	habits     domain.HabitRepository
	checkins   domain.CheckinRepository
	users      domain.UserRepository
	categories domain.CategoryRepository
	templates  domain.TemplateRepository
	uow        domain.UnitOfWork
	db         *sqlx.DB
}

type application struct {
	router  *gin.Engine
	closers []func() error
	logger  *zap.Logger
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown: close failed", zap.Error(err))
		}
	}
}

func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry) (*application, error) {
	app := &application{logger: logger}

	store, err := openStorage(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if store.db != nil {
		app.closers = append(app.closers, store.db.Close)
	}

	var rdb *redis.Client
	var invalidator domain.HabitCacheInvalidator
	habitRepo := store.habits

	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and rate limiting", zap.Error(err))
			rdb = nil
		} else {
			app.closers = append(app.closers, rdb.Close)
			cached := repository.NewCachedHabitRepository(store.habits, rdb, cfg.Redis.HabitListTTL, logger)
			habitRepo = cached
			invalidator = cached
			logger.Info("redis connected", zap.String("host", cfg.Redis.Host))
		}
	}

	engine := services.NewStreakEngine(logger)
	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL, store.users)

	habitService := services.NewHabitService(habitRepo, store.categories, store.uow, engine, logger)
	checkinService := services.NewCheckinService(store.uow, habitRepo, store.checkins, engine, logger)
	if invalidator != nil {
		habitService.SetCacheInvalidator(invalidator)
		checkinService.SetCacheInvalidator(invalidator)
	}

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		producer := events.NewProducer(brokers, cfg.Kafka.CheckinTopic, logger)
		checkinService.SetEventPublisher(producer)
		app.closers = append(app.closers, producer.Close)
		logger.Info("kafka producer enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.CheckinTopic))
	}

	deps := adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(services.NewAuthService(store.users, tokenService)),
		HabitHandler:    adapterHTTP.NewHabitHandler(habitService),
		CheckinHandler:  adapterHTTP.NewCheckinHandler(checkinService),
		StatsHandler:    adapterHTTP.NewStatsHandler(services.NewStatsService(habitRepo, store.checkins)),
		FeedHandler:     adapterHTTP.NewFeedHandler(services.NewFeedService(habitRepo, store.checkins)),
		CategoryHandler: adapterHTTP.NewCategoryHandler(services.NewCategoryService(store.categories)),
		TemplateHandler: adapterHTTP.NewTemplateHandler(services.NewTemplateService(store.templates, habitService)),
		TokenService:    tokenService,
		Redis:           rdb,
		RateLimit:       cfg.RateLimit,
		Gatherer:        reg,
		Logger:          logger,
		StartTime:       time.Now(),
	}
	if store.db != nil {
		deps.DB = store.db
	}

	app.router = adapterHTTP.NewRouter(deps)
	return app, nil
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*storage, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &storage{
			habits:     mem.Habits(),
			checkins:   mem.Checkins(),
			users:      mem.Users(),
			categories: mem.Categories(),
			templates:  mem.Templates(),
			uow:        mem.UnitOfWork(),
		}, nil
	}

	logger.Info("connecting to database", zap.String("host", cfg.Host), zap.String("name", cfg.Name))

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.MigrateOnStart {
		applied, err := migrations.NewRunner(db, migrations.FS(), logger).Up(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("migrations applied", zap.Int("count", applied))
	}

	pg := repository.NewPostgresStore(db)
	return &storage{
		habits:     pg.Habits(),
		checkins:   pg.Checkins(),
		users:      repository.NewPostgresUserRepository(db),
		categories: repository.NewPostgresCategoryRepository(db),
		templates:  repository.NewPostgresTemplateRepository(db),
		uow:        pg,
		db:         db,
	}, nil
}
