package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-console/cmd/internal/app"
	"user-console/cmd/internal/infrastructure"
	"user-console/internal/adapter/cache"
	"user-console/internal/adapter/db/gormstore"
	ginhandler "user-console/internal/adapter/gin/handler"
	"user-console/internal/adapter/gin/middleware"
	ginrouter "user-console/internal/adapter/gin/router"
	"user-console/internal/adapter/repository/cached"
	"user-console/internal/config"
	"user-console/internal/usecase/user"
	redisclient "user-console/pkg/redis"
)

// Container holds the dependencies of the reference backend
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	UserUC      *user.Usecase
	RateLimiter *middleware.RateLimiter
	UserHandler *ginhandler.UserHandler
	Router      http.Handler
}

var _ app.Container = (*Container)(nil)

// NewContainer opens the database, migrates it and wires the REST layers.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (app.Container, error) {
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := gormstore.Migrate(db); err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	dbRepo := gormstore.NewUserRepo(db, l)
	var repo user.Repository = dbRepo
	rateLimiter := middleware.NewRateLimiter(nil, middleware.RateLimiterConfig{}, l)

	if rdb != nil {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(dbRepo, userCache, l)

		rateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				Enabled:           cfg.RateLimit.Enabled,
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				Burst:             cfg.RateLimit.BurstCapacity,
			},
			l,
		)
	}

	userUC := user.New(repo, l)
	userHandler := ginhandler.NewUserHandler(userUC, l)

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		UserUC:      userUC,
		RateLimiter: rateLimiter,
		UserHandler: userHandler,
		Router:      ginrouter.SetupBackendRouter(userHandler, rateLimiter, l),
	}, nil
}

// Handler implements app.Container
func (c *Container) Handler() http.Handler {
	return c.Router
}

// Start implements app.Container. The backend has no background work.
func (c *Container) Start(context.Context) {}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
