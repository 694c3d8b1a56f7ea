package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"user-console/cmd/internal/app"
	"user-console/cmd/internal/infrastructure"
	"user-console/internal/adapter/backend"
	"user-console/internal/adapter/gin/console"
	"user-console/internal/adapter/gin/middleware"
	ginrouter "user-console/internal/adapter/gin/router"
	"user-console/internal/adapter/gin/session"
	"user-console/internal/config"
	"user-console/internal/observability"
	redisclient "user-console/pkg/redis"
)

// minSweepInterval bounds how often idle sessions are swept.
const minSweepInterval = 10 * time.Second

// Container holds the dependencies of the web console
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	RedisClient *redisclient.Client
	Metrics     *observability.Metrics
	Backend     *backend.Client
	Sessions    *session.Registry
	RateLimiter *middleware.RateLimiter
	Console     *console.Handler
	Router      http.Handler

	// cancel stops every backend call started by a screen.
	cancel context.CancelFunc
}

var _ app.Container = (*Container)(nil)

// NewContainer wires the backend client, the session registry and the console routes.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (app.Container, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	httpClient := &http.Client{Timeout: cfg.Console.BackendTimeout()}
	client, err := backend.NewClient(cfg.Console.BackendURL, httpClient, l, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(nil, middleware.RateLimiterConfig{}, l)
	if rdb != nil {
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

	sessions := session.NewRegistry(cfg.Console.SessionTTL(), l, metrics)

	// Screens outlive the request that mounted them, so their calls hang off the container.
	screenCtx, cancel := context.WithCancel(context.Background())
	consoleHandler := console.NewHandler(screenCtx, client, console.Config{
		SuccessTTL:    cfg.Console.SuccessMessageTTL(),
		SettleTimeout: cfg.Console.BackendTimeout(),
	}, l)

	router := ginrouter.SetupConsoleRouter(consoleHandler, sessions, rateLimiter, metrics, reg, l)

	return &Container{
		Config:      cfg,
		Logger:      l,
		RedisClient: rdb,
		Metrics:     metrics,
		Backend:     client,
		Sessions:    sessions,
		RateLimiter: rateLimiter,
		Console:     consoleHandler,
		Router:      router,
		cancel:      cancel,
	}, nil
}

// Handler implements app.Container
func (c *Container) Handler() http.Handler {
	return c.Router
}

// Start sweeps idle sessions until ctx is done.
func (c *Container) Start(ctx context.Context) {
	interval := c.Config.Console.SessionTTL() / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	go c.Sessions.Run(ctx, interval)
}

// Close disposes every session and releases the Redis connection.
func (c *Container) Close() error {
	c.cancel()
	c.Sessions.Close()

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}
