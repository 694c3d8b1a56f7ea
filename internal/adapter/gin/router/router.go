package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-console/internal/adapter/gin/console"
	"user-console/internal/adapter/gin/handler"
	"user-console/internal/adapter/gin/middleware"
	"user-console/internal/adapter/gin/session"
	"user-console/internal/observability"
	"user-console/internal/route"
	"user-console/pkg/logger"
)

func newEngine(log *zap.Logger, rateLimiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(rateLimiter.Middleware())
	return router
}

func health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": service,
		})
	}
}

// SetupBackendRouter configures the REST router of the reference backend.
func SetupBackendRouter(
	userHandler *handler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *gin.Engine {
	router := newEngine(log, rateLimiter)

	router.GET("/health", health("user-backend"))

	users := router.Group("/users")
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}

// SetupConsoleRouter configures the browser-facing router of the console.
// Any path that is not a screen or an action redirects to the list screen.
func SetupConsoleRouter(
	consoleHandler *console.Handler,
	sessions *session.Registry,
	rateLimiter *middleware.RateLimiter,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
	log *zap.Logger,
) *gin.Engine {
	router := newEngine(log, rateLimiter)
	router.Use(metrics.GinMiddleware())
	router.SetHTMLTemplate(console.Templates())

	router.GET("/health", health("user-console"))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	screens := router.Group("", sessions.Middleware())
	{
		screens.GET(route.List, consoleHandler.ListPage)
		screens.POST("/users", consoleHandler.AddUser)
		screens.POST("/refresh", consoleHandler.Refresh)
		screens.POST("/users/:id/view", consoleHandler.ViewUser)
		screens.GET("/user/:id", consoleHandler.DetailPage)
		screens.POST("/user/:id/:action", consoleHandler.DetailAction)
	}

	router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, route.Resolve(c.Request.URL.Path))
	})

	return router
}
