package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhima/change-monitor/internal/api/handlers"
	"github.com/dhima/change-monitor/internal/api/middleware"
	"github.com/dhima/change-monitor/internal/api/response"
	"github.com/dhima/change-monitor/internal/events"
	"github.com/dhima/change-monitor/internal/fetch"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/notify"
	"github.com/dhima/change-monitor/internal/storage"
	"github.com/dhima/change-monitor/pkg/config"
	platformEvents "github.com/dhima/change-monitor/platform/events"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// publisher is what the server needs from a change publisher: publish and release.
type publisher interface {
	events.Publisher
	Close() error
}

// Server orchestrates HTTP routing and dependencies for the API service.
type Server struct {
	config    config.App
	logger    logging.Logger
	router    *gin.Engine
	store     *storage.Handle
	publisher publisher

	changeService *events.Service
	fetcher       *fetch.Proxy
	dispatcher    *notify.Dispatcher
}

// NewServer wires the API dependencies together.
func NewServer() *Server {
	cfg := config.FromEnv()

	// Initialize logger
	logger, err := logging.NewLoggerWithOptions(logging.Options{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		Component:   "api",
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg.StoreBackend, cfg.LogPath, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open change log store",
			zap.String("backend", cfg.StoreBackend),
			zap.Error(err),
		)
	}

	return newServer(cfg, logger, store, newPublisher(cfg, logger))
}

// newServer builds a server around an already opened store.
func newServer(cfg config.App, logger logging.Logger, store *storage.Handle, pub publisher) *Server {
	zapLogger := logger.Zap()

	server := &Server{
		config:        cfg,
		logger:        logger,
		store:         store,
		publisher:     pub,
		changeService: events.NewService(store.Store, pub, zapLogger.Named("changes")),
		fetcher: fetch.NewProxy(fetch.Options{
			Timeout:     cfg.FetchTimeout,
			MaxBytes:    cfg.FetchMaxBytes,
			RatePerHost: cfg.FetchRatePerHost,
		}, zapLogger.Named("fetch")),
		dispatcher: notify.NewDispatcher(
			notify.NewDefaultRegistry(cfg.SendGridBaseURL, cfg.MailgunBaseURL, nil),
			cfg.NotifyFromEmail,
			zapLogger.Named("notify"),
		),
	}

	server.setupRouter()
	return server
}

// newPublisher returns a Kafka publisher when brokers are configured.
func newPublisher(cfg config.App, logger logging.Logger) publisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, recorded changes will not be published")
		return platformEvents.NoopPublisher{}
	}
	logger.Info("publishing recorded changes to kafka",
		zap.Strings("brokers", brokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return platformEvents.NewPublisher(brokers, cfg.KafkaTopic, logger.Zap().Named("publisher"))
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter() {
	router := gin.New()
	zapLogger := s.logger.Zap()

	// Global middleware (order matters!)
	// 1. Recovery - must be first to catch panics from other middleware
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))

	// 2. Request ID - inject unique ID for tracing
	router.Use(middleware.RequestID())

	// 3. Logging - log all requests with structured fields
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))

	// 4. CORS - browser clients call the API directly
	router.Use(cors.New(s.corsConfig()))

	// Health and metrics endpoints (no /api/v1 prefix)
	router.GET("/health", handlers.NewHealthHandler(s.logger, s.store.Backend, s.store).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, s.changeService).Metrics)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		logHandler := handlers.NewLogHandler(s.logger, s.changeService)
		logs := v1.Group("/logs")
		{
			logs.POST("", logHandler.RecordChange)
			logs.GET("", logHandler.QueryLogs)
			logs.POST("/prune", logHandler.PruneLogs)
		}

		v1.GET("/fetch", handlers.NewFetchHandler(s.logger, s.fetcher).Fetch)

		notificationHandler := handlers.NewNotificationHandler(s.logger, s.dispatcher)
		notifications := v1.Group("/notifications")
		{
			notifications.POST("/send", notificationHandler.Send)
			notifications.POST("/test", notificationHandler.Test)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	s.router = router
}

// corsConfig allows every origin without credentials when CORS_ORIGINS is "*".
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range s.config.CORSOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.config.CORSOrigins
	cfg.AllowCredentials = true
	return cfg
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts the HTTP server with graceful shutdown support.
func (s *Server) Serve() error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
			zap.String("store_backend", s.store.Backend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-quit
	s.logger.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	s.close()

	s.logger.Info("server stopped")
	return logging.Flush(s.logger)
}

// close releases the publisher and the store.
func (s *Server) close() {
	if err := s.publisher.Close(); err != nil {
		s.logger.Error("failed to close change publisher", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close change log store", zap.Error(err))
	}
}
