package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/auth"
	"github.com/dafibh/casa/casa-backend/internal/config"
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/handler"
	"github.com/dafibh/casa/casa-backend/internal/messaging"
	"github.com/dafibh/casa/casa-backend/internal/metrics"
	"github.com/dafibh/casa/casa-backend/internal/middleware"
	"github.com/dafibh/casa/casa-backend/internal/repository/postgres"
	"github.com/dafibh/casa/casa-backend/internal/repository/sqlite"
	"github.com/dafibh/casa/casa-backend/internal/repository/storage"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Casa API
// @version 1.0
// @description Household finance tracking: expenses, receivables, shared splits and the monthly dashboard.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx := context.Background()

	// Initialize repositories
	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open store")
	}
	defer closeStore()

	// Local accounts sign tokens with the shared secret
	var tokens *auth.TokenManager
	if cfg.AuthMode == config.AuthModeLocal {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	}

	// Initialize services
	settingsService := service.NewSettingsService(repos.settings, repos.people, repos.categories)
	authService := service.NewAuthService(repos.users, settingsService, tokens)
	expenseService := service.NewExpenseService(repos.expenses, repos.people)
	receivableService := service.NewReceivableService(repos.receivables, repos.people)
	dashboardService := service.NewDashboardService(settingsService, repos.expenses, repos.receivables)

	var objectStore storage.ObjectStore
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3ObjectStore(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		objectStore = s3Store
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Receipt storage enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, receipt uploads are disabled")
	}
	receiptService := service.NewReceiptService(objectStore, repos.expenses)

	// Metrics
	m := metrics.NewMetrics()

	// Realtime events go to the websocket hub and, when configured, the message bus
	hub := websocket.NewHub()
	m.RegisterClientGauge(hub)

	publishers := websocket.MultiPublisher{hub}
	if cfg.AMQP.Enabled() {
		bus, err := messaging.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to message bus")
		}
		defer bus.Close()
		publishers = append(publishers, bus)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Publishing events to message bus")
	}
	publisher := metrics.NewCountingPublisher(m, publishers)

	settingsService.SetEventPublisher(publisher)
	expenseService.SetEventPublisher(publisher)
	receivableService.SetEventPublisher(publisher)
	receiptService.SetEventPublisher(publisher)

	// Initialize auth middleware
	var (
		authMiddleware *middleware.AuthMiddleware
		wsValidator    handler.TokenValidator
	)
	switch cfg.AuthMode {
	case config.AuthModeLocal:
		authMiddleware = middleware.NewLocalAuthMiddleware(tokens)
		wsValidator = websocket.NewLocalTokenValidator(tokens)
	default:
		authMiddleware, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		wsValidator, err = websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create websocket token validator")
		}
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Expense:    handler.NewExpenseHandler(expenseService),
		Receivable: handler.NewReceivableHandler(receivableService),
		Settings:   handler.NewSettingsHandler(settingsService),
		Dashboard:  handler.NewDashboardHandler(dashboardService),
		Receipt:    handler.NewReceiptHandler(receiptService),
		WebSocket:  handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
		Servers:    handler.APIServers(cfg.Port, cfg.PublicURL),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request body limit covers the largest receipt plus multipart overhead
	e.Use(echomiddleware.BodyLimit("6M"))

	e.Use(m.Middleware())

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Str("auth", cfg.AuthMode).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// repositories is the set of stores the services run on
type repositories struct {
	users       domain.UserRepository
	expenses    domain.ExpenseRepository
	receivables domain.ReceivableRepository
	people      domain.PersonRepository
	categories  domain.CategoryRepository
	settings    domain.SettingsRepository
}

// openStore connects the configured store driver and returns its repositories
// with a function that releases the connection
func openStore(ctx context.Context, cfg *config.Config) (*repositories, func(), error) {
	if cfg.StoreDriver == config.DriverSQLite {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("Opened SQLite database")
		return &repositories{
			users:       sqlite.NewUserRepository(db),
			expenses:    sqlite.NewExpenseRepository(db),
			receivables: sqlite.NewReceivableRepository(db),
			people:      sqlite.NewPersonRepository(db),
			categories:  sqlite.NewCategoryRepository(db),
			settings:    sqlite.NewSettingsRepository(db),
		}, closer(db), nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("Connected to database")
	return &repositories{
		users:       postgres.NewUserRepository(pool),
		expenses:    postgres.NewExpenseRepository(pool),
		receivables: postgres.NewReceivableRepository(pool),
		people:      postgres.NewPersonRepository(pool),
		categories:  postgres.NewCategoryRepository(pool),
		settings:    postgres.NewSettingsRepository(pool),
	}, pool.Close, nil
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("owner_id", middleware.GetOwnerID(c).String()).
				Msg("request")

			return nil
		}
	}
}
