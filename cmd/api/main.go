package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/lendora/lendora-backend/internal/config"
	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/handler"
	"github.com/lendora/lendora-backend/internal/middleware"
	"github.com/lendora/lendora-backend/internal/repository/postgres"
	"github.com/lendora/lendora-backend/internal/service"
	"github.com/lendora/lendora-backend/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

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

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)

	// WebSocket hub for real-time updates
	hub := websocket.NewHub()

	// Initialize services
	allocator := domain.Allocator{Policy: domain.AllocationPolicy(cfg.AllocationPolicy)}
	loanService := service.NewLoanService(loanRepo)
	loanService.SetEventPublisher(hub)
	scheduleService := service.NewScheduleService(loanRepo, paymentRepo)
	paymentService := service.NewPaymentService(pool, paymentRepo, loanRepo, allocator)
	paymentService.SetEventPublisher(hub)
	sweeper := service.NewOverdueSweeper(loanRepo, paymentRepo, hub)

	// Tenant provider adapter for auth middleware
	tenantProvider := &tenantProviderAdapter{tenantRepo: tenantRepo}

	// Initialize auth middleware and per-tenant rate limiting
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, tenantProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	loanHandler := handler.NewLoanHandler(loanService, scheduleService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins)

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

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// WebSocket endpoint
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, loanHandler, paymentHandler)

	// Schedule the overdue sweep
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.OverdueSweepSchedule, sweeper.Run); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.OverdueSweepSchedule).Msg("Failed to schedule overdue sweep")
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Info().Str("schedule", cfg.OverdueSweepSchedule).Msg("Overdue sweep scheduled")

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// tenantProviderAdapter adapts the tenant repository to middleware.TenantProvider
type tenantProviderAdapter struct {
	tenantRepo domain.TenantRepository
}

// GetTenantByAuth0ID implements middleware.TenantProvider
func (a *tenantProviderAdapter) GetTenantByAuth0ID(auth0ID string) (int32, error) {
	tenant, err := a.tenantRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return tenant.ID, nil
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
				Msg("request")

			return nil
		}
	}
}
