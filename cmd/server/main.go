package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/biocap/tradedesk-api/internal/auth"
	"github.com/biocap/tradedesk-api/internal/config"
	"github.com/biocap/tradedesk-api/internal/dashboard"
	"github.com/biocap/tradedesk-api/internal/database"
	"github.com/biocap/tradedesk-api/internal/funds"
	"github.com/biocap/tradedesk-api/internal/recommendations"
	"github.com/biocap/tradedesk-api/internal/securities"
	"github.com/biocap/tradedesk-api/internal/strategies"
	"github.com/biocap/tradedesk-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trade recommendation API server with
// graceful shutdown support. It sets up all required services, database
// connections, API routes and the scheduled draft retention sweep.
func main() {
	// Load .env if present, then the config file
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TRADEDESK_CONFIG_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DB.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAnalystKey, auth.TestAnalystSecret, 1, auth.RoleAnalyst)
	authService.RegisterAPICredentials(auth.TestPMKey, auth.TestPMSecret, 2, auth.RolePM)

	recommendationService := recommendations.NewService(db)
	recommendationHandlers := recommendations.NewGinHandlers(recommendationService)

	strategyHandlers := strategies.NewGinHandlers(strategies.NewService(db))
	securityHandlers := securities.NewGinHandlers(securities.NewService(db))
	fundHandlers := funds.NewGinHandlers(funds.NewService(db))
	dashboardHandlers := dashboard.NewGinHandlers(dashboard.NewService(db))

	// Schedule the draft retention sweep
	scheduler := cron.New()
	if cfg.Drafts.Retention > 0 {
		_, err := scheduler.AddFunc(cfg.Drafts.SweepSpec, func() {
			removed, err := recommendationService.SweepStaleDrafts(cfg.Drafts.Retention)
			if err != nil {
				zlog.Error().Err(err).Msg("Draft retention sweep failed")
				return
			}
			zlog.Info().Int("removed", removed).Msg("Draft retention sweep complete")
		})
		if err != nil {
			zlog.Fatal().Err(err).Str("spec", cfg.Drafts.SweepSpec).Msg("Invalid sweep schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.Auth.JWTSecret,
		authHandlers, recommendationHandlers,
		strategyHandlers, securityHandlers, fundHandlers, dashboardHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Recommendation routes: JWT protected; PM disposition additionally
// requires the pm role
// - Catalog and dashboard routes: JWT protected, read only
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	recommendationHandlers *recommendations.GinHandlers,
	strategyHandlers *strategies.GinHandlers,
	securityHandlers *securities.GinHandlers,
	fundHandlers *funds.GinHandlers,
	dashboardHandlers *dashboard.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Recommendation routes
		recs := v1.Group("/recommendations")
		recs.Use(middleware.JWTAuth(jwtSecret))
		{
			recs.GET("", recommendationHandlers.ListHandler())
			recs.GET("/drafts", recommendationHandlers.DraftsHandler())
			recs.GET("/:recommendation_id", recommendationHandlers.GetHandler())
			recs.POST("", recommendationHandlers.CreateHandler())
			recs.PUT("/:recommendation_id", recommendationHandlers.UpdateHandler())
			recs.DELETE("/:recommendation_id", recommendationHandlers.DeleteHandler())
			recs.PUT("/:recommendation_id/status", recommendationHandlers.StatusHandler())
		}

		// Catalog routes
		strategiesGroup := v1.Group("/strategies")
		strategiesGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			strategiesGroup.GET("", strategyHandlers.ListHandler())
			strategiesGroup.GET("/:strategy_id", strategyHandlers.GetHandler())
		}

		securitiesGroup := v1.Group("/securities")
		securitiesGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			securitiesGroup.GET("", securityHandlers.ListHandler())
			securitiesGroup.GET("/search", securityHandlers.SearchHandler())
			securitiesGroup.GET("/ticker/:ticker", securityHandlers.GetByTickerHandler())
			securitiesGroup.GET("/:security_id", securityHandlers.GetHandler())
		}

		fundsGroup := v1.Group("/funds")
		fundsGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			fundsGroup.GET("", fundHandlers.ListHandler())
			fundsGroup.GET("/code/:code", fundHandlers.GetByCodeHandler())
			fundsGroup.GET("/:fund_id", fundHandlers.GetHandler())
		}

		// Dashboard routes
		dashboardGroup := v1.Group("/dashboard")
		dashboardGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			dashboardGroup.GET("/performance", dashboardHandlers.PerformanceHandler())
			dashboardGroup.GET("/exposure", dashboardHandlers.ExposureHandler())
			dashboardGroup.GET("/statistics", middleware.RequireRole(auth.RolePM), dashboardHandlers.StatisticsHandler())
		}
	}
}
