package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/liftbeat/backend/internal/config"
	"github.com/liftbeat/backend/internal/handlers"
	"github.com/liftbeat/backend/internal/logger"
	"github.com/liftbeat/backend/internal/middleware"
	"github.com/liftbeat/backend/internal/repository"
	"github.com/liftbeat/backend/internal/service"
	"github.com/liftbeat/backend/pkg/supabase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local development convenience; deployments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	log := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.SetDefault(log)

	log.Info("starting LiftBeat API server",
		logger.String("env", cfg.Server.Env),
		logger.String("supabase_url", cfg.Supabase.URL))

	// Initialize Supabase client
	supabaseClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)

	// Initialize repositories
	performanceRepo := repository.NewPerformanceRepository(supabaseClient)
	musicRepo := repository.NewMusicContextRepository(supabaseClient)
	moodRepo := repository.NewMoodDeltaRepository(supabaseClient)
	telemetryRepo := repository.NewTelemetryRepository(supabaseClient)

	// Initialize services
	insightsService := service.NewInsightsService(
		performanceRepo, musicRepo, moodRepo, telemetryRepo,
		log, cfg.Insights.TelemetryWrites)

	// Initialize handlers
	insightsHandler := handlers.NewInsightsHandler(insightsService, cfg.Insights)

	// Set Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		insights := v1.Group("/insights")
		insights.Use(middleware.Auth(supabaseClient))
		insights.Use(middleware.RateLimitInsights())
		{
			insights.GET("/summary", insightsHandler.GetSummary)
			insights.GET("/digest", insightsHandler.GetDigest)
			insights.GET("/sound-map", insightsHandler.GetSoundMap)
		}
	}

	log.Info("server listening", logger.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
