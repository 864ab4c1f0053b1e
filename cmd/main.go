package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"livescore-engine/internal/config"
	"livescore-engine/internal/database"
	"livescore-engine/internal/feed"
	"livescore-engine/internal/handlers"
	"livescore-engine/internal/jobs"
	"livescore-engine/internal/repository"
	"livescore-engine/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateFeed(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database (create it first if missing)
	if err := database.EnsureDatabase(cfg.GetAdminDSN(), cfg.Database.DBName); err != nil {
		log.Printf("Warning: could not ensure database exists: %v", err)
	}
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize feed client
	feedClient := feed.NewHTTPClient(
		cfg.Feed.BaseURL,
		cfg.Feed.APIKey,
		feed.WithTimeout(cfg.Feed.RequestTimeout),
		feed.WithRateLimit(cfg.Feed.RequestsPerSecond, 1),
	)

	// Initialize repositories
	matchRepo := repository.NewMatchRepository(database.GetDB())
	predictionRepo := repository.NewPredictionRepository(database.GetDB())

	// Initialize services
	estimator := services.NewMinuteEstimator(cfg.Estimator)
	settlement := services.NewSettlementService(predictionRepo, estimator)
	reconciler := services.NewReconciler(feedClient, matchRepo, estimator, settlement)
	standings := services.NewStandingsService(database.GetDB(), feedClient)

	// Background jobs run until shutdown cancels their context
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Cold-start backfill runs once before polling begins, so minute
	// estimation has anchors for matches that were live across the restart.
	jobs.NewColdStartBackfill(reconciler).Run(jobCtx)

	go jobs.NewLivePoller(reconciler, cfg.Sync.LivePollInterval).Start(jobCtx)
	go jobs.NewStandingsJob(standings, cfg.Sync.SeasonIDs, cfg.Sync.StandingsInterval).Start(jobCtx)

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Read-only API for the presentation layer
	matchHandler := handlers.NewMatchHandler(database.GetDB(), matchRepo, estimator)
	predictionHandler := handlers.NewPredictionHandler(database.GetDB(), predictionRepo)

	api := router.Group("/api")
	{
		api.GET("/matches/live", matchHandler.GetLiveMatches)
		api.GET("/matches/:external_id", matchHandler.GetMatch)
		api.GET("/seasons/:season_id/standings", matchHandler.GetSeasonStandings)

		api.GET("/predictions", predictionHandler.GetPredictions)
		api.GET("/predictions/:id", predictionHandler.GetPrediction)
		api.GET("/predictions/:id/audit", predictionHandler.GetPredictionAudit)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Stop the polling loops; in-flight polls complete or time out naturally
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
