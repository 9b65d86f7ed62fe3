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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thirtyvoice/backend/internal/auth"
	"github.com/thirtyvoice/backend/internal/cache"
	"github.com/thirtyvoice/backend/internal/config"
	"github.com/thirtyvoice/backend/internal/database"
	"github.com/thirtyvoice/backend/internal/handlers"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/metrics"
	"github.com/thirtyvoice/backend/internal/middleware"
	"github.com/thirtyvoice/backend/internal/notes"
	"github.com/thirtyvoice/backend/internal/reactions"
	"github.com/thirtyvoice/backend/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== ThirtyVoice backend starting ===",
		zap.String("environment", cfg.Environment),
	)

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	metrics.Initialize()

	// Redis backs listen-session dedupe. The sink degrades gracefully without
	// it, so a dead redis only logs a warning.
	var redisClient *cache.RedisClient
	if cfg.RedisEnabled {
		var err error
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, listen dedupe disabled", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	authService := auth.NewService([]byte(cfg.JWTSecret))
	noteService := notes.NewService(database.DB)
	engine := reactions.NewEngine(database.DB)
	sink := telemetry.NewListenSink(database.DB, redisClient)

	h := handlers.New(noteService, engine, sink, cfg.FeedPageSize)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		notesGroup := api.Group("/notes")
		{
			notesGroup.GET("", h.ListNotes)
			notesGroup.GET("/:id", h.GetNote)
			notesGroup.GET("/:id/replies", h.GetReplies)
			notesGroup.GET("/:id/tags", h.GetTags)

			// Listens accept anonymous traffic; identity is attached when a
			// token is present.
			notesGroup.POST("/:id/listen", middleware.OptionalAuthMiddleware(authService), h.RecordListen)

			authed := notesGroup.Group("")
			authed.Use(middleware.AuthMiddleware(authService))
			{
				authed.POST("", h.CreateNote)
				authed.DELETE("/:id", h.DeleteNote)
				authed.POST("/:id/replies", h.CreateReply)
				authed.POST("/:id/vote", h.ToggleVote)
				authed.POST("/:id/tags/vote", h.ToggleTagVote)
			}
		}

		users := api.Group("/users")
		{
			users.Use(middleware.AuthMiddleware(authService))
			users.GET("/me", h.Me)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("🎙️ ThirtyVoice backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
