package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"veenoe/internal/cache"
	"veenoe/internal/config"
	"veenoe/internal/repository"
	"veenoe/internal/service"
	"veenoe/internal/transport/rest"
	"veenoe/internal/transport/ws"
)

// @title Veenoe Viva API
// @version 1.0
// @description Manages AI-powered oral exams (vivas) over the Gemini Live API.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	aiConfig := config.DefaultAIConfig()

	log.Printf("AI Config:")
	log.Printf("  Live model: %s", aiConfig.LiveModel)
	log.Printf("  Protocol:   %s", aiConfig.Protocol)
	log.Printf("  Voice:      %s", aiConfig.DefaultVoice)
	log.Printf("  Duration:   %d min", aiConfig.SessionMinutes)
	if aiConfig.IsEnabled() {
		log.Println("  API Key:    configured")
	} else {
		log.Println("  API Key:    NOT SET (issuing mock tokens)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDBName)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// WebSocket hub for live session watchers
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Repositories
	sessionRepo := repository.NewSessionRepo(db)
	questionRepo := repository.NewQuestionRepo(db)

	// Caches
	sessionCache := cache.NewSessionCache(rdb)
	rateLimiter := cache.NewRateLimiter(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	contractBuilder := service.NewContractBuilder(aiConfig)
	tokenSvc := service.NewGeminiTokenService(aiConfig)
	vivaSvc := service.NewVivaService(sessionRepo, questionRepo, contractBuilder, tokenSvc, sessionCache, wsHub)

	container := &rest.Container{
		Config:      cfg,
		Verifier:    authSvc,
		VivaService: vivaSvc,
		RateLimiter: rateLimiter,
		MongoClient: mongoClient,
		RedisClient: rdb,
		WSHub:       wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST   /api/v1/viva/start")
		log.Println("  POST   /api/v1/viva/conclude-viva")
		log.Println("  POST   /api/v1/viva/next-question")
		log.Println("  POST   /api/v1/viva/evaluate-answer")
		log.Println("  GET    /api/v1/viva/history")
		log.Println("  GET    /api/v1/viva/{session_id}")
		log.Println("  PATCH  /api/v1/viva/{session_id}/rename")
		log.Println("  DELETE /api/v1/viva/{session_id}")
		log.Println("  WS     /api/v1/ws/sessions/{session_id}/watch")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
