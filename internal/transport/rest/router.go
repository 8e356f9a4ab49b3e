package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"veenoe/internal/cache"
	"veenoe/internal/config"
	"veenoe/internal/service"
	"veenoe/internal/transport/rest/handler"
	"veenoe/internal/transport/rest/middleware"
	"veenoe/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config      *config.Config
	Verifier    service.IdentityVerifier
	VivaService *service.VivaService
	RateLimiter cache.RateLimiter
	MongoClient *mongo.Client
	RedisClient *redis.Client
	WSHub       *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	vivaHandler := handler.NewVivaHandler(c.VivaService)
	healthHandler := handler.NewHealthHandler(c.MongoClient, c.RedisClient)
	wsHandler := ws.NewHandler(c.WSHub, c.Verifier, c.VivaService, c.Config.AllowedOrigins())

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.Verifier)
	// 5 starts per minute per user: protects the Gemini token quota.
	startLimit := middleware.NewRateLimit(c.RateLimiter, 5, time.Minute)

	r.Use(middleware.RequestLog)
	r.Use(middleware.CORS(c.Config.AllowedOrigins()))

	r.HandleFunc("/", healthHandler.Root).Methods("GET")
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// WebSocket watch (token in query param, owner checked in handler)
	api.HandleFunc("/ws/sessions/{session_id}/watch", wsHandler.WatchWS).Methods("GET")

	viva := api.PathPrefix("/viva").Subrouter()

	// Authenticated routes
	authed := viva.NewRoute().Subrouter()
	authed.Use(authMW.RequireUser)
	authed.Handle("/start", startLimit.Limit(http.HandlerFunc(vivaHandler.Start))).Methods("POST", "OPTIONS")
	authed.HandleFunc("/conclude-viva", vivaHandler.Conclude).Methods("POST", "OPTIONS")
	authed.HandleFunc("/next-question", vivaHandler.NextQuestion).Methods("POST", "OPTIONS")
	authed.HandleFunc("/evaluate-answer", vivaHandler.EvaluateAnswer).Methods("POST", "OPTIONS")
	authed.HandleFunc("/history", vivaHandler.History).Methods("GET", "OPTIONS")
	authed.HandleFunc("/{session_id}/rename", vivaHandler.Rename).Methods("PATCH", "OPTIONS")
	authed.HandleFunc("/{session_id}", vivaHandler.Delete).Methods("DELETE", "OPTIONS")

	// Public: session details are link-shareable by design.
	viva.HandleFunc("/{session_id}", vivaHandler.GetDetails).Methods("GET", "OPTIONS")

	return r
}
