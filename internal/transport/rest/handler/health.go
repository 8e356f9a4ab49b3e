package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	mongo *mongo.Client
	redis *redis.Client
}

func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{mongo: mongoClient, redis: redisClient}
}

// Root handles GET / as a plain liveness check.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Veenoe viva backend is running",
		"status":  "healthy",
	})
}

// Check handles GET /health. It pings Mongo and Redis so load
// balancers see 503 when a dependency is down.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{
		"status":   "healthy",
		"database": "connected",
		"cache":    "connected",
	}
	healthy := true

	if err := h.mongo.Ping(ctx, nil); err != nil {
		status["database"] = "disconnected"
		healthy = false
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		status["cache"] = "disconnected"
		healthy = false
	}

	if !healthy {
		status["status"] = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
