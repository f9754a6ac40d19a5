package handlers

import (
	"context"
	"net/http"
	"time"

	"stockledger/internal/caching"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   caching.CacheService
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db Pinger, cache caching.CacheService, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		version: version,
		started: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck reports the database and cache. A cache outage only degrades the
// service; a database outage makes it unavailable.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else {
		health.Services["database"] = "healthy"
	}

	if err := h.cache.Ping(ctx); err != nil {
		health.Services["cache"] = "unhealthy"
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	} else {
		health.Services["cache"] = "healthy"
	}

	return c.JSON(statusCode, health)
}
