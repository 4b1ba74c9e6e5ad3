package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
)

const serviceName = "fuel-procurement-service"

// HealthChecker is implemented by the repository
type HealthChecker interface {
	DBHealth(ctx context.Context) error
	RedisHealth(ctx context.Context) error
	CacheStats() *cache.CacheStats
}

// HealthHandler reports liveness and dependency health
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// ReadinessCheck reports ready once the database answers
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.checker.DBHealth(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
	})
}

// ExtendedHealthCheck returns detailed health status including database and Redis
func (h *HealthHandler) ExtendedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	status := "healthy"

	if err := h.checker.DBHealth(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		status = "unhealthy"
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	// Redis is optional; without it the cache is disabled and stats are nil
	stats := h.checker.CacheStats()
	switch {
	case stats == nil:
		checks["redis"] = gin.H{"status": "disabled"}
	default:
		if err := h.checker.RedisHealth(ctx); err != nil {
			checks["redis"] = gin.H{"status": "unhealthy", "error": err.Error()}
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["redis"] = gin.H{"status": "healthy"}
		}
		checks["cache_stats"] = gin.H{
			"l1_hits":   stats.L1Hits,
			"l1_misses": stats.L1Misses,
			"l2_hits":   stats.L2Hits,
			"l2_misses": stats.L2Misses,
		}
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": serviceName,
		"checks":  checks,
	})
}
