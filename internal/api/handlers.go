package api

import (
	"net/http"
	"time"

	"github.com/JustJay7/kanzlei/internal/cache"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers holds the service level endpoints
type Handlers struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *logger.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, cache cache.Cache, logger *logger.Logger) *Handlers {
	return &Handlers{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbHealthy := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbHealthy = sqlDB.PingContext(c.Request.Context()) == nil
	}

	status := "healthy"
	if !dbHealthy {
		status = "degraded"
		h.logger.Warn("Health check: database unreachable")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"database": dbHealthy,
		"cache":    h.cache.Stats(),
		"time":     time.Now().Unix(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.cache.Stats(),
	})
}
