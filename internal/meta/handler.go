package meta

import (
	"context"
	"net/http"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handler handles meta endpoints (health check, app version, legal documents, etc.)
type Handler struct {
	cfg   *config.Config
	db    *database.DB
	redis *redis.Client // nil이면 단일 인스턴스 잠금 사용 중
}

// NewHandler creates a new meta handler
func NewHandler(cfg *config.Config, db *database.DB, redisClient *redis.Client) *Handler {
	return &Handler{
		cfg:   cfg,
		db:    db,
		redis: redisClient,
	}
}

// Health checks service, database and (when configured) redis health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	log := logger.FromContext(ctx)
	healthy := true
	checks := gin.H{}

	start := time.Now()
	if err := h.db.HealthCheck(ctx); err != nil {
		healthy = false
		log.Error("Health check 실패", "dependency", "database", "error", err)
		checks["database"] = gin.H{"status": "down", "driver": h.db.Driver(), "error": err.Error()}
	} else {
		checks["database"] = gin.H{"status": "up", "driver": h.db.Driver(), "latency_ms": time.Since(start).Milliseconds()}
	}

	if h.redis != nil {
		start = time.Now()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			healthy = false
			log.Error("Health check 실패", "dependency", "redis", "error", err)
			checks["redis"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			checks["redis"] = gin.H{"status": "up", "latency_ms": time.Since(start).Milliseconds()}
		}
	}

	service := gin.H{
		"name":        h.cfg.App.Name,
		"environment": h.cfg.App.Env,
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": service,
			"checks":  checks,
		})
		return
	}

	service["port"] = h.cfg.App.Port
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": service,
		"checks":  checks,
	})
}
