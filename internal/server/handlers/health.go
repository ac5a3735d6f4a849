package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/response"
)

type HealthHandler struct {
	logger  *zap.Logger
	pg      *pgxpool.Pool
	rdb     *redis.Client
	version string
}

func NewHealthHandler(logger *zap.Logger, pg *pgxpool.Pool, rdb *redis.Client, version string) *HealthHandler {
	return &HealthHandler{logger: logger, pg: pg, rdb: rdb, version: version}
}

// Get pings Postgres and, when configured, Redis.
func (h *HealthHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{"postgres": "ok"}
	healthy := true
	if err := h.pg.Ping(ctx); err != nil {
		h.logger.Warn("health: postgres ping failed", zap.Error(err))
		checks["postgres"] = "down"
		healthy = false
	}
	if h.rdb != nil {
		checks["redis"] = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.logger.Warn("health: redis ping failed", zap.Error(err))
			checks["redis"] = "down"
			healthy = false
		}
	} else {
		checks["redis"] = "disabled"
	}

	data := gin.H{"version": h.version, "checks": checks}
	if !healthy {
		response.ErrorWithData(c, http.StatusServiceUnavailable, msg(c, "error.unavailable"), data)
		return
	}
	response.OK(c, data)
}
