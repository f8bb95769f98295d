package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/infra"
	"github.com/Code-Vida/apistock/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The fiscal breaker state is reported but does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, fiscalCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if fiscalCB != nil {
			body["fiscal_issuer"] = fiscalCB.State().String()
		}
		c.JSON(status, body)
	}
}

// FiscalBacklog reports how many fiscal jobs are waiting for a retry and how
// many were dead-lettered.
func FiscalBacklog(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		dead, err := worker.DLQLength(ctx, rdb, worker.QueueFiscal)
		if err != nil {
			respondError(c, apierror.Infrastructure("falha ao consultar fila fiscal", err))
			return
		}
		delayed, err := rdb.ZCard(ctx, worker.QueueFiscalDelayed).Result()
		if err != nil {
			respondError(c, apierror.Infrastructure("falha ao consultar fila fiscal", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"dead_letter": dead, "delayed": delayed})
	}
}
