package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/oppscout/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when a configured store stops answering.
func Health(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		storeUp := false
		if d.Store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			storeUp = d.Store.Ping(ctx) == nil
			cancel()
			if !storeUp {
				status = "degraded"
			}
		}

		enabled := 0
		for _, s := range d.Registry {
			if s.Enabled() {
				enabled++
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(d.StartTime).Round(time.Second).String(),
			Sources: enabled,
			Store:   storeUp,
			Version: d.Version,
		})
	}
}
