package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/oppscout/models"
)

// Sources returns a handler for GET /api/v1/sources, the static registry
// listing including disabled sources.
func Sources(d *Deps) gin.HandlerFunc {
	views := make([]models.SourceView, 0, len(d.Registry))
	for _, s := range d.Registry {
		views = append(views, models.NewSourceView(s))
	}
	resp := models.SourceListResponse{Sources: views, Total: len(views)}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}
