package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Opportunities returns a handler for GET /api/v1/opportunities.
//
// Query parameters: limit, source, category, min_probability.
func Opportunities(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.Store == nil {
			listError(c, http.StatusServiceUnavailable, models.ErrCodeStoreUnavailable, "persistence is not configured")
			return
		}

		f := store.Filter{
			SourceID: c.Query("source"),
			Category: c.Query("category"),
			Limit:    defaultListLimit,
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				listError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "limit must be a positive integer")
				return
			}
			f.Limit = min(n, maxListLimit)
		}
		if v := c.Query("min_probability"); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil || p < 0 || p > 1 {
				listError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, "min_probability must be between 0 and 1")
				return
			}
			f.MinProbability = p
		}

		opps, err := d.Store.List(c.Request.Context(), f)
		if err != nil {
			d.logger().Error("list opportunities failed", "error", err)
			listError(c, http.StatusServiceUnavailable, models.ErrCodeStoreUnavailable, "failed to read stored opportunities")
			return
		}

		views := make([]models.OpportunityView, 0, len(opps))
		for _, o := range opps {
			views = append(views, models.NewOpportunityView(o))
		}
		c.JSON(http.StatusOK, models.OpportunityListResponse{
			Success:       true,
			Total:         len(views),
			Opportunities: views,
		})
	}
}

func listError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.OpportunityListResponse{
		Success:       false,
		Opportunities: []models.OpportunityView{},
		Error:         &models.ErrorDetail{Code: code, Message: message},
	})
}
