package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/oppscout/cache"
	"github.com/use-agent/oppscout/config"
	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/simhash"
	"github.com/use-agent/oppscout/webhook"
)

// persistTimeout bounds saving one run's records.
const persistTimeout = 30 * time.Second

// Discover returns a handler for POST /api/v1/discover.
//
// Orchestration flow:
//  1. Parse the request (an empty body runs every enabled source).
//  2. Select sources; unknown ids are rejected.
//  3. Serve from cache when max_age allows it.
//  4. Run discovery synchronously      (records discovery_ms)
//  5. Optionally collapse near-duplicates, persist and notify.
func Discover(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.DiscoverRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, models.NewAPIError(models.ErrCodeInvalidInput, err.Error(), err), totalStart)
			return
		}

		// ── 2. Select sources ───────────────────────────────────────
		sources, err := config.SelectSources(d.Registry, req.Sources)
		if err != nil {
			respondError(c, models.NewAPIError(models.ErrCodeInvalidInput, err.Error(), err), totalStart)
			return
		}
		if req.Persist && d.Store == nil {
			respondError(c, models.NewAPIError(models.ErrCodeStoreUnavailable, "persistence is not configured", nil), totalStart)
			return
		}

		ids := make([]string, 0, len(sources))
		for _, s := range sources {
			ids = append(ids, s.ID)
		}
		cacheKey := cache.Key(ids, req.CollapseSimilar)

		// ── 3. Cache lookup ─────────────────────────────────────────
		if d.Cache != nil && req.MaxAge > 0 {
			if cached, hit := d.Cache.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Persisted = 0
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 4. Discover ─────────────────────────────────────────────
		ctx := c.Request.Context()
		if d.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.Timeout)
			defer cancel()
		}
		discoveryStart := time.Now()
		res := d.Runner.Run(ctx, sources)
		discoveryMs := time.Since(discoveryStart).Milliseconds()

		opps := res.Opportunities
		if req.CollapseSimilar {
			opps = simhash.Collapse(opps, simhash.DefaultThreshold)
		}

		views := make([]models.OpportunityView, 0, len(opps))
		for _, o := range opps {
			views = append(views, models.NewOpportunityView(o))
		}
		resp := models.DiscoverResponse{
			Success:       true,
			RunID:         res.RunID,
			Total:         len(views),
			Opportunities: views,
		}

		// ── 5. Persist ──────────────────────────────────────────────
		if req.Persist {
			// A run cut short by the timeout still returns its records, so
			// saving them gets a deadline of its own.
			saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(c.Request.Context()), persistTimeout)
			defer cancelSave()
			n, err := d.Store.Save(saveCtx, res.RunID, opps)
			if err != nil {
				d.logger().Error("persist discovery run failed", "run_id", res.RunID, "error", err)
				respondError(c, models.NewAPIError(models.ErrCodeStoreUnavailable, "failed to persist opportunities", err), totalStart)
				return
			}
			resp.Persisted = n
		}

		// ── 6. Notify ───────────────────────────────────────────────
		notify(d, req, models.RunSummary{
			RunID:      res.RunID,
			StartedAt:  res.StartedAt,
			DurationMs: discoveryMs,
			Sources:    ids,
			Total:      len(views),
			Results:    views,
		})

		// ── 7. Cache store + timing ─────────────────────────────────
		if d.Cache != nil && req.MaxAge > 0 {
			cached := resp
			cached.Persisted = 0
			d.Cache.Set(cacheKey, &cached)
			resp.CacheStatus = "miss"
		}
		resp.Timing = models.TimingInfo{
			TotalMs:     time.Since(totalStart).Milliseconds(),
			DiscoveryMs: discoveryMs,
		}

		c.JSON(http.StatusOK, resp)
	}
}

// notify sends discovery.completed to the request's receiver, or to the
// configured default receiver.
func notify(d *Deps, req models.DiscoverRequest, summary models.RunSummary) {
	if d.Webhooks == nil {
		return
	}
	url, secret := req.WebhookURL, req.WebhookSecret
	if url == "" {
		url, secret = d.Webhook.URL, d.Webhook.Secret
	}
	if url == "" {
		return
	}
	d.Webhooks.DeliverAsync(url, secret, webhook.DiscoveryCompleted(summary))
}

// respondError maps an APIError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, start time.Time) {
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		apiErr = models.NewAPIError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(apiErr), models.DiscoverResponse{
		Success:       false,
		Opportunities: []models.OpportunityView{},
		Error:         apiErr.ToDetail(),
		Timing:        models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.APIError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
