package models

import "time"

// DiscoverRequest is the payload for POST /api/v1/discover.
type DiscoverRequest struct {
	// Sources restricts the run to these source IDs. Empty means every
	// enabled source in the registry.
	Sources []string `json:"sources,omitempty"`

	// CollapseSimilar merges near-duplicate records (same opportunity seen
	// by several heuristics or sources). Off by default.
	CollapseSimilar bool `json:"collapse_similar,omitempty"`

	// MaxAge allows serving a cached run younger than this many milliseconds.
	// Zero disables the cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// Persist stores the run's records when a store is configured.
	Persist bool `json:"persist,omitempty"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// OpportunityView is the caller-visible representation of an Opportunity.
type OpportunityView struct {
	ID         string `json:"id"`
	MatchScore int    `json:"match_score"`
	Opportunity
}

// NewOpportunityView derives the ID and match score for o.
func NewOpportunityView(o Opportunity) OpportunityView {
	return OpportunityView{
		ID:          o.ID(),
		MatchScore:  o.MatchScore(),
		Opportunity: o,
	}
}

// DiscoverResponse is the response for POST /api/v1/discover.
type DiscoverResponse struct {
	Success       bool              `json:"success"`
	RunID         string            `json:"run_id,omitempty"`
	Total         int               `json:"total"`
	Opportunities []OpportunityView `json:"opportunities"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Persisted is the number of distinct rows written to the store.
	Persisted int `json:"persisted,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// OpportunityListResponse is the response for GET /api/v1/opportunities.
type OpportunityListResponse struct {
	Success       bool              `json:"success"`
	Total         int               `json:"total"`
	Opportunities []OpportunityView `json:"opportunities"`
	Error         *ErrorDetail      `json:"error,omitempty"`
}

// SourceView is one entry of the static source listing.
type SourceView struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Endpoints   []string `json:"endpoints"`
}

// NewSourceView converts a registry entry for the listing.
func NewSourceView(s Source) SourceView {
	return SourceView{
		ID:          s.ID,
		URL:         s.BaseURL,
		Description: s.Description,
		Enabled:     s.Enabled(),
		Endpoints:   s.Endpoints,
	}
}

// SourceListResponse is the response for GET /api/v1/sources.
type SourceListResponse struct {
	Sources []SourceView `json:"sources"`
	Total   int          `json:"total"`
}

// TimingInfo breaks down the time spent serving a discovery request.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// DiscoveryMs is the time spent inside the discovery run.
	DiscoveryMs int64 `json:"discovery_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Sources int    `json:"sources"`
	Store   bool   `json:"store"`
	Version string `json:"version"`
}

// RunSummary describes a finished discovery run for webhook consumers.
type RunSummary struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMs int64             `json:"duration_ms"`
	Sources    []string          `json:"sources"`
	Total      int               `json:"total"`
	Results    []OpportunityView `json:"results"`
}

// ErrorResponse is the body of requests rejected before reaching a handler,
// such as failed authentication or rate limiting.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
