package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Category labels assigned by the field extractors.
const (
	CategoryFilm       = "Film & Documentary"
	CategoryDigital    = "Digital Media"
	CategoryArts       = "Arts & Culture"
	CategoryInnovation = "Innovation & Technology"
	CategoryGeneral    = "General Funding"
)

// Urgency is the coarse deadline pressure derived from the candidate text.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Insights is auxiliary metadata attached to an Opportunity.
type Insights struct {
	Category           string   `json:"category"`
	MatchedKeywords    []string `json:"matched_keywords"`
	Urgency            Urgency  `json:"urgency_level"`
	Complexity         float64  `json:"complexity_score"`
	RecommendedActions []string `json:"recommended_actions"`
}

// Opportunity is a single funding opportunity extracted from a source page.
type Opportunity struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// Amount keeps the original currency formatting, e.g. "$50,000".
	// Empty when no amount was found.
	Amount string `json:"amount,omitempty"`

	// Deadline keeps the original textual form. Empty when absent.
	Deadline string `json:"deadline,omitempty"`

	SourceID    string `json:"source"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	Eligibility string `json:"eligibility"`

	// SuccessProbability is always within [0, 1].
	SuccessProbability float64 `json:"success_probability"`

	Insights Insights `json:"insights"`

	DiscoveredAt time.Time `json:"discovered_at"`
	UpdatedAt    time.Time `json:"last_updated"`
}

// opportunityNamespace scopes the name-based IDs derived from titles.
var opportunityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/use-agent/oppscout/opportunity"))

// ID derives a deterministic identifier from the title. Two records with the
// same title share an ID.
func (o Opportunity) ID() string {
	return uuid.NewSHA1(opportunityNamespace, []byte(o.Title)).String()
}

// MatchScore is the success probability scaled to 0-100.
func (o Opportunity) MatchScore() int {
	return int(math.Round(Clamp01(o.SuccessProbability) * 100))
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
