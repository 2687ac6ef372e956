// Package scoring rates candidate text for relevance, estimates the chance of
// a successful application and derives insight metadata.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/vocab"
)

// RelevanceThreshold is the minimum relevance a candidate needs before its
// fields are extracted.
const RelevanceThreshold = 0.3

const (
	baseProbability = 0.5

	largeAmount  = 100_000
	mediumAmount = 50_000

	urgencyPenalty = 0.1
	complexityStep = 0.2
)

// categoryBonus is added to the base probability per category label.
var categoryBonus = map[string]float64{
	models.CategoryFilm:    0.2,
	models.CategoryDigital: 0.15,
	models.CategoryArts:    0.1,
}

// Recommended actions attached by Insights.
const (
	ActionActNow          = "Act immediately: the deadline is approaching"
	ActionAllocateTime    = "Allocate significant time for a detailed application"
	ActionProfessionalAid = "Consider professional grant-writing support for a large award"
)

// Scorer computes relevance, success probability and insights from the
// vocabulary it was created with.
type Scorer struct {
	vocab vocab.Vocabulary
}

// NewScorer creates a Scorer driven by v.
func NewScorer(v vocab.Vocabulary) *Scorer {
	return &Scorer{vocab: v}
}

// Relevance scores candidate text in [0, 1]: 0.1 per topical keyword, 0.2
// for a dollar amount, 0.2 for deadline vocabulary and 0.1 per grant-family
// term.
func (s *Scorer) Relevance(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.1 * float64(vocab.Count(lower, s.vocab.Topical))
	if vocab.AmountPattern.MatchString(text) {
		score += 0.2
	}
	if vocab.ContainsAny(lower, s.vocab.Deadline) {
		score += 0.2
	}
	score += 0.1 * float64(vocab.Count(lower, s.vocab.GrantFamily))

	return round2(models.Clamp01(score))
}

// Relevant reports whether a relevance score passes the extraction gate.
func Relevant(score float64) bool {
	return score >= RelevanceThreshold
}

// Success estimates the probability of a successful application from the
// category, the raw amount string and the candidate text.
func (s *Scorer) Success(category, amount, text string) float64 {
	p := baseProbability + categoryBonus[category]

	if v, ok := ParseAmount(amount); ok {
		switch {
		case v > largeAmount:
			p += 0.1
		case v > mediumAmount:
			p += 0.05
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "deadline") && strings.Contains(lower, "soon") {
		p -= urgencyPenalty
	}
	return round2(models.Clamp01(p))
}

// Insights derives the auxiliary metadata for an opportunity. The returned
// slices are never nil.
func (s *Scorer) Insights(category, amount, text string) models.Insights {
	lower := strings.ToLower(text)

	in := models.Insights{
		Category:           category,
		MatchedKeywords:    vocab.Matches(lower, s.vocab.Topical),
		Urgency:            urgency(vocab.Count(lower, s.vocab.Urgency)),
		Complexity:         round2(math.Min(complexityStep*float64(vocab.Count(lower, s.vocab.Complexity)), 1)),
		RecommendedActions: []string{},
	}
	if in.MatchedKeywords == nil {
		in.MatchedKeywords = []string{}
	}

	if in.Urgency == models.UrgencyHigh {
		in.RecommendedActions = append(in.RecommendedActions, ActionActNow)
	}
	if in.Complexity > 0.7 {
		in.RecommendedActions = append(in.RecommendedActions, ActionAllocateTime)
	}
	if v, ok := ParseAmount(amount); ok && v > largeAmount {
		in.RecommendedActions = append(in.RecommendedActions, ActionProfessionalAid)
	}
	return in
}

func urgency(indicators int) models.Urgency {
	switch {
	case indicators >= 2:
		return models.UrgencyHigh
	case indicators == 1:
		return models.UrgencyMedium
	default:
		return models.UrgencyNormal
	}
}

// ParseAmount converts an amount such as "$1,250,000.50" to a number. It
// reports false for empty or malformed input.
func ParseAmount(amount string) (float64, bool) {
	s := strings.TrimSpace(amount)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
