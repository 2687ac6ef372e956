package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/vocab"
)

const exampleText = "Documentary Grant — up to $50,000. Application deadline: March 15, 2025. Eligible: Australian filmmakers."

func newTestScorer() *Scorer {
	return NewScorer(vocab.Default())
}

func TestRelevance_Example(t *testing.T) {
	// documentary, film, amount, deadline, grant
	got := newTestScorer().Relevance(exampleText)
	assert.InDelta(t, 0.7, got, 1e-9)
	assert.GreaterOrEqual(t, got, 0.5)
	assert.True(t, Relevant(got))
}

func TestRelevance_ClampsAndGates(t *testing.T) {
	s := newTestScorer()

	saturated := "Documentary film media digital arts culture creative screen grant funding program opportunity $5,000 deadline"
	assert.Equal(t, 1.0, s.Relevance(saturated))

	weak := s.Relevance("Our arts newsletter")
	assert.InDelta(t, 0.1, weak, 1e-9)
	assert.False(t, Relevant(weak))

	assert.Equal(t, 0.0, s.Relevance(""))
}

func TestSuccess(t *testing.T) {
	s := newTestScorer()
	tests := []struct {
		name     string
		category string
		amount   string
		text     string
		want     float64
	}{
		{"film with large amount", models.CategoryFilm, "$150,000", "Screen development fund", 0.8},
		{"film at exactly fifty thousand", models.CategoryFilm, "$50,000", exampleText, 0.7},
		{"digital with medium amount", models.CategoryDigital, "$75,000", "Interactive media", 0.7},
		{"arts without amount", models.CategoryArts, "", "Artist residency", 0.6},
		{"general", models.CategoryGeneral, "", "Community support", 0.5},
		{"urgency penalty", models.CategoryGeneral, "", "Deadline coming soon", 0.4},
		{"penalty needs both words", models.CategoryGeneral, "", "Closing soon", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Success(tt.category, tt.amount, tt.text)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestInsights(t *testing.T) {
	s := newTestScorer()

	in := s.Insights(models.CategoryFilm, "$250,000",
		"Documentary application deadline closing soon. Detailed proposal and requirements apply.")
	assert.Equal(t, models.CategoryFilm, in.Category)
	assert.Equal(t, []string{"documentary"}, in.MatchedKeywords)
	assert.Equal(t, models.UrgencyHigh, in.Urgency)
	assert.InDelta(t, 0.8, in.Complexity, 1e-9)
	assert.Equal(t, []string{ActionActNow, ActionAllocateTime, ActionProfessionalAid}, in.RecommendedActions)
}

func TestInsights_EmptyText(t *testing.T) {
	in := newTestScorer().Insights(models.CategoryGeneral, "", "")
	require.NotNil(t, in.MatchedKeywords)
	require.NotNil(t, in.RecommendedActions)
	assert.Empty(t, in.MatchedKeywords)
	assert.Empty(t, in.RecommendedActions)
	assert.Equal(t, models.UrgencyNormal, in.Urgency)
	assert.Equal(t, 0.0, in.Complexity)
}

func TestInsights_MediumUrgency(t *testing.T) {
	in := newTestScorer().Insights(models.CategoryArts, "$10,000", "Urgent call for artists")
	assert.Equal(t, models.UrgencyMedium, in.Urgency)
	assert.Empty(t, in.RecommendedActions)
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("$1,250,000")
	require.True(t, ok)
	assert.Equal(t, 1250000.0, v)

	v, ok = ParseAmount("$1,250.50")
	require.True(t, ok)
	assert.Equal(t, 1250.5, v)

	_, ok = ParseAmount("")
	assert.False(t, ok)
	_, ok = ParseAmount("$abc")
	assert.False(t, ok)
}
