package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/oppscout/discovery"
	"github.com/use-agent/oppscout/models"
)

func sampleResult() discovery.Result {
	at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	return discovery.Result{
		RunID:     "run-7",
		StartedAt: at,
		Duration:  1500 * time.Millisecond,
		Sources: []discovery.SourceReport{
			{ID: "screen_australia", Endpoints: 2, Records: 1},
			{ID: "vicscreen", Endpoints: 1, Failed: 1},
		},
		Opportunities: []models.Opportunity{{
			Title:              "Documentary Grant | Development",
			Description:        "Up to $150,000 for documentary development.",
			Amount:             "$150,000",
			Deadline:           "March 15, 2025",
			SourceID:           "screen_australia",
			URL:                "https://www.screenaustralia.gov.au/funding",
			Category:           models.CategoryFilm,
			Eligibility:        "Eligible: Australian filmmakers.",
			SuccessProbability: 0.8,
			Insights: models.Insights{
				Category:           models.CategoryFilm,
				MatchedKeywords:    []string{"documentary"},
				Urgency:            models.UrgencyHigh,
				RecommendedActions: []string{"Act now"},
			},
			DiscoveredAt: at,
			UpdatedAt:    at,
		}},
	}
}

func TestFromResult(t *testing.T) {
	r := FromResult(sampleResult())
	assert.Equal(t, 1, r.Total)
	assert.Equal(t, int64(1500), r.DurationMs)
	require.Len(t, r.Opportunities, 1)
	assert.Equal(t, 80, r.Opportunities[0].MatchScore)
	assert.NotEmpty(t, r.Opportunities[0].ID)
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONWriter(&buf).Write(FromResult(sampleResult())))

	var decoded struct {
		RunID         string `json:"run_id"`
		Opportunities []struct {
			ID         string  `json:"id"`
			MatchScore int     `json:"match_score"`
			Title      string  `json:"title"`
			Prob       float64 `json:"success_probability"`
			Insights   struct {
				Urgency string `json:"urgency_level"`
			} `json:"insights"`
		} `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-7", decoded.RunID)
	require.Len(t, decoded.Opportunities, 1)
	assert.Equal(t, 80, decoded.Opportunities[0].MatchScore)
	assert.Equal(t, "high", decoded.Opportunities[0].Insights.Urgency)
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownWriter(&buf).Write(FromResult(sampleResult())))

	out := buf.String()
	assert.Contains(t, out, "# Funding Opportunities")
	assert.Contains(t, out, "### 1. Documentary Grant | Development")
	assert.Contains(t, out, "March 15, 2025")
	assert.Contains(t, out, "vicscreen")
	assert.Contains(t, out, "Act now")
}

func TestMarkdownWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownWriter(&buf).Write(&Report{RunID: "empty"}))
	assert.Contains(t, buf.String(), "No opportunities passed")
}

func TestTextWriter(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, NewTextWriter(&buf).Write(FromResult(sampleResult())))

	out := buf.String()
	assert.Contains(t, out, "Discovery run run-7")
	assert.Contains(t, out, "[ 80] Documentary Grant | Development")
	assert.Contains(t, out, "deadline March 15, 2025 (high)")
	assert.Contains(t, out, "0/1 endpoints ok")
}

func TestWriteSources(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, WriteSources(&buf, []models.Source{
		{ID: "on", BaseURL: "https://on.example", Endpoints: []string{"/grants"}},
		{ID: "off", BaseURL: "https://off.example", Disabled: true},
	}))
	assert.Contains(t, buf.String(), "on enabled")
	assert.Contains(t, buf.String(), "off disabled")
	assert.Contains(t, buf.String(), "  - /grants")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, f := range []Format{FormatText, FormatJSON, FormatMarkdown, "md", ""} {
		w, err := New(f, &buf)
		require.NoError(t, err, f)
		assert.NotNil(t, w)
	}
	_, err := New("yaml", &buf)
	assert.Error(t, err)
}
