// Package report renders discovery runs for people and scripts.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/use-agent/oppscout/discovery"
	"github.com/use-agent/oppscout/models"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Report is the printable form of one discovery run.
type Report struct {
	RunID         string                   `json:"run_id"`
	StartedAt     time.Time                `json:"started_at"`
	DurationMs    int64                    `json:"duration_ms"`
	Sources       []discovery.SourceReport `json:"sources"`
	Total         int                      `json:"total"`
	Opportunities []models.OpportunityView `json:"opportunities"`
}

// FromResult builds a Report from a finished run.
func FromResult(res discovery.Result) *Report {
	views := make([]models.OpportunityView, 0, len(res.Opportunities))
	for _, o := range res.Opportunities {
		views = append(views, models.NewOpportunityView(o))
	}
	return &Report{
		RunID:         res.RunID,
		StartedAt:     res.StartedAt,
		DurationMs:    res.Duration.Milliseconds(),
		Sources:       res.Sources,
		Total:         len(views),
		Opportunities: views,
	}
}

// Writer outputs a report.
type Writer interface {
	Write(r *Report) error
}

// New returns the Writer for format.
func New(format Format, output io.Writer) (Writer, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("report: unknown format %q (want text, json or markdown)", format)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
