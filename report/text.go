package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/use-agent/oppscout/models"
)

// TextWriter outputs reports for a terminal. Colors follow fatih/color's
// detection and are off when output is not a TTY.
type TextWriter struct {
	output io.Writer
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

// Write renders r.
func (w *TextWriter) Write(r *Report) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", cyan("Discovery run"), r.RunID)
	fmt.Fprintf(&b, "%s %d opportunities in %d ms\n", gray("Result:"), r.Total, r.DurationMs)

	for _, s := range r.Sources {
		status := fmt.Sprintf("%d/%d endpoints ok, %d records", s.Endpoints-s.Failed, s.Endpoints, s.Records)
		if s.Endpoints > 0 && s.Failed == s.Endpoints {
			status = red(status)
		}
		fmt.Fprintf(&b, "  %-24s %s\n", s.ID, status)
	}
	b.WriteString("\n")

	if len(r.Opportunities) == 0 {
		b.WriteString(color.YellowString("No opportunities found.") + "\n")
	}
	for i, o := range r.Opportunities {
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, scoreColor(o.MatchScore).Sprintf("[%3d]", o.MatchScore), o.Title)
		fmt.Fprintf(&b, "    %s %s · %s · %s\n", gray("source"), o.SourceID, o.Category, orDash(o.Amount))
		if o.Deadline != "" {
			fmt.Fprintf(&b, "    %s %s (%s)\n", gray("deadline"), o.Deadline, urgencyColor(o.Insights.Urgency).Sprint(o.Insights.Urgency))
		}
		fmt.Fprintf(&b, "    %s\n", o.URL)
		for _, a := range o.Insights.RecommendedActions {
			fmt.Fprintf(&b, "    → %s\n", a)
		}
	}

	if _, err := io.WriteString(w.output, b.String()); err != nil {
		return fmt.Errorf("report: write text: %w", err)
	}
	return nil
}

// WriteSources prints a registry listing.
func WriteSources(output io.Writer, sources []models.Source) error {
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	var b strings.Builder
	for _, s := range sources {
		state := green("enabled")
		if !s.Enabled() {
			state = gray("disabled")
		}
		fmt.Fprintf(&b, "%s %s\n", bold(s.ID), state)
		fmt.Fprintf(&b, "  %s\n", s.BaseURL)
		if s.Description != "" {
			fmt.Fprintf(&b, "  %s\n", gray(s.Description))
		}
		for _, ep := range s.Endpoints {
			fmt.Fprintf(&b, "  - %s\n", ep)
		}
	}
	if _, err := io.WriteString(output, b.String()); err != nil {
		return fmt.Errorf("report: write sources: %w", err)
	}
	return nil
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 75:
		return color.New(color.FgGreen, color.Bold)
	case score >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func urgencyColor(u models.Urgency) *color.Color {
	switch u {
	case models.UrgencyHigh:
		return color.New(color.FgRed, color.Bold)
	case models.UrgencyMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgHiBlack)
	}
}
