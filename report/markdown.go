package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/use-agent/oppscout/models"
)

// MarkdownWriter outputs reports as GitHub-flavoured markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders r.
func (w *MarkdownWriter) Write(r *Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Funding Opportunities")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.RunID + "`"},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", strconv.FormatInt(r.DurationMs, 10) + " ms"},
			{"Opportunities", strconv.Itoa(r.Total)},
		},
	})
	md.PlainText("")

	w.writeSources(md, r)
	w.writeSummary(md, r)
	w.writeDetails(md, r)

	if err := md.Build(); err != nil {
		return fmt.Errorf("report: render markdown: %w", err)
	}
	return nil
}

func (w *MarkdownWriter) writeSources(md *markdown.Markdown, r *Report) {
	if len(r.Sources) == 0 {
		return
	}
	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, 0, len(r.Sources))
	failed := 0
	for _, s := range r.Sources {
		rows = append(rows, []string{
			s.ID, strconv.Itoa(s.Endpoints), strconv.Itoa(s.Failed), strconv.Itoa(s.Records),
		})
		if s.Endpoints > 0 && s.Failed == s.Endpoints {
			failed++
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Endpoints", "Failed", "Records"},
		Rows:   rows,
	})
	md.PlainText("")

	if failed > 0 {
		md.Warningf("%d source(s) could not be reached; their opportunities are missing from this run.", failed)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, r *Report) {
	md.H2("Ranking")
	md.PlainText("")

	if len(r.Opportunities) == 0 {
		md.Note("No opportunities passed the success threshold in this run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(r.Opportunities))
	for i, o := range r.Opportunities {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cell(o.Title),
			o.SourceID,
			o.Category,
			orDash(o.Amount),
			cell(orDash(o.Deadline)),
			strconv.Itoa(o.MatchScore),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "Source", "Category", "Amount", "Deadline", "Score"},
		Rows:   rows,
	})
	md.PlainText("")

	if urgent := countUrgent(r.Opportunities); urgent > 0 {
		md.Importantf("%d opportunit(ies) have deadlines that look close.", urgent)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, r *Report) {
	if len(r.Opportunities) == 0 {
		return
	}
	md.H2("Details")
	md.PlainText("")

	for i, o := range r.Opportunities {
		md.H3(fmt.Sprintf("%d. %s", i+1, o.Title))
		md.PlainText("")
		md.PlainText(o.Description)
		md.PlainText("")

		items := []string{
			markdown.Bold("Link") + ": " + markdown.Link(o.URL, o.URL),
			markdown.Bold("Eligibility") + ": " + o.Eligibility,
			markdown.Bold("Urgency") + ": " + string(o.Insights.Urgency),
		}
		if len(o.Insights.MatchedKeywords) > 0 {
			items = append(items, markdown.Bold("Keywords")+": "+strings.Join(o.Insights.MatchedKeywords, ", "))
		}
		md.BulletList(items...)
		md.PlainText("")

		if len(o.Insights.RecommendedActions) > 0 {
			md.BulletList(o.Insights.RecommendedActions...)
			md.PlainText("")
		}
	}
}

// cell escapes table separators.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func countUrgent(views []models.OpportunityView) int {
	n := 0
	for _, o := range views {
		if o.Insights.Urgency == models.UrgencyHigh {
			n++
		}
	}
	return n
}
