package discovery

import (
	"net/url"

	"github.com/use-agent/oppscout/extract"
	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/scoring"
	"github.com/use-agent/oppscout/scraper"
)

// FallbackProbability is assigned to the generic record synthesised for a
// page that talks about funding but yields no usable candidate.
const FallbackProbability = 0.4

// analyze turns one fetched page into records. Candidates below the
// relevance gate or without a title or description are dropped.
func (d *Discoverer) analyze(rn *run, src models.Source, page *scraper.Page) []models.Opportunity {
	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.URL
	}

	doc, err := d.engine.Analyze(page.Body, page.ContentType)
	if err != nil {
		rn.logger.Debug("page analysis failed", "source", src.ID, "url", pageURL, "error", err)
		return nil
	}

	var out []models.Opportunity
	relevant := 0
	for _, c := range doc.Candidates {
		text := c.Text()
		if !scoring.Relevant(d.scorer.Relevance(text)) {
			continue
		}
		relevant++

		f, err := d.engine.Fields(c)
		if err != nil {
			rn.logger.Debug("candidate dropped", "source", src.ID, "origin", c.Origin.String(), "error", err)
			continue
		}
		out = append(out, d.record(rn, src, resolveLink(pageURL, c.Link), f,
			d.scorer.Success(f.Category, f.Amount, text), text))
	}

	if relevant == 0 && d.engine.HasFundingLanguage(doc.Text) {
		f := d.engine.Fallback(src, pageURL)
		rn.logger.Debug("synthesising fallback record", "source", src.ID, "url", pageURL)
		out = append(out, d.record(rn, src, pageURL, f, FallbackProbability, doc.Text))
	}
	return out
}

func (d *Discoverer) record(rn *run, src models.Source, link string, f extract.Fields, probability float64, text string) models.Opportunity {
	return models.Opportunity{
		Title:              f.Title,
		Description:        f.Description,
		Amount:             f.Amount,
		Deadline:           f.Deadline,
		SourceID:           src.ID,
		URL:                link,
		Category:           f.Category,
		Eligibility:        f.Eligibility,
		SuccessProbability: models.Clamp01(probability),
		Insights:           d.scorer.Insights(f.Category, f.Amount, text),
		DiscoveredAt:       rn.startedAt,
		UpdatedAt:          rn.startedAt,
	}
}

// resolveLink resolves a candidate's own link against the page it came from.
// Candidates without a usable link point at the page.
func resolveLink(pageURL, link string) string {
	if link == "" {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	ref, err := url.Parse(link)
	if err != nil {
		return pageURL
	}
	return base.ResolveReference(ref).String()
}
