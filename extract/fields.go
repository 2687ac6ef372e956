package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/vocab"
)

const (
	// DefaultTitle is used when a candidate offers nothing better.
	DefaultTitle = "Funding Opportunity"

	// DefaultEligibility is used when no eligibility sentence is found.
	DefaultEligibility = "Contact the source for eligibility details"

	maxDescriptionRunes = 500
	maxTitleRunes       = 200
	titleSentenceWindow = 3
)

var (
	// ErrNoTitle means the candidate produced an empty title.
	ErrNoTitle = errors.New("extract: candidate has no title")

	// ErrNoDescription means the candidate has no text to describe it.
	ErrNoDescription = errors.New("extract: candidate has no description")
)

var (
	headingMatcher  = cascadia.MustCompile("h1, h2, h3, h4, h5, h6")
	emphasisMatcher = cascadia.MustCompile("strong, b, em")
)

// Fields are the values pulled out of one candidate.
type Fields struct {
	Title       string
	Description string
	Amount      string
	Deadline    string
	Category    string
	Eligibility string
}

// Fields runs every field extractor over c. Candidates without a title or a
// description are rejected with ErrNoTitle or ErrNoDescription.
func (e *Engine) Fields(c Candidate) (Fields, error) {
	text := c.Text()
	f := Fields{
		Title:       e.Title(c),
		Description: Description(text),
		Amount:      Amount(text),
		Deadline:    Deadline(text),
		Category:    e.Category(text),
		Eligibility: e.Eligibility(text),
	}
	if f.Title == "" {
		return Fields{}, fmt.Errorf("%w (origin %s)", ErrNoTitle, c.Origin)
	}
	if f.Description == "" {
		return Fields{}, fmt.Errorf("%w (origin %s)", ErrNoDescription, c.Origin)
	}
	return f, nil
}

// Title prefers a heading, then emphasised text, then the first of the
// leading sentences that mentions a topical keyword.
func (e *Engine) Title(c Candidate) string {
	if h := normalizeSpace(c.Heading); h != "" {
		return truncate(h, maxTitleRunes)
	}
	if c.Node != nil {
		if t := matchedText(c.Node, headingMatcher); t != "" {
			return truncate(t, maxTitleRunes)
		}
		if t := matchedText(c.Node, emphasisMatcher); t != "" {
			return truncate(t, maxTitleRunes)
		}
	}

	leading := sentences(c.Text())
	if len(leading) > titleSentenceWindow {
		leading = leading[:titleSentenceWindow]
	}
	for _, s := range leading {
		if vocab.ContainsAny(strings.ToLower(s), e.vocab.Topical) {
			return truncate(strings.TrimRight(s, ". "), maxTitleRunes)
		}
	}
	return DefaultTitle
}

// matchedText returns the text of sel itself when it matches m, otherwise of
// its first matching descendant with text.
func matchedText(sel *goquery.Selection, m goquery.Matcher) string {
	if sel.IsMatcher(m) {
		if t := selectionText(sel); t != "" {
			return t
		}
	}
	var found string
	sel.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = selectionText(s)
		return found == ""
	})
	return found
}

// Description normalizes whitespace and caps the text at 500 characters.
func Description(text string) string {
	return truncate(normalizeSpace(text), maxDescriptionRunes)
}

// Amount returns the first dollar amount in text, as written.
func Amount(text string) string {
	return vocab.AmountPattern.FindString(text)
}

// Deadline returns the first date-like deadline in text, as written.
func Deadline(text string) string {
	for _, re := range vocab.DeadlinePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

// Category classifies text with first-match precedence.
func (e *Engine) Category(text string) string {
	return e.vocab.Categorize(strings.ToLower(text))
}

// Eligibility returns the first sentence using eligibility vocabulary.
func (e *Engine) Eligibility(text string) string {
	for _, s := range sentences(text) {
		if vocab.ContainsAny(strings.ToLower(s), e.vocab.Eligibility) {
			return s
		}
	}
	return DefaultEligibility
}

// Fallback builds the generic record used when a page mentions funding but
// none of its candidates passed relevance scoring.
func (e *Engine) Fallback(src models.Source, pageURL string) Fields {
	name := src.ID
	if src.Description != "" {
		name = src.Description
	}
	return Fields{
		Title: fmt.Sprintf("Funding opportunities from %s", src.ID),
		Description: fmt.Sprintf("%s mentions funding at %s but no individual program could be extracted. Check the page for current opportunities.",
			name, pageURL),
		Category:    e.vocab.DefaultCategory,
		Eligibility: DefaultEligibility,
	}
}
