// Package extract locates candidate opportunity blocks in fetched markup and
// pulls opportunity fields out of them.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/oppscout/vocab"
)

// Document is the analysed form of one endpoint response.
type Document struct {
	// Candidates from every heuristic, overlaps included.
	Candidates []Candidate

	// Text is the visible text of the whole page.
	Text string

	// Feed is true when the response was parsed as a syndication feed.
	Feed bool
}

// Engine applies the candidate heuristics and field extractors. It holds no
// per-page state and is safe for concurrent use.
type Engine struct {
	vocab vocab.Vocabulary
}

// NewEngine creates an Engine driven by v.
func NewEngine(v vocab.Vocabulary) *Engine {
	return &Engine{vocab: v}
}

// Analyze parses an endpoint response. Feeds are recognised by content type
// or by their root element; everything else is treated as HTML.
func (e *Engine) Analyze(body, contentType string) (*Document, error) {
	if looksLikeFeed(body, contentType) {
		if doc, err := e.analyzeFeed(body); err == nil {
			return doc, nil
		}
		// Not a feed after all; fall through to the HTML heuristics.
	}

	root, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extract: parse markup: %w", err)
	}

	doc := &Document{Text: VisibleText(body)}
	doc.Candidates = append(doc.Candidates, e.structuralCandidates(root)...)
	doc.Candidates = append(doc.Candidates, e.textCandidates(root)...)
	return doc, nil
}

// HasFundingLanguage reports whether text uses any funding vocabulary.
func (e *Engine) HasFundingLanguage(text string) bool {
	return vocab.ContainsAny(strings.ToLower(text), e.vocab.Funding)
}

// structuralCandidates returns elements whose class or id attribute contains
// grant-family vocabulary.
func (e *Engine) structuralCandidates(root *goquery.Document) []Candidate {
	var out []Candidate
	root.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		if skippedTags[goquery.NodeName(s)] {
			return
		}
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		attrs := strings.ToLower(class + " " + id)
		if !vocab.ContainsAny(attrs, e.vocab.GrantFamily) {
			return
		}
		if c := nodeCandidate(OriginStructural, s); c.text != "" {
			out = append(out, c)
		}
	})
	return out
}

// textCandidates walks every visible text node. A node mentioning an amount
// or funding vocabulary yields its parent element as a funding candidate; a
// node mentioning deadline vocabulary yields it as a deadline candidate. One
// node can produce both.
func (e *Engine) textCandidates(root *goquery.Document) []Candidate {
	var out []Candidate

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}
		if n.Type == html.TextNode && n.Parent != nil && n.Parent.Type == html.ElementNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				lower := strings.ToLower(text)
				if vocab.AmountPattern.MatchString(text) || vocab.ContainsAny(lower, e.vocab.Funding) {
					out = appendNode(out, root, OriginFundingText, n.Parent)
				}
				if vocab.ContainsAny(lower, e.vocab.Deadline) {
					out = appendNode(out, root, OriginDeadlineText, n.Parent)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return out
}

func appendNode(out []Candidate, root *goquery.Document, origin Origin, n *html.Node) []Candidate {
	sel := root.FindNodes(n)
	if sel.Length() == 0 {
		return out
	}
	if c := nodeCandidate(origin, sel); c.text != "" {
		out = append(out, c)
	}
	return out
}
