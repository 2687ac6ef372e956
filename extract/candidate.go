package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// Origin records which heuristic produced a Candidate.
type Origin int

const (
	// OriginStructural: an element whose class or id uses grant vocabulary.
	OriginStructural Origin = iota + 1
	// OriginFundingText: a text segment with an amount or funding vocabulary.
	OriginFundingText
	// OriginDeadlineText: a text segment with deadline vocabulary.
	OriginDeadlineText
	// OriginFeedItem: an item of an RSS, Atom or JSON feed.
	OriginFeedItem
)

func (o Origin) String() string {
	switch o {
	case OriginStructural:
		return "structural"
	case OriginFundingText:
		return "funding-text"
	case OriginDeadlineText:
		return "deadline-text"
	case OriginFeedItem:
		return "feed-item"
	default:
		return "unknown"
	}
}

// Candidate is a fragment of a fetched page considered for extraction.
// Every heuristic produces the same shape; Node is set for markup fragments
// and nil for feed items.
type Candidate struct {
	Origin Origin

	// Node is the element the fragment was taken from, when there is one.
	Node *goquery.Selection

	// Heading is a title supplied by the source itself (feed item titles).
	Heading string

	// Link is the item's own address, if the source gave one.
	Link string

	text string
}

// Text returns the whitespace-normalized text of the fragment.
func (c Candidate) Text() string { return c.text }

func nodeCandidate(origin Origin, sel *goquery.Selection) Candidate {
	return Candidate{
		Origin: origin,
		Node:   sel,
		text:   selectionText(sel),
	}
}
