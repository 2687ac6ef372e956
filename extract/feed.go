package extract

import (
	"slices"
	"strings"

	"github.com/mmcdole/gofeed"
)

// looksLikeFeed reports whether a response is probably RSS, Atom or JSON Feed.
func looksLikeFeed(body, contentType string) bool {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "rss"), strings.Contains(ct, "atom"), strings.Contains(ct, "feed+json"):
		return true
	case strings.Contains(ct, "html"):
		return false
	}

	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<rss") || strings.Contains(head, "<feed") || strings.Contains(head, "<rdf:rdf")
}

// analyzeFeed turns every feed item into a candidate. The item title becomes
// the candidate heading and the item link its origin address.
func (e *Engine) analyzeFeed(body string) (*Document, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, err
	}

	doc := &Document{Feed: true}
	texts := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := normalizeSpace(item.Title)
		var parts []string
		for _, p := range []string{title, VisibleText(item.Description), VisibleText(item.Content)} {
			if p != "" && !slices.Contains(parts, p) {
				parts = append(parts, p)
			}
		}
		text := normalizeSpace(strings.Join(parts, ". "))
		if text == "" {
			continue
		}
		texts = append(texts, text)
		doc.Candidates = append(doc.Candidates, Candidate{
			Origin:  OriginFeedItem,
			Heading: title,
			Link:    strings.TrimSpace(item.Link),
			text:    text,
		})
	}
	doc.Text = strings.Join(texts, " ")
	return doc, nil
}

