// Package vocab holds the keyword lists that drive candidate detection,
// relevance scoring, field extraction and insight synthesis.
//
// The lists are plain data. Callers inject a Vocabulary into the extraction
// engine and the scorer so both can be tuned or tested without touching the
// crawling logic.
package vocab

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CategoryRule maps a category label to the keywords that select it.
type CategoryRule struct {
	Label    string
	Keywords []string
}

// Vocabulary is the complete set of lists used by a discovery run.
// All entries are lower case. A term matches where a word starts with it, so
// "film" matches "filmmakers" but "media" does not match "immediately".
type Vocabulary struct {
	// Topical keywords scored +0.1 each and reported as matched keywords.
	Topical []string

	// GrantFamily terms mark structural blocks by class/id and score +0.1 each.
	GrantFamily []string

	// Funding terms select free text candidates and trigger the fallback.
	Funding []string

	// Deadline terms select free text candidates and score +0.2.
	Deadline []string

	// Eligibility terms select the eligibility sentence.
	Eligibility []string

	// Categories are tried in order; the first rule with a matching keyword wins.
	Categories []CategoryRule

	// DefaultCategory is used when no rule matches.
	DefaultCategory string

	// Urgency indicators count towards the urgency level.
	Urgency []string

	// Complexity indicators add 0.2 each to the complexity score.
	Complexity []string
}

// Default returns the built-in vocabulary for screen, media and arts funding.
func Default() Vocabulary {
	return Vocabulary{
		Topical: []string{
			"documentary", "film", "media", "digital", "arts", "culture",
			"creative", "screen", "storytelling", "production", "innovation",
		},
		GrantFamily: []string{"grant", "funding", "opportunity", "program"},
		Funding:     []string{"funding", "grant", "fund", "financial support", "award"},
		Deadline:    []string{"deadline", "closing", "apply"},
		Eligibility: []string{"eligible", "eligibility", "requirements", "criteria"},
		Categories: []CategoryRule{
			{Label: "Film & Documentary", Keywords: []string{"documentary", "film", "cinema", "screen"}},
			{Label: "Digital Media", Keywords: []string{"digital", "media", "online", "interactive"}},
			{Label: "Arts & Culture", Keywords: []string{"arts", "culture", "artist", "creative"}},
			{Label: "Innovation & Technology", Keywords: []string{"innovation", "technology", "tech", "startup"}},
		},
		DefaultCategory: "General Funding",
		Urgency:         []string{"deadline", "closing", "soon", "urgent"},
		Complexity:      []string{"application", "proposal", "detailed", "requirements"},
	}
}

// Matches returns the terms that occur in text, preserving list order.
// text must already be lower case.
func Matches(lowerText string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if HasWord(lowerText, term) {
			found = append(found, term)
		}
	}
	return found
}

// Count returns how many terms occur in the lower-cased text.
func Count(lowerText string, terms []string) int {
	n := 0
	for _, term := range terms {
		if HasWord(lowerText, term) {
			n++
		}
	}
	return n
}

// ContainsAny reports whether any term occurs in the lower-cased text.
func ContainsAny(lowerText string, terms []string) bool {
	for _, term := range terms {
		if HasWord(lowerText, term) {
			return true
		}
	}
	return false
}

// Categorize returns the first category whose keywords occur in the
// lower-cased text, or the default category.
func (v Vocabulary) Categorize(lowerText string) string {
	for _, rule := range v.Categories {
		if ContainsAny(lowerText, rule.Keywords) {
			return rule.Label
		}
	}
	return v.DefaultCategory
}

// HasWord reports whether term occurs in lowerText at the start of a word.
func HasWord(lowerText, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset <= len(lowerText)-len(term); {
		i := strings.Index(lowerText[offset:], term)
		if i < 0 {
			return false
		}
		i += offset
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(lowerText[:i])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = i + 1
	}
	return false
}
