package vocab

import "regexp"

// AmountPattern matches a dollar amount such as "$50,000" or "$1,250.50".
var AmountPattern = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{1,2})?`)

const (
	monthNames = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
	ordinal    = `(?:st|nd|rd|th)?`
	dateExpr   = `(?:\d{1,2}` + ordinal + `\s+` + monthNames + `,?\s+\d{4}` +
		`|` + monthNames + `\.?\s+\d{1,2}` + ordinal + `,?\s+\d{4}` +
		`|\d{1,2}/\d{1,2}/\d{2,4})`
)

// DeadlinePatterns are tried in order; the first match wins. Patterns with a
// capture group yield the group, the others yield the whole match.
var DeadlinePatterns = []*regexp.Regexp{
	// "Deadline: March 15, 2025", "applications close 1 July 2025", "apply by 30/06/2025"
	regexp.MustCompile(`(?i)(?:deadline|closing date|closes|closing|apply by|applications close)\s*(?:is|on|:|-)?\s*(` + dateExpr + `)`),
	// "30/06/2025"
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	// "15 March 2025"
	regexp.MustCompile(`(?i)\b\d{1,2}` + ordinal + `\s+` + monthNames + `\s+\d{4}\b`),
	// "March 15, 2025"
	regexp.MustCompile(`(?i)\b` + monthNames + `\s+\d{1,2}` + ordinal + `,?\s+\d{4}\b`),
}
