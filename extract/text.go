package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skippedTags never contribute visible text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// blockTags separate their text from neighbouring text with a space.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// VisibleText extracts the text of an HTML document or fragment, skipping
// script and style content. Used for the page-level fallback check.
func VisibleText(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	var buf strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return normalizeSpace(buf.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if skippedTags[tag] && tt == html.StartTagToken {
				skipDepth++
			}
			if blockTags[tag] {
				buf.WriteByte(' ')
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if skippedTags[tag] && skipDepth > 0 {
				skipDepth--
			}
			if blockTags[tag] {
				buf.WriteByte(' ')
			}
		case html.TextToken:
			if skipDepth == 0 {
				buf.Write(tokenizer.Text())
			}
		}
	}
}

// selectionText renders the text of every node in sel, separating block
// elements with spaces.
func selectionText(sel *goquery.Selection) string {
	var buf strings.Builder
	for _, n := range sel.Nodes {
		writeNodeText(&buf, n)
	}
	return normalizeSpace(buf.String())
}

func writeNodeText(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedTags[n.Data] {
			return
		}
	}
	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		buf.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(buf, c)
	}
	if block {
		buf.WriteByte(' ')
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to limit runes and appends "..." when it was longer.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// sentences splits text after '.', '!' or '?' followed by whitespace.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t') {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
