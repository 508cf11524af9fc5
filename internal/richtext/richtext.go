// Package richtext renders source-specific inline formatting into the small
// HTML subset the block pipeline accepts, and provides the shared helpers
// for stripping and sanitizing that subset.
package richtext

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// policy is the allow-list of inline tags a section's content may carry.
// Everything else is stripped, attributes included.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "code", "b", "i", "u", "s", "br", "sup", "sub")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("mailto", "http", "https")
	p.AllowRelativeURLs(true)
	return p
}()

// Sanitize reduces content to the allowed inline-HTML subset.
func Sanitize(content string) string {
	return policy.Sanitize(content)
}

// The inline markdown rules are ordered: bold patterns must run before
// italic ones, or `**x**` is partially consumed by the italic rule.
var (
	reBoldStars       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscores = regexp.MustCompile(`__(.+?)__`)
	reItalicStar      = regexp.MustCompile(`\*([^\*]+?)\*`)
	reItalicUnder     = regexp.MustCompile(`_([^_]+?)_`)
	reLink            = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reInlineCode      = regexp.MustCompile("`([^`]+)`")
	reStrikethrough   = regexp.MustCompile(`~~(.+?)~~`)
)

// FromMarkdown converts inline markdown formatting to the HTML subset.
func FromMarkdown(text string) string {
	text = reBoldStars.ReplaceAllString(text, "<strong>$1</strong>")
	text = reBoldUnderscores.ReplaceAllString(text, "<strong>$1</strong>")
	text = reItalicStar.ReplaceAllString(text, "<em>$1</em>")
	text = reItalicUnder.ReplaceAllString(text, "<em>$1</em>")
	text = reLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reInlineCode.ReplaceAllString(text, "<code>$1</code>")
	text = reStrikethrough.ReplaceAllString(text, "<s>$1</s>")
	return text
}

// StripTags returns the text content of an HTML fragment.
func StripTags(fragment string) string {
	var buf bytes.Buffer
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			buf.Write(tokenizer.Text())
		}
	}
	return buf.String()
}

// IsEmpty reports whether the fragment has no visible text once markup is
// removed. Used to decide that a paragraph section yields no block.
func IsEmpty(fragment string) bool {
	return strings.TrimSpace(StripTags(fragment)) == ""
}
