// Package markdown parses raw markdown content into the shared document
// representation. It is also used by the Medium connector, whose content API
// returns article bodies pre-rendered as markdown.
package markdown

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/richtext"
)

// Importer handles pasted markdown content. There is no network fetch; the
// locator is the content itself.
type Importer struct{}

func New() *Importer {
	return &Importer{}
}

func (i *Importer) Info() models.ImporterInfo {
	return models.ImporterInfo{Slug: "markdown", Name: "Markdown"}
}

var markdownPattern = regexp.MustCompile("(?m)^#{1,6}\\s+|^\\*{1,3}\\s+|^\\d+\\.\\s+|```")

// CanImport reports whether the input looks like pasted markdown. URLs are
// never markdown content.
func (i *Importer) CanImport(urlOrContent string) bool {
	if u, err := url.Parse(strings.TrimSpace(urlOrContent)); err == nil && u.Scheme != "" && u.Host != "" {
		return false
	}
	return markdownPattern.MatchString(urlOrContent)
}

// Fetch wraps the provided content; markdown has no remote source.
func (i *Importer) Fetch(ctx context.Context, content string) (*models.RawContent, error) {
	return &models.RawContent{
		Source:  "markdown",
		Locator: content,
		Body:    []byte(content),
	}, nil
}

// Parse scans the markdown into sections. The first top-level heading is
// promoted to the document title and kept in the section list.
func (i *Importer) Parse(raw *models.RawContent) (*models.Document, error) {
	sections := ParseSections(string(raw.Body))

	doc := &models.Document{Sections: sections}
	for _, s := range sections {
		if doc.Title == "" && s.Kind == models.SectionHeading && s.Level == 1 {
			doc.Title = richtext.StripTags(s.Content)
		}
		if s.Kind == models.SectionImage {
			doc.AddImage(s.URL)
		}
	}
	if doc.Title == "" {
		doc.Title = "Imported Markdown"
	}
	return doc, nil
}

// Line recognizers, tested in priority order for every line.
var (
	reCodeFence = regexp.MustCompile("^```(\\w*)")
	reHeading   = regexp.MustCompile(`^(#{1,6})\s+(.+)`)
	reImage     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	reQuote     = regexp.MustCompile(`^>\s*(.*)`)
	reUnordered = regexp.MustCompile(`^[\*\-\+]\s+(.+)`)
	reOrdered   = regexp.MustCompile(`^\d+[\.\)]\s+(.+)`)
	reRule      = regexp.MustCompile(`^---+$|^\*\*\*+$|^___+$`)
)

// scanner accumulates the in-flight paragraph and list while lines stream
// through ParseSections.
type scanner struct {
	sections  []models.Section
	paragraph []string
	inList    bool
	ordered   bool
	items     []string
}

func (sc *scanner) flushParagraph() {
	if len(sc.paragraph) == 0 {
		return
	}
	content := richtext.FromMarkdown(strings.Join(sc.paragraph, " "))
	sc.sections = append(sc.sections, models.Section{Kind: models.SectionParagraph, Content: content})
	sc.paragraph = nil
}

func (sc *scanner) flushList() {
	if !sc.inList || len(sc.items) == 0 {
		sc.inList = false
		sc.items = nil
		return
	}
	sc.sections = append(sc.sections, models.Section{
		Kind:    models.SectionList,
		Ordered: sc.ordered,
		Items:   sc.items,
	})
	sc.inList = false
	sc.items = nil
}

func (sc *scanner) flushPending() {
	sc.flushParagraph()
	sc.flushList()
}

func (sc *scanner) addListItem(item string, ordered bool) {
	sc.flushParagraph()
	// Switching orderedness closes the previous list and opens a new one;
	// matching orderedness continues it.
	if sc.inList && sc.ordered != ordered {
		sc.flushList()
	}
	if !sc.inList {
		sc.inList = true
		sc.ordered = ordered
	}
	sc.items = append(sc.items, richtext.FromMarkdown(item))
}

// ParseSections converts a markdown document into an ordered section list.
// The scan is a single pass; the only state carried between lines is the
// open code block, list and paragraph accumulators.
func ParseSections(markdown string) []models.Section {
	sc := &scanner{}
	inCode := false
	codeLang := ""
	var codeLines []string

	for _, line := range strings.Split(markdown, "\n") {
		if m := reCodeFence.FindStringSubmatch(line); m != nil {
			if inCode {
				sc.sections = append(sc.sections, models.Section{
					Kind:     models.SectionCode,
					Content:  strings.Join(codeLines, "\n"),
					Language: codeLang,
				})
				codeLines = nil
				inCode = false
			} else {
				sc.flushPending()
				inCode = true
				codeLang = m[1]
			}
			continue
		}
		if inCode {
			codeLines = append(codeLines, line)
			continue
		}

		if m := reHeading.FindStringSubmatch(line); m != nil {
			sc.flushPending()
			sc.sections = append(sc.sections, models.Section{
				Kind:    models.SectionHeading,
				Level:   len(m[1]),
				Content: richtext.FromMarkdown(strings.TrimSpace(m[2])),
			})
			continue
		}

		if m := reImage.FindStringSubmatch(line); m != nil {
			sc.flushPending()
			sc.sections = append(sc.sections, models.Section{
				Kind: models.SectionImage,
				URL:  m[2],
				Alt:  m[1],
			})
			continue
		}

		if m := reQuote.FindStringSubmatch(line); m != nil {
			sc.flushPending()
			content := richtext.FromMarkdown(m[1])
			// Consecutive quote lines continue the same quote.
			if n := len(sc.sections); n > 0 && sc.sections[n-1].Kind == models.SectionQuote {
				sc.sections[n-1].Content += " " + content
			} else {
				sc.sections = append(sc.sections, models.Section{Kind: models.SectionQuote, Content: content})
			}
			continue
		}

		if m := reUnordered.FindStringSubmatch(line); m != nil {
			sc.addListItem(m[1], false)
			continue
		}

		if m := reOrdered.FindStringSubmatch(line); m != nil {
			sc.addListItem(m[1], true)
			continue
		}

		if reRule.MatchString(strings.TrimSpace(line)) {
			sc.flushPending()
			sc.sections = append(sc.sections, models.Section{Kind: models.SectionSeparator})
			continue
		}

		if strings.TrimSpace(line) != "" {
			sc.flushList()
			sc.paragraph = append(sc.paragraph, line)
		} else {
			// Blank line flushes the paragraph accumulator.
			sc.flushParagraph()
		}
	}

	// Unterminated code fence degrades to a code section with what we have.
	if inCode && len(codeLines) > 0 {
		sc.sections = append(sc.sections, models.Section{
			Kind:     models.SectionCode,
			Content:  strings.Join(codeLines, "\n"),
			Language: codeLang,
		})
	}
	sc.flushPending()

	return sc.sections
}
