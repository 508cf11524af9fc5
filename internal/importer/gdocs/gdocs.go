// Package gdocs imports Google Docs documents through the Docs API. OAuth
// token acquisition lives behind the TokenProvider collaborator; the importer
// only consumes already-valid bearer tokens.
package gdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/richtext"
)

// TokenProvider supplies a currently-valid OAuth bearer token. It returns
// models.ErrAuthRequired when no valid token is available, so the caller can
// prompt for re-authentication.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider serves one fixed token, typically from configuration.
type StaticTokenProvider struct {
	AccessToken string
}

func (p StaticTokenProvider) Token(ctx context.Context) (string, error) {
	if p.AccessToken == "" {
		return "", models.ErrAuthRequired
	}
	return p.AccessToken, nil
}

// Importer implements the Google Docs connector.
type Importer struct {
	client     *http.Client
	apiBaseURL string
	tokens     TokenProvider
}

func New(tokens TokenProvider) *Importer {
	return &Importer{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: "https://docs.googleapis.com/v1/documents",
		tokens:     tokens,
	}
}

func (i *Importer) Info() models.ImporterInfo {
	return models.ImporterInfo{Slug: "google-docs", Name: "Google Docs"}
}

// CanImport reports whether the URL points at a Google Docs document.
func (i *Importer) CanImport(urlOrContent string) bool {
	trimmed := strings.TrimSpace(urlOrContent)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return false
	}
	return strings.Contains(trimmed, "docs.google.com")
}

var reDocumentID = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)

func extractDocumentID(rawURL string) string {
	if m := reDocumentID.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// Fetch retrieves the single document resource. A missing token surfaces as
// ErrAuthRequired so callers can distinguish it from transport failures.
func (i *Importer) Fetch(ctx context.Context, locator string) (*models.RawContent, error) {
	token, err := i.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	docID := extractDocumentID(locator)
	if docID == "" {
		return nil, &models.FetchError{Message: "could not extract document ID from URL"}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", i.apiBaseURL+"/"+docID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{Message: "failed to connect to Google Docs API: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, models.ErrAuthRequired
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &models.FetchError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Google Docs API returned error code %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &models.FetchError{Message: "invalid API response from Google Docs: " + err.Error()}
	}

	return &models.RawContent{
		Source:  "google-docs",
		Locator: locator,
		Data:    map[string]interface{}{"payload": &doc},
	}, nil
}

// Parse walks the document's structural elements into sections.
func (i *Importer) Parse(raw *models.RawContent) (*models.Document, error) {
	src, ok := raw.Data["payload"].(*document)
	if !ok {
		return nil, fmt.Errorf("gdocs: raw content is missing the fetched document")
	}

	w := &walker{doc: src}
	sections := w.walk(src.Body.Content)

	out := &models.Document{
		Title:     firstNonEmpty(w.title, src.Title, "Imported Google Doc"),
		Excerpt:   w.excerpt,
		Sections:  sections,
		SourceURL: raw.Locator,
	}
	for _, s := range sections {
		if s.Kind == models.SectionImage {
			out.AddImage(s.URL)
		}
	}
	return out, nil
}

// walker carries the cross-element state of one parse: the promoted title,
// the first subtitle, and the footnote counter.
type walker struct {
	doc          *document
	title        string
	excerpt      string
	footnoteSeq  int
	subtitleSeen bool
}

func (w *walker) walk(elements []structuralElement) []models.Section {
	var sections []models.Section
	var list *models.Section

	flushList := func() {
		if list != nil {
			sections = append(sections, *list)
			list = nil
		}
	}

	for idx := range elements {
		el := &elements[idx]
		switch {
		case el.Paragraph != nil:
			p := el.Paragraph

			// Floating objects render before the paragraph that anchors them.
			for _, id := range p.PositionedObjectIDs {
				if img := w.imageSection(w.doc.PositionedObjects, id); img != nil {
					flushList()
					sections = append(sections, *img)
				}
			}

			if hasHorizontalRule(p) {
				flushList()
				sections = append(sections, models.Section{Kind: models.SectionSeparator})
				continue
			}

			content, trailing := w.renderParagraph(p)

			if p.Bullet != nil {
				ordered := w.listOrdered(p.Bullet.ListID)
				if list == nil || list.Ordered != ordered {
					flushList()
					list = &models.Section{Kind: models.SectionList, Ordered: ordered}
				}
				if content != "" {
					list.Items = append(list.Items, content)
				}
				sections = append(sections, trailing...)
				continue
			}
			flushList()

			style := p.ParagraphStyle.NamedStyleType
			switch {
			case style == "TITLE":
				if w.title == "" {
					w.title = stripInline(content)
				}
			case style == "SUBTITLE":
				// Only the first subtitle becomes the excerpt; the rest
				// demote to italic paragraphs.
				if !w.subtitleSeen {
					w.subtitleSeen = true
					w.excerpt = stripInline(content)
				} else if content != "" {
					sections = append(sections, models.Section{
						Kind:    models.SectionParagraph,
						Content: "<em>" + content + "</em>",
					})
				}
			case strings.HasPrefix(style, "HEADING_"):
				level, err := strconv.Atoi(strings.TrimPrefix(style, "HEADING_"))
				if err != nil || level < 1 {
					level = 1
				}
				if level > 6 {
					level = 6
				}
				sections = append(sections, models.Section{
					Kind:    models.SectionHeading,
					Level:   level,
					Content: content,
				})
			default:
				if content != "" {
					sections = append(sections, models.Section{
						Kind:    models.SectionParagraph,
						Content: content,
					})
				}
			}
			sections = append(sections, trailing...)

		case el.Table != nil:
			flushList()
			if t := w.tableSection(el.Table); t != nil {
				sections = append(sections, *t)
			}

		case el.SectionBreak != nil:
			// Layout only, nothing to render.
		}
	}
	flushList()
	return sections
}

// renderParagraph builds the paragraph's inline HTML and the sibling
// sections (inline images, footnotes) that follow it.
func (w *walker) renderParagraph(p *paragraph) (string, []models.Section) {
	var b strings.Builder
	var trailing []models.Section

	for _, el := range p.Elements {
		switch {
		case el.TextRun != nil:
			b.WriteString(renderTextRun(el.TextRun))
		case el.InlineObjectElement != nil:
			if img := w.imageSection(w.doc.InlineObjects, el.InlineObjectElement.InlineObjectID); img != nil {
				trailing = append(trailing, *img)
			}
		case el.FootnoteReference != nil:
			if fn := w.footnoteSection(el.FootnoteReference.FootnoteID); fn != nil {
				w.footnoteSeq++
				b.WriteString("<sup>" + strconv.Itoa(w.footnoteSeq) + "</sup>")
				trailing = append(trailing, *fn)
			}
		}
	}
	return strings.TrimSpace(b.String()), trailing
}

// renderTextRun applies the run's styles in a fixed nesting order so equal
// style sets always render identically.
func renderTextRun(run *textRun) string {
	content := strings.ReplaceAll(run.Content, "\n", "")
	if content == "" {
		return ""
	}
	style := run.TextStyle
	if style.Bold {
		content = "<strong>" + content + "</strong>"
	}
	if style.Italic {
		content = "<em>" + content + "</em>"
	}
	if style.Underline {
		content = "<u>" + content + "</u>"
	}
	if style.Strikethrough {
		content = "<s>" + content + "</s>"
	}
	if style.Link != nil && style.Link.URL != "" {
		content = `<a href="` + style.Link.URL + `">` + content + `</a>`
	}
	switch style.BaselineOffset {
	case "SUPERSCRIPT":
		content = "<sup>" + content + "</sup>"
	case "SUBSCRIPT":
		content = "<sub>" + content + "</sub>"
	}
	return content
}

func (w *walker) imageSection(objects map[string]embeddedWrapper, id string) *models.Section {
	wrapper, ok := objects[id]
	if !ok {
		return nil
	}
	obj := wrapper.object()
	if obj.ImageProperties == nil || obj.ImageProperties.ContentURI == "" {
		return nil
	}
	return &models.Section{
		Kind:    models.SectionImage,
		URL:     obj.ImageProperties.ContentURI,
		Alt:     firstNonEmpty(obj.Description, obj.Title),
		Caption: obj.Title,
	}
}

func (w *walker) footnoteSection(id string) *models.Section {
	fn, ok := w.doc.Footnotes[id]
	if !ok {
		return nil
	}
	var parts []string
	for idx := range fn.Content {
		if p := fn.Content[idx].Paragraph; p != nil {
			if content, _ := w.renderParagraph(p); content != "" {
				parts = append(parts, content)
			}
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &models.Section{Kind: models.SectionFootnote, Content: strings.Join(parts, " ")}
}

// tableSection parses the first row as headers and the rest as body rows.
// Cell content is itself a structural-element list and parsed recursively.
func (w *walker) tableSection(t *table) *models.Section {
	if len(t.TableRows) == 0 {
		return nil
	}
	cellText := func(content []structuralElement) string {
		var parts []string
		for _, s := range w.walk(content) {
			if s.Content != "" {
				parts = append(parts, s.Content)
			}
		}
		return strings.Join(parts, " ")
	}

	section := &models.Section{Kind: models.SectionTable}
	for _, cell := range t.TableRows[0].TableCells {
		section.Headers = append(section.Headers, cellText(cell.Content))
	}
	for _, row := range t.TableRows[1:] {
		var cells []string
		for _, cell := range row.TableCells {
			cells = append(cells, cellText(cell.Content))
		}
		section.Rows = append(section.Rows, cells)
	}
	return section
}

func (w *walker) listOrdered(listID string) bool {
	def, ok := w.doc.Lists[listID]
	if !ok || len(def.ListProperties.NestingLevels) == 0 {
		return false
	}
	switch def.ListProperties.NestingLevels[0].GlyphType {
	case "DECIMAL", "ALPHA", "UPPER_ALPHA", "ROMAN", "UPPER_ROMAN":
		return true
	}
	return false
}

func hasHorizontalRule(p *paragraph) bool {
	for _, el := range p.Elements {
		if el.HorizontalRule != nil {
			return true
		}
	}
	return false
}

func stripInline(s string) string {
	return strings.TrimSpace(richtext.StripTags(s))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
