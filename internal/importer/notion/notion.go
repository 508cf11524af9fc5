// Package notion imports Notion pages through the official Notion API. The
// block tree is flattened with depth tags so nesting survives as indentation.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ameyrk/gutengo/internal/models"
)

const notionVersion = "2022-06-28"

// Importer implements the Notion connector.
type Importer struct {
	client     *http.Client
	apiBaseURL string
	apiKey     string
}

// New creates a new instance of the Notion importer. The API key comes from
// configuration; fetches fail fast when it is missing.
func New(apiKey string) *Importer {
	return &Importer{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: "https://api.notion.com/v1",
		apiKey:     apiKey,
	}
}

func (i *Importer) Info() models.ImporterInfo {
	return models.ImporterInfo{Slug: "notion", Name: "Notion"}
}

// CanImport reports whether the URL points at a Notion page.
func (i *Importer) CanImport(urlOrContent string) bool {
	trimmed := strings.TrimSpace(urlOrContent)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return false
	}
	return strings.Contains(trimmed, "notion.so")
}

// The page ID strategies, tried in priority order; first match wins.
var (
	rePageTrailing = regexp.MustCompile(`([a-f0-9]{32})$`)
	rePageHyphen   = regexp.MustCompile(`-([a-f0-9]{32})$`)
	rePagePath     = regexp.MustCompile(`/([a-f0-9]{32})(?:/|$)`)
	rePageAnyCase  = regexp.MustCompile(`([a-fA-F0-9]{32})`)
	rePageUUID     = regexp.MustCompile(`([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})`)
)

// extractPageID resolves the 32-hex page ID from a Notion URL. Mixed-case
// matches are lowercased and UUID matches are de-dashed, since the API wants
// the compact lowercase form.
func extractPageID(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	for _, re := range []*regexp.Regexp{rePageTrailing, rePageHyphen, rePagePath} {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	if m := rePageAnyCase.FindStringSubmatch(rawURL); m != nil {
		return strings.ToLower(m[1])
	}
	if m := rePageUUID.FindStringSubmatch(rawURL); m != nil {
		return strings.ReplaceAll(m[1], "-", "")
	}
	return ""
}

func (i *Importer) apiRequest(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", i.apiBaseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+i.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return &models.FetchError{Message: "failed to connect to Notion API: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &models.FetchError{
			Status:  http.StatusUnauthorized,
			Message: "invalid Notion API key, check the configured credentials",
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &models.FetchError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Notion API returned error code %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.FetchError{Message: "invalid API response from Notion: " + err.Error()}
	}
	return nil
}

// Fetch retrieves the page metadata and its full block tree. Children of
// has_children blocks are expanded recursively and flattened with depth tags.
func (i *Importer) Fetch(ctx context.Context, locator string) (*models.RawContent, error) {
	if i.apiKey == "" {
		return nil, &models.FetchError{Message: "Notion API key not configured"}
	}

	pageID := extractPageID(locator)
	if pageID == "" {
		return nil, &models.FetchError{Message: "could not extract page ID from URL"}
	}

	payload := &fetchPayload{PageID: pageID}

	if err := i.apiRequest(ctx, "/pages/"+pageID, &payload.Page); err != nil {
		return nil, err
	}

	var children childrenResponse
	if err := i.apiRequest(ctx, "/blocks/"+pageID+"/children", &children); err != nil {
		return nil, err
	}
	payload.Blocks = i.buildBlockTree(ctx, children.Results, 0)

	return &models.RawContent{
		Source:  "notion",
		Locator: locator,
		Data:    map[string]interface{}{"payload": payload},
	}, nil
}

// buildBlockTree flattens the block hierarchy depth-first, tagging each block
// with its nesting depth. Child fetch failures drop that subtree only.
func (i *Importer) buildBlockTree(ctx context.Context, blocks []apiBlock, depth int) []apiBlock {
	var result []apiBlock
	for _, block := range blocks {
		block.Depth = depth
		result = append(result, block)

		if block.HasChildren {
			var children childrenResponse
			if err := i.apiRequest(ctx, "/blocks/"+block.ID+"/children", &children); err != nil {
				continue
			}
			result = append(result, i.buildBlockTree(ctx, children.Results, depth+1)...)
		}
	}
	return result
}

// Parse converts the flattened block list into document sections.
// Consecutive list items coalesce into one list; switching orderedness at
// the top level opens a new one.
func (i *Importer) Parse(raw *models.RawContent) (*models.Document, error) {
	payload, ok := raw.Data["payload"].(*fetchPayload)
	if !ok {
		return nil, fmt.Errorf("notion: raw content is missing the fetch payload")
	}

	doc := &models.Document{
		Title:     pageTitle(payload.Page),
		Author:    payload.Page.CreatedBy.Name,
		SourceURL: raw.Locator,
	}
	if t, err := time.Parse(time.RFC3339, payload.Page.CreatedTime); err == nil {
		doc.PublishedAt = &t
	}

	var currentList *models.Section
	flushList := func() {
		if currentList != nil {
			doc.Sections = append(doc.Sections, *currentList)
			currentList = nil
		}
	}

	for idx := range payload.Blocks {
		block := &payload.Blocks[idx]

		if block.Type == "bulleted_list_item" || block.Type == "numbered_list_item" {
			ordered := block.Type == "numbered_list_item"
			item := extractRichText(block.richText())
			if block.Depth > 0 {
				item = strings.Repeat("    ", block.Depth) + item
			}
			// Nested items of either orderedness stay inside the open list;
			// only a top-level switch starts a new one.
			if currentList == nil || (currentList.Ordered != ordered && block.Depth == 0) {
				flushList()
				currentList = &models.Section{
					Kind:    models.SectionList,
					Ordered: ordered,
					Items:   []string{item},
				}
			} else {
				currentList.Items = append(currentList.Items, item)
			}
			continue
		}

		flushList()

		section := parseBlock(block)
		if section == nil {
			continue
		}
		if block.Depth > 0 && section.Kind == models.SectionParagraph {
			section.Content = strings.Repeat("&nbsp;&nbsp;&nbsp;&nbsp;", block.Depth) + section.Content
		}
		doc.Sections = append(doc.Sections, *section)
		if section.Kind == models.SectionImage {
			doc.AddImage(section.URL)
		}
	}
	flushList()

	if doc.Title == "" {
		doc.Title = "Untitled Notion Page"
	}
	return doc, nil
}

// pageTitle pulls the title property, preferring the canonical "title" and
// "Name" keys before scanning the rest.
func pageTitle(page pageResponse) string {
	for _, key := range []string{"title", "Name"} {
		if prop, ok := page.Properties[key]; ok && len(prop.Title) > 0 {
			return prop.Title[0].PlainText
		}
	}
	keys := make([]string, 0, len(page.Properties))
	for k := range page.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		prop := page.Properties[k]
		if prop.Type == "title" && len(prop.Title) > 0 && prop.Title[0].PlainText != "" {
			return prop.Title[0].PlainText
		}
	}
	return ""
}

// parseBlock maps one Notion block to a section. Unknown block kinds degrade
// to a text paragraph when they carry rich text, and nil otherwise.
func parseBlock(block *apiBlock) *models.Section {
	switch block.Type {
	case "heading_1":
		return headingSection(block, 1)
	case "heading_2":
		return headingSection(block, 2)
	case "heading_3":
		return headingSection(block, 3)
	case "quote":
		return textSection(block, models.SectionQuote)
	case "code":
		var p codePayload
		if !block.payload(&p) {
			return nil
		}
		return &models.Section{
			Kind:     models.SectionCode,
			Content:  extractRichText(p.RichText),
			Language: p.Language,
		}
	case "image":
		var p imagePayload
		if !block.payload(&p) {
			return nil
		}
		var url string
		switch {
		case p.Type == "external" && p.External != nil:
			url = p.External.URL
		case p.Type == "file" && p.File != nil:
			url = p.File.URL
		}
		caption := extractRichText(p.Caption)
		return &models.Section{
			Kind:    models.SectionImage,
			URL:     url,
			Alt:     caption,
			Caption: caption,
		}
	case "divider":
		return &models.Section{Kind: models.SectionSeparator}
	case "callout":
		var p calloutPayload
		if !block.payload(&p) {
			return nil
		}
		icon := "\U0001F4A1"
		if p.Icon != nil && p.Icon.Emoji != "" {
			icon = p.Icon.Emoji
		}
		text := extractRichText(p.RichText)
		if text == "" {
			return nil
		}
		return &models.Section{
			Kind:    models.SectionParagraph,
			Content: icon + " <strong>" + text + "</strong>",
		}
	case "toggle":
		// Only the summary line survives; the collapsed body arrives as the
		// toggle's children.
		text := extractRichText(block.richText())
		if text == "" {
			return nil
		}
		return &models.Section{
			Kind:    models.SectionParagraph,
			Content: "<strong>▸ " + text + "</strong>",
		}
	default:
		return textSection(block, models.SectionParagraph)
	}
}

func textSection(block *apiBlock, kind models.SectionKind) *models.Section {
	text := extractRichText(block.richText())
	if text == "" {
		return nil
	}
	return &models.Section{Kind: kind, Content: text}
}

func headingSection(block *apiBlock, level int) *models.Section {
	return &models.Section{
		Kind:    models.SectionHeading,
		Level:   level,
		Content: extractRichText(block.richText()),
	}
}

// extractRichText renders a rich text run list to inline HTML. Annotations
// nest inner to outer in a fixed order, with the link wrapping everything.
func extractRichText(runs []richText) string {
	var b strings.Builder
	for _, run := range runs {
		content := run.PlainText
		if run.Annotations.Bold {
			content = "<strong>" + content + "</strong>"
		}
		if run.Annotations.Italic {
			content = "<em>" + content + "</em>"
		}
		if run.Annotations.Strikethrough {
			content = "<s>" + content + "</s>"
		}
		if run.Annotations.Underline {
			content = "<u>" + content + "</u>"
		}
		if run.Annotations.Code {
			content = "<code>" + content + "</code>"
		}
		if run.Href != "" {
			content = `<a href="` + run.Href + `">` + content + `</a>`
		}
		b.WriteString(content)
	}
	return b.String()
}
