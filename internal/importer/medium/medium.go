// Package medium imports Medium articles through the third-party Medium
// content API, which serves article metadata, a markdown rendering of the
// body, and an assets manifest as separate resources.
package medium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ameyrk/gutengo/internal/importer/markdown"
	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/richtext"
)

// Importer implements the Medium connector.
type Importer struct {
	client     *http.Client
	apiBaseURL string
	apiHost    string
	apiKey     string
}

// New creates a new instance of the Medium importer. The API key comes from
// configuration; fetches fail fast when it is missing.
func New(apiKey string) *Importer {
	return &Importer{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiBaseURL: "https://medium2.p.rapidapi.com",
		apiHost:    "medium2.p.rapidapi.com",
		apiKey:     apiKey,
	}
}

func (i *Importer) Info() models.ImporterInfo {
	return models.ImporterInfo{Slug: "medium", Name: "Medium"}
}

var mediumSubdomain = regexp.MustCompile(`^[\w-]+\.medium\.com$`)

// CanImport reports whether the URL points at Medium or one of its
// publication domains.
func (i *Importer) CanImport(urlOrContent string) bool {
	u, err := url.Parse(strings.TrimSpace(urlOrContent))
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Host
	return strings.Contains(host, "medium.com") ||
		strings.Contains(host, "towardsdatascience.com") ||
		strings.Contains(host, "hackernoon.com") ||
		strings.HasPrefix(host, "pub.") ||
		mediumSubdomain.MatchString(host)
}

// The article ID strategies, tried in priority order; first match wins.
var (
	reTrailingID = regexp.MustCompile(`([a-f0-9]{8,16})$`)
	rePathID     = regexp.MustCompile(`/p/([a-f0-9]{8,16})`)
	reAnyHexRun  = regexp.MustCompile(`([a-f0-9]{12})`)
)

// extractArticleID resolves the opaque article ID from a Medium URL.
func extractArticleID(rawURL string) string {
	// Drop query parameters and fragment before matching.
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	for _, re := range []*regexp.Regexp{reTrailingID, rePathID, reAnyHexRun} {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

func (i *Importer) apiRequest(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", i.apiBaseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-RapidAPI-Key", i.apiKey)
	req.Header.Set("X-RapidAPI-Host", i.apiHost)

	resp, err := i.client.Do(req)
	if err != nil {
		return &models.FetchError{Message: "failed to connect to Medium API: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &models.FetchError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Medium API returned error code %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.FetchError{Message: "invalid API response from Medium: " + err.Error()}
	}
	return nil
}

// Fetch resolves the article ID and retrieves metadata, the markdown body
// and the assets manifest. The author lookup is best effort and never fails
// the fetch.
func (i *Importer) Fetch(ctx context.Context, locator string) (*models.RawContent, error) {
	if i.apiKey == "" {
		return nil, &models.FetchError{Message: "Medium API key not configured"}
	}

	articleID := extractArticleID(locator)
	if articleID == "" {
		return nil, &models.FetchError{Message: "could not extract article ID from URL"}
	}

	payload := &fetchPayload{ArticleID: articleID}

	if err := i.apiRequest(ctx, "/article/"+articleID, &payload.Info); err != nil {
		return nil, err
	}
	var md markdownResponse
	if err := i.apiRequest(ctx, "/article/"+articleID+"/markdown", &md); err != nil {
		return nil, err
	}
	payload.Markdown = md.Markdown
	if err := i.apiRequest(ctx, "/article/"+articleID+"/assets", &payload.Assets); err != nil {
		return nil, err
	}

	if payload.Info.Author != "" {
		var author userInfo
		if err := i.apiRequest(ctx, "/user/"+payload.Info.Author, &author); err == nil {
			payload.Author = &author
		}
	}

	// Some articles come back with sparse metadata; fall back to the page's
	// own og: tags before giving up on a title.
	if payload.Info.Title == "" {
		i.fillFromPageMetadata(ctx, locator, payload)
	}

	return &models.RawContent{
		Source:  "medium",
		Locator: locator,
		Data:    map[string]interface{}{"payload": payload},
	}, nil
}

// Parse converts the markdown body into sections and merges the featured
// image, the assets manifest and the embeds into the document.
func (i *Importer) Parse(raw *models.RawContent) (*models.Document, error) {
	payload, ok := raw.Data["payload"].(*fetchPayload)
	if !ok {
		return nil, fmt.Errorf("medium: raw content is missing the fetch payload")
	}

	doc := &models.Document{
		Title:     payload.Info.Title,
		Excerpt:   payload.Info.Subtitle,
		Tags:      payload.Info.Tags,
		SourceURL: firstNonEmpty(payload.Info.URL, raw.Locator),
	}
	if payload.Author != nil {
		doc.Author = firstNonEmpty(payload.Author.Fullname, payload.Author.Username)
	}
	if t := parseTimestamp(payload.Info.PublishedAt); t != nil {
		doc.PublishedAt = t
	}

	// Featured image first, then the body's own images.
	doc.AddImage(payload.Info.ImageURL)

	doc.Sections = markdown.ParseSections(payload.Markdown)
	for _, s := range doc.Sections {
		if s.Kind == models.SectionImage {
			doc.AddImage(s.URL)
		}
	}
	for _, img := range payload.Assets.Assets.Images {
		doc.AddImage(img)
	}

	for _, yt := range payload.Assets.Assets.YouTube {
		if yt.Href == "" {
			continue
		}
		doc.Sections = append(doc.Sections, models.Section{
			Kind:     models.SectionEmbed,
			URL:      yt.Href,
			Provider: "youtube",
		})
	}
	for domain, embeds := range payload.Assets.Assets.OtherEmbeds {
		for _, e := range embeds {
			if e.Href == "" {
				continue
			}
			doc.Sections = append(doc.Sections, models.Section{
				Kind:     models.SectionEmbed,
				URL:      e.Href,
				Provider: providerFromDomain(domain),
			})
		}
	}

	if doc.Title == "" {
		doc.Title = "Imported Medium Article"
	}
	return doc, nil
}

// fillFromPageMetadata scrapes the article page's og: tags to backfill
// metadata the API did not return. Best effort; errors are swallowed.
func (i *Importer) fillFromPageMetadata(ctx context.Context, pageURL string, payload *fetchPayload) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return
	}
	meta, err := richtext.ExtractMetadata(body)
	if err != nil {
		return
	}
	payload.Info.Title = firstNonEmpty(payload.Info.Title, meta.Title)
	payload.Info.Subtitle = firstNonEmpty(payload.Info.Subtitle, meta.Description)
	payload.Info.ImageURL = firstNonEmpty(payload.Info.ImageURL, meta.Image)
	payload.Info.PublishedAt = firstNonEmpty(payload.Info.PublishedAt, meta.PublishedAt)
	if len(payload.Info.Tags) == 0 {
		payload.Info.Tags = meta.Keywords
	}
}

// providerFromDomain reduces "www.twitter.com" to "twitter".
func providerFromDomain(domain string) string {
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.Index(domain, "."); idx > 0 {
		return domain[:idx]
	}
	return domain
}

func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
