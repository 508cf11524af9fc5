package richtext

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMetadata holds the head metadata of a fetched HTML document.
type PageMetadata struct {
	Title       string
	Description string
	Author      string
	PublishedAt string
	Image       string
	Keywords    []string
}

// ExtractMetadata reads og:/meta tags from an HTML document. OpenGraph values
// win over plain meta tags where both are present.
func ExtractMetadata(doc []byte) (*PageMetadata, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	meta := &PageMetadata{}

	metaContent := func(selector string) string {
		val, _ := d.Find(selector).Attr("content")
		return strings.TrimSpace(val)
	}

	meta.Title = metaContent(`meta[property="og:title"]`)
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(d.Find("title").First().Text())
	}

	meta.Description = metaContent(`meta[property="og:description"]`)
	if meta.Description == "" {
		meta.Description = metaContent(`meta[name="description"]`)
	}

	meta.Author = metaContent(`meta[name="author"]`)
	meta.PublishedAt = metaContent(`meta[property="article:published_time"]`)
	meta.Image = metaContent(`meta[property="og:image"]`)

	if keywords := metaContent(`meta[name="keywords"]`); keywords != "" {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				meta.Keywords = append(meta.Keywords, kw)
			}
		}
	}

	return meta, nil
}
