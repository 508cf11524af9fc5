package models

import "time"

// SectionKind identifies the structural type of a Section.
type SectionKind string

const (
	SectionParagraph SectionKind = "paragraph"
	SectionHeading   SectionKind = "heading"
	SectionImage     SectionKind = "image"
	SectionQuote     SectionKind = "quote"
	SectionCode      SectionKind = "code"
	SectionList      SectionKind = "list"
	SectionTable     SectionKind = "table"
	SectionEmbed     SectionKind = "embed"
	SectionSeparator SectionKind = "separator"
	SectionVideo     SectionKind = "video"
	SectionAudio     SectionKind = "audio"
	SectionFile      SectionKind = "file"
	SectionFootnote  SectionKind = "footnote"
)

// Section is one structural unit of a parsed document. Kind decides which of
// the remaining fields are meaningful. Content fields hold the limited inline
// HTML produced by the richtext package, never raw source markup.
type Section struct {
	Kind     SectionKind `json:"kind"`
	Content  string      `json:"content,omitempty"`
	Level    int         `json:"level,omitempty"`    // heading
	URL      string      `json:"url,omitempty"`      // image, embed, video, audio, file
	Alt      string      `json:"alt,omitempty"`      // image
	Caption  string      `json:"caption,omitempty"`  // image, video, audio
	Citation string      `json:"citation,omitempty"` // quote
	Language string      `json:"language,omitempty"` // code
	Ordered  bool        `json:"ordered,omitempty"`  // list
	Items    []string    `json:"items,omitempty"`    // list
	Headers  []string    `json:"headers,omitempty"`  // table
	Rows     [][]string  `json:"rows,omitempty"`     // table
	Provider string      `json:"provider,omitempty"` // embed
	Filename string      `json:"filename,omitempty"` // file
	Align    string      `json:"align,omitempty"`    // image
	SizeSlug string      `json:"size_slug,omitempty"`
}

// Document is the normalized, source-agnostic representation every importer
// produces. Section order is render order.
type Document struct {
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Sections    []Section  `json:"sections"`
	Images      []string   `json:"images,omitempty"` // unique remote image URLs, insertion order
	Tags        []string   `json:"tags,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
}

// AddImage records a remote image URL, keeping the list unique.
func (d *Document) AddImage(url string) {
	if url == "" {
		return
	}
	for _, existing := range d.Images {
		if existing == url {
			return
		}
	}
	d.Images = append(d.Images, url)
}
