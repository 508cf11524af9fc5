package models

import "context"

// ImporterInfo contains static information about an importer.
type ImporterInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// RawContent is the source-specific payload produced by a fetch, handed
// unchanged to the same importer's Parse.
type RawContent struct {
	Source  string                 `json:"source"`
	Locator string                 `json:"locator"`          // URL or inline content
	Body    []byte                 `json:"-"`                // raw document body, when the source has one
	Data    map[string]interface{} `json:"data,omitempty"`   // decoded API payloads
	Blocks  []interface{}          `json:"blocks,omitempty"` // flattened source block list (Notion)
}

// Importer is the contract every source connector implements. Fetch may
// perform network I/O; Parse is a pure transform and must degrade gracefully
// on malformed-but-present data instead of failing.
type Importer interface {
	Info() ImporterInfo
	CanImport(urlOrContent string) bool
	Fetch(ctx context.Context, locator string) (*RawContent, error)
	Parse(raw *RawContent) (*Document, error)
}

// Options are the recognized per-run import options.
type Options struct {
	DownloadImages     bool   `json:"download_images"`
	PreserveFormatting bool   `json:"preserve_formatting"`
	TargetStatus       string `json:"target_status,omitempty"`
	TargetType         string `json:"target_type,omitempty"`
	AuthorRef          string `json:"author_ref,omitempty"`
}

// ImportResult is the payload of a completed run.
type ImportResult struct {
	PostID int64  `json:"post_id"`
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}
