package models

import "time"

// HistoryEntry is one recorded import in the history table.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	PostID    int64     `json:"post_id"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is a row in the posts table, the local content sink.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
	AuthorRef string    `json:"author_ref,omitempty"`
	Tags      string    `json:"tags,omitempty"` // comma-joined
	CreatedAt time.Time `json:"created_at"`
}

// Asset is a stored copy of a remote image.
type Asset struct {
	ID        int64     `json:"id"`
	SourceURL string    `json:"source_url"`
	FileName  string    `json:"file_name"`
	PublicURL string    `json:"public_url"`
	CreatedAt time.Time `json:"created_at"`
}
