// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/ameyrk/gutengo/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreatePost inserts the finished content and returns its id. This is the
// local content sink of the pipeline.
func (s *Store) CreatePost(post *models.Post) (int64, error) {
	if strings.TrimSpace(post.Title) == "" && strings.TrimSpace(post.Content) == "" {
		return 0, &models.ValidationError{Message: "post needs a title or content"}
	}
	if post.Status == "" {
		post.Status = "draft"
	}
	if post.Type == "" {
		post.Type = "post"
	}

	res, err := s.db.Exec(
		`INSERT INTO posts (title, content, excerpt, status, type, author_ref, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Title, post.Content, post.Excerpt, post.Status, post.Type, post.AuthorRef, post.Tags, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPost fetches one post by id.
func (s *Store) GetPost(id int64) (*models.Post, error) {
	var p models.Post
	err := s.db.QueryRow(
		`SELECT id, title, content, excerpt, status, type, author_ref, tags, created_at
		 FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.Status, &p.Type, &p.AuthorRef, &p.Tags, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordImport appends a history entry for a completed run.
func (s *Store) RecordImport(entry *models.HistoryEntry) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (run_id, source, title, post_id, source_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Source, entry.Title, entry.PostID, entry.SourceURL, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListImports returns history entries, newest first.
func (s *Store) ListImports(limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, source, title, post_id, source_url, created_at
		 FROM imports ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Source, &e.Title, &e.PostID, &e.SourceURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// DeleteImport removes one history entry. It reports whether a row existed.
func (s *Store) DeleteImport(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM imports WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// PruneImports deletes the oldest history entries beyond keep.
func (s *Store) PruneImports(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(
		`DELETE FROM imports WHERE id NOT IN (
			SELECT id FROM imports ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindAssetBySourceURL returns the stored copy of a remote URL, if any.
func (s *Store) FindAssetBySourceURL(sourceURL string) (*models.Asset, error) {
	var a models.Asset
	err := s.db.QueryRow(
		`SELECT id, source_url, file_name, public_url, created_at
		 FROM assets WHERE source_url = ?`, sourceURL,
	).Scan(&a.ID, &a.SourceURL, &a.FileName, &a.PublicURL, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAsset records a stored asset. The source URL is unique; a duplicate
// insert returns the existing row instead of failing.
func (s *Store) CreateAsset(asset *models.Asset) (*models.Asset, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO assets (source_url, file_name, public_url, created_at)
		 VALUES (?, ?, ?, ?)`,
		asset.SourceURL, asset.FileName, asset.PublicURL, time.Now(),
	)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return s.FindAssetBySourceURL(asset.SourceURL)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	asset.ID = id
	return asset, nil
}
