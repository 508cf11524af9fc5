// Package assets persists remote images locally and hands back stable public
// URLs for the serialized content to reference.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfnt/resize"

	"github.com/ameyrk/gutengo/internal/config"
	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/store"
	"github.com/ameyrk/gutengo/internal/util"
)

const maxDownloadSize = 20 << 20

// Store downloads and keeps one copy per remote URL. Safe for concurrent use
// by the image workers; the database's unique source_url constraint settles
// races between them.
type Store struct {
	db         *store.Store
	dir        string
	publicBase string
	maxWidth   int
	client     *http.Client
}

func New(db *store.Store, cfg *config.Config) *Store {
	return &Store{
		db:         db,
		dir:        cfg.Assets.Path,
		publicBase: strings.TrimSuffix(cfg.Assets.PublicBaseURL, "/"),
		maxWidth:   cfg.Assets.MaxWidth,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Dir returns the directory served as static assets.
func (s *Store) Dir() string { return s.dir }

// Store fetches the remote URL unless it is already stored, writes the bytes
// under the asset directory, and records the mapping. The returned asset's
// public URL is what gets substituted into the content.
func (s *Store) Store(ctx context.Context, remoteURL string) (*models.Asset, error) {
	if existing, err := s.db.FindAssetBySourceURL(remoteURL); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	data, err := s.download(ctx, remoteURL)
	if err != nil {
		return nil, err
	}

	if s.maxWidth > 0 {
		data = s.downscale(remoteURL, data)
	}

	fileName := s.fileNameFor(remoteURL)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, fileName), data, 0644); err != nil {
		return nil, err
	}

	return s.db.CreateAsset(&models.Asset{
		SourceURL: remoteURL,
		FileName:  fileName,
		PublicURL: s.publicBase + "/" + fileName,
	})
}

// Resolve returns the public URL of a stored asset.
func (s *Store) Resolve(asset *models.Asset) string {
	return asset.PublicURL
}

func (s *Store) download(ctx context.Context, remoteURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", remoteURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", remoteURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
}

// downscale shrinks images wider than the configured limit, preserving the
// aspect ratio. Bytes that do not decode as an image pass through untouched.
func (s *Store) downscale(remoteURL string, data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	if img.Bounds().Dx() <= s.maxWidth {
		return data
	}

	resized := resize.Resize(uint(s.maxWidth), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, resized)
	case "gif":
		err = gif.Encode(&buf, resized, nil)
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		log.Printf("assets: re-encode of %s failed, keeping original: %v", remoteURL, err)
		return data
	}
	return buf.Bytes()
}

// fileNameFor builds a collision-free name from the URL hash plus its
// sanitized basename.
func (s *Store) fileNameFor(remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	base := util.SanitizeFilename(util.URLBasename(remoteURL))
	if base == "" || base == "untitled" {
		base = "asset"
	}
	return fmt.Sprintf("%x_%s", sum[:6], base)
}
