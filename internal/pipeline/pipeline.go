// Package pipeline orchestrates one import run: fetch, parse, convert,
// download images, create the post. Progress moves through the tracker at
// every phase boundary, which is also where cancellation is honored.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ameyrk/gutengo/internal/assets"
	"github.com/ameyrk/gutengo/internal/blocks"
	"github.com/ameyrk/gutengo/internal/importer"
	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/progress"
	"github.com/ameyrk/gutengo/internal/store"
)

// Runner executes import runs. One Runner serves the whole process; every
// submitted run gets its own goroutine.
type Runner struct {
	registry *importer.Registry
	tracker  *progress.Tracker
	store    *store.Store
	assets   *assets.Store
	workers  int
}

func New(registry *importer.Registry, tracker *progress.Tracker, st *store.Store, as *assets.Store, imageWorkers int) *Runner {
	if imageWorkers < 1 {
		imageWorkers = 1
	}
	return &Runner{
		registry: registry,
		tracker:  tracker,
		store:    st,
		assets:   as,
		workers:  imageWorkers,
	}
}

// Submit accepts a run and returns its ID immediately; the run proceeds on
// its own goroutine. An empty runID gets a generated one.
func (r *Runner) Submit(runID, source, locator string, opts models.Options) (string, error) {
	imp, ok := r.registry.Get(source)
	if !ok {
		return "", fmt.Errorf("unknown source %q", source)
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := r.tracker.Init(runID); err != nil {
		return "", err
	}

	go r.run(context.Background(), runID, imp, locator, opts)
	return runID, nil
}

// Run executes an import synchronously and returns the result. Used by the
// CLI and the watch directory.
func (r *Runner) Run(ctx context.Context, source, locator string, opts models.Options) (*models.ImportResult, error) {
	imp, ok := r.registry.Get(source)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	runID := uuid.NewString()
	if err := r.tracker.Init(runID); err != nil {
		return nil, err
	}

	r.run(ctx, runID, imp, locator, opts)

	if result, ok := r.tracker.Result(runID); ok {
		return result, nil
	}
	record, _ := r.tracker.Get(runID)
	if record.Error != "" {
		return nil, fmt.Errorf("%s", record.Error)
	}
	return nil, fmt.Errorf("import did not complete (state %s)", record.State)
}

// run drives the state machine. Every tracker.Update call marks a phase
// boundary; a false return means the run was cancelled and processing stops.
func (r *Runner) run(ctx context.Context, runID string, imp models.Importer, locator string, opts models.Options) {
	if !r.tracker.Update(runID, models.StateFetching, 10, "Fetching content", "") {
		return
	}
	raw, err := imp.Fetch(ctx, locator)
	if err != nil {
		r.tracker.Fail(runID, err.Error())
		return
	}

	if !r.tracker.Update(runID, models.StateParsing, 30, "Parsing content", "") {
		return
	}
	doc, err := imp.Parse(raw)
	if err != nil {
		r.tracker.Fail(runID, err.Error())
		return
	}

	if !r.tracker.Update(runID, models.StateConverting, 50, "Converting to blocks", "") {
		return
	}
	blockList := blocks.ConvertAll(doc.Sections)
	serialized := blocks.Serialize(blockList)

	if opts.DownloadImages && r.assets != nil && len(doc.Images) > 0 {
		if !r.tracker.Update(runID, models.StateDownloadingImages, 70,
			fmt.Sprintf("Downloading %d images", len(doc.Images)), "") {
			return
		}
		serialized = r.downloadImages(ctx, doc.Images, serialized)
	}

	if !r.tracker.Update(runID, models.StateCreatingResult, 90, "Creating post", "") {
		return
	}
	postID, err := r.store.CreatePost(&models.Post{
		Title:     doc.Title,
		Content:   serialized,
		Excerpt:   doc.Excerpt,
		Status:    opts.TargetStatus,
		Type:      opts.TargetType,
		AuthorRef: opts.AuthorRef,
		Tags:      strings.Join(doc.Tags, ","),
	})
	if err != nil {
		r.tracker.Fail(runID, err.Error())
		return
	}

	if _, err := r.store.RecordImport(&models.HistoryEntry{
		RunID:     runID,
		Source:    imp.Info().Slug,
		Title:     doc.Title,
		PostID:    postID,
		SourceURL: doc.SourceURL,
	}); err != nil {
		log.Printf("pipeline: record history for run %s: %v", runID, err)
	}

	r.tracker.Complete(runID, &models.ImportResult{
		PostID: postID,
		Title:  doc.Title,
		Source: imp.Info().Slug,
		URL:    doc.SourceURL,
	})
}

// downloadImages stores every unique image with a bounded worker pool and
// rewrites the stored URLs inside the serialized content. One bad image is
// logged and skipped; its remote URL stays in place.
func (r *Runner) downloadImages(ctx context.Context, urls []string, serialized string) string {
	jobs := make(chan string)
	replacements := make(map[string]string, len(urls))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for remoteURL := range jobs {
				asset, err := r.assets.Store(ctx, remoteURL)
				if err != nil {
					log.Printf("pipeline: image %s skipped: %v", remoteURL, err)
					continue
				}
				mu.Lock()
				replacements[remoteURL] = r.assets.Resolve(asset)
				mu.Unlock()
			}
		}()
	}

	seen := make(map[string]bool, len(urls))
	for _, remoteURL := range urls {
		if remoteURL == "" || seen[remoteURL] {
			continue
		}
		seen[remoteURL] = true
		jobs <- remoteURL
	}
	close(jobs)
	wg.Wait()

	for remoteURL, publicURL := range replacements {
		serialized = strings.ReplaceAll(serialized, remoteURL, publicURL)
	}
	return serialized
}

// PreviewResult is the synchronous dry run of an import, stopping before any
// post or asset is written.
type PreviewResult struct {
	Title   string         `json:"title"`
	Excerpt string         `json:"excerpt,omitempty"`
	Author  string         `json:"author,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
	Stats   map[string]int `json:"stats"`
	Content string         `json:"content"`
}

// Preview fetches, parses and converts without touching the tracker, the
// asset store or the database.
func (r *Runner) Preview(ctx context.Context, source, locator string) (*PreviewResult, error) {
	imp, ok := r.registry.Get(source)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	raw, err := imp.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	doc, err := imp.Parse(raw)
	if err != nil {
		return nil, err
	}

	merged := blocks.MergeLists(doc.Sections)
	stats := map[string]int{
		"paragraphs": 0,
		"headings":   0,
		"images":     0,
		"lists":      0,
		"tables":     0,
		"embeds":     0,
	}
	for _, s := range merged {
		switch s.Kind {
		case models.SectionParagraph:
			stats["paragraphs"]++
		case models.SectionHeading:
			stats["headings"]++
		case models.SectionImage:
			stats["images"]++
		case models.SectionList:
			stats["lists"]++
		case models.SectionTable:
			stats["tables"]++
		case models.SectionEmbed:
			stats["embeds"]++
		}
	}

	return &PreviewResult{
		Title:   doc.Title,
		Excerpt: doc.Excerpt,
		Author:  doc.Author,
		Tags:    doc.Tags,
		Stats:   stats,
		Content: blocks.Serialize(blocks.ConvertAll(merged)),
	}, nil
}
