package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameyrk/gutengo/internal/assets"
	"github.com/ameyrk/gutengo/internal/config"
	"github.com/ameyrk/gutengo/internal/importer"
	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/pipeline"
	"github.com/ameyrk/gutengo/internal/progress"
	"github.com/ameyrk/gutengo/internal/store"
	"github.com/ameyrk/gutengo/internal/testutil"
)

// stubImporter lets tests control fetch timing and parser output.
type stubImporter struct {
	slug     string
	doc      *models.Document
	fetchErr error
	gate     chan struct{} // when non-nil, Fetch blocks until closed
}

func (s *stubImporter) Info() models.ImporterInfo {
	return models.ImporterInfo{Slug: s.slug, Name: s.slug}
}
func (s *stubImporter) CanImport(string) bool { return true }

func (s *stubImporter) Fetch(ctx context.Context, locator string) (*models.RawContent, error) {
	if s.gate != nil {
		<-s.gate
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &models.RawContent{Source: s.slug, Locator: locator}, nil
}

func (s *stubImporter) Parse(raw *models.RawContent) (*models.Document, error) {
	return s.doc, nil
}

type fixture struct {
	runner  *pipeline.Runner
	tracker *progress.Tracker
	store   *store.Store
}

func newFixture(t *testing.T, imp models.Importer, assetStore *assets.Store) *fixture {
	t.Helper()
	registry := importer.NewRegistry()
	registry.Register(imp)
	tracker := progress.NewTracker()
	st := store.New(testutil.SetupTestDB(t))
	return &fixture{
		runner:  pipeline.New(registry, tracker, st, assetStore, 2),
		tracker: tracker,
		store:   st,
	}
}

func waitForTerminal(t *testing.T, tracker *progress.Tracker, runID string) models.ProgressRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rec, ok := tracker.Get(runID); ok && rec.State.Terminal() {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run did not reach a terminal state")
	return models.ProgressRecord{}
}

func TestRunEndToEndWithMarkdown(t *testing.T) {
	app := testutil.SetupTestApp(t)

	result, err := app.Runner.Run(context.Background(), "markdown", "# Hello\n\nWorld **bold**.", models.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello", result.Title)
	assert.Equal(t, "markdown", result.Source)

	post, err := app.Store.GetPost(result.PostID)
	require.NoError(t, err)
	assert.Contains(t, post.Content, `<!-- wp:core/heading {"level":1} -->`)
	assert.Contains(t, post.Content, "<p>World <strong>bold</strong>.</p>")

	history, err := app.Store.ListImports(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.PostID, history[0].PostID)
}

func TestSubmitReturnsImmediatelyAndCompletes(t *testing.T) {
	app := testutil.SetupTestApp(t)

	runID, err := app.Runner.Submit("", "markdown", "# Async\n\ntext", models.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	rec := waitForTerminal(t, app.Tracker, runID)
	assert.Equal(t, models.StateCompleted, rec.State)
	assert.Equal(t, 100, rec.Percent)

	result, ok := app.Tracker.Result(runID)
	require.True(t, ok)
	assert.Equal(t, "Async", result.Title)
}

func TestSubmitUnknownSource(t *testing.T) {
	app := testutil.SetupTestApp(t)
	_, err := app.Runner.Submit("", "rss", "whatever", models.Options{})
	assert.Error(t, err)
}

func TestSubmitDuplicateRunID(t *testing.T) {
	app := testutil.SetupTestApp(t)

	runID, err := app.Runner.Submit("fixed-id", "markdown", "# A", models.Options{})
	require.NoError(t, err)
	waitForTerminal(t, app.Tracker, runID)

	_, err = app.Runner.Submit("fixed-id", "markdown", "# B", models.Options{})
	assert.Error(t, err, "run IDs are unique for a record's lifetime")
}

func TestFetchErrorFailsRun(t *testing.T) {
	f := newFixture(t, &stubImporter{
		slug:     "stub",
		fetchErr: &models.FetchError{Status: 502, Message: "upstream down"},
	}, nil)

	runID, err := f.runner.Submit("", "stub", "x", models.Options{})
	require.NoError(t, err)

	rec := waitForTerminal(t, f.tracker, runID)
	assert.Equal(t, models.StateFailed, rec.State)
	assert.Contains(t, rec.Error, "upstream down")

	history, err := f.store.ListImports(10)
	require.NoError(t, err)
	assert.Empty(t, history, "failed runs leave no history entry")
}

func TestCancelDuringFetchStopsRun(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, &stubImporter{
		slug: "stub",
		doc:  &models.Document{Title: "T"},
		gate: gate,
	}, nil)

	runID, err := f.runner.Submit("", "stub", "x", models.Options{})
	require.NoError(t, err)

	// Wait until the run reaches fetching, then cancel while it is blocked.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec, ok := f.tracker.Get(runID)
		require.True(t, ok)
		if rec.State == models.StateFetching {
			break
		}
		require.True(t, time.Now().Before(deadline), "run never started fetching")
		time.Sleep(time.Millisecond)
	}
	require.True(t, f.tracker.Cancel(runID))
	close(gate)

	rec := waitForTerminal(t, f.tracker, runID)
	assert.Equal(t, models.StateCancelled, rec.State)

	// The run stopped at the next phase boundary; nothing was written.
	time.Sleep(20 * time.Millisecond)
	history, err := f.store.ListImports(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEmptyDocumentSynthesizesParagraph(t *testing.T) {
	f := newFixture(t, &stubImporter{
		slug: "stub",
		doc:  &models.Document{Title: "Empty"},
	}, nil)

	result, err := f.runner.Run(context.Background(), "stub", "x", models.Options{})
	require.NoError(t, err)

	post, err := f.store.GetPost(result.PostID)
	require.NoError(t, err)
	assert.Contains(t, post.Content, "<!-- wp:core/paragraph -->\n<p></p>")
}

func TestDownloadImagesRewritesURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "bad.png") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("img-bytes"))
	}))
	t.Cleanup(server.Close)

	goodURL := server.URL + "/good.png"
	badURL := server.URL + "/bad.png"

	db := testutil.SetupTestDB(t)
	st := store.New(db)
	cfg := &config.Config{}
	cfg.Assets.Path = t.TempDir()
	cfg.Assets.PublicBaseURL = "/assets"
	assetStore := assets.New(st, cfg)

	imp := &stubImporter{
		slug: "stub",
		doc: &models.Document{
			Title: "With images",
			Sections: []models.Section{
				{Kind: models.SectionImage, URL: goodURL, Alt: "good"},
				{Kind: models.SectionImage, URL: badURL, Alt: "bad"},
			},
			Images: []string{goodURL, badURL},
		},
	}
	registry := importer.NewRegistry()
	registry.Register(imp)
	runner := pipeline.New(registry, progress.NewTracker(), st, assetStore, 2)

	result, err := runner.Run(context.Background(), "stub", "x", models.Options{DownloadImages: true})
	require.NoError(t, err)

	post, err := st.GetPost(result.PostID)
	require.NoError(t, err)
	assert.NotContains(t, post.Content, goodURL, "stored image URL is rewritten")
	assert.Contains(t, post.Content, "/assets/")
	// The failed download leaves the remote URL in place.
	assert.Contains(t, post.Content, badURL)
}

func TestPreviewDoesNotWrite(t *testing.T) {
	app := testutil.SetupTestApp(t)

	preview, err := app.Runner.Preview(context.Background(), "markdown", "# P\n\ntext\n\n- a\n- b")
	require.NoError(t, err)
	assert.Equal(t, "P", preview.Title)
	assert.Equal(t, 1, preview.Stats["headings"])
	assert.Equal(t, 1, preview.Stats["paragraphs"])
	assert.Equal(t, 1, preview.Stats["lists"])
	assert.Contains(t, preview.Content, "<!-- wp:core/list")

	history, err := app.Store.ListImports(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
