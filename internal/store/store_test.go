package store_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/store"
	"github.com/ameyrk/gutengo/internal/testutil"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testutil.SetupTestDB(t))
}

func TestCreatePostDefaultsAndFetch(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreatePost(&models.Post{Title: "T", Content: "<p>c</p>", Tags: "go,web"})
	require.NoError(t, err)
	require.NotZero(t, id)

	post, err := s.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, "T", post.Title)
	assert.Equal(t, "draft", post.Status)
	assert.Equal(t, "post", post.Type)
	assert.Equal(t, "go,web", post.Tags)
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreatePost(&models.Post{Title: "  ", Content: ""})
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestImportHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.RecordImport(&models.HistoryEntry{
			RunID:  fmt.Sprintf("run-%d", i),
			Source: "markdown",
			Title:  fmt.Sprintf("post %d", i),
			PostID: int64(i + 1),
		})
		require.NoError(t, err)
	}

	entries, err := s.ListImports(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Newest first.
	assert.Equal(t, "run-2", entries[0].RunID)

	deleted, err := s.DeleteImport(entries[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteImport(99999)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPruneImports(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.RecordImport(&models.HistoryEntry{RunID: fmt.Sprintf("run-%d", i), Source: "markdown"})
		require.NoError(t, err)
	}

	pruned, err := s.PruneImports(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pruned)

	entries, err := s.ListImports(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run-4", entries[0].RunID)
}

func TestAssetDedupeBySourceURL(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateAsset(&models.Asset{
		SourceURL: "https://cdn.example.com/a.png",
		FileName:  "a.png",
		PublicURL: "/assets/a.png",
	})
	require.NoError(t, err)

	// Same source URL resolves to the existing row.
	second, err := s.CreateAsset(&models.Asset{
		SourceURL: "https://cdn.example.com/a.png",
		FileName:  "other.png",
		PublicURL: "/assets/other.png",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "/assets/a.png", second.PublicURL)

	found, err := s.FindAssetBySourceURL("https://cdn.example.com/a.png")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := s.FindAssetBySourceURL("https://cdn.example.com/missing.png")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
