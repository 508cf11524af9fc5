package medium

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameyrk/gutengo/internal/models"
)

func newTestImporter(t *testing.T, handler http.Handler) *Importer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	imp := New("test-key")
	imp.apiBaseURL = server.URL
	return imp
}

func TestCanImport(t *testing.T) {
	imp := New("")

	assert.True(t, imp.CanImport("https://medium.com/@user/post-67fa62fc1971"))
	assert.True(t, imp.CanImport("https://towardsdatascience.com/some-post-abcdef123456"))
	assert.True(t, imp.CanImport("https://blog.medium.com/post-abcdef123456"))
	assert.True(t, imp.CanImport("https://pub.example.com/post-abcdef123456"))
	assert.False(t, imp.CanImport("https://example.com/article"))
	assert.False(t, imp.CanImport("# A markdown heading"))
}

func TestExtractArticleID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://medium.com/@user/my-post-67fa62fc1971", "67fa62fc1971"},
		{"https://medium.com/p/67fa62fc1971", "67fa62fc1971"},
		{"https://medium.com/@user/my-post-67fa62fc1971?source=rss", "67fa62fc1971"},
		{"https://medium.com/@user/no-id-here", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractArticleID(tc.url), tc.url)
	}
}

func TestFetchRequiresAPIKey(t *testing.T) {
	imp := New("")

	_, err := imp.Fetch(context.Background(), "https://medium.com/p/67fa62fc1971")
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Message, "API key")
}

func TestFetchReturnsFetchErrorOnAPIFailure(t *testing.T) {
	imp := newTestImporter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusTooManyRequests)
	}))

	_, err := imp.Fetch(context.Background(), "https://medium.com/p/67fa62fc1971")
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusTooManyRequests, fe.Status)
}

func TestFetchAndParse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article/67fa62fc1971", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		w.Write([]byte(`{
			"title": "Go Concurrency",
			"subtitle": "Channels in practice",
			"author": "abc123",
			"published_at": "2024-03-01 10:30:00",
			"image_url": "https://cdn.example.com/feature.png",
			"tags": ["go", "concurrency"],
			"url": "https://medium.com/@user/go-concurrency-67fa62fc1971"
		}`))
	})
	mux.HandleFunc("/article/67fa62fc1971/markdown", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markdown": "# Go Concurrency\n\nBody text.\n\n![diag](https://cdn.example.com/diag.png)"}`))
	})
	mux.HandleFunc("/article/67fa62fc1971/assets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets": {
			"images": ["https://cdn.example.com/extra.png"],
			"youtube": [{"href": "https://youtube.com/watch?v=abc", "title": "demo"}],
			"other_embeds": {"www.twitter.com": [{"href": "https://twitter.com/u/status/1"}]}
		}}`))
	})
	mux.HandleFunc("/user/abc123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fullname": "Jane Dev", "username": "janedev"}`))
	})

	imp := newTestImporter(t, mux)
	raw, err := imp.Fetch(context.Background(), "https://medium.com/@user/go-concurrency-67fa62fc1971")
	require.NoError(t, err)

	doc, err := imp.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "Go Concurrency", doc.Title)
	assert.Equal(t, "Channels in practice", doc.Excerpt)
	assert.Equal(t, "Jane Dev", doc.Author)
	assert.Equal(t, []string{"go", "concurrency"}, doc.Tags)
	require.NotNil(t, doc.PublishedAt)
	assert.Equal(t, 2024, doc.PublishedAt.Year())

	// Featured image first, body image and asset image deduped after.
	assert.Equal(t, []string{
		"https://cdn.example.com/feature.png",
		"https://cdn.example.com/diag.png",
		"https://cdn.example.com/extra.png",
	}, doc.Images)

	var embeds []models.Section
	for _, s := range doc.Sections {
		if s.Kind == models.SectionEmbed {
			embeds = append(embeds, s)
		}
	}
	require.Len(t, embeds, 2)
	assert.Equal(t, "youtube", embeds[0].Provider)
	assert.Equal(t, "twitter", embeds[1].Provider)
}

func TestFetchAuthorLookupFailureIsNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article/67fa62fc1971", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "T", "author": "gone"}`))
	})
	mux.HandleFunc("/article/67fa62fc1971/markdown", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markdown": "text"}`))
	})
	mux.HandleFunc("/article/67fa62fc1971/assets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets": {}}`))
	})
	mux.HandleFunc("/user/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	imp := newTestImporter(t, mux)
	raw, err := imp.Fetch(context.Background(), "https://medium.com/p/67fa62fc1971")
	require.NoError(t, err)

	doc, err := imp.Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, doc.Author)
}

func TestProviderFromDomain(t *testing.T) {
	assert.Equal(t, "twitter", providerFromDomain("www.twitter.com"))
	assert.Equal(t, "vimeo", providerFromDomain("vimeo.com"))
	assert.Equal(t, "gist", providerFromDomain("gist.github.com"))
}
