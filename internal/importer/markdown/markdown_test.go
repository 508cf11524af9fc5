package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameyrk/gutengo/internal/models"
)

func parseDoc(t *testing.T, content string) *models.Document {
	t.Helper()
	imp := New()
	raw, err := imp.Fetch(context.Background(), content)
	require.NoError(t, err)
	doc, err := imp.Parse(raw)
	require.NoError(t, err)
	return doc
}

func TestParseTitlePromotion(t *testing.T) {
	doc := parseDoc(t, "# Hello\n\nWorld **bold**.")

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, models.SectionHeading, doc.Sections[0].Kind)
	assert.Equal(t, 1, doc.Sections[0].Level)
	assert.Equal(t, "Hello", doc.Sections[0].Content)
	assert.Equal(t, models.SectionParagraph, doc.Sections[1].Kind)
	assert.Equal(t, "World <strong>bold</strong>.", doc.Sections[1].Content)
	// The heading doubles as the title but stays in the section list.
	assert.Equal(t, "Hello", doc.Title)
}

func TestParseConsecutiveListItemsMerge(t *testing.T) {
	doc := parseDoc(t, "- a\n- b\n")

	require.Len(t, doc.Sections, 1)
	s := doc.Sections[0]
	assert.Equal(t, models.SectionList, s.Kind)
	assert.False(t, s.Ordered)
	assert.Equal(t, []string{"a", "b"}, s.Items)
}

func TestParseOrderednessSwitchOpensNewList(t *testing.T) {
	doc := parseDoc(t, "- a\n1. b\n2. c\n")

	require.Len(t, doc.Sections, 2)
	assert.False(t, doc.Sections[0].Ordered)
	assert.Equal(t, []string{"a"}, doc.Sections[0].Items)
	assert.True(t, doc.Sections[1].Ordered)
	assert.Equal(t, []string{"b", "c"}, doc.Sections[1].Items)
}

func TestParseNoEmptyListSections(t *testing.T) {
	doc := parseDoc(t, "# Title\n\ntext\n")
	for _, s := range doc.Sections {
		if s.Kind == models.SectionList {
			assert.NotEmpty(t, s.Items, "list sections must never be empty")
		}
	}
}

func TestParseCodeFence(t *testing.T) {
	doc := parseDoc(t, "```go\nfmt.Println(\"hi\")\n```\n")

	require.Len(t, doc.Sections, 1)
	s := doc.Sections[0]
	assert.Equal(t, models.SectionCode, s.Kind)
	assert.Equal(t, "go", s.Language)
	assert.Equal(t, "fmt.Println(\"hi\")", s.Content)
}

func TestParseQuoteContinuation(t *testing.T) {
	doc := parseDoc(t, "> first\n> second\n")

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, models.SectionQuote, doc.Sections[0].Kind)
	assert.Equal(t, "first second", doc.Sections[0].Content)
}

func TestParseImageAndRule(t *testing.T) {
	doc := parseDoc(t, "![alt text](https://img.example.com/a.png)\n\n---\n")

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, models.SectionImage, doc.Sections[0].Kind)
	assert.Equal(t, "https://img.example.com/a.png", doc.Sections[0].URL)
	assert.Equal(t, "alt text", doc.Sections[0].Alt)
	assert.Equal(t, models.SectionSeparator, doc.Sections[1].Kind)
	assert.Equal(t, []string{"https://img.example.com/a.png"}, doc.Images)
}

func TestParseDeterministic(t *testing.T) {
	input := "# T\n\npara one\n\n- a\n- b\n\n> q\n\n```\ncode\n```\n"
	first := ParseSections(input)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ParseSections(input))
	}
}

func TestParseHeadingLevels(t *testing.T) {
	doc := parseDoc(t, "## Two\n\n###### Six\n")
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, 2, doc.Sections[0].Level)
	assert.Equal(t, 6, doc.Sections[1].Level)
	// No H1 present, so the fallback title is used.
	assert.Equal(t, "Imported Markdown", doc.Title)
}

func TestParseBlankLineFlushesParagraph(t *testing.T) {
	doc := parseDoc(t, "one\ntwo\n\nthree\n")
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "one two", doc.Sections[0].Content)
	assert.Equal(t, "three", doc.Sections[1].Content)
}

func TestCanImport(t *testing.T) {
	imp := New()
	assert.True(t, imp.CanImport("# A heading\n\ntext"))
	assert.True(t, imp.CanImport("1. first\n2. second"))
	assert.False(t, imp.CanImport("https://medium.com/@u/post-67fa62fc1971"))
	assert.False(t, imp.CanImport("just a plain sentence"))
}
