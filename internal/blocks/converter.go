// Package blocks turns document sections into editor blocks and serializes
// them to the block comment wire format.
package blocks

import (
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/ameyrk/gutengo/internal/models"
	"github.com/ameyrk/gutengo/internal/richtext"
)

// embedProviders is the fixed allow-list of typed embed targets. Anything
// else has no rendering affordance and degrades to a raw HTML block.
var embedProviders = map[string]bool{
	"youtube":    true,
	"twitter":    true,
	"vimeo":      true,
	"instagram":  true,
	"facebook":   true,
	"soundcloud": true,
	"spotify":    true,
	"github":     true,
}

// Convert maps one section to one block. It is pure and safe for concurrent
// use. The only section that converts to nothing is a paragraph whose content
// is empty once markup is stripped; unknown kinds fall back to a paragraph
// built from whatever content is present.
func Convert(section models.Section) *models.Block {
	switch section.Kind {
	case models.SectionParagraph:
		return paragraphBlock(section.Content)
	case models.SectionHeading:
		return headingBlock(section)
	case models.SectionImage:
		return imageBlock(section)
	case models.SectionQuote:
		return quoteBlock(section)
	case models.SectionCode:
		return codeBlock(section)
	case models.SectionList:
		return listBlock(section)
	case models.SectionEmbed:
		return embedBlock(section)
	case models.SectionSeparator:
		return &models.Block{
			Name:  "core/separator",
			Attrs: map[string]interface{}{},
			HTML:  `<hr class="wp-block-separator"/>`,
		}
	case models.SectionTable:
		return tableBlock(section)
	case models.SectionVideo:
		return mediaBlock("video", section)
	case models.SectionAudio:
		return mediaBlock("audio", section)
	case models.SectionFile:
		return fileBlock(section)
	case models.SectionFootnote:
		return paragraphBlock("<sup>†</sup> " + section.Content)
	default:
		return paragraphBlock(section.Content)
	}
}

func paragraphBlock(content string) *models.Block {
	if richtext.IsEmpty(content) {
		return nil
	}
	inner := "<p>" + richtext.Sanitize(content) + "</p>"
	return &models.Block{
		Name:  "core/paragraph",
		Attrs: map[string]interface{}{},
		HTML:  inner,
	}
}

func headingBlock(section models.Section) *models.Block {
	level := section.Level
	if level == 0 {
		level = 2
	}
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	content := richtext.Sanitize(section.Content)
	return &models.Block{
		Name:  "core/heading",
		Attrs: map[string]interface{}{"level": level},
		HTML:  fmt.Sprintf("<h%d>%s</h%d>", level, content, level),
	}
}

func imageBlock(section models.Section) *models.Block {
	attrs := map[string]interface{}{
		"url": section.URL,
		"alt": section.Alt,
	}
	if section.Align != "" {
		attrs["align"] = section.Align
	}
	if section.SizeSlug != "" {
		attrs["sizeSlug"] = section.SizeSlug
	}

	var b strings.Builder
	b.WriteString(`<figure class="wp-block-image">`)
	b.WriteString(`<img src="` + html.EscapeString(section.URL) + `" alt="` + html.EscapeString(section.Alt) + `"/>`)
	if section.Caption != "" {
		b.WriteString("<figcaption>" + html.EscapeString(section.Caption) + "</figcaption>")
	}
	b.WriteString("</figure>")

	return &models.Block{Name: "core/image", Attrs: attrs, HTML: b.String()}
}

func quoteBlock(section models.Section) *models.Block {
	var b strings.Builder
	b.WriteString(`<blockquote class="wp-block-quote">`)
	b.WriteString("<p>" + richtext.Sanitize(section.Content) + "</p>")
	if section.Citation != "" {
		b.WriteString("<cite>" + html.EscapeString(section.Citation) + "</cite>")
	}
	b.WriteString("</blockquote>")

	return &models.Block{Name: "core/quote", Attrs: map[string]interface{}{}, HTML: b.String()}
}

func codeBlock(section models.Section) *models.Block {
	attrs := map[string]interface{}{}
	if section.Language != "" {
		attrs["language"] = section.Language
	}
	inner := `<pre class="wp-block-code"><code>` + html.EscapeString(section.Content) + "</code></pre>"
	return &models.Block{Name: "core/code", Attrs: attrs, HTML: inner}
}

func listBlock(section models.Section) *models.Block {
	tag := "ul"
	if section.Ordered {
		tag = "ol"
	}
	var b strings.Builder
	b.WriteString("<" + tag + ">")
	for _, item := range section.Items {
		b.WriteString("<li>" + richtext.Sanitize(item) + "</li>")
	}
	b.WriteString("</" + tag + ">")

	return &models.Block{
		Name:  "core/list",
		Attrs: map[string]interface{}{"ordered": section.Ordered},
		HTML:  b.String(),
	}
}

func embedBlock(section models.Section) *models.Block {
	name := "core/html"
	provider := ""
	if embedProviders[section.Provider] {
		name = "core/embed"
		provider = section.Provider
	}

	inner := `<figure class="wp-block-embed"><div class="wp-block-embed__wrapper">` +
		html.EscapeString(section.URL) + "</div></figure>"

	return &models.Block{
		Name: name,
		Attrs: map[string]interface{}{
			"url":              section.URL,
			"type":             "rich",
			"providerNameSlug": provider,
		},
		HTML: inner,
	}
}

func tableBlock(section models.Section) *models.Block {
	var b strings.Builder
	b.WriteString(`<figure class="wp-block-table"><table>`)
	if len(section.Headers) > 0 {
		b.WriteString("<thead><tr>")
		for _, h := range section.Headers {
			b.WriteString("<th>" + html.EscapeString(h) + "</th>")
		}
		b.WriteString("</tr></thead>")
	}
	if len(section.Rows) > 0 {
		b.WriteString("<tbody>")
		for _, row := range section.Rows {
			b.WriteString("<tr>")
			for _, cell := range row {
				b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody>")
	}
	b.WriteString("</table></figure>")

	return &models.Block{Name: "core/table", Attrs: map[string]interface{}{}, HTML: b.String()}
}

func mediaBlock(kind string, section models.Section) *models.Block {
	var b strings.Builder
	b.WriteString(`<figure class="wp-block-` + kind + `">`)
	b.WriteString("<" + kind + ` controls src="` + html.EscapeString(section.URL) + `"></` + kind + ">")
	if section.Caption != "" {
		b.WriteString("<figcaption>" + html.EscapeString(section.Caption) + "</figcaption>")
	}
	b.WriteString("</figure>")

	return &models.Block{
		Name:  "core/" + kind,
		Attrs: map[string]interface{}{"src": section.URL},
		HTML:  b.String(),
	}
}

func fileBlock(section models.Section) *models.Block {
	filename := section.Filename
	if filename == "" {
		filename = path.Base(section.URL)
	}
	escaped := html.EscapeString(section.URL)
	inner := `<div class="wp-block-file">` +
		`<a href="` + escaped + `">` + html.EscapeString(filename) + "</a>" +
		`<a href="` + escaped + `" class="wp-block-file__button" download>Download</a>` +
		"</div>"

	return &models.Block{
		Name:  "core/file",
		Attrs: map[string]interface{}{"href": section.URL},
		HTML:  inner,
	}
}

// MergeLists collapses runs of adjacent list sections with equal orderedness
// into one section. Parsers already merge their own output; running the pass
// again must not change it.
func MergeLists(sections []models.Section) []models.Section {
	var out []models.Section
	for _, s := range sections {
		if s.Kind == models.SectionList && len(out) > 0 {
			last := &out[len(out)-1]
			if last.Kind == models.SectionList && last.Ordered == s.Ordered {
				// Merge into a fresh slice; appending in place could write
				// through to the caller's backing array.
				items := make([]string, 0, len(last.Items)+len(s.Items))
				items = append(items, last.Items...)
				items = append(items, s.Items...)
				last.Items = items
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// ConvertAll runs the merge pass and converts every section, dropping the
// nil results. An empty outcome synthesizes a single empty paragraph so a
// run never produces an empty document.
func ConvertAll(sections []models.Section) []models.Block {
	var out []models.Block
	for _, section := range MergeLists(sections) {
		if block := Convert(section); block != nil {
			out = append(out, *block)
		}
	}
	if len(out) == 0 {
		out = append(out, models.Block{
			Name:  "core/paragraph",
			Attrs: map[string]interface{}{},
			HTML:  "<p></p>",
		})
	}
	return out
}
