package render

import (
	"strings"
	"testing"

	"scripters-bot/internal/posts"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePage(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func metaContent(doc *goquery.Document, selector string) (string, bool) {
	return doc.Find(selector).First().Attr("content")
}

func TestRender_DocumentStructure(t *testing.T) {
	r := newRenderer(t)
	caption := `Grab "FastSort" <v2> & friends`
	out, err := r.Render(posts.Record{
		ID:             77,
		Caption:        strPtr(caption),
		Media:          []string{"a", "b"},
		OriginTitle:    strPtr("Scripters"),
		OriginUsername: strPtr("scripters"),
	})
	require.NoError(t, err)
	doc := parsePage(t, out)

	// Entities decode back to the original text.
	assert.Equal(t, caption, doc.Find("body > p").Text())
	desc, ok := metaContent(doc, `meta[name="description"]`)
	require.True(t, ok)
	assert.Equal(t, caption, desc)

	assert.Equal(t, "Scripters", doc.Find("title").Text())
	assert.Equal(t, "Scripters", doc.Find("h1").Text())

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://example.com/posts/77.html", canonical)
	ogURL, _ := metaContent(doc, `meta[property="og:url"]`)
	assert.Equal(t, canonical, ogURL)

	var srcs []string
	doc.Find("ul li img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
		alt, _ := s.Attr("alt")
		assert.Equal(t, "Scripters", alt)
	})
	assert.Equal(t, []string{MediaURL("123:TOKEN", "a"), MediaURL("123:TOKEN", "b")}, srcs)

	ogImage, ok := metaContent(doc, `meta[property="og:image"]`)
	require.True(t, ok)
	assert.Equal(t, srcs[len(srcs)-1], ogImage)

	link := doc.Find(`a[href="https://t.me/scripters"]`)
	assert.Equal(t, 1, link.Length())
	assert.Equal(t, "@scripters", link.Text())
}

func TestRender_DocumentWithoutOptionalParts(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(posts.Record{ID: 1})
	require.NoError(t, err)
	doc := parsePage(t, out)

	assert.Zero(t, doc.Find(`meta[property="og:image"]`).Length())
	assert.Zero(t, doc.Find("body > p").Length())
	assert.Zero(t, doc.Find("body a").Length())
	assert.Equal(t, 1, doc.Find("body > ul").Length())
	assert.Zero(t, doc.Find("ul li").Length())

	ogDesc, _ := metaContent(doc, `meta[property="og:description"]`)
	assert.Equal(t, DefaultOGDescription, ogDesc)
}

func TestRenderIndex_DocumentLinks(t *testing.T) {
	r := newRenderer(t)
	out, err := r.RenderIndex([]posts.Record{{ID: 9}, {ID: 4}})
	require.NoError(t, err)
	doc := parsePage(t, out)

	var hrefs []string
	doc.Find("ul li a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	assert.Equal(t, []string{"posts/9.html", "posts/4.html"}, hrefs)
}
