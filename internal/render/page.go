// Package render derives static HTML pages from post records.
//
// Rendering is a pure function of the record and Config: no I/O happens
// here, and identical input always produces byte-identical output.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"scripters-bot/internal/posts"
)

// DefaultBaseURL is the public site root used for canonical links.
const DefaultBaseURL = "https://www.scripters.shop"

const (
	// DefaultDescription fills <meta name="description"> for posts without a caption.
	DefaultDescription = "Discover, buy, and sell high-quality scripts, tools, and resources at Scripters Marketplace."
	// DefaultOGDescription fills og:description for posts without a caption.
	DefaultOGDescription = "Buy, sell, and share scripts and tools for developers."
)

const telegramFileURL = "https://api.telegram.org/file/bot"

// Config holds the values every rendered page depends on.
type Config struct {
	// BotToken is embedded in media URLs. Anyone who can read a rendered
	// page can read the token.
	BotToken string
	// BaseURL is the public root the pages are served from.
	BaseURL string
}

// Renderer turns post records into HTML documents.
type Renderer struct {
	cfg   Config
	page  *template.Template
	index *template.Template
}

// New creates a Renderer. An empty BaseURL falls back to DefaultBaseURL.
func New(cfg Config) (*Renderer, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	index, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	return &Renderer{cfg: cfg, page: page, index: index}, nil
}

// Sanitize escapes the HTML-significant characters of s.
// '&' goes first so the entities produced afterwards are not escaped twice.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}

// MediaURL expands a Telegram file identifier into its retrieval URL.
func MediaURL(token, fileID string) string {
	return telegramFileURL + token + "/" + fileID
}

// CanonicalURL returns the public address of the page for post id.
func CanonicalURL(baseURL string, id int) string {
	return strings.TrimRight(baseURL, "/") + "/posts/" + PageName(id)
}

// PageName is the file name of the page for post id.
func PageName(id int) string {
	return strconv.Itoa(id) + ".html"
}

// pageData carries pre-escaped values into the page template.
type pageData struct {
	Title         string
	Description   string
	OGDescription string
	CanonicalURL  string
	PreviewImage  string
	Caption       string
	Images        []string
	ChannelURL    string
	ChannelName   string
}

// Render builds the HTML page for rec.
func (r *Renderer) Render(rec posts.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	data := pageData{
		Title:         Sanitize(rec.Title()),
		Description:   DefaultDescription,
		OGDescription: DefaultOGDescription,
		CanonicalURL:  CanonicalURL(r.cfg.BaseURL, rec.ID),
		Images:        make([]string, 0, len(rec.Media)),
	}
	if rec.HasCaption() {
		data.Caption = Sanitize(rec.CaptionText())
		data.Description = data.Caption
		data.OGDescription = data.Caption
	}
	for _, fileID := range rec.Media {
		data.Images = append(data.Images, MediaURL(r.cfg.BotToken, fileID))
	}
	if n := len(data.Images); n > 0 {
		data.PreviewImage = data.Images[n-1]
	}
	if username := rec.Username(); username != "" {
		data.ChannelURL = "https://t.me/" + username
		data.ChannelName = "@" + username
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render page for post %d: %w", rec.ID, err)
	}
	return buf.String(), nil
}

type indexEntry struct {
	URL     string
	Title   string
	Summary string
}

type indexData struct {
	Title       string
	Description string
	URL         string
	Entries     []indexEntry
}

// summaryLimit bounds the caption excerpt shown on the index page, in runes.
const summaryLimit = 160

// RenderIndex builds the landing page linking every post page, in the order given.
// Records without an id are skipped.
func (r *Renderer) RenderIndex(records []posts.Record) (string, error) {
	data := indexData{
		Title:       posts.DefaultTitle,
		Description: DefaultDescription,
		URL:         r.cfg.BaseURL + "/",
		Entries:     make([]indexEntry, 0, len(records)),
	}
	for _, rec := range records {
		if rec.Validate() != nil {
			continue
		}
		summary := DefaultOGDescription
		if rec.HasCaption() {
			summary = Sanitize(truncate(rec.CaptionText(), summaryLimit))
		}
		data.Entries = append(data.Entries, indexEntry{
			URL:     "posts/" + PageName(rec.ID),
			Title:   Sanitize(rec.Title()) + " #" + strconv.Itoa(rec.ID),
			Summary: summary,
		})
	}

	var buf bytes.Buffer
	if err := r.index.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render index: %w", err)
	}
	return buf.String(), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
