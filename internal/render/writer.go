package render

import (
	"context"
	"fmt"
	"path/filepath"

	"scripters-bot/internal/storage/local"
)

// IndexName is the file name of the landing page at the site root.
const IndexName = "index.html"

// PageWriter persists rendered pages under a site directory:
// post pages in <siteDir>/posts, the index page at <siteDir>/index.html.
type PageWriter struct {
	site *local.BlobStore
}

// NewPageWriter creates a PageWriter rooted at siteDir.
func NewPageWriter(siteDir string) (*PageWriter, error) {
	site, err := local.New(local.Config{BaseDir: siteDir})
	if err != nil {
		return nil, fmt.Errorf("failed to open site directory: %w", err)
	}
	return &PageWriter{site: site}, nil
}

// Dir returns the site root.
func (w *PageWriter) Dir() string {
	return w.site.BaseDir()
}

// EnsureDir creates the site root if it is missing.
func (w *PageWriter) EnsureDir() error {
	return w.site.EnsureDir()
}

// WritePage stores the HTML for post id, replacing any previous version.
func (w *PageWriter) WritePage(ctx context.Context, id int, html string) (string, error) {
	path, err := w.site.Put(ctx, filepath.Join("posts", PageName(id)), []byte(html))
	if err != nil {
		return "", fmt.Errorf("failed to write page for post %d: %w", id, err)
	}
	return path, nil
}

// WriteIndex stores the landing page.
func (w *PageWriter) WriteIndex(ctx context.Context, html string) (string, error) {
	path, err := w.site.Put(ctx, IndexName, []byte(html))
	if err != nil {
		return "", fmt.Errorf("failed to write index page: %w", err)
	}
	return path, nil
}
