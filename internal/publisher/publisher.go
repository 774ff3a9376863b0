// Package publisher turns channel posts into a stored record and a static page.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"scripters-bot/internal/capture"
	"scripters-bot/internal/metrics"
	"scripters-bot/internal/posts"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

// RecordStore is the durable record store the publisher reads and writes.
type RecordStore interface {
	capture.Store
	List(ctx context.Context) ([]posts.Record, error)
}

// PageRenderer derives HTML from records.
type PageRenderer interface {
	Render(rec posts.Record) (string, error)
	RenderIndex(records []posts.Record) (string, error)
}

// PageStore persists rendered HTML.
type PageStore interface {
	WritePage(ctx context.Context, id int, html string) (string, error)
	WriteIndex(ctx context.Context, html string) (string, error)
}

// Deps holds the dependencies required by the Publisher.
type Deps struct {
	Records  RecordStore
	Mirror   capture.Store // optional
	Renderer PageRenderer
	Pages    PageStore
	Metrics  *metrics.Recorder // optional
	Logger   *zap.Logger
}

// Publisher runs the capture-then-render pipeline for one post at a time.
// Posts are keyed by id, so concurrent calls for different posts never
// touch the same files.
type Publisher struct {
	records  RecordStore
	mirror   capture.Store
	renderer PageRenderer
	pages    PageStore
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

// New creates a Publisher from its dependencies.
func New(deps Deps) (*Publisher, error) {
	if deps.Records == nil {
		return nil, fmt.Errorf("record store cannot be nil")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if deps.Pages == nil {
		return nil, fmt.Errorf("page store cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		records:  deps.Records,
		mirror:   deps.Mirror,
		renderer: deps.Renderer,
		pages:    deps.Pages,
		metrics:  deps.Metrics,
		logger:   logger,
	}, nil
}

// Publish captures msg as a record and writes its page.
// A missing id yields ErrInvalidRecord before anything is written. A failed
// write yields a *PersistenceError; a record saved before a failed page write
// is left in place.
func (p *Publisher) Publish(ctx context.Context, msg *telego.Message) error {
	rec, err := posts.FromMessage(msg)
	if err != nil {
		p.metrics.PostProcessed(metrics.ResultInvalid)
		return err
	}
	log := p.logger.With(zap.Int("post_id", rec.ID), zap.Int64("chat_id", rec.ChatID))

	if err := p.records.Save(ctx, rec); err != nil {
		return p.fail(metrics.ArtifactRecord, rec.ID, err)
	}
	p.metrics.ArtifactWritten(metrics.ArtifactRecord, metrics.ResultOK)

	if p.mirror != nil {
		if err := p.mirror.Save(ctx, rec); err != nil {
			p.metrics.ArtifactWritten(metrics.ArtifactMirror, metrics.ResultError)
			log.Warn("mirror save failed", zap.Error(err))
		} else {
			p.metrics.ArtifactWritten(metrics.ArtifactMirror, metrics.ResultOK)
		}
	}

	path, err := p.writePage(ctx, rec)
	if err != nil {
		return err
	}

	p.metrics.PostProcessed(metrics.ResultOK)
	log.Info("post published", zap.String("page", path), zap.Int("media", len(rec.Media)))
	return nil
}

// Regenerate re-renders every stored record and the index page, returning
// the number of post pages written. It stops at the first failure.
func (p *Publisher) Regenerate(ctx context.Context) (int, error) {
	records, err := p.records.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}
	written := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if _, err := p.writePage(ctx, rec); err != nil {
			return written, err
		}
		written++
	}
	if err := p.WriteIndex(ctx, records); err != nil {
		return written, err
	}
	p.logger.Info("site regenerated", zap.Int("pages", written))
	return written, nil
}

// WriteIndex renders and stores the landing page for records.
func (p *Publisher) WriteIndex(ctx context.Context, records []posts.Record) error {
	html, err := p.renderer.RenderIndex(records)
	if err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	if _, err := p.pages.WriteIndex(ctx, html); err != nil {
		p.metrics.ArtifactWritten(metrics.ArtifactIndex, metrics.ResultError)
		return &PersistenceError{Artifact: metrics.ArtifactIndex, Err: err}
	}
	p.metrics.ArtifactWritten(metrics.ArtifactIndex, metrics.ResultOK)
	return nil
}

// Recent returns up to limit stored records, newest first.
func (p *Publisher) Recent(ctx context.Context, limit int) ([]posts.Record, error) {
	records, err := p.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (p *Publisher) writePage(ctx context.Context, rec posts.Record) (string, error) {
	html, err := p.renderer.Render(rec)
	if err != nil {
		return "", p.fail(metrics.ArtifactPage, rec.ID, err)
	}
	path, err := p.pages.WritePage(ctx, rec.ID, html)
	if err != nil {
		return "", p.fail(metrics.ArtifactPage, rec.ID, err)
	}
	p.metrics.ArtifactWritten(metrics.ArtifactPage, metrics.ResultOK)
	return path, nil
}

func (p *Publisher) fail(artifact string, id int, err error) error {
	if errors.Is(err, ErrInvalidRecord) {
		p.metrics.PostProcessed(metrics.ResultInvalid)
		return err
	}
	p.metrics.ArtifactWritten(artifact, metrics.ResultError)
	p.metrics.PostProcessed(metrics.ResultError)
	return &PersistenceError{Artifact: artifact, PostID: id, Err: err}
}
