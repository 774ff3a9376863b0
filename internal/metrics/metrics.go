// Package metrics exposes Prometheus collectors for the publishing pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Outcome labels.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultInvalid = "invalid"
)

// Artifact labels.
const (
	ArtifactRecord = "record"
	ArtifactMirror = "mirror"
	ArtifactPage   = "page"
	ArtifactIndex  = "index"
)

// Recorder counts pipeline outcomes.
type Recorder struct {
	registry         *prometheus.Registry
	postsProcessed   *prometheus.CounterVec
	artifactsWritten *prometheus.CounterVec
}

// New registers the pipeline collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		postsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scripters_posts_processed_total",
				Help: "Channel posts handled by the publisher, labeled by result.",
			},
			[]string{"result"},
		),
		artifactsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scripters_artifacts_written_total",
				Help: "Artifact writes, labeled by artifact and result.",
			},
			[]string{"artifact", "result"},
		),
	}
	reg.MustRegister(r.postsProcessed, r.artifactsWritten)
	return r
}

// PostProcessed counts one handled post.
func (r *Recorder) PostProcessed(result string) {
	if r == nil {
		return
	}
	r.postsProcessed.WithLabelValues(result).Inc()
}

// ArtifactWritten counts one artifact write attempt.
func (r *Recorder) ArtifactWritten(artifact, result string) {
	if r == nil {
		return
	}
	r.artifactsWritten.WithLabelValues(artifact, result).Inc()
}

// Handler returns the HTTP handler serving the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
