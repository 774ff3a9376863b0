package bot

import (
	sentry "github.com/getsentry/sentry-go"
)

// captureError reports err to Sentry with the given tags and level.
// It is a no-op when Sentry was initialised without a DSN.
func captureError(err error, tags map[string]string, level sentry.Level) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}
