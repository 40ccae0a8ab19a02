package content

import (
	"log/slog"
	"time"

	"github.com/starford/folio/internal/store"
)

type options struct {
	persister store.Persister
	latency   time.Duration
	notifier  Notifier
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*options)

// WithPersister writes every change through to p.
func WithPersister(p store.Persister) Option {
	return func(o *options) { o.persister = p }
}

// WithLatency delays every change by d to mimic a remote backend.
func WithLatency(d time.Duration) Option {
	return func(o *options) { o.latency = d }
}

// WithNotifier sets the receiver of change events.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
