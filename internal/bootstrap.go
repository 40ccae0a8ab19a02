package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/seed"
	"github.com/starford/folio/internal/store"
)

var errConfigRequired = errors.New("config is required")

func newLogger(cfg *Config, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// openContent builds the content service for cfg: opens the persister,
// restores saved content and seeds an empty store. The returned close
// function releases the database.
func openContent(ctx context.Context, cfg *Config, logger *slog.Logger, notifier content.Notifier) (*content.Service, func() error, error) {
	opts := []content.Option{
		content.WithLatency(cfg.Mock.Latency),
		content.WithLogger(logger),
	}
	if notifier != nil {
		opts = append(opts, content.WithNotifier(notifier))
	}

	closeFn := func() error { return nil }
	if cfg.Storage.Driver == DriverSQLite {
		db, err := store.OpenSQLite(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init store: %w", err)
		}
		closeFn = db.Close
		opts = append(opts, content.WithPersister(db))
	}

	svc := content.New(opts...)
	if err := svc.Load(ctx); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if !svc.Empty() {
		logger.Info("content restored", slog.String("driver", cfg.Storage.Driver))
		return svc, closeFn, nil
	}

	ds, err := loadSeed(cfg.Seed.Path)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if err := svc.Import(ctx, ds); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("seed content: %w", err)
	}
	logger.Info("content seeded",
		slog.String("source", seedSource(cfg.Seed.Path)),
		slog.Int("records", ds.Len()))
	return svc, closeFn, nil
}

func loadSeed(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Default(), nil
	}
	return seed.Load(path)
}

func seedSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
