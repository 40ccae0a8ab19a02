// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/seed"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOut)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("uploads_path", cfg.Storage.UploadsPath),
		slog.String("seed_path", cfg.Seed.Path),
		slog.Duration("mock_latency", cfg.Mock.Latency),
		slog.String("log_level", cfg.App.LogLevel.String()))

	uploads, err := storage.NewDir(cfg.Storage.UploadsPath)
	if err != nil {
		return fmt.Errorf("init uploads: %w", err)
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, closeStore, err := openContent(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close store", slog.String("error", err.Error()))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRootRouter(cfg, svc, uploads, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Seed.Watch {
		g.Go(func() error {
			return seed.Watch(gCtx, cfg.Seed.Path, logger, func(ctx context.Context, ds *seed.Dataset) {
				if err := svc.Import(ctx, ds); err != nil {
					logger.Warn("seed reload rejected", slog.String("error", err.Error()))
				}
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams only end when their clients go or the broker closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the seed watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newRootRouter(cfg *Config, svc *content.Service, uploads storage.Provider, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(cfg.App.HTTP.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.App.HTTP.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type", "If-Match"},
			ExposedHeaders: []string{"ETag"},
			MaxAge:         300,
		}).Handler)
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if svc.Empty() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"empty"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/uploads/{filename}", api.NewUploadHandler(uploads).ServeFile)
	r.Mount("/api", api.NewRouter(svc, uploads, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	return r
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logOut := app.logOut
	if logOut == nil {
		logOut = os.Stderr
	}
	logger := newLogger(cfg, logOut)
	slog.SetDefault(logger)

	uploads, err := storage.NewDir(cfg.Storage.UploadsPath)
	if err != nil {
		return fmt.Errorf("init uploads: %w", err)
	}
	svc, closeStore, err := openContent(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	return mcpserver.New(svc, uploads, app.version).ServeStdio()
}

// Export writes the current content as a YAML data set to w.
func Export(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logOut := app.logOut
	if logOut == nil {
		logOut = os.Stderr
	}
	logger := newLogger(app.config, logOut)

	svc, closeStore, err := openContent(ctx, app.config, logger, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := seed.Marshal(svc.Export())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// CheckSeed validates a seed file and writes one line per invalid record to
// w. It fails when the file cannot be parsed or any record is invalid.
func CheckSeed(path string, w io.Writer) error {
	ds, err := seed.Load(path)
	if err != nil {
		return err
	}
	errs := seed.Check(ds)
	for _, e := range errs {
		fmt.Fprintln(w, e.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %d invalid record(s)", path, len(errs))
	}
	fmt.Fprintf(w, "%s: %d records ok\n", path, ds.Len())
	return nil
}
