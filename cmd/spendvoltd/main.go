package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Samir899/SpendVolt/internal/app"
	"github.com/Samir899/SpendVolt/internal/config"
	"github.com/Samir899/SpendVolt/internal/handler"
	"github.com/Samir899/SpendVolt/internal/services"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := app.Deps{
		BackendURL:     cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		CacheContainer: cfg.Storage.CacheContainer,
	}

	// Initialize Services. Each store is optional; the app keeps an
	// in-memory copy when one is not configured.
	if cfg.Storage.BlobServiceURL != "" {
		blobService, err := services.NewBlobService()
		if err != nil {
			slog.Error("Failed to init BlobService", "error", err)
			os.Exit(1)
		}
		deps.Blobs = blobService
	} else {
		slog.Warn("BLOB_SERVICE_URL not set, cache will not survive a restart")
	}

	if cfg.Storage.QueueServiceURL != "" {
		queueService, err := services.NewQueueService()
		if err != nil {
			slog.Error("Failed to init QueueService", "error", err)
			os.Exit(1)
		}
		deps.Outbox = queueService
	}

	if cfg.Storage.TableServiceURL != "" {
		sessionStore, err := services.NewTableStore(ctx)
		if err != nil {
			slog.Error("Failed to init session store", "error", err)
			os.Exit(1)
		}
		deps.SessionStore = sessionStore
	}

	if cfg.Alerts.Enabled {
		emailService, err := services.NewEmailService(nil)
		if err != nil {
			slog.Warn("Failed to init EmailService (continuing anyway)", "error", err)
		} else {
			deps.Notifier = emailService
		}
	}

	a, err := app.New(ctx, deps)
	if err != nil {
		slog.Error("Failed to create app", "error", err)
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		slog.Error("Failed to start app", "error", err)
		os.Exit(1)
	}

	if cfg.Sync.SyncOnStartup && a.IsAuthenticated() {
		go func() {
			if _, err := a.Sync(ctx); err != nil {
				slog.Warn("startup sync failed", "error", err)
			}
		}()
	}
	go a.AutoSync(ctx, cfg.Sync.Interval)

	// Router
	mux := http.NewServeMux()
	(&handler.Dependencies{App: a}).Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           loggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}

	a.Wait()
	slog.Info("Server stopped")
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps the event stream working behind the middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}
