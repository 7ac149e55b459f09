// Package server exposes a session over HTTP: dataset uploads, the aligned
// table, and correlation reports.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

// DefaultMaxUploadBytes bounds an upload when Options leaves it unset.
const DefaultMaxUploadBytes = 32 << 20

// Options configures the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	Logger         *slog.Logger
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
}

type api struct {
	sess      *session.Session
	log       *slog.Logger
	maxUpload int64
}

// New returns the router for sess.
func New(sess *session.Session, opt Options) http.Handler {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = DefaultMaxUploadBytes
	}
	a := &api{sess: sess, log: opt.Logger, maxUpload: opt.MaxUploadBytes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(opt.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opt.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opt.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/datasets", func(r chi.Router) {
		r.Get("/", a.listDatasets)
		r.Post("/orders", a.uploadOrders)
		r.Post("/platforms/{platform}", a.uploadPlatform)
	})
	r.Get("/aligned", a.aligned)
	r.Get("/periods", a.periods)
	r.Get("/report", a.report)
	r.Get("/filter", a.getFilter)
	r.Put("/filter", a.putFilter)
	return r
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("latency", time.Since(start)))
		})
	}
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, readHeaderTimeout time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down server")
	return srv.Shutdown(shutdownCtx)
}

