package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/ezoic/finml/internal/config"
	"github.com/ezoic/finml/pkg/log"
)

// Server wraps net/http.Server with the session routes, /metrics and
// /healthz.
type Server struct {
	router          *chi.Mux
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          log.Logger
}

// NewServer builds the router. metrics may be nil to leave /metrics unmounted.
func NewServer(cfg config.ServerConfig, handler *Handler, metrics http.Handler) *Server {
	logger := log.GetLoggerWithName("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogging(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	if handler != nil {
		handler.RegisterRoutes(r)
	}

	return &Server{
		router: r,
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Router returns the underlying router.
func (s *Server) Router() chi.Router { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// RequestLogging logs one line per request with its status and latency.
func RequestLogging(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
		})
	}
}
