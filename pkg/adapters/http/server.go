package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/internal/sanitize"
	"github.com/aretw0/fable/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout gives outstanding requests a deadline on shutdown.
const ShutdownTimeout = 5 * time.Second

// Server exposes the service as a JSON API.
type Server struct {
	service  *service.Service
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	maxBody  int64
}

type Option func(*Server)

// WithMetrics serves gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler:
//
//	POST /v1/resolve
//	POST /v1/assemble
//	POST /v1/recover
//	POST /v1/run
//	GET  /healthz
//	GET  /metrics
func NewHandler(svc *service.Service, opts ...Option) http.Handler {
	s := &Server{
		service: svc,
		logger:  logging.NewNop(),
		// JSON escaping may roughly double the text allowed by the sanitizer.
		maxBody: int64(2*sanitize.MaxInputSize() + 4096),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", handle(s, s.service.Resolve))
		r.Post("/assemble", handle(s, s.service.Assemble))
		r.Post("/recover", handle(s, s.service.Recover))
		r.Post("/run", handle(s, s.service.Run))
	})
	return enableCORS(r)
}

// handle decodes the request body into Req, runs fn and encodes the result.
func handle[Req, Resp any](s *Server, fn func(context.Context, Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		body := http.MaxBytesReader(w, r.Body, s.maxBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			if errors.Is(err, io.EOF) {
				err = errors.New("empty request body")
			}
			writeError(w, status, fmt.Errorf("invalid request body: %w", err), s.logger)
			s.logger.Warn("Rejected request body", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			status := statusFor(err)
			writeError(w, status, err, s.logger)
			if status >= http.StatusInternalServerError {
				s.logger.Error("Request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
			} else {
				s.logger.Warn("Request rejected", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, resp, s.logger)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error, logger *slog.Logger) {
	writeJSON(w, status, errorBody{Error: err.Error()}, logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		logger.Info("Shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}
