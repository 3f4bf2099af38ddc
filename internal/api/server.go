// Package api exposes the HTTP interface for the dupe analysis service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/briannabogos1157/threadtwin/internal/affiliate"
	"github.com/briannabogos1157/threadtwin/internal/config"
	"github.com/briannabogos1157/threadtwin/internal/dupe"
	"github.com/briannabogos1157/threadtwin/internal/metrics"
	"github.com/briannabogos1157/threadtwin/internal/pipeline"
	"github.com/briannabogos1157/threadtwin/internal/search"
)

// Server wires HTTP handlers to the pipeline and stores. The affiliate and
// search clients are optional; their routes answer 503 when unconfigured.
type Server struct {
	router      chi.Router
	pipeline    *pipeline.Service
	products    dupe.ProductStore
	submissions dupe.SubmissionStore
	affiliate   *affiliate.Client
	search      *search.Client
	clock       dupe.Clock
	logger      *zap.Logger
	cfg         config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	pipe *pipeline.Service,
	products dupe.ProductStore,
	submissions dupe.SubmissionStore,
	affiliateClient *affiliate.Client,
	searchClient *search.Client,
	clock dupe.Clock,
	logger *zap.Logger,
	cfg config.Config,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline:    pipe,
		products:    products,
		submissions: submissions,
		affiliate:   affiliateClient,
		search:      searchClient,
		clock:       clock,
		logger:      logger,
		cfg:         cfg,
	}

	requestTimeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 90 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))
	if cfg.Server.RateLimitRPS > 0 {
		r.Use(rateLimitMiddleware(cfg.Server.RateLimitRPS))
	}

	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/analyze", s.analyze)
		r.Post("/compare", s.compare)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/search", s.searchProducts)
		})

		r.Route("/dupes", func(r chi.Router) {
			r.Get("/search", s.findDupes)
			r.Route("/submissions", func(r chi.Router) {
				r.Post("/", s.createSubmission)
				r.Get("/", s.listSubmissions)
				r.Patch("/{submission_id}", s.updateSubmission)
			})
		})

		r.Post("/affiliate/link", s.affiliateLink)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// writeDomainError maps pipeline errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var exhausted *dupe.ExhaustedError
	switch {
	case errors.Is(err, dupe.ErrBadInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dupe.ErrNoName):
		writeError(w, http.StatusNotFound, "no product found at url")
	case errors.Is(err, dupe.ErrFetchTimeout):
		writeError(w, http.StatusGatewayTimeout, "page fetch timed out")
	case errors.As(err, &exhausted):
		var status *dupe.StatusError
		if errors.As(exhausted.Cause, &status) && status.Code == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "no product found at url")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "page could not be fetched")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		duration := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, duration)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", duration.Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func rateLimitMiddleware(rps float64) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"error":"rate limit exceeded"}`)
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
