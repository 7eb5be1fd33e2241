// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the gallery service.
// It exposes the media and comment REST endpoints, the authentication diagnostics,
// static asset serving and the operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dijam/media-gallery/internal/auth"
	errordefs "github.com/dijam/media-gallery/internal/errors"
	"github.com/dijam/media-gallery/internal/media"
	"github.com/dijam/media-gallery/internal/metrics"
	"github.com/dijam/media-gallery/internal/model"
	"github.com/dijam/media-gallery/internal/schema"
	"github.com/dijam/media-gallery/internal/service"
	"github.com/dijam/media-gallery/internal/telemetry"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Options configures the HTTP surface.
type Options struct {
	RoutePrefix        string   // prefix of the media and authentication routes, "" or "/api"
	MaxUploadSize      int64    // largest accepted upload body in bytes
	CORSAllowedOrigins []string // browser origins allowed to call the API
}

// Mux handles HTTP requests for the gallery service.
type Mux struct {
	mux       *http.ServeMux
	opts      Options
	svc       *service.Media     // media and comment operations
	files     media.Store        // file store behind /assets
	authn     auth.Authenticator // bearer token authentication
	policy    *auth.Policy       // route access table
	validator *schema.Validator  // form payload validation
	metrics   *metrics.Metrics
}

// NewMux creates the HTTP handler with every gallery endpoint registered.
func NewMux(opts Options, svc *service.Media, files media.Store, authn auth.Authenticator, validator *schema.Validator) (http.Handler, error) {
	policy, err := auth.NewPolicy(auth.GalleryRules(opts.RoutePrefix)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build access policy: %w", err)
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 100 << 20
	}

	m := &Mux{
		mux:       http.NewServeMux(),
		opts:      opts,
		svc:       svc,
		files:     files,
		authn:     authn,
		policy:    policy,
		validator: validator,
		metrics:   metrics.NewMetrics(),
	}

	// Operational endpoints
	m.mux.HandleFunc("GET /healthz", m.handleHealthz)
	m.mux.HandleFunc("GET /readyz", m.handleReadyz)
	m.mux.Handle("GET /metrics", promhttp.Handler())

	p := opts.RoutePrefix

	// Authentication diagnostics
	m.route("GET "+p+"/authentication/ping", m.handlePing("pong"))
	m.route("GET "+p+"/authentication/pingauth", m.handlePing("pong auth"))
	m.route("GET "+p+"/authentication/pingadmin", m.handlePing("pong admin"))

	// Media
	m.route("GET "+p+"/media", m.handleListMedia)
	m.route("GET "+p+"/media/{$}", m.handleListMedia)
	m.route("GET "+p+"/media/images", m.handleListByType(model.FileTypeImage))
	m.route("GET "+p+"/media/videos", m.handleListByType(model.FileTypeVideo))
	m.route("GET "+p+"/media/{id}", m.handleGetMedia)
	m.route("PATCH "+p+"/media/{id}/increment-views", m.handleIncrementViews)
	m.routeLimited("POST "+p+"/media/upload", opts.MaxUploadSize, m.handleUpload)
	m.route("DELETE "+p+"/media/{id}/delete", m.handleDeleteMedia)

	// Comments
	m.route("GET "+p+"/media/comments", m.handleListComments)
	m.route("GET "+p+"/media/comments/{mediaId}", m.handleListCommentsByMedia)
	m.routeLimited("POST "+p+"/media/{id}/upload-comment", commentBodyLimit, m.handleUploadComment)
	m.route("DELETE "+p+"/media/comments/{id}/delete", m.handleDeleteComment)

	// Uploaded files
	m.route("GET "+media.AssetPrefix+"{name}", m.handleAsset)

	// Everything else still passes the authentication filter before its 404.
	m.route("/", m.handleNotFound)

	return cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", telemetry.CorrelationHeader},
		ExposedHeaders:   []string{telemetry.CorrelationHeader},
		AllowCredentials: true,
		MaxAge:           3600,
	})(m.mux), nil
}

// route registers h behind the request pipeline: correlation, tracing and
// metrics, then the authentication filter, then the access policy.
func (m *Mux) route(pattern string, h http.HandlerFunc) {
	m.routeLimited(pattern, 0, h)
}

// routeLimited is route with the request body capped at limit bytes; 0 means no cap.
func (m *Mux) routeLimited(pattern string, limit int64, h http.HandlerFunc) {
	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			if p, ok := auth.PrincipalFrom(r.Context()); ok {
				rec.username = p.Username
			}
		}
		h(w, r)
	})
	inner = m.policy.Middleware(inner)
	inner = auth.Filter(m.authn)(inner)
	m.mux.Handle(pattern, m.instrument(pattern, limit, inner))
}

// statusRecorder captures the response status for logs and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	username string
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// instrument applies correlation ids, tracing, metrics and request logging.
func (m *Mux) instrument(pattern string, limit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// The limit must see the server's writer so an oversized body closes the connection.
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		// Add correlation ID if not present
		correlationID := r.Header.Get(telemetry.CorrelationHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		w.Header().Set(telemetry.CorrelationHeader, correlationID)

		ctx, span := otel.Tracer(telemetry.ServiceName).Start(r.Context(), pattern)
		defer span.End()
		ctx = telemetry.WithCorrelationID(ctx, correlationID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		status := strconv.Itoa(rec.status)
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, pattern, status).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", pattern),
			attribute.Int("http.status_code", rec.status),
			attribute.String("correlation_id", correlationID),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		m.logRequest(r.WithContext(ctx), rec, time.Since(start), correlationID)
	})
}

// logRequest logs request details
func (m *Mux) logRequest(r *http.Request, rec *statusRecorder, duration time.Duration, correlationID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("duration", duration),
		slog.String("user_agent", r.UserAgent()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("correlation_id", correlationID),
	}
	if rec.username != "" {
		attrs = append(attrs, slog.String("username", rec.username))
	}

	level := slog.LevelInfo
	if rec.status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.LogAttrs(r.Context(), level, "request completed", attrs...)
}

// writeJSON writes a successful JSON response
func (m *Mux) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": "<message>"}; server errors are logged with their cause.
func (m *Mux) writeError(w http.ResponseWriter, r *http.Request, e *errordefs.Error) {
	e.CorrelationID = telemetry.CorrelationID(r.Context())
	if e.HTTPStatus >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"code", e.Code, "error", e.Error(), "correlation_id", e.CorrelationID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus)
	_ = json.NewEncoder(w).Encode(e)
}

// serviceError maps a service failure onto the error taxonomy. notFound is the
// client message for a missing entity.
func serviceError(err error, notFound string) *errordefs.Error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return errordefs.New(errordefs.NOT_FOUND, notFound, "")
	case errors.Is(err, service.ErrRejectedContent):
		return errordefs.Wrap(errordefs.REJECTED_CONTENT, "Comment rejected: Comment contains inappropriate language.", "", err)
	case errors.Is(err, service.ErrFileIO):
		return errordefs.Wrap(errordefs.IO_FAILURE, "File operation failed", "", err)
	default:
		return errordefs.Wrap(errordefs.INTERNAL, "Internal server error", "", err)
	}
}

// pathID parses the named path value as a positive integer id.
func pathID(r *http.Request, name string) (int64, *errordefs.Error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errordefs.New(errordefs.BAD_REQUEST, fmt.Sprintf("Invalid %s", name), "")
	}
	return id, nil
}

// handleHealthz handles liveness health check requests
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports ready once the row store answers a ping
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := m.svc.Ready(ctx); err != nil {
		slog.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (m *Mux) handleNotFound(w http.ResponseWriter, r *http.Request) {
	m.writeError(w, r, errordefs.New(errordefs.NOT_FOUND, "Not found", ""))
}
