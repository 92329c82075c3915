// Package api serves control records over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"user-control/internal/domain"
	"user-control/internal/middleware"
)

// ControlLookup is the part of the control service the API needs.
type ControlLookup interface {
	Lookup(ctx context.Context, key string) (*domain.ControlRecord, error)
	CheckFallback(ctx context.Context) (*domain.ControlRecord, error)
}

// Handler serves the read-only control endpoints.
type Handler struct {
	controls ControlLookup
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger uses slog.Default().
func NewHandler(controls ControlLookup, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{controls: controls, logger: logger}
}

// ControlResponse is the JSON body of GET /v1/controls/{email}.
type ControlResponse struct {
	Email    string                 `json:"email"`
	Fallback bool                   `json:"fallback"`
	Columns  map[string]interface{} `json:"columns"`
}

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RouterOptions configures the middleware around the handler.
type RouterOptions struct {
	// Limiter throttles /v1 per client. Nil disables rate limiting.
	Limiter *middleware.RateLimiter
	// AllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	AllowedOrigins []string
}

// NewRouter mounts the handler.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", middleware.HeaderRequestID},
			ExposedHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Handler)
		}
		r.Get("/controls/{email}", h.getControl)
	})
	return r
}

func (h *Handler) getControl(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if err != nil {
		h.writeError(w, r, domain.ErrValidation("malformed email in path"))
		return
	}

	rec, err := h.controls.Lookup(r.Context(), email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ControlResponse{
		Email:    rec.Email,
		Fallback: rec.IsFallback(),
		Columns:  rec.Columns,
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.controls.CheckFallback(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed",
			"request_id", middleware.RequestIDFromContext(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := httpStatusFromDomainError(err)
	reqID := middleware.RequestIDFromContext(r.Context())

	msg := err.Error()
	if code == "internal" {
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "control lookup failed",
			"request_id", reqID, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg, RequestID: reqID})
}

// pathParam returns the decoded URL parameter. chi matches on RawPath when
// the request carries one (an escaped '/' or similar), leaving the parameter
// still escaped; otherwise it matches on the already decoded Path.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
