package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelhostd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Devices(ctx context.Context) types.DeviceList
	ModelsView() types.ModelsView
	AssignModels(ctx context.Context, req types.AssignRequest) error
	ModifyAdapters(ctx context.Context, req types.ModifyLorasRequest) error
	History(ctx context.Context, limit int) ([]types.HistoryEntry, error)
	Ready() bool
}

// okBody is the JSON document returned by successful mutations.
const okBody = "OK"

// NewMux builds the router. ui serves the dashboard files for every path not
// matched by an API route; nil disables it.
func NewMux(svc Service, ui http.Handler) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/tab-host-have-devices", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r, 0)
		defer cancel()
		writeJSON(w, svc.Devices(ctx))
	})

	r.Get("/tab-host-models-get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.ModelsView())
	})

	r.Post("/tab-host-models-assign", func(w http.ResponseWriter, r *http.Request) {
		var req types.AssignRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		logDebug(r, "assign request", map[string]any{"models": len(req.ModelAssign)})
		mutate(w, r, "assign", func(ctx context.Context) error { return svc.AssignModels(ctx, req) })
	})

	r.Post("/tab-host-modify-loras", func(w http.ResponseWriter, r *http.Request) {
		var req types.ModifyLorasRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		logDebug(r, "modify loras request", map[string]any{"model": req.Model, "mode": req.Mode})
		mutate(w, r, "modify_loras", func(ctx context.Context) error { return svc.ModifyAdapters(ctx, req) })
	})

	r.Get("/tab-host-history", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}
		ctx, cancel := requestContext(r, 0)
		defer cancel()
		entries, err := svc.History(ctx, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if entries == nil {
			entries = []types.HistoryEntry{}
		}
		writeJSON(w, types.HistoryResponse{Entries: entries})
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"message": "pong"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	if ui != nil {
		r.Method(http.MethodGet, "/", ui)
		r.Method(http.MethodGet, "/*", ui)
		r.Method(http.MethodHead, "/*", ui)
	}

	return r
}

// decodeJSONBody enforces content type and size limits and decodes the body
// into v. It writes the error response and returns false on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// mutate runs fn under the request context and writes "OK" or the mapped error.
func mutate(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context) error) {
	start := time.Now()
	ctx, cancel := requestContext(r, mutationTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		status := writeServiceError(w, err)
		logMutation(r, op, start, status, err)
		return
	}
	writeJSON(w, okBody)
	logMutation(r, op, start, http.StatusOK, nil)
}
