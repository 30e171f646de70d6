// Package httpapi exposes the automation flows over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"grocer-go/application/automation"
	"grocer-go/core/command"
	"grocer-go/domain/platform"
	"grocer-go/domain/session"
	"grocer-go/infrastructure/logging"
	"grocer-go/infrastructure/ratelimit"
)

// Service is what the handlers need from the application layer.
type Service interface {
	Login(ctx context.Context, cmd *command.Login) (*session.Record, error)
	SubmitOtp(ctx context.Context, cmd *command.SubmitOtp) (*session.Record, error)
	AddProducts(ctx context.Context, cmd *command.AddProducts) (*automation.CartResult, error)
	GetSession(ctx context.Context, id string) (*session.Record, error)
	Platforms() []*platform.Config
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc        Service
	limiter    *ratelimit.Limiter
	trustProxy bool
	basePath   string
	logger     *slog.Logger
}

// HandlerConfig holds configuration for the Handler.
type HandlerConfig struct {
	Service Service
	// Limiter throttles the automation endpoints per client address; nil disables it.
	Limiter *ratelimit.Limiter
	// TrustProxy keys the limiter on X-Forwarded-For. Enable only behind a proxy that sets it.
	TrustProxy bool
	BasePath   string
	Logger     *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg *HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		svc:        cfg.Service,
		limiter:    cfg.Limiter,
		trustProxy: cfg.TrustProxy,
		basePath:   strings.TrimSuffix(cfg.BasePath, "/"),
		logger:     cfg.Logger,
	}
}

// SetupRoutes configures all HTTP routes.
func (h *Handler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.requestLogger, corsMiddleware)

	r.HandleFunc("/", h.Health).Methods("GET")

	api := r.PathPrefix(h.basePath).Subrouter()
	if h.basePath == "" {
		api = r.NewRoute().Subrouter()
	}

	// Each automation call launches a browser, so only these are rate limited.
	automationAPI := api.NewRoute().Subrouter()
	if h.limiter != nil {
		automationAPI.Use(RateLimitMiddleware(h.limiter, h.trustProxy))
	}
	automationAPI.HandleFunc("/login", h.Login).Methods("POST", "OPTIONS")
	automationAPI.HandleFunc("/submit-otp", h.SubmitOtp).Methods("POST", "OPTIONS")
	automationAPI.HandleFunc("/add-products", h.AddProducts).Methods("POST", "OPTIONS")

	api.HandleFunc("/platforms", h.ListPlatforms).Methods("GET")
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")

	return r
}

// corsMiddleware adds CORS headers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware rejects clients that exhausted their token bucket.
// Clients are keyed by peer address unless trustProxy is set.
func RateLimitMiddleware(limiter *ratelimit.Limiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientAddr(r, trustProxy)

			if !limiter.Allow(key) {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Status:  statusError,
					Message: "Rate limit exceeded, retry later",
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens(key))))
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger attaches a request-scoped logger to the context and logs each request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithAttrs(logging.With(r.Context(), h.logger),
			"request_id", uuid.NewString(), "method", r.Method, "path", r.URL.Path)
		logger := logging.From(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info("Request handled", "status", rec.status, "duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func clientAddr(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			return strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
