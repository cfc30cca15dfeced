package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vpexchange/internal/platform/middleware"
	"vpexchange/pkg/platform/httputil"
)

const defaultRequestTimeout = 30 * time.Second

// RouteRegistrar mounts a group of routes on the router.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// RouterConfig controls the shared middleware stack.
type RouterConfig struct {
	Logger         *slog.Logger
	Latency        middleware.LatencyObserver
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// MetricsHandler is served on /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter wires the middleware stack and mounts every registrar.
func NewRouter(cfg RouterConfig, registrars ...RouteRegistrar) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = httputil.MaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, cfg.Latency))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.BodyLimit(maxBody))
	r.Use(middleware.ContentTypeJSON)

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}
