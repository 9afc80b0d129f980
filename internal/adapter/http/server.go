package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
)

// Server exposes health, readiness, metrics and the viewer API.
type Server struct {
	httpServer *http.Server
	presenter  Presenter
	geocoder   domain.Geocoder
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and /api
// routes. geocoder may be nil, in which case markers carry no place names.
func NewServer(addr string, presenter Presenter, ready sharedobs.ReadinessChecker, geocoder domain.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		presenter: presenter,
		geocoder:  geocoder,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /api/frame.geojson", s.handleFrameGeoJSON)
	mux.HandleFunc("GET /api/storms", s.handleStorms)
	mux.HandleFunc("GET /api/storms.geojson", s.handleStormsGeoJSON)
	mux.HandleFunc("GET /api/timestamps", s.handleTimestamps)
	mux.HandleFunc("GET /api/palette", handlePalette)
	mux.HandleFunc("PUT /api/controls/year", s.handleSetYear)
	mux.HandleFunc("PUT /api/controls/index", s.handleSetIndex)
	mux.HandleFunc("POST /api/controls/press", s.handlePress)
	mux.HandleFunc("POST /api/controls/release", s.handleRelease)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
