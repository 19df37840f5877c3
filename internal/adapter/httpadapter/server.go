// Package httpadapter exposes the dashboard over HTTP alongside the health,
// readiness and metrics endpoints.
package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/source"
)

// Dashboard is the query surface served by the API.
type Dashboard interface {
	sharedobs.ReadinessChecker
	View(date, serviceArea string) (domain.ViewModel, error)
	Reservoirs(date string) (dashboard.ReservoirList, error)
	Series(name, window, frequency string) (domain.Chart, error)
	Rainfall(window, frequency string) (domain.Chart, error)
	Population(date string) (dashboard.PopulationEstimate, error)
	Alerts(date, serviceArea string) (dashboard.AlertList, error)
	AlertPoints(date, serviceArea string) (*geojson.FeatureCollection, error)
	Dates() dashboard.DateRange
	Status() []source.Status
	Reload(ctx context.Context) *source.Snapshot
}

// Server exposes the dashboard API with /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server. allowedOrigins configures CORS for the
// /api routes; "*" allows any origin.
func NewServer(addr string, dash Dashboard, allowedOrigins []string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:   dash,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(dash))
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/view", s.handleView)
	api.HandleFunc("GET /api/v1/dams", s.handleDams)
	api.HandleFunc("GET /api/v1/dams/{name}/series", s.handleSeries)
	api.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
	api.HandleFunc("GET /api/v1/alerts/points", s.handleAlertPoints)
	api.HandleFunc("GET /api/v1/rainfall", s.handleRainfall)
	api.HandleFunc("GET /api/v1/population", s.handlePopulation)
	api.HandleFunc("GET /api/v1/dates", s.handleDates)
	api.HandleFunc("GET /api/v1/sources", s.handleSources)
	api.HandleFunc("POST /api/v1/reload", s.handleReload)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         600,
	})
	mux.Handle("/api/", c.Handler(api))

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

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vm, err := s.dash.View(q.Get("date"), q.Get("service_area"))
	s.respond(w, r, vm, err)
}

func (s *Server) handleDams(w http.ResponseWriter, r *http.Request) {
	list, err := s.dash.Reservoirs(r.URL.Query().Get("date"))
	s.respond(w, r, list, err)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chart, err := s.dash.Series(r.PathValue("name"), q.Get("window"), q.Get("frequency"))
	s.respond(w, r, chart, err)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.dash.Alerts(q.Get("date"), q.Get("service_area"))
	s.respond(w, r, list, err)
}

func (s *Server) handleAlertPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fc, err := s.dash.AlertPoints(q.Get("date"), q.Get("service_area"))
	s.respond(w, r, fc, err)
}

func (s *Server) handleRainfall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chart, err := s.dash.Rainfall(q.Get("window"), q.Get("frequency"))
	s.respond(w, r, chart, err)
}

func (s *Server) handlePopulation(w http.ResponseWriter, r *http.Request) {
	est, err := s.dash.Population(r.URL.Query().Get("date"))
	s.respond(w, r, est, err)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.dash.Dates(), nil)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.dash.Status(), nil)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Reload(r.Context())
	s.respond(w, r, map[string]any{
		"generation": snap.Generation,
		"sources":    snap.Statuses(),
	}, nil)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", "path", r.URL.Path, "status", status, "error", err)
		}
		body := map[string]any{"error": err.Error()}
		var nle *source.NotLoadedError
		if errors.As(err, &nle) {
			body["missing"] = nle.Missing
		}
		sharedobs.WriteJSON(w, status, body)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, dashboard.ErrInvalidFrequency):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, source.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
