// Package api serves layout runs over HTTP.
//
// Routes:
//
//	POST   /v1/layouts            run the pipeline, store and return the run
//	GET    /v1/layouts            list stored runs, newest first
//	GET    /v1/layouts/{id}       one run with its positioned graph
//	DELETE /v1/layouts/{id}       remove a run
//	GET    /v1/layouts/{id}/svg   render a stored run
//	GET    /v1/generators         registered generator names
//	GET    /healthz               liveness and build info
//	GET    /metrics               Prometheus exposition
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/store"
)

const (
	// DefaultLayoutTimeout bounds a layout when the request sets none.
	DefaultLayoutTimeout = 30 * time.Second

	// MaxLayoutTimeout caps the timeout a request may ask for.
	MaxLayoutTimeout = 2 * time.Minute

	// MaxBodyBytes limits request bodies, which may carry a whole graph.
	MaxBodyBytes = 16 << 20
)

// Config wires the server's collaborators. Runner and Store are required.
type Config struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger

	// Gatherer backs /metrics; nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server holds the HTTP handlers.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	logger   *log.Logger
	gatherer prometheus.Gatherer
}

// New creates a server.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		store:    cfg.Store,
		logger:   cfg.Logger,
		gatherer: cfg.Gatherer,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(instrument)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/generators", s.listGenerators)

		r.Route("/layouts", func(r chi.Router) {
			r.Post("/", s.createLayout)
			r.Get("/", s.listLayouts)
			r.Get("/{id}", s.getLayout)
			r.Delete("/{id}", s.deleteLayout)
			r.Get("/{id}/svg", s.getLayoutSVG)
		})
	})

	return r
}
