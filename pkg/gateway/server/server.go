// Package server assembles the gateway's routes and middleware chain.
package server

import (
	"log/slog"
	"net/http"

	"github.com/banki-go/banki/pkg/gateway/config"
	"github.com/banki-go/banki/pkg/gateway/handlers"
	"github.com/banki-go/banki/pkg/gateway/metrics"
	"github.com/banki-go/banki/pkg/gateway/mw"
	"github.com/banki-go/banki/pkg/kiosk"
)

// Stores bundles the persistence interfaces the routes need. In
// production all of them are the same *store.Store.
type Stores struct {
	Applications handlers.ApplicationStore
	Products     handlers.ProductStore
	Flows        handlers.FlowStore
	Settings     handlers.SettingsStore
	Sessions     kiosk.Store
	DB           handlers.Pinger
}

// Deps carries the gateway's collaborators.
type Deps struct {
	Stores      Stores
	Extractor   handlers.IDExtractor
	Recommender handlers.Recommender
	Face        handlers.FaceMatcher
	Metrics     *metrics.Metrics
}

type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	deps    Deps
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New("banki")
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		deps:    deps,
		metrics: deps.Metrics,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	maxBody := s.cfg.MaxBodyBytes

	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{DB: s.deps.Stores.DB, Face: s.deps.Face})
	s.mux.Handle("/metrics", s.metrics.Handler())

	apps := handlers.ApplicationsHandler{Store: s.deps.Stores.Applications, Logger: s.logger, MaxBodyBytes: maxBody}
	s.mux.HandleFunc("GET /v1/applications", apps.List)
	s.mux.HandleFunc("GET /v1/applications/{id}", apps.Get)
	s.mux.HandleFunc("POST /v1/applications", apps.Create)
	s.mux.HandleFunc("PATCH /v1/applications/{id}", apps.Update)

	products := handlers.ProductsHandler{Store: s.deps.Stores.Products, Logger: s.logger, MaxBodyBytes: maxBody}
	s.mux.HandleFunc("GET /v1/products", products.List)
	s.mux.HandleFunc("POST /v1/products", products.Upsert)
	s.mux.HandleFunc("DELETE /v1/products/{id}", products.Delete)

	flows := handlers.FlowsHandler{Store: s.deps.Stores.Flows, Logger: s.logger, MaxBodyBytes: maxBody}
	s.mux.HandleFunc("GET /v1/flows", flows.List)
	s.mux.HandleFunc("POST /v1/flows", flows.Upsert)
	s.mux.HandleFunc("DELETE /v1/flows/{id}", flows.Delete)

	settings := handlers.SettingsHandler{Store: s.deps.Stores.Settings, Logger: s.logger, MaxBodyBytes: maxBody}
	s.mux.HandleFunc("GET /v1/settings", settings.Get)
	s.mux.HandleFunc("PATCH /v1/settings", settings.Update)

	s.mux.Handle("POST /v1/verify/id", handlers.VerifyIDHandler{
		Extractor:    s.deps.Extractor,
		Metrics:      s.metrics,
		Logger:       s.logger,
		MaxBodyBytes: maxBody,
	})
	s.mux.Handle("POST /v1/verify/face", handlers.VerifyFaceHandler{
		Face:         s.deps.Face,
		Metrics:      s.metrics,
		Logger:       s.logger,
		MaxBodyBytes: maxBody,
	})
	s.mux.Handle("POST /v1/recommendations", handlers.RecommendHandler{
		Recommender:  s.deps.Recommender,
		Products:     s.deps.Stores.Products,
		Logger:       s.logger,
		MaxBodyBytes: maxBody,
	})

	s.mux.Handle("/v1/kiosk", handlers.KioskHandler{
		Config:  s.cfg,
		Store:   s.deps.Stores.Sessions,
		Metrics: s.metrics,
		Logger:  s.logger,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Observe(s.metrics, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
