// Package server exposes a workspace over a JSON HTTP API.
//
// The API is what a browser canvas talks to: it lists and edits tabs,
// nodes and edges, drives preview reconciliation, persists graphs and
// forwards matrix management to the prediction backend. Prometheus metrics
// are served on /metrics when a collector is configured.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/nextstep/pkg/analytics"
	"github.com/matzehuels/nextstep/pkg/integrations/backend"
	"github.com/matzehuels/nextstep/pkg/observability/prom"
	"github.com/matzehuels/nextstep/pkg/workspace"
)

// maxBody caps request bodies, uploads included.
const maxBody = 32 << 20

// Backend is the part of the prediction backend the API forwards to.
type Backend interface {
	StartSession(ctx context.Context, matrix string, csv io.Reader) (string, error)
	Matrices(ctx context.Context) (backend.Matrices, error)
	ChangeMatrix(ctx context.Context, name string, csv io.Reader) error
	AddLog(ctx context.Context, name string, xes io.Reader) error
	RemoveMatrix(ctx context.Context, name string) error
	AutoPosition(ctx context.Context) (map[string][2]int, error)
	PetriNetImage(ctx context.Context) ([]byte, error)
	PetriNetFile(ctx context.Context) ([]byte, error)
}

var _ Backend = (*backend.Client)(nil)

// Server serves one workspace.
type Server struct {
	ws        *workspace.Workspace
	backend   Backend
	refresher *analytics.Refresher
	metrics   *prom.Collector
	logger    *log.Logger
	origins   []string
}

// Option configures a [Server].
type Option func(*Server)

// WithBackend enables the matrix, session, layout and Petri net endpoints.
func WithBackend(b Backend) Option {
	return func(s *Server) { s.backend = b }
}

// WithRefresher enables the analytics endpoints.
func WithRefresher(r *analytics.Refresher) Option {
	return func(s *Server) { s.refresher = r }
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(c *prom.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the origins allowed to call the API from a
// browser. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// New creates a server for ws.
func New(ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		ws:      ws,
		logger:  log.New(io.Discard),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(observeRequests(s.metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.RequestSize(maxBody))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/tabs", func(r chi.Router) {
			r.Get("/", s.listTabs)
			r.Post("/", s.createTab)
			r.Post("/import", s.importDocument)
			r.Post("/petri", s.importPetriNet)

			r.Route("/{tabID}", func(r chi.Router) {
				r.Get("/", s.getTab)
				r.Patch("/", s.renameTab)
				r.Delete("/", s.closeTab)
				r.Post("/activate", s.activateTab)
				r.Put("/settings", s.updateSettings)
				r.Post("/reconcile", s.reconcile)
				r.Post("/copy", s.copyTab)
				r.Post("/paste", s.paste)
				r.Post("/save", s.saveTab)
				r.Get("/export", s.exportTab)
				r.Get("/svg", s.renderTab)
				r.Post("/auto-position", s.autoPosition)

				r.Post("/nodes", s.addNode)
				r.Patch("/nodes/{nodeID}", s.updateNode)
				r.Delete("/nodes/{nodeID}", s.removeNode)
				r.Post("/nodes/{nodeID}/click", s.clickNode)
				r.Post("/nodes/{nodeID}/drag", s.dragNode)

				r.Post("/edges", s.addEdge)
				r.Delete("/edges", s.removeEdge)

				r.Post("/selection", s.selectRect)
				r.Delete("/selection", s.clearSelection)
				r.Post("/selection/delete", s.deleteSelection)
			})
		})

		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", s.listGraphs)
			r.Post("/save-all", s.saveAll)
			r.Post("/{graphID}/open", s.openGraph)
			r.Delete("/{graphID}", s.deleteGraph)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireBackend)
			r.Post("/session", s.startSession)
			r.Get("/matrices", s.listMatrices)
			r.Post("/matrices", s.changeMatrix)
			r.Delete("/matrices/{name}", s.removeMatrix)
			r.Post("/matrices/{name}/log", s.addLog)
			r.Get("/petri-net/image", s.petriNetImage)
			r.Get("/petri-net/file", s.petriNetFile)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRefresher)
			r.Get("/analytics", s.analyticsReport)
			r.Post("/analytics/refresh", s.refreshAnalytics)
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
