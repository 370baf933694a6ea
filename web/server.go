// Package web exposes the password-lifecycle, reconciliation, and audit
// operations over HTTP.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"adwarden/activedirectory"
	"adwarden/config"
	"adwarden/expiry"
	"adwarden/history"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server handles HTTP requests for the adwarden API.
type Server struct {
	directory  *activedirectory.ActiveDirectoryInstance
	store      *history.Store
	dispatcher expiry.Dispatcher
	cfg        config.Configuration
	router     chi.Router
	addr       string
}

// NewServer wires the API around an already-connected directory instance
// and ledger store.
func NewServer(directory *activedirectory.ActiveDirectoryInstance, store *history.Store, dispatcher expiry.Dispatcher, cfg config.Configuration) *Server {
	s := &Server{
		directory:  directory,
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
		addr:       cfg.HTTPListenAddr,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * cfg.SearchTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/password-status", s.handlePasswordStatus)
		r.Post("/password-check", s.handlePasswordCheck)
		r.Post("/sync", s.handleSync)
		r.Get("/audit-report", s.handleAuditReport)
		r.Get("/users/{account}/history", s.handleUserHistory)
		r.Post("/users", s.handleCreateUser)
	})

	s.router = r
	return s
}

// Start blocks serving the API.
func (s *Server) Start() error {
	slog.Info("starting web server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
