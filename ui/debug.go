package ui

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"gosynergy/internal"
	"gosynergy/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DebugServer serves operational endpoints (liveness and pprof) on a separate
// port so they never share the public listener.
type DebugServer struct {
	router *chi.Mux
	cfg    config.ProfilingConfig
	log    *internal.Logger
	http   *http.Server
}

// NewDebugServer wires the debug mux.
func NewDebugServer(cfg config.ProfilingConfig, log *internal.Logger) *DebugServer {
	s := &DebugServer{
		router: chi.NewRouter(),
		cfg:    cfg,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *DebugServer) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.router.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/{name}", func(w http.ResponseWriter, req *http.Request) {
			pprof.Handler(chi.URLParam(req, "name")).ServeHTTP(w, req)
		})
	})
}

// Run starts the debug server and blocks until the context is cancelled.
func (s *DebugServer) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("debug server listening on :%s", s.cfg.Port)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
