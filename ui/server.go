package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gosynergy/app"
	"gosynergy/internal"
	"gosynergy/internal/config"

	"github.com/gin-gonic/gin"
)

// Server is the JSON API server for the synergy analysis service.
type Server struct {
	router  *gin.Engine
	service *app.ExperimentService
	batch   *app.BatchRunner
	cfg     *config.Config
	log     *internal.Logger
	http    *http.Server
}

// NewServer creates and wires the API server.
func NewServer(cfg *config.Config, service *app.ExperimentService, batch *app.BatchRunner, log *internal.Logger) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.Default(),
		service: service,
		batch:   batch,
		cfg:     cfg,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/experiments", s.handleCreateExperiment)
		api.GET("/experiments", s.handleListExperiments)
		api.GET("/experiments/:id", s.handleGetExperiment)
		api.DELETE("/experiments/:id", s.handleDeleteExperiment)

		api.PUT("/experiments/:id/conditions/:key", s.handleUpsertCondition)
		api.DELETE("/experiments/:id/conditions/:key", s.handleRemoveCondition)
		api.POST("/experiments/:id/import", s.handleImportConditions)
		api.GET("/experiments/:id/suggestions", s.handleSuggestions)

		api.POST("/experiments/:id/analyze", s.handleAnalyze)
		api.GET("/experiments/:id/result", s.handleGetResult)
		api.GET("/experiments/:id/report", s.handleReport)
		api.GET("/experiments/:id/export/csv", s.handleExportCSV)
		api.GET("/experiments/:id/export/replicates", s.handleExportReplicates)
		api.GET("/experiments/:id/export/xlsx", s.handleExportXLSX)

		api.POST("/analyze/batch", s.handleBatchAnalyze)

		api.GET("/catalog/parameters", s.handleEffectParameters)
		api.GET("/catalog/units", s.handleConcentrationUnits)
	}
}

// Run starts the server and blocks until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server listening on :%s", s.cfg.Server.Port)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
