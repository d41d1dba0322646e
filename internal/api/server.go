// Package api exposes the pharmacogenomic analysis pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/middleware"
	"github.com/pharmaguard-server/internal/reportstore"
	"github.com/pharmaguard-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	analyzer      *service.AnalyzerService
	parser        domain.VariantIngestor
	risk          domain.RiskAssessor
	reports       reportstore.Store
	variants      domain.VariantRepository
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. The variant repository is
// optional; pass nil when no PostgreSQL pool is configured.
func NewServer(
	configManager domain.ConfigManager,
	logger *logrus.Logger,
	analyzer *service.AnalyzerService,
	parser domain.VariantIngestor,
	risk domain.RiskAssessor,
	reports reportstore.Store,
	variants domain.VariantRepository,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(rateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))
	router.Use(bodyLimitMiddleware(cfg.Analysis.MaxUploadBytes))

	server := &Server{
		configManager: configManager,
		logger:        logger,
		analyzer:      analyzer,
		parser:        parser,
		risk:          risk,
		reports:       reports,
		variants:      variants,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router returns the underlying gin engine, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/vcf/validate", s.handleValidateVCF)
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/risk/assess", s.handleAssessRisk)
		v1.GET("/reports", s.handleListReports)
		v1.GET("/reports/:id", s.handleGetReport)
		v1.DELETE("/reports/:id", s.handleDeleteReport)
		v1.GET("/reports/:id/variants", s.handleGetReportVariants)
		v1.GET("/drugs", s.handleListDrugs)
		v1.GET("/genes", s.handleListGenes)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}
