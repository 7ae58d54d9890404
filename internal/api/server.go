package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
	"github.com/snf-admission-engine/internal/middleware"
)

// Server exposes the admission assessment pipeline over HTTP.
type Server struct {
	config    *domain.Config
	log       *logrus.Logger
	assessor  domain.AssessmentService
	extractor domain.FeatureExtractor
	audit     domain.AssessmentStore
	router    *gin.Engine
	server    *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	config *domain.Config,
	logger *logrus.Logger,
	assessor domain.AssessmentService,
	extractor domain.FeatureExtractor,
	audit domain.AssessmentStore,
) *Server {
	// Set Gin mode based on environment
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	if config.Server.WriteTimeout > 0 {
		router.Use(middleware.RequestTimeout(config.Server.WriteTimeout))
	}

	server := &Server{
		config:    config,
		log:       logger,
		assessor:  assessor,
		extractor: extractor,
		audit:     audit,
		router:    router,
	}

	server.setupRoutes()

	return server
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
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
		s.log.WithField("addr", addr).Info("HTTP server listening")
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
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assessments", s.handleCreateAssessment)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.GET("/assessments", s.handleListAssessments)
		v1.POST("/extract", s.handleExtract)
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

// assessmentRequest is the wire request for creating an assessment. Callers
// either supply structured clinical features directly or referral text to be
// run through the extraction service first.
type assessmentRequest struct {
	domain.AssessmentRequest
	ReferralText string `json:"referral_text,omitempty"`
}

// handleCreateAssessment runs the full admission assessment pipeline.
func (s *Server) handleCreateAssessment(c *gin.Context) {
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewValidationError("body", "invalid request body", err.Error()))
		return
	}

	// Extract features from referral text unless the caller already
	// supplied a structured record.
	if req.ReferralText != "" && req.Features.PrimaryDiagnosis == "" {
		if s.extractor == nil {
			s.respondError(c, domain.NewValidationError("referral_text", "feature extraction is not configured", nil))
			return
		}
		features, err := s.extractor.ExtractFeatures(c.Request.Context(), req.ReferralText)
		if err != nil {
			s.log.WithError(err).Error("Feature extraction failed")
			c.JSON(http.StatusBadGateway, gin.H{
				"error":          "feature extraction failed",
				"correlation_id": c.GetString("correlation_id"),
			})
			return
		}
		req.Features = *features
	}

	result, err := s.assessor.Assess(c.Request.Context(), &req.AssessmentRequest)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// handleGetAssessment returns a previously persisted assessment.
func (s *Server) handleGetAssessment(c *gin.Context) {
	result, err := s.audit.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleListAssessments returns recent assessments for a facility.
func (s *Server) handleListAssessments(c *gin.Context) {
	facilityID := c.Query("facility_id")
	if facilityID == "" {
		s.respondError(c, domain.NewValidationError("facility_id", "facility_id query parameter is required", nil))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(c, domain.NewValidationError("limit", "limit must be a non-negative integer", raw))
			return
		}
		limit = parsed
	}

	results, err := s.audit.ListAssessments(c.Request.Context(), facilityID, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if results == nil {
		results = []*domain.AssessmentResult{}
	}

	c.JSON(http.StatusOK, gin.H{
		"facility_id": facilityID,
		"count":       len(results),
		"assessments": results,
	})
}

// extractRequest is the wire request for standalone feature extraction.
type extractRequest struct {
	ReferralText string `json:"referral_text"`
}

// handleExtract runs feature extraction without a full assessment, so
// intake staff can review the structured record before committing.
func (s *Server) handleExtract(c *gin.Context) {
	if s.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "feature extraction is not configured",
		})
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewValidationError("body", "invalid request body", err.Error()))
		return
	}
	if req.ReferralText == "" {
		s.respondError(c, domain.NewValidationError("referral_text", "referral_text is required", nil))
		return
	}

	features, err := s.extractor.ExtractFeatures(c.Request.Context(), req.ReferralText)
	if err != nil {
		s.log.WithError(err).Error("Feature extraction failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          "feature extraction failed",
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"features": features})
}

// respondError maps domain errors onto HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		payerErr      *domain.UnsupportedPayerTypeError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &payerErr):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("Request failed")
	}

	c.JSON(status, gin.H{
		"error":          err.Error(),
		"correlation_id": c.GetString("correlation_id"),
	})
}
