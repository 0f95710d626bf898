// Package api exposes the prediction pipeline over HTTP and streams
// critical-risk alerts to care-team dashboards over websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/config"
	"github.com/readmit-risk-server/internal/database"
	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/feedback"
	"github.com/readmit-risk-server/internal/middleware"
	"github.com/readmit-risk-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg       *config.Config
	log       *logrus.Logger
	router    *gin.Engine
	server    *http.Server
	predictor *service.Predictor
	store     domain.PredictionStore
	outcomes  feedback.Store
	db        *database.DB
	alerts    *AlertHub
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *logrus.Logger,
	predictor *service.Predictor,
	store domain.PredictionStore,
	outcomes feedback.Store,
	db *database.DB,
	alerts *AlertHub,
) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	s := &Server{
		cfg:       cfg,
		log:       logger,
		router:    router,
		predictor: predictor,
		store:     store,
		outcomes:  outcomes,
		db:        db,
		alerts:    alerts,
	}
	s.setupRoutes()
	return s
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
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
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/predictions", s.handleCreatePrediction)
		v1.GET("/predictions/:id", s.handleGetPrediction)
		v1.GET("/patients/:patientId/predictions", s.handleListPredictions)
		v1.POST("/outcomes", s.handleRecordOutcome)
		v1.GET("/outcomes/:predictionId", s.handleGetOutcome)
		v1.GET("/alerts/stream", s.alerts.HandleSubscribe)
	}
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// handleReady reports readiness, including database connectivity.
func (s *Server) handleReady(c *gin.Context) {
	if err := s.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// handleCreatePrediction runs the full prediction pipeline for one
// discharge event.
func (s *Server) handleCreatePrediction(c *gin.Context) {
	var dc domain.DischargeContext
	if err := c.ShouldBindJSON(&dc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
			"code":  domain.ErrCodeInvalidInput,
		})
		return
	}

	// Critical-risk alerting is the pipeline's fire-and-forget side
	// effect; the handler must not broadcast a second copy.
	prediction, err := s.predictor.Predict(c.Request.Context(), &dc)
	if err != nil {
		s.writePredictionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, prediction)
}

// writePredictionError maps pipeline failures to HTTP responses.
func (s *Server) writePredictionError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var parseErr *domain.ParseError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"code":  domain.ErrCodeInvalidInput,
		})
	case errors.Is(err, domain.ErrTenantDisabled):
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
			"code":  domain.ErrCodePrediction,
		})
	case errors.Is(err, domain.ErrJudgeTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": err.Error(),
			"code":  domain.ErrCodeJudge,
		})
	case errors.As(err, &parseErr), errors.Is(err, domain.ErrNoJSONInReply):
		s.log.WithError(err).Error("Judge response unparseable")
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "predictive judge returned an unusable response",
			"code":  domain.ErrCodeParse,
		})
	default:
		s.log.WithError(err).Error("Prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "prediction failed",
			"code":  domain.ErrCodeInternal,
		})
	}
}

// handleGetPrediction returns one stored prediction record.
func (s *Server) handleGetPrediction(c *gin.Context) {
	record, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to load prediction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prediction", "code": domain.ErrCodeDatabase})
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleListPredictions returns a patient's recent prediction records.
func (s *Server) handleListPredictions(c *gin.Context) {
	records, err := s.store.ListByPatient(c.Request.Context(), c.Param("patientId"), 20)
	if err != nil {
		s.log.WithError(err).Error("Failed to list predictions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list predictions", "code": domain.ErrCodeDatabase})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": records, "count": len(records)})
}

// handleRecordOutcome records whether a predicted readmission happened.
func (s *Server) handleRecordOutcome(c *gin.Context) {
	var fb domain.OutcomeFeedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": domain.ErrCodeInvalidInput})
		return
	}
	if fb.PredictionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prediction_id is required", "code": domain.ErrCodeInvalidInput})
		return
	}

	if err := s.outcomes.Save(c.Request.Context(), &fb); err != nil {
		s.log.WithError(err).Error("Failed to save outcome feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save outcome", "code": domain.ErrCodeDatabase})
		return
	}
	c.JSON(http.StatusOK, fb)
}

// handleGetOutcome returns the outcome recorded for a prediction.
func (s *Server) handleGetOutcome(c *gin.Context) {
	fb, err := s.outcomes.Get(c.Request.Context(), c.Param("predictionId"))
	if err != nil {
		s.log.WithError(err).Error("Failed to load outcome feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load outcome", "code": domain.ErrCodeDatabase})
		return
	}
	if fb == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no outcome recorded"})
		return
	}
	c.JSON(http.StatusOK, fb)
}
