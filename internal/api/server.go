// Package api is the REST + websocket front door (SPEC_FULL.md §4.14): a
// thin gin transport over the Engine/Validator/AssessmentStore, not a UI
// (spec.md §1 excludes the command-line front-end and browser UI). Grounded
// on the teacher's gin/middleware wiring pattern (CORS + request-ID
// middleware, graceful shutdown via context cancellation).
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/engine"
	"github.com/variant-actionability/assessor/internal/middleware"
	"github.com/variant-actionability/assessor/internal/repository"
	"github.com/variant-actionability/assessor/internal/validator"
)

// Server is the gin-based REST + websocket transport over the pipeline.
type Server struct {
	cfg        domain.ServerConfig
	engine     *engine.Engine
	validator  *validator.Validator
	assessments *repository.AssessmentStore
	log        *logrus.Logger

	router *gin.Engine
	server *http.Server

	upgrader websocket.Upgrader
}

// NewServer wires the pipeline's public front door. assessments may be nil
// (the audit log is optional, per SPEC_FULL.md §4.13).
func NewServer(cfg domain.ServerConfig, eng *engine.Engine, val *validator.Validator, assessments *repository.AssessmentStore, log *logrus.Logger) *Server {
	if log.Level == logrus.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	s := &Server{
		cfg:         cfg,
		engine:      eng,
		validator:   val,
		assessments: assessments,
		log:         log,
		router:      router,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.setupRoutes()
	return s
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/assess", s.handleAssess)
		v1.POST("/batch", s.handleBatch)
		v1.POST("/validate", s.handleValidate)
		v1.GET("/assessments/:gene/:variant", s.handleGetAssessments)
		v1.GET("/ws/validate", s.handleValidateStream)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
}

// handleAssess implements POST /v1/assess (spec.md §6's single-variant
// contract).
func (s *Server) handleAssess(c *gin.Context) {
	var input domain.VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := s.engine.AssessVariant(c.Request.Context(), input)
	if err != nil {
		s.respondAssessError(c, err)
		return
	}

	s.recordAssessment(c.Request.Context(), c.GetString("request_id"), assessment)
	c.JSON(http.StatusOK, assessment)
}

// handleBatch implements POST /v1/batch.
func (s *Server) handleBatch(c *gin.Context) {
	var inputs []domain.VariantInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := s.engine.BatchAssess(c.Request.Context(), inputs)
	for _, r := range results {
		s.recordAssessment(c.Request.Context(), c.GetString("request_id"), r)
	}
	c.JSON(http.StatusOK, results)
}

// handleValidate implements POST /v1/validate.
func (s *Server) handleValidate(c *gin.Context) {
	var req struct {
		GoldStandard  []domain.GoldStandardEntry `json:"gold_standard"`
		MaxConcurrent int                        `json:"max_concurrent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metrics := s.validator.ValidateDataset(c.Request.Context(), req.GoldStandard, req.MaxConcurrent)
	c.JSON(http.StatusOK, metrics)
}

// handleGetAssessments implements GET /v1/assessments/:gene/:variant.
func (s *Server) handleGetAssessments(c *gin.Context) {
	if s.assessments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log not configured"})
		return
	}
	gene := c.Param("gene")
	variant := c.Param("variant")

	records, err := s.assessments.GetByGeneVariant(c.Request.Context(), gene, variant, 50, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// wsProgressFrame is streamed once per completed gold-standard entry, per
// SPEC_FULL.md §4.14.
type wsProgressFrame struct {
	Processed  int                     `json:"processed"`
	Total      int                     `json:"total"`
	LastResult *domain.ValidationResult `json:"last_result,omitempty"`
}

// handleValidateStream implements GET /v1/ws/validate: the gold-standard
// entries arrive as the first text frame (JSON array), then one progress
// frame streams back per completed entry.
func (s *Server) handleValidateStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var goldStandard []domain.GoldStandardEntry
	if err := conn.ReadJSON(&goldStandard); err != nil {
		s.log.WithError(err).Warn("websocket read of gold-standard payload failed")
		return
	}

	total := len(goldStandard)
	for i, entry := range goldStandard {
		result, err := s.validator.ValidateSingle(c.Request.Context(), entry)
		frame := wsProgressFrame{Processed: i + 1, Total: total}
		if err == nil {
			frame.LastResult = &result
		}
		if err := conn.WriteJSON(frame); err != nil {
			s.log.WithError(err).Warn("websocket write failed, closing validation stream")
			return
		}
	}
}

func (s *Server) respondAssessError(c *gin.Context, err error) {
	if domain.IsKind(err, domain.ErrUnsupportedVariantType) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

func (s *Server) recordAssessment(ctx context.Context, requestID string, assessment *domain.Assessment) {
	if s.assessments == nil || assessment == nil {
		return
	}
	record := &domain.AssessmentRecord{RequestID: requestID, EngineVersion: "1.0", Assessment: *assessment}
	if err := s.assessments.Create(ctx, record); err != nil {
		s.log.WithError(err).Warn("failed to persist assessment audit record")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
