// Package stubserver is a local stand-in for the submission and text
// generation backends, used for demos and end-to-end tests.
package stubserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/metrics"
	"assistance-wizard/internal/models"
	"assistance-wizard/internal/textgen"
)

const (
	msgSubmitted      = "Your financial assistance application has been submitted successfully"
	msgFirstNameEmpty = "First name is required"
	msgInvalidBody    = "Invalid request body"
)

type generateRequest struct {
	Prompt    string                  `json:"prompt"`
	FieldName models.NarrativeField   `json:"fieldName"`
	FormData  models.ApplicationDraft `json:"formData"`
	Language  string                  `json:"language"`
}

type Server struct {
	config    *Config
	logger    logger.Logger
	engine    *gin.Engine
	generator *textgen.TemplateGenerator
	now       func() time.Time
}

type Option func(*Server)

// WithMetrics also serves the Prometheus registry, plus any extra gatherers,
// on /metrics.
func WithMetrics(extra ...prometheus.Gatherer) Option {
	return func(s *Server) {
		s.engine.GET("/metrics", gin.WrapH(metrics.HandlerFor(extra...)))
	}
}

func New(config *Config, log logger.Logger, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:    config,
		logger:    log.Named("stubserver"),
		engine:    gin.New(),
		generator: textgen.NewTemplateGenerator(),
		now:       time.Now,
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	{
		api.POST("/applications", s.submitApplication)
		api.POST("/ai/generate", s.generateContent)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stub server listening", map[string]interface{}{
			"address": s.config.Address,
			"latency": s.config.Latency.String(),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stub server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown stub server: %w", err)
	}
	<-errCh
	return nil
}

// ==========================
// Handlers
// ==========================

func (s *Server) submitApplication(c *gin.Context) {
	var draft models.ApplicationDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return
	}

	if !s.delay(c) {
		return
	}

	if draft.PersonalInfo == nil || strings.TrimSpace(draft.PersonalInfo.FirstName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msgFirstNameEmpty,
			"errors": gin.H{
				"firstName": []string{msgFirstNameEmpty},
			},
		})
		return
	}

	now := s.now().UTC()
	applicationID := s.applicationID(now)
	s.logger.Info("application received", map[string]interface{}{
		"applicationId": applicationID,
		"requestId":     c.GetHeader("X-Request-ID"),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"applicationId": applicationID,
		"message":       msgSubmitted,
		"submittedAt":   now.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) generateContent(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msgInvalidBody})
		return
	}

	if !s.delay(c) {
		return
	}

	content, err := s.generator.Generate(c.Request.Context(), textgen.Request{
		Field:  req.FieldName,
		Prompt: req.Prompt,
		Draft:  req.FormData,
		Locale: req.Language,
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "content": content})
}

// applicationID mirrors the APP-<millis>-<9 chars> shape of the real backend.
func (s *Server) applicationID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("APP-%d-%s", now.UnixMilli(), suffix)
}

// delay waits out the configured latency. It returns false if the client
// went away first.
func (s *Server) delay(c *gin.Context) bool {
	if s.config.Latency <= 0 {
		return true
	}
	timer := time.NewTimer(s.config.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-c.Request.Context().Done():
		c.Abort()
		return false
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
