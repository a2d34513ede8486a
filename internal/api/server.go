// Package api exposes research runs, sessions, favorites and exports over a
// JSON HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/store"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

// Researcher runs one aggregation request.
type Researcher interface {
	Run(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResponse, error)
	RunWithProgress(ctx context.Context, req domain.ResearchRequest, progress domain.ProgressFunc) (*domain.ResearchResponse, error)
}

type Server struct {
	researcher Researcher
	store      store.Store
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	now        func() time.Time
}

func NewServer(researcher Researcher, st store.Store, logger *zap.Logger) *Server {
	return &Server{
		researcher: researcher,
		store:      st,
		logger:     logger,
		upgrader:   newUpgrader(),
		now:        time.Now,
	}
}

// Router builds the gin engine. mode is a gin mode ("release", "debug", "test").
func (s *Server) Router(mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(zapLogger(s.logger), zapRecovery(s.logger))

	r.GET("/api/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/research", s.handleResearch)
		api.GET("/research/stream", s.handleResearchStream)

		api.GET("/sessions", s.handleListSessions)
		api.POST("/sessions", s.handleSaveSession)
		api.GET("/sessions/backup", s.handleBackup)
		api.GET("/sessions/:id", s.handleLoadSession)
		api.DELETE("/sessions/:id", s.handleDeleteSession)

		api.GET("/favorites", s.handleListFavorites)
		api.POST("/favorites", s.handleAddFavorite)
		api.GET("/favorites/export", s.handleExportFavorites)
		api.GET("/favorites/check", s.handleCheckFavorite)
		api.DELETE("/favorites/:keyword", s.handleRemoveFavorite)

		api.GET("/export/:format", s.handleExport)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderError answers with the status mapped from err. Internal causes are
// logged, never sent to the client.
func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": errors.Message(err)})
}
