package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/export"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

func (s *Server) handleResearch(c *gin.Context) {
	var req domain.ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errors.NewValidationError("Invalid request body", "body", err.Error()))
		return
	}

	resp, err := s.researcher.Run(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}

	// A failed autosave does not fail the run.
	if err := s.store.Autosave(c.Request.Context(), resp.Results); err != nil {
		s.logger.Warn("Autosave failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}

type saveSessionRequest struct {
	Name    string                `json:"session_name"`
	Records []domain.ScoredResult `json:"keywords_data"`
}

func (s *Server) handleSaveSession(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errors.NewValidationError("Invalid request body", "body", err.Error()))
		return
	}

	id, err := s.store.SaveSession(c.Request.Context(), req.Name, req.Records)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "message": "Session saved successfully"})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.store.ListSessions(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": sessions})
}

func (s *Server) handleLoadSession(c *gin.Context) {
	session, err := s.store.LoadSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.store.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session deleted"})
}

func (s *Server) handleBackup(c *gin.Context) {
	backup, err := s.store.Backup(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", s.attachment("kdp_sessions_backup", "json"))
	c.JSON(http.StatusOK, backup)
}

type favoriteRequest struct {
	domain.ScoredResult
	Notes string `json:"notes"`
}

func (s *Server) handleAddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, errors.NewValidationError("Invalid request body", "body", err.Error()))
		return
	}

	if err := s.store.AddFavorite(c.Request.Context(), req.ScoredResult, req.Notes); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Added to favorites"})
}

func (s *Server) handleRemoveFavorite(c *gin.Context) {
	if err := s.store.RemoveFavorite(c.Request.Context(), c.Param("keyword")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Removed from favorites"})
}

func (s *Server) handleCheckFavorite(c *gin.Context) {
	keyword := c.Query("keyword")
	if domain.NewKeyword(keyword).IsEmpty() {
		s.renderError(c, errors.NewValidationError("Keyword is required", "keyword", keyword))
		return
	}
	ok, err := s.store.IsFavorite(c.Request.Context(), keyword)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "favorite": ok})
}

func (s *Server) handleListFavorites(c *gin.Context) {
	favorites, err := s.store.ListFavorites(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "favorites": favorites})
}

func (s *Server) handleExportFavorites(c *gin.Context) {
	favorites, err := s.store.ListFavorites(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	records := make([]domain.ScoredResult, len(favorites))
	for i, f := range favorites {
		records[i] = f.Record
	}
	s.renderExport(c, export.FormatCSV, "kdp_favorites", records)
}

// handleExport renders a session (autosave unless session_id is given).
func (s *Server) handleExport(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	id := strings.TrimSpace(c.Query("session_id"))
	if id == "" {
		id = domain.AutosaveSessionID
	}
	session, err := s.store.LoadSession(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if len(session.Records) == 0 {
		s.renderError(c, errors.NewValidationError("No data to export", "session_id", id))
		return
	}

	s.renderExport(c, format, "kdp_keywords", session.Records)
}

func (s *Server) renderExport(c *gin.Context, format export.Format, prefix string, records []domain.ScoredResult) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		s.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", s.attachment(prefix, format.Extension()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) attachment(prefix, ext string) string {
	return fmt.Sprintf("attachment; filename=%s_%s.%s", prefix, s.now().Format("20060102_150405"), ext)
}
