package api

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"go.uber.org/zap"
)

// Message types sent over a research stream.
const (
	StreamProgress = "progress"
	StreamResult   = "result"
	StreamError    = "error"
)

// StreamMessage is one frame of a research stream.
type StreamMessage struct {
	Type     string                   `json:"type"`
	Progress *domain.Progress         `json:"progress,omitempty"`
	Result   *domain.ResearchResponse `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// streamConn allows a single concurrent writer, as gorilla/websocket requires.
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (sc *streamConn) send(msg StreamMessage) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.conn.SetWriteDeadline(time.Now().Add(constants.StreamConfig.WriteTimeout)); err != nil {
		return err
	}
	return sc.conn.WriteJSON(msg)
}

func (sc *streamConn) close(code int, reason string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	deadline := time.Now().Add(constants.StreamConfig.WriteTimeout)
	_ = sc.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  constants.StreamConfig.BufferSize,
		WriteBufferSize: constants.StreamConfig.BufferSize,
	}
}

// handleResearchStream reads one ResearchRequest from the socket, streams
// progress frames while the run is going and ends with a result or error
// frame. Closing the socket cancels the run.
func (s *Server) handleResearchStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered with an HTTP error.
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	sc := &streamConn{conn: conn}

	var req domain.ResearchRequest
	_ = conn.SetReadDeadline(time.Now().Add(constants.StreamConfig.ReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		_ = sc.send(StreamMessage{Type: StreamError, Error: "Invalid request body"})
		sc.close(websocket.CloseUnsupportedData, "invalid request")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	resp, err := s.researcher.RunWithProgress(ctx, req, func(p domain.Progress) {
		if err := sc.send(StreamMessage{Type: StreamProgress, Progress: &p}); err != nil {
			cancel()
		}
	})
	if err != nil {
		if errors.StatusCode(err) >= 500 {
			s.logger.Error("Research stream failed", zap.Error(err))
		}
		_ = sc.send(StreamMessage{Type: StreamError, Error: errors.Message(err)})
		sc.close(websocket.CloseNormalClosure, "")
		return
	}

	if err := s.store.Autosave(ctx, resp.Results); err != nil {
		s.logger.Warn("Autosave failed", zap.Error(err))
	}

	if err := sc.send(StreamMessage{Type: StreamResult, Result: resp}); err != nil {
		s.logger.Warn("Failed to send research result", zap.Error(err))
		return
	}
	sc.close(websocket.CloseNormalClosure, "")
}
