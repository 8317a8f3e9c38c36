package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aescanero/agor/internal/application/orchestrator"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/protocol"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunSubmitRequest starts a run. Omitting graph selects supervisor
// mode against the server's configured agent roster.
type RunSubmitRequest struct {
	ThreadID string            `json:"threadId"`
	Messages []domain.Message  `json:"messages" binding:"required"`
	Graph    *GraphPayload     `json:"graph"`
	Options  domain.RunOptions `json:"options"`
}

// GraphPayload is a user-authored DAG.
type GraphPayload struct {
	Nodes []domain.Node `json:"nodes" binding:"required"`
	Edges []domain.Edge `json:"edges"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"orchestrator": "ok",
			"active_runs":  s.orchestrator.ActiveRuns(),
		},
	})
}

// handleCreateRun starts a run and streams its protocol events over
// SSE until the run ends, closing with the done sentinel.
func (s *Server) handleCreateRun(c *gin.Context) {
	var req RunSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid run request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	runReq := orchestrator.RunRequest{
		ThreadID: req.ThreadID,
		Messages: req.Messages,
		Options:  req.Options,
	}
	if req.Graph != nil {
		runReq.Nodes = req.Graph.Nodes
		runReq.Edges = req.Graph.Edges
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	sse := protocol.NewSSEWriter(c.Writer)
	sink := func(_ context.Context, event protocol.Event) error {
		return sse.Write(event)
	}

	run, err := s.orchestrator.ExecuteRun(c.Request.Context(), runReq, sink)
	if err != nil {
		// Nothing was streamed yet; answer with a regular error body.
		var graphErr *domain.GraphError
		status := http.StatusInternalServerError
		code := "RUN_FAILED"
		if errors.As(err, &graphErr) {
			status = http.StatusUnprocessableEntity
			code = "INVALID_GRAPH"
		}
		c.JSON(status, ErrorResponse{
			Error: ErrorDetail{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	if c.Request.Context().Err() == nil {
		if err := sse.Done(); err != nil {
			s.logger.Warn("write done sentinel failed",
				zap.String("run_id", run.RunID),
				zap.Error(err))
		}
	}
}

// handleCancelRun aborts an in-flight run.
func (s *Server) handleCancelRun(c *gin.Context) {
	runID := c.Param("id")

	if err := s.orchestrator.CancelRun(runID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "RUN_NOT_FOUND",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"status": "cancelled",
	})
}

// handleGetMessages returns a thread's stored conversation history.
func (s *Server) handleGetMessages(c *gin.Context) {
	threadID := c.Param("id")

	msgs, err := s.store.History(c.Request.Context(), threadID)
	if err != nil {
		s.logger.Error("history read failed",
			zap.String("thread_id", threadID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "HISTORY_UNAVAILABLE",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"thread_id": threadID,
		"messages":  msgs,
	})
}
