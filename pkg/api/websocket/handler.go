package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aescanero/agor/internal/application/orchestrator"
	"github.com/aescanero/agor/pkg/ports"
	"github.com/aescanero/agor/pkg/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams one run's protocol events over a WebSocket. The
// events come off the event bus, so a client may observe a run started
// by another connection.
type Handler struct {
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(eventBus ports.EventBus, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger,
	}
}

// HandleRunStream upgrades the connection and forwards the run's
// events until the run finishes or the client disconnects.
func (h *Handler) HandleRunStream(c *gin.Context) {
	runID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("websocket connection established",
		zap.String("run_id", runID),
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	eventChan := make(chan protocol.Event, 64)
	handler := func(ctx context.Context, event protocol.Event) error {
		select {
		case eventChan <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("run_id", runID),
				zap.String("type", string(event.Type)))
		}
		return nil
	}

	if err := h.eventBus.Subscribe(ctx, orchestrator.RunTopic(runID), handler); err != nil {
		h.logger.Error("subscribe failed",
			zap.String("run_id", runID),
			zap.Error(err))
		return
	}

	// Reader goroutine: only there to notice client disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("marshal event failed", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("websocket write failed, closing",
					zap.String("run_id", runID),
					zap.Error(err))
				return
			}

			// The stream is complete once the run reaches a terminal
			// event.
			if event.Type == protocol.EventRunFinished || event.Type == protocol.EventRunError {
				return
			}
		}
	}
}
