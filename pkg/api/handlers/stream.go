package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/api/types"
	"github.com/urmzd/devicecontrols/pkg/device"
)

const (
	heartbeatInterval = 30 * time.Second
	wsWriteTimeout    = 10 * time.Second
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// StreamHandler serves the live state stream over SSE and WebSocket.
// Opening either one supersedes whatever stream was open before.
type StreamHandler struct {
	provider  device.Provider
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(provider device.Provider) *StreamHandler {
	return &StreamHandler{provider: provider, heartbeat: heartbeatInterval}
}

// Events handles GET /controls/stream (SSE stream)
// @Summary      Stream control state
// @Description  Server-Sent Events stream of snapshots for the requested controls. Seeded with one snapshot per control.
// @Tags         stream
// @Produce      text/event-stream
// @Param        ids  query     string  true  "Comma separated control ids"
// @Success      200  {string}  string  "SSE event stream"
// @Failure      400  {object}  types.ErrorResponse  "No ids"
// @Router       /controls/stream [get]
func (h *StreamHandler) Events(c *gin.Context) {
	ids, ok := requestedIDs(c)
	if !ok {
		return
	}

	stream, err := h.provider.Open(c.Request.Context(), ids)
	if err != nil {
		writeProviderError(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"stream_id": stream.ID(),
		"devices":   stream.Devices(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case st, ok := <-stream.C():
			if !ok {
				sendSSEEvent(c.Writer, "closed", map[string]any{
					"timestamp": time.Now(),
					"stream_id": stream.ID(),
				})
				c.Writer.Flush()
				return
			}
			sendSSEEvent(c.Writer, "state", st)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

// WebSocket handles GET /controls/ws
// @Summary      Stream control state over WebSocket
// @Description  Same stream as /controls/stream, framed as JSON messages of type connected, state, heartbeat or closed.
// @Tags         stream
// @Param        ids  query  string  true  "Comma separated control ids"
// @Success      101  {string}  string  "Switching protocols"
// @Failure      400  {object}  types.ErrorResponse  "No ids"
// @Router       /controls/ws [get]
func (h *StreamHandler) WebSocket(c *gin.Context) {
	ids, ok := requestedIDs(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	stream, err := h.provider.Open(c.Request.Context(), ids)
	if err != nil {
		_ = writeWS(conn, types.StreamMessage{Type: "error", Payload: err.Error()})
		return
	}
	defer stream.Close()

	// The reader only watches for the peer going away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeWS(conn, types.StreamMessage{
		Type:     "connected",
		StreamID: stream.ID(),
		Payload:  stream.Devices(),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case st, ok := <-stream.C():
			if !ok {
				_ = writeWS(conn, types.StreamMessage{Type: "closed", StreamID: stream.ID()})
				return
			}
			if err := writeWS(conn, types.StreamMessage{Type: "state", StreamID: stream.ID(), Payload: st}); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			if err := writeWS(conn, types.StreamMessage{Type: "heartbeat"}); err != nil {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, msg types.StreamMessage) error {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}

// requestedIDs parses ?ids=a,b and writes a 400 when none are given.
func requestedIDs(c *gin.Context) ([]string, bool) {
	var ids []string
	for _, part := range strings.Split(c.Query("ids"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "ids query parameter is required",
		})
		return nil, false
	}
	return ids, true
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	io.WriteString(w, "event: "+eventType+"\n")
	io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}
