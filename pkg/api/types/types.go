package types

import (
	"time"

	"github.com/urmzd/devicecontrols/pkg/device"
)

// --- Request DTOs ---

// ActionRequest is the request body for POST /controls/:id/actions
type ActionRequest struct {
	Type  string `json:"type" example:"boolean"`
	Value any    `json:"value" swaggertype:"primitive,string" example:"true"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status       string    `json:"status"`
	Controls     int       `json:"controls"`
	ActiveStream string    `json:"active_stream,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ListControlsResponse is returned from GET /controls
type ListControlsResponse struct {
	Controls []device.Descriptor `json:"controls"`
	Count    int                 `json:"count"`
}

// ControlWithState combines a descriptor with its current snapshot
type ControlWithState struct {
	device.Descriptor
	State device.ControlState `json:"state"`
}

// ControlResponse is returned from GET /controls/:id
type ControlResponse struct {
	Control ControlWithState `json:"control"`
}

// ActionResponse is returned from POST /controls/:id/actions.
// Response is always "ok"; Outcome tells whether the action changed anything.
type ActionResponse struct {
	Response device.Response      `json:"response"`
	Outcome  device.Outcome       `json:"outcome"`
	Clamped  bool                 `json:"clamped,omitempty"`
	State    *device.ControlState `json:"state,omitempty"`
}

// StreamMessage is one WebSocket frame of the state stream
type StreamMessage struct {
	Type      string `json:"type"`
	StreamID  string `json:"stream_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}
