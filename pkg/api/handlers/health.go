package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/devicecontrols/pkg/api/types"
	"github.com/urmzd/devicecontrols/pkg/device"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	provider device.Provider
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(provider device.Provider) *HealthHandler {
	return &HealthHandler{provider: provider}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the number of controls and the active stream, if any
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:    "healthy",
		Controls:  len(h.provider.ListAll(c.Request.Context())),
		Timestamp: time.Now(),
	}
	if id, ok := h.provider.ActiveStream(); ok {
		resp.ActiveStream = id
	}

	c.JSON(http.StatusOK, resp)
}
