package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/devicecontrols/pkg/api/types"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/device/schema"
)

// ControlsHandler handles catalog and action endpoints
type ControlsHandler struct {
	provider  device.Provider
	validator *schema.Validator
}

// NewControlsHandler creates a new controls handler
func NewControlsHandler(provider device.Provider, validator *schema.Validator) *ControlsHandler {
	return &ControlsHandler{provider: provider, validator: validator}
}

// ListControls handles GET /controls
// @Summary      List all controls
// @Description  Returns every control in the catalog, in catalog order
// @Tags         controls
// @Produce      json
// @Success      200  {object}  types.ListControlsResponse
// @Router       /controls [get]
func (h *ControlsHandler) ListControls(c *gin.Context) {
	controls := h.provider.ListAll(c.Request.Context())

	c.JSON(http.StatusOK, types.ListControlsResponse{
		Controls: controls,
		Count:    len(controls),
	})
}

// GetControl handles GET /controls/:id
// @Summary      Get control
// @Description  Returns a control descriptor together with its current state
// @Tags         controls
// @Produce      json
// @Param        id   path      string  true  "Control id"
// @Success      200  {object}  types.ControlResponse
// @Failure      404  {object}  types.ErrorResponse  "Control not found"
// @Router       /controls/{id} [get]
func (h *ControlsHandler) GetControl(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	desc, ok := h.find(c, id)
	if !ok {
		return
	}

	st, err := h.provider.State(ctx, id)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ControlResponse{
		Control: types.ControlWithState{Descriptor: desc, State: st},
	})
}

// PerformAction handles POST /controls/:id/actions
// @Summary      Perform an action
// @Description  Acknowledges the action, then applies it. The response is always "ok"; outcome reports whether state changed.
// @Tags         controls
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Control id"
// @Param        request  body      types.ActionRequest  true  "Action"
// @Success      202      {object}  types.ActionResponse
// @Failure      400      {object}  types.ErrorResponse  "Malformed action"
// @Router       /controls/{id}/actions [post]
func (h *ControlsHandler) PerformAction(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to read request body",
		})
		return
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.validator.ValidateEnvelope(body); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var action device.Action
	if err := json.Unmarshal(data, &action); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var ack device.Response
	res := h.provider.Perform(ctx, id, action, func(r device.Response) { ack = r })

	c.JSON(http.StatusAccepted, types.ActionResponse{
		Response: ack,
		Outcome:  res.Outcome,
		Clamped:  res.Clamped,
		State:    res.State,
	})
}

// find looks id up in the catalog and writes a 404 when it is missing.
func (h *ControlsHandler) find(c *gin.Context, id string) (device.Descriptor, bool) {
	for _, d := range h.provider.ListAll(c.Request.Context()) {
		if d.ID == id {
			return d, true
		}
	}
	c.JSON(http.StatusNotFound, types.ErrorResponse{
		Error:   "not_found",
		Message: "Control not found",
	})
	return device.Descriptor{}, false
}

func writeProviderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, device.ErrUnknownDevice):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Control not found",
		})
	case errors.Is(err, device.ErrStreamClosed):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "shutting_down",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "provider_error",
			Message: err.Error(),
		})
	}
}
