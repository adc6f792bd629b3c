package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/devicecontrols/pkg/device"
)

// seedTimeout bounds how long open_controls waits for the initial snapshots.
const seedTimeout = 2 * time.Second

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:    "healthy",
		Controls:  len(s.provider.ListAll(ctx)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if id, ok := s.provider.ActiveStream(); ok {
		out.ActiveStream = id
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListControls(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	descs := s.provider.ListAll(ctx)

	infos := make([]ControlInfo, 0, len(descs))
	for _, d := range descs {
		infos = append(infos, DescriptorToInfo(d))
	}

	out := ListControlsOutput{
		Controls: infos,
		Count:    len(infos),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetControlState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st, err := s.provider.State(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get control state: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(GetControlStateOutput{State: st})), nil
}

func (s *Server) handleOpenControls(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := requiredStrings(request, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stream, err := s.provider.Open(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open controls: %s", err)), nil
	}
	// A tool call cannot hold a stream open; hand back the seed and release it.
	defer stream.Close()

	out := OpenControlsOutput{
		StreamID: stream.ID(),
		States:   make([]device.ControlState, 0, len(stream.Devices())),
	}

	timeout := time.NewTimer(seedTimeout)
	defer timeout.Stop()

	for range stream.Devices() {
		select {
		case st, ok := <-stream.C():
			if !ok {
				return mcp.NewToolResultError("stream closed before initial state was read"), nil
			}
			out.States = append(out.States, st)
		case <-timeout.C:
			return mcp.NewToolResultError("timed out waiting for initial state"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handlePerformAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actionType, err := requiredString(request, "type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	payload := map[string]any{"type": actionType}
	switch device.ActionType(actionType) {
	case device.ActionBoolean:
		payload["value"] = args["on"]
	case device.ActionFloat:
		payload["value"] = args["level"]
	}

	return s.perform(ctx, id, "", payload)
}

func (s *Server) handleToggle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.perform(ctx, id, device.KindToggle, map[string]any{
		"type":  string(device.ActionBoolean),
		"value": request.GetArguments()["on"],
	})
}

func (s *Server) handleSetLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.perform(ctx, id, device.KindRange, map[string]any{
		"type":  string(device.ActionFloat),
		"value": request.GetArguments()["level"],
	})
}

// perform type-checks payload, then hands the action to the provider.
// An empty kind accepts either action variant.
func (s *Server) perform(ctx context.Context, id string, kind device.ControlKind, payload map[string]any) (*mcp.CallToolResult, error) {
	if s.validator != nil {
		var err error
		if kind == "" {
			err = s.validator.ValidateEnvelope(payload)
		} else {
			err = s.validator.ValidateAction(kind, payload)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid action: %s", err)), nil
	}
	var action device.Action
	if err := json.Unmarshal(raw, &action); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var ack device.Response
	res := s.provider.Perform(ctx, id, action, func(r device.Response) { ack = r })

	out := ActionOutput{
		Response: ack,
		Outcome:  res.Outcome,
		Clamped:  res.Clamped,
		State:    res.State,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func requiredStrings(request mcp.CallToolRequest, key string) ([]string, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("required parameter %q is missing", key)
	}

	var out []string
	switch list := v.(type) {
	case []string:
		out = list
	case []any:
		for _, item := range list {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("parameter %q must contain non-empty strings", key)
			}
			out = append(out, s)
		}
	default:
		return nil, fmt.Errorf("parameter %q must be an array of strings", key)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("parameter %q must not be empty", key)
	}
	return out, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
