package mcp

import "github.com/urmzd/devicecontrols/pkg/device"

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status       string `json:"status" jsonschema:"description=Overall health status"`
	Controls     int    `json:"controls" jsonschema:"description=Number of controls in the catalog"`
	ActiveStream string `json:"active_stream,omitempty" jsonschema:"description=Id of the open state stream"`
	Timestamp    string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// ListControlsOutput is the output for the list_controls tool
type ListControlsOutput struct {
	Controls []ControlInfo `json:"controls" jsonschema:"description=Available controls"`
	Count    int           `json:"count" jsonschema:"description=Total number of controls"`
}

// ControlInfo represents a control in tool outputs
type ControlInfo struct {
	ID       string        `json:"id" jsonschema:"description=Control id"`
	Title    string        `json:"title" jsonschema:"description=Display title"`
	Subtitle string        `json:"subtitle,omitempty" jsonschema:"description=Display subtitle"`
	Kind     string        `json:"kind" jsonschema:"description=toggle or range"`
	Type     string        `json:"type" jsonschema:"description=Device category"`
	Range    *device.Range `json:"range,omitempty" jsonschema:"description=Bounds of a range control"`
}

// GetControlStateOutput is the output for the get_control_state tool
type GetControlStateOutput struct {
	State device.ControlState `json:"state" jsonschema:"description=Current snapshot"`
}

// OpenControlsOutput is the output for the open_controls tool
type OpenControlsOutput struct {
	StreamID string                `json:"stream_id" jsonschema:"description=Id of the stream that was opened"`
	States   []device.ControlState `json:"states" jsonschema:"description=Initial snapshot per control"`
}

// ActionOutput is the output for perform_action, toggle and set_level
type ActionOutput struct {
	Response device.Response      `json:"response" jsonschema:"description=Acknowledgement, always ok"`
	Outcome  device.Outcome       `json:"outcome" jsonschema:"description=applied, unknown_device or kind_mismatch"`
	Clamped  bool                 `json:"clamped,omitempty" jsonschema:"description=Level was clamped to the range bounds"`
	State    *device.ControlState `json:"state,omitempty" jsonschema:"description=New state when applied"`
}

// DescriptorToInfo converts a device.Descriptor to ControlInfo
func DescriptorToInfo(d device.Descriptor) ControlInfo {
	return ControlInfo{
		ID:       d.ID,
		Title:    d.Title,
		Subtitle: d.Subtitle,
		Kind:     string(d.Kind),
		Type:     d.Type,
		Range:    d.Range,
	}
}
