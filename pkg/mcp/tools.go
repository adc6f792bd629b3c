package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Report how many controls are available and whether a state stream is open"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_controls",
			mcp.WithDescription("List every available control (toggle or range) with its title and bounds"),
		),
		s.handleListControls,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_control_state",
			mcp.WithDescription("Get the current state of a control"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Control id"),
			),
		),
		s.handleGetControlState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("open_controls",
			mcp.WithDescription("Open a state stream for the given controls and return the initial snapshot of each. Supersedes any open stream."),
			mcp.WithArray("ids",
				mcp.Required(),
				mcp.Description("Control ids to open"),
				mcp.WithStringItems(),
			),
		),
		s.handleOpenControls,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("perform_action",
			mcp.WithDescription("Send an action to a control. type is \"boolean\" for toggles and \"float\" for ranges. The action is always acknowledged; outcome says whether it was applied."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Control id"),
			),
			mcp.WithString("type",
				mcp.Required(),
				mcp.Description("Action type"),
				mcp.Enum("boolean", "float"),
			),
			mcp.WithBoolean("on",
				mcp.Description("Value for a boolean action"),
			),
			mcp.WithNumber("level",
				mcp.Description("Value for a float action"),
			),
		),
		s.handlePerformAction,
	)

	// Convenience wrappers
	s.mcpServer.AddTool(
		mcp.NewTool("toggle",
			mcp.WithDescription("Switch a toggle control on or off"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Control id"),
			),
			mcp.WithBoolean("on",
				mcp.Required(),
				mcp.Description("Target state"),
			),
		),
		s.handleToggle,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_level",
			mcp.WithDescription("Set a range control; values outside its bounds are clamped"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Control id"),
			),
			mcp.WithNumber("level",
				mcp.Required(),
				mcp.Description("Target level"),
			),
		),
		s.handleSetLevel,
	)
}
