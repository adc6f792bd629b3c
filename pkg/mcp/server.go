package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/device/schema"
)

// Server exposes the controls provider as MCP tools
type Server struct {
	mcpServer *server.MCPServer
	provider  device.Provider
	validator *schema.Validator
}

// NewServer creates a new MCP server for the given provider
func NewServer(provider device.Provider, validator *schema.Validator) *Server {
	s := &Server{
		provider:  provider,
		validator: validator,
	}

	s.mcpServer = server.NewMCPServer(
		"device-controls",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
