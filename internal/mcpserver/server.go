// Package mcpserver exposes the Stable Fast 3D tools over the Model Context
// Protocol. Each tool invocation is a single linear pipeline: normalize
// input, validate parameters, call the API, translate the response. No state
// is shared between invocations besides the read-only API client.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/raine/stable-fast-3d-mcp/internal/stability"
)

const (
	ServerName = "Stable Fast 3D"
	Version    = "1.0.0"
)

type Server struct {
	mcp    *server.MCPServer
	client *stability.Client
}

// New builds the MCP server with the three tools and the API info resource
// registered. The client carries the API key; a missing key is surfaced on
// first tool use, not here.
func New(client *stability.Client) *Server {
	s := &Server{client: client}

	m := server.NewMCPServer(ServerName, Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)
	m.AddTool(generateModelTool(), s.handleGenerateModel)
	m.AddTool(generateModelFromBase64Tool(), s.handleGenerateModelFromBase64)
	m.AddTool(checkBalanceTool(), s.handleCheckBalance)
	m.AddResource(apiInfoResource(), handleAPIInfo)

	s.mcp = m
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
