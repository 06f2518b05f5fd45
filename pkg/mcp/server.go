// Package mcp exposes widget descriptions and property edits as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/mcplog"
	"github.com/gnana997/widgetprops/pkg/widgets"
)

const (
	serverName    = "widgetprops"
	serverVersion = "0.1.0-dev"
)

// Server implements the MCP server for widgetprops.
type Server struct {
	mcpServer *server.MCPServer
	widgets   *widgets.Service
	query     *catalog.QueryService
	logger    *mcplog.Logger // nil disables tool-call logging
}

// NewServer creates an MCP server backed by svc for file requests and qs for
// catalog documentation. logger may be nil.
func NewServer(svc *widgets.Service, qs *catalog.QueryService, logger *mcplog.Logger) *Server {
	s := &Server{widgets: svc, query: qs, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer(serverName, serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: describeWidgetTool(), Handler: s.handleDescribeWidget},
		server.ServerTool{Tool: setPropertyValueTool(), Handler: s.handleSetPropertyValue},
		server.ServerTool{Tool: listWidgetsTool(), Handler: s.handleListWidgets},
		server.ServerTool{Tool: searchWidgetsTool(), Handler: s.handleSearchWidgets},
		server.ServerTool{Tool: getWidgetDocsTool(), Handler: s.handleGetWidgetDocs},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
