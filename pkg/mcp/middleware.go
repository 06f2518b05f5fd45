package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/widgetprops/pkg/mcplog"
)

// loggingMiddleware records every tool call through the server's logger.
// Only installed when the logger is non-nil.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)

			var errStr *string
			if err != nil {
				msg := err.Error()
				errStr = &msg
			}
			_ = s.logger.Write(mcplog.LogEntry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    time.Since(start).Milliseconds(),
				ResponseBytes: mcplog.ResponseBytes(result),
				ErrorCode:     mcplog.ErrorCode(result),
				Error:         errStr,
			})

			return result, err
		}
	}
}
