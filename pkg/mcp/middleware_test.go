package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/widgetprops/pkg/mcplog"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

func TestLoggingMiddleware(t *testing.T) {
	s, path := testServer(t)
	logPath := filepath.Join(t.TempDir(), "calls.jsonl")
	logger, err := mcplog.NewLogger(logPath)
	require.NoError(t, err)
	s.logger = logger

	handler := s.loggingMiddleware()(s.handleSetPropertyValue)
	result, err := handler(context.Background(), makeRequest("set_property_value", map[string]any{
		"id":    float64(12345),
		"value": map[string]any{"doubleValue": 1.5},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	handler = s.loggingMiddleware()(s.handleListWidgets)
	_, err = handler(context.Background(), makeRequest("list_widgets", map[string]any{"file": path}))
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second mcplog.LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "set_property_value", first.Tool)
	assert.Equal(t, string(protocol.CodeSetWidgetPropertyValueInvalidID), first.ErrorCode)
	assert.Equal(t, "doubleValue", first.Params["value_kind"])

	assert.Equal(t, "list_widgets", second.Tool)
	assert.Empty(t, second.ErrorCode)
	assert.Positive(t, second.ResponseBytes)
}
