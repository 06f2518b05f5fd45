// Package mcplog writes one JSONL line per MCP tool call.
package mcplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// LogEntry is one logged tool call.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	// ErrorCode is the protocol code of a failed request, if any.
	ErrorCode string  `json:"error_code,omitempty"`
	Error     *string `json:"error"`
}

// Logger appends entries to a file. It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewLogger opens path for appending, creating parent directories. An empty
// path returns a nil Logger, which callers treat as disabled.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Write appends entry.
func (l *Logger) Write(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

const shortStringMax = 64

// SanitizeParams returns a copy of args safe for logging. Long strings such as
// unsaved file content are replaced by a "{key}_len" entry, and a property
// value object by the names of its populated fields under "{key}_kind".
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch v := v.(type) {
		case string:
			if len(v) > shortStringMax {
				out[k+"_len"] = len(v)
				continue
			}
			out[k] = v
		case map[string]any:
			kinds := make([]string, 0, len(v))
			for field := range v {
				kinds = append(kinds, field)
			}
			sort.Strings(kinds)
			out[k+"_kind"] = strings.Join(kinds, ",")
		default:
			out[k] = v
		}
	}
	return out
}

// ResponseBytes returns the serialized length of the result content, or 0.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// ErrorCode extracts the protocol error code from an error result whose
// text is a JSON request error. It returns "" otherwise.
func ErrorCode(result *mcp.CallToolResult) string {
	if result == nil || !result.IsError || len(result.Content) == 0 {
		return ""
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		return ""
	}
	return payload.Code
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }
