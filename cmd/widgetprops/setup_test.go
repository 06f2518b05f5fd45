package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeServers(t *testing.T, data []byte, key string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	servers, ok := doc[key].(map[string]any)
	require.True(t, ok, "missing %q", key)
	return servers
}

func TestMergeServerEntry(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		out, err := mergeServerEntry(nil, "mcpServers", nil)
		require.NoError(t, err)
		entry := decodeServers(t, out, "mcpServers")[serverName].(map[string]any)
		assert.Equal(t, "widgetprops", entry["command"])
		assert.Equal(t, []any{"serve"}, entry["args"])
	})

	t.Run("keeps other servers", func(t *testing.T) {
		out, err := mergeServerEntry([]byte(`{"mcpServers": {"other": {"command": "other"}}, "theme": "dark"}`), "mcpServers", nil)
		require.NoError(t, err)
		servers := decodeServers(t, out, "mcpServers")
		assert.Contains(t, servers, "other")
		assert.Contains(t, servers, serverName)
		assert.Contains(t, string(out), `"theme": "dark"`)
	})

	t.Run("already configured", func(t *testing.T) {
		out, err := mergeServerEntry([]byte(`{"mcpServers": {"widgetprops": {"command": "x"}}}`), "mcpServers", nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("extra fields", func(t *testing.T) {
		out, err := mergeServerEntry(nil, "servers", map[string]string{"type": "stdio"})
		require.NoError(t, err)
		entry := decodeServers(t, out, "servers")[serverName].(map[string]any)
		assert.Equal(t, "stdio", entry["type"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := mergeServerEntry([]byte(`{nope`), "mcpServers", nil)
		assert.Error(t, err)
	})
}

func TestPrompts(t *testing.T) {
	scan := func(in string) *bufio.Scanner { return bufio.NewScanner(strings.NewReader(in)) }
	var w bytes.Buffer

	assert.True(t, promptYesNo(scan("\n"), &w, "?"))
	assert.True(t, promptYesNo(scan("YES\n"), &w, "?"))
	assert.True(t, promptYesNo(scan(""), &w, "?"))
	assert.False(t, promptYesNo(scan("n\n"), &w, "?"))

	assert.Equal(t, "project", promptScope(scan("1\n"), &w, "Agent"))
	assert.Equal(t, "project", promptScope(scan("\n"), &w, "Agent"))
	assert.Equal(t, "user", promptScope(scan("2\n"), &w, "Agent"))
	assert.Equal(t, "", promptScope(scan("3\n"), &w, "Agent"))
	assert.Contains(t, w.String(), "Agent: add the widgetprops MCP server?")
}

// fakeSetup returns a setup that sees only the given binaries and paths.
func fakeSetup(in string, auto bool, binaries []string, paths []string) (*setup, *bytes.Buffer, *[][]string) {
	out := &bytes.Buffer{}
	var runs [][]string
	s := newSetup(strings.NewReader(in), out, auto)
	s.lookPath = func(name string) (string, error) {
		for _, b := range binaries {
			if b == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
	s.stat = func(name string) (os.FileInfo, error) {
		for _, p := range paths {
			if p == name {
				return nil, nil
			}
		}
		return nil, os.ErrNotExist
	}
	s.run = func(name string, args ...string) error {
		runs = append(runs, append([]string{name}, args...))
		return nil
	}
	return s, out, &runs
}

func TestDetect(t *testing.T) {
	s, _, _ := fakeSetup("", false, []string{"claude"}, nil)
	found := s.detect()
	require.Len(t, found, 1)
	assert.Equal(t, "claude_code", found[0].agent.id)

	s, _, _ = fakeSetup("", false, nil, []string{".vscode"})
	found = s.detect()
	require.Len(t, found, 1)
	assert.Equal(t, "vscode", found[0].agent.id)
	assert.Equal(t, filepath.Join(".vscode", "mcp.json"), found[0].configPath)

	s, _, _ = fakeSetup("", false, nil, []string{filepath.Dir(desktopConfigPath())})
	found = s.detect()
	require.Len(t, found, 1)
	assert.Equal(t, "claude_desktop", found[0].agent.id)

	s, _, _ = fakeSetup("", false, nil, nil)
	assert.Empty(t, s.detect())
}

func TestSetup_NoAgents(t *testing.T) {
	s, out, _ := fakeSetup("", false, nil, nil)
	s.Run()
	assert.Contains(t, out.String(), "No supported AI agents detected.")
}

func TestSetup_CLIAgentScope(t *testing.T) {
	s, out, runs := fakeSetup("y\n2\n", false, []string{"codex"}, nil)
	s.Run()
	require.Len(t, *runs, 1)
	assert.Equal(t, []string{"codex", "mcp", "add", "--scope", "user", "widgetprops", "--", "widgetprops", "serve"}, (*runs)[0])
	assert.Contains(t, out.String(), "OpenAI Codex configured (scope: user)")
}

func TestSetup_Declined(t *testing.T) {
	s, _, runs := fakeSetup("n\n", false, []string{"claude"}, nil)
	s.Run()
	assert.Empty(t, *runs)
}

func TestSetup_CLIAgentFailure(t *testing.T) {
	s, out, _ := fakeSetup("", true, []string{"claude"}, nil)
	s.run = func(string, ...string) error { return errors.New("exit status 1") }
	s.Run()
	assert.Contains(t, out.String(), "! Claude Code: failed: exit status 1")
}

func TestSetup_AutoWritesFileAgent(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(".vscode", 0755))

	s, out, _ := fakeSetup("", true, nil, nil)
	s.stat = os.Stat
	s.Run()

	data, err := os.ReadFile(filepath.Join(".vscode", "mcp.json"))
	require.NoError(t, err)
	entry := decodeServers(t, data, "servers")[serverName].(map[string]any)
	assert.Equal(t, "stdio", entry["type"])
	assert.Contains(t, out.String(), "VS Code configured")

	// A second run finds the entry.
	s, out, _ = fakeSetup("", true, nil, nil)
	s.stat = os.Stat
	s.Run()
	assert.Contains(t, out.String(), "VS Code (already configured)")
}

func TestWriteServerEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"other": {"command": "other"}}}`), 0644))

	a := agent{serversKey: "mcpServers"}
	require.NoError(t, writeServerEntry(a, path))
	require.NoError(t, writeServerEntry(a, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	servers := decodeServers(t, data, "mcpServers")
	assert.Len(t, servers, 2)
	assert.True(t, hasServer(path, "mcpServers"))
}
