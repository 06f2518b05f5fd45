package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const serverName = "widgetprops"

type agentKind int

const (
	// agentCLI is configured by running "<binary> mcp add".
	agentCLI agentKind = iota
	// agentFile is configured by editing a JSON file.
	agentFile
)

// agent describes one MCP client that setup knows how to configure.
type agent struct {
	id      string
	name    string
	kind    agentKind
	binary  string
	markers []string
	config  func() string
	// serversKey is the JSON object holding server entries.
	serversKey string
	scoped     bool
	extra      map[string]string
}

var agents = []agent{
	{id: "claude_code", name: "Claude Code", kind: agentCLI, binary: "claude", scoped: true},
	{id: "openai_codex", name: "OpenAI Codex", kind: agentCLI, binary: "codex", scoped: true},
	{
		id: "vscode", name: "VS Code", kind: agentFile,
		markers:    []string{".vscode"},
		config:     func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor", kind: agentFile,
		markers:    []string{".cursor"},
		config:     func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{id: "claude_desktop", name: "Claude Desktop", kind: agentFile, config: desktopConfigPath, serversKey: "mcpServers"},
}

func desktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// detection is an agent found on this machine.
type detection struct {
	agent      agent
	configPath string
	configured bool
}

// setup registers the MCP server with the agents it finds. The system
// hooks are fields so tests can fake them.
type setup struct {
	in   *bufio.Scanner
	out  io.Writer
	auto bool

	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	run      func(name string, args ...string) error
}

func newSetup(in io.Reader, out io.Writer, auto bool) *setup {
	return &setup{
		in:       bufio.NewScanner(in),
		out:      out,
		auto:     auto,
		lookPath: exec.LookPath,
		stat:     os.Stat,
		run: func(name string, args ...string) error {
			c := exec.Command(name, args...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c.Run()
		},
	}
}

func setupCmd() *cobra.Command {
	var auto bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with detected AI agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newSetup(cmd.InOrStdin(), cmd.OutOrStdout(), auto).Run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "configure every detected agent without prompting")
	return cmd
}

func (s *setup) detect() []detection {
	var found []detection
	for _, a := range agents {
		switch a.kind {
		case agentCLI:
			if _, err := s.lookPath(a.binary); err == nil {
				found = append(found, detection{agent: a, configured: hasServer(".mcp.json", "mcpServers")})
			}
		case agentFile:
			if path, ok := s.locate(a); ok {
				found = append(found, detection{agent: a, configPath: path, configured: hasServer(path, a.serversKey)})
			}
		}
	}
	return found
}

// locate reports the config path of a file agent that is present. An agent
// without markers is present when its config directory exists.
func (s *setup) locate(a agent) (string, bool) {
	if len(a.markers) == 0 {
		path := a.config()
		_, err := s.stat(filepath.Dir(path))
		return path, err == nil
	}
	for _, m := range a.markers {
		if _, err := s.stat(m); err == nil {
			return a.config(), true
		}
	}
	return "", false
}

func hasServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if json.Unmarshal(data, &doc) != nil {
		return false
	}
	servers, _ := doc[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

func serverEntry(extra map[string]string) map[string]any {
	entry := map[string]any{
		"command": serverName,
		"args":    []any{"serve"},
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry adds the server entry under serversKey of the JSON
// document in existing. It returns nil when the entry is already present.
func mergeServerEntry(existing []byte, serversKey string, extra map[string]string) ([]byte, error) {
	doc := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := doc[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, ok := servers[serverName]; ok {
		return nil, nil
	}
	servers[serverName] = serverEntry(extra)
	doc[serversKey] = servers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeServerEntry(a agent, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := mergeServerEntry(existing, a.serversKey, a.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(path, merged, 0644)
}

// Run detects agents and configures the ones the user accepts.
func (s *setup) Run() {
	found := s.detect()
	if len(found) == 0 {
		fmt.Fprintln(s.out, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(s.out, "Detected AI agents:")
	for _, d := range found {
		note := ""
		if d.configured {
			note = " (already configured)"
		}
		fmt.Fprintf(s.out, "  * %s%s\n", d.agent.name, note)
	}
	fmt.Fprintln(s.out)

	if !s.auto && !promptYesNo(s.in, s.out, "Configure agents? [Y/n]") {
		return
	}
	for _, d := range found {
		if d.configured {
			fmt.Fprintf(s.out, "\n%s: already configured, skipping\n", d.agent.name)
			continue
		}
		s.configure(d)
	}
}

func (s *setup) configure(d detection) {
	a := d.agent
	switch a.kind {
	case agentCLI:
		scope := "project"
		if !s.auto && a.scoped {
			if scope = promptScope(s.in, s.out, a.name); scope == "" {
				fmt.Fprintln(s.out, "  skipped")
				return
			}
		}
		args := []string{"mcp", "add", "--scope", scope, serverName, "--", serverName, "serve"}
		if err := s.run(a.binary, args...); err != nil {
			fmt.Fprintf(s.out, "  ! %s: failed: %v\n", a.name, err)
			return
		}
		fmt.Fprintf(s.out, "  + %s configured (scope: %s)\n", a.name, scope)

	case agentFile:
		if !s.auto && !promptYesNo(s.in, s.out, fmt.Sprintf("\n%s: add to %s? [Y/n]", a.name, d.configPath)) {
			fmt.Fprintln(s.out, "  skipped")
			return
		}
		if err := writeServerEntry(a, d.configPath); err != nil {
			fmt.Fprintf(s.out, "  ! %s: failed: %v\n", a.name, err)
			return
		}
		fmt.Fprintf(s.out, "  + %s configured (%s)\n", a.name, d.configPath)
	}
}

// promptYesNo reads a Y/n answer. Empty input and EOF mean yes.
func promptYesNo(sc *bufio.Scanner, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	if !sc.Scan() {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "", "y", "yes":
		return true
	}
	return false
}

// promptScope returns "project", "user" or "" to skip.
func promptScope(sc *bufio.Scanner, w io.Writer, name string) string {
	fmt.Fprintf(w, "\n%s: add the %s MCP server?\n", name, serverName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprint(w, "  > ")
	if !sc.Scan() {
		return "project"
	}
	switch strings.TrimSpace(sc.Text()) {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}
