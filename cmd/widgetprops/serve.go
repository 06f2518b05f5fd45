package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/widgetprops/pkg/mcp"
	"github.com/gnana997/widgetprops/pkg/mcplog"
	"github.com/gnana997/widgetprops/pkg/scanner"
	"github.com/gnana997/widgetprops/pkg/watcher"
)

func serveCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			if root == "" {
				if root, err = os.Getwd(); err != nil {
					return err
				}
			}
			a, err := newApp(cmd.Context(), cfg, root)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.Watch.Enabled {
				w, err := watcher.New(a.service, watcher.Options{
					Files:    scanner.DefaultScanConfig(),
					Debounce: cfg.Watch.Debounce(),
				}, a.log)
				if err != nil {
					return err
				}
				if err := w.Start(a.root); err != nil {
					a.log.Warn("file watching disabled", "error", err)
				} else {
					defer w.Stop()
				}
			}

			callLog, err := mcplog.NewLogger(cfg.MCP.LogPath)
			if err != nil {
				return err
			}
			if callLog != nil {
				defer callLog.Close()
			}

			a.log.Info("serving MCP on stdio", "root", a.root)
			return mcp.NewServer(a.service, a.query, callLog).ServeStdio()
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "package root to analyze (default: working directory)")
	return cmd
}
