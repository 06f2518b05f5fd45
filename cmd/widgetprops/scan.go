package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gnana997/widgetprops/pkg/scanner"
	"github.com/gnana997/widgetprops/pkg/util"
)

func scanCmd() *cobra.Command {
	var (
		output, name string
		asYAML       bool
		workers      int
		include      []string
		exclude      []string
	)

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Build a catalog from the Dart sources of a package",
		Long: `Scan the Dart files of the package at DIR and write the classes, enums and
constructors found as a catalog usable with catalog_path.

Examples:
  widgetprops scan . -o widgets.json
  widgetprops scan --yaml --exclude 'lib/generated/**' ../design_system`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config()
			if err != nil {
				return err
			}
			logCfg, err := util.ParseLoggerConfig(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			logger := util.NewLogger(logCfg)

			scanCfg := scanner.DefaultScanConfig()
			if len(include) > 0 {
				scanCfg.Include = include
			}
			scanCfg.Exclude = append(scanCfg.Exclude, exclude...)

			result, err := scanner.NewScanner(logger, workers).Run(cmd.Context(), args[0], scanCfg)
			if err != nil {
				return err
			}
			cat := scanner.BuildCatalog(result, name, "")
			if errs := cat.Validate(); len(errs) > 0 {
				for _, e := range errs {
					logger.Warn("catalog validation", "error", e)
				}
			}
			data, err := cat.Encode(asYAML)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printScanStats(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&name, "name", "", "catalog name (default: package name)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write YAML instead of JSON")
	cmd.Flags().IntVar(&workers, "workers", 0, "parser workers (default: number of CPUs)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "include globs (default: **/*.dart)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "additional exclude globs")
	return cmd
}

func printScanStats(cmd *cobra.Command, result *scanner.ScanResult) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Package", "Files", "Failed", "Classes", "Widgets", "Enums", "Time"})
	s := result.Stats
	tbl.AppendRow(table.Row{result.Package, s.FilesParsed, s.FilesFailed, s.Classes, s.Widgets, s.Enums, fmt.Sprintf("%dms", s.TotalTimeMs)})
	tbl.Render()
	for _, f := range result.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", f.Path, f.Err)
	}
}
