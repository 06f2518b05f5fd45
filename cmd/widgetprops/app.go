package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/widgetprops/catalogs"
	"github.com/gnana997/widgetprops/pkg/analysis"
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/parser"
	"github.com/gnana997/widgetprops/pkg/scanner"
	"github.com/gnana997/widgetprops/pkg/util"
	"github.com/gnana997/widgetprops/pkg/widgets"
)

// app wires the components used by the commands for one package.
type app struct {
	cfg     *Config
	log     *slog.Logger
	root    string
	query   *catalog.QueryService
	files   util.FileCache
	parsers *parser.ParserManager
	service *widgets.Service
}

// newApp prepares analysis of the package containing path.
func newApp(ctx context.Context, cfg *Config, path string) (*app, error) {
	logCfg, err := util.ParseLoggerConfig(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logger := util.NewLogger(logCfg)
	util.SetDefault(logger)

	root := findPackageRoot(path)
	spec, err := scanner.ReadPubspec(root)
	if err != nil {
		return nil, err
	}

	query, err := loadCatalog(ctx, cfg, root, logger)
	if err != nil {
		return nil, err
	}

	files := util.NewFileCache(&util.FileCacheConfig{
		MaxFiles:      cfg.Cache.MaxFiles,
		MaxMemoryMB:   cfg.Cache.MaxMemoryMB,
		EnableMetrics: true,
		Logger:        logger,
	})
	parsers := parser.NewParserManager(logger)
	session := analysis.NewSession(query, files, analysis.Config{RootDir: root, Package: spec.Name}, logger)

	service, err := widgets.NewService(session, widgets.Config{
		MaxProperties: cfg.Cache.MaxProperties,
		MaxDepth:      cfg.Edits.MaxDepth,
		Format:        cfg.Edits.Format,
		Verify:        cfg.Edits.Verify,
	}, widgets.Options{Files: files, Verifier: parsers, Logger: logger})
	if err != nil {
		_ = files.Close()
		_ = parsers.Close()
		return nil, err
	}

	logger.Debug("package ready", "root", root, "package", spec.Name, "flutter", spec.DependsOnFlutter())
	return &app{
		cfg:     cfg,
		log:     logger,
		root:    root,
		query:   query,
		files:   files,
		parsers: parsers,
		service: service,
	}, nil
}

func (a *app) Close() error {
	ferr := a.files.Close()
	perr := a.parsers.Close()
	if ferr != nil {
		return ferr
	}
	return perr
}

// loadCatalog loads the configured or bundled catalog and, when enabled,
// merges in the libraries of the package at root.
func loadCatalog(ctx context.Context, cfg *Config, root string, logger *slog.Logger) (*catalog.QueryService, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.CatalogPath != "" {
		cat, _, err = catalog.LoadFromFile(cfg.CatalogPath)
	} else {
		cat, _, err = catalog.LoadFromBytes(catalogs.FlutterJSON)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if cfg.ScanProject {
		if _, statErr := os.Stat(filepath.Join(root, "pubspec.yaml")); statErr == nil {
			result, err := scanner.NewScanner(logger, 0).Run(ctx, root, scanner.DefaultScanConfig())
			if err != nil {
				return nil, fmt.Errorf("failed to scan package: %w", err)
			}
			for _, f := range result.Failed {
				logger.Warn("skipping unparsable file", "file", f.Path, "error", f.Err)
			}
			cat.Merge(result.Libraries...)
		}
	}
	return catalog.NewQueryService(cat, cat.BuildIndex()), nil
}

// findPackageRoot returns the nearest directory at or above path holding a
// pubspec.yaml, or the directory of path when there is none.
func findPackageRoot(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	start := abs
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		start = filepath.Dir(abs)
	}
	for dir := start; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "pubspec.yaml")); err == nil {
			return dir
		}
		if parent := filepath.Dir(dir); parent == dir {
			return start
		}
	}
}
