package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/util"
)

// Scanner discovers and parses the Dart files of a package.
type Scanner struct {
	log     *slog.Logger
	workers int
}

// NewScanner creates a scanner. workers <= 0 selects the default pool size.
func NewScanner(logger *slog.Logger, workers int) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{log: logger, workers: util.GetOptimalPoolSizeWithOverride(workers)}
}

// Run discovers files under rootDir and converts each parsed file into a
// library. Files that fail to parse are recorded in the result and do not
// stop the scan.
func (s *Scanner) Run(ctx context.Context, rootDir string, cfg ScanConfig) (*ScanResult, error) {
	totalStart := time.Now()
	result := &ScanResult{}

	pkg := cfg.PackageName
	if pkg == "" {
		spec, err := ReadPubspec(rootDir)
		if err != nil {
			return nil, err
		}
		pkg = spec.Name
	}
	result.Package = pkg

	discoveryStart := time.Now()
	files, err := DiscoverFiles(rootDir, cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	result.Stats.FilesDiscovered = len(files)
	result.Stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()
	s.log.Info("discovery complete", "files", len(files), "package", pkg, "ms", result.Stats.DiscoveryTimeMs)

	parseStart := time.Now()
	libs, failed, err := s.parseAll(ctx, rootDir, pkg, files)
	if err != nil {
		return nil, err
	}
	result.Libraries = libs
	result.Failed = failed
	result.Stats.FilesParsed = len(libs)
	result.Stats.FilesFailed = len(failed)
	result.Stats.ParseTimeMs = time.Since(parseStart).Milliseconds()

	for _, lib := range libs {
		result.Stats.Classes += len(lib.Classes)
		result.Stats.Enums += len(lib.Enums)
		for _, cls := range lib.Classes {
			if isWidgetSupertype(cls.Supertype) {
				result.Stats.Widgets++
			}
		}
	}
	result.Stats.TotalTimeMs = time.Since(totalStart).Milliseconds()
	s.log.Info("scan complete",
		"parsed", result.Stats.FilesParsed, "failed", result.Stats.FilesFailed,
		"classes", result.Stats.Classes, "ms", result.Stats.TotalTimeMs)
	return result, nil
}

// ScanDir scans rootDir with a default-configured scanner and returns the
// result as a catalog named after the package.
func ScanDir(ctx context.Context, rootDir string, cfg ScanConfig, logger *slog.Logger) (*catalog.Catalog, *ScanResult, error) {
	result, err := NewScanner(logger, 0).Run(ctx, rootDir, cfg)
	if err != nil {
		return nil, nil, err
	}
	return BuildCatalog(result, "", ""), result, nil
}

// ScanFile parses a single file and returns its library.
func ScanFile(rootDir, pkg, path string) (catalog.Library, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return catalog.Library{}, err
	}
	unit, err := dart.Parse(string(source))
	if err != nil {
		return catalog.Library{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return LibraryFromUnit(unit, LibraryURI(rootDir, pkg, path)), nil
}

func (s *Scanner) parseAll(ctx context.Context, rootDir, pkg string, files []string) ([]catalog.Library, []FileError, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}
	numWorkers := min(s.workers, len(files))

	type parsed struct {
		index int
		lib   catalog.Library
		err   error
	}
	jobs := make(chan int, numWorkers*2)
	results := make(chan parsed, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				lib, err := ScanFile(rootDir, pkg, files[idx])
				results <- parsed{index: idx, lib: lib, err: err}
			}
		}()
	}

	go func() {
		defer func() {
			close(jobs)
			wg.Wait()
			close(results)
		}()
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	libs := make([]*catalog.Library, len(files))
	var failed []FileError
	for r := range results {
		if r.err != nil {
			s.log.Warn("parse failed", "file", files[r.index], "error", r.err)
			failed = append(failed, FileError{Path: files[r.index], Err: r.err})
			continue
		}
		lib := r.lib
		libs[r.index] = &lib
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	slices.SortFunc(failed, func(a, b FileError) int { return strings.Compare(a.Path, b.Path) })

	// Keep discovery order for deterministic catalogs.
	out := make([]catalog.Library, 0, len(files))
	for _, lib := range libs {
		if lib != nil {
			out = append(out, *lib)
		}
	}
	return out, failed, nil
}

// BuildCatalog wraps scanned libraries in a catalog.
func BuildCatalog(result *ScanResult, name, version string) *catalog.Catalog {
	if name == "" {
		name = result.Package
	}
	if version == "" {
		version = "0.0.0"
	}
	return &catalog.Catalog{
		Name:      name,
		Version:   version,
		Framework: "flutter",
		Source:    "scan",
		Libraries: result.Libraries,
	}
}

func isWidgetSupertype(name string) bool {
	switch name {
	case "StatelessWidget", "StatefulWidget", "InheritedWidget", "RenderObjectWidget",
		"SingleChildRenderObjectWidget", "MultiChildRenderObjectWidget", "ProxyWidget", "Widget":
		return true
	}
	return false
}
