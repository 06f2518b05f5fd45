// Package analysis resolves parsed Dart files against a widget catalog.
//
// Resolution binds every constructor call to its catalog constructor, every
// argument to the parameter it supplies, and every `Enum.value` access to its
// enum constant. Classes declared in the file itself are resolved first, then
// the libraries it imports (honouring prefixes and show/hide combinators).
package analysis

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/scanner"
	"github.com/gnana997/widgetprops/pkg/util"
)

// Config locates the package the analyzed files belong to.
type Config struct {
	// RootDir is the package root holding pubspec.yaml. Files under
	// RootDir/lib get package: URIs.
	RootDir string
	// Package is the package name from pubspec.yaml.
	Package string
}

// Session resolves files against one catalog.
type Session struct {
	query *catalog.QueryService
	files util.FileCache
	cfg   Config
	log   *slog.Logger
}

// NewSession creates a session. files may be nil, in which case sources are
// read directly from disk.
func NewSession(query *catalog.QueryService, files util.FileCache, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{query: query, files: files, cfg: cfg, log: logger}
}

// Query returns the catalog query service.
func (s *Session) Query() *catalog.QueryService { return s.query }

// LookupClass returns the class name visible through library uri.
func (s *Session) LookupClass(uri, name string) (*catalog.Class, bool) {
	return s.query.LookupClass(uri, name)
}

// LookupEnum returns the enum name visible through library uri.
func (s *Session) LookupEnum(uri, name string) (*catalog.Enum, bool) {
	return s.query.LookupEnum(uri, name)
}

// LibraryURI returns the URI under which path is imported.
func (s *Session) LibraryURI(path string) string {
	return scanner.LibraryURI(s.cfg.RootDir, s.cfg.Package, path)
}

// ResolveFile reads, parses and resolves the file at path.
func (s *Session) ResolveFile(path string) (*ResolvedUnit, error) {
	content, err := s.readSource(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.ResolveSource(path, content)
}

func (s *Session) readSource(path string) (string, error) {
	if s.files != nil {
		return s.files.ReadSource(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ResolveSource parses and resolves content as the file at path.
func (s *Session) ResolveSource(path, content string) (*ResolvedUnit, error) {
	unit, err := dart.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	uri := s.LibraryURI(path)

	local := &catalog.Catalog{
		Name:      uri,
		Version:   "0.0.0",
		Libraries: []catalog.Library{scanner.LibraryFromUnit(unit, uri)},
	}
	ru := &ResolvedUnit{
		Session: s,
		Path:    path,
		URI:     uri,
		Content: content,
		Unit:    unit,
		local:   local.BuildIndex(),
	}
	for _, d := range unit.Directives {
		if !d.Export {
			ru.imports = append(ru.imports, importScope{directive: d, uri: catalog.ResolveURI(uri, d.URI)})
		}
	}
	ru.resolve()
	s.log.Debug("resolved unit", "path", path, "uri", uri, "imports", len(ru.imports))
	return ru, nil
}
