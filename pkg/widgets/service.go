// Package widgets serves widget descriptions and property edits.
//
// A Service resolves files, builds property trees for the widget at a
// location and remembers every property id it handed out, so that a later
// edit request can be answered from the id alone. Ids are kept in an LRU
// registry; trees of a file are dropped once an edit to that file has been
// produced or the file changes on disk.
package widgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/widgetprops/pkg/analysis"
	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/format"
	"github.com/gnana997/widgetprops/pkg/properties"
	"github.com/gnana997/widgetprops/pkg/protocol"
	"github.com/gnana997/widgetprops/pkg/util"
)

var (
	// ErrInvalidID is returned for a property id that is unknown or whose
	// tree has been invalidated.
	ErrInvalidID = errors.New("invalid property id")
	// ErrPropertyRequired is returned when removing a required property.
	ErrPropertyRequired = errors.New("property is required")
	// ErrInvalidExpression is returned for an expression value that does not
	// parse.
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrFileNotAnalyzed is returned when a file cannot be read or parsed.
	ErrFileNotAnalyzed = errors.New("file not analyzed")
)

// Verifier checks edited source for syntax errors.
type Verifier interface {
	Verify(ctx context.Context, source []byte, filePath string) error
}

// Config holds the tunables of a Service.
type Config struct {
	// MaxProperties bounds the number of property ids remembered.
	MaxProperties int
	// MaxDepth bounds nested property expansion.
	MaxDepth int
	// Format lays out the edited function body.
	Format bool
	// Verify re-parses edited source with the Verifier.
	Verify bool
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		MaxProperties: 10000,
		MaxDepth:      4,
		Format:        true,
		Verify:        true,
	}
}

// Options carries the optional collaborators of a Service.
type Options struct {
	// Files is invalidated together with the trees of a file.
	Files    util.FileCache
	Verifier Verifier
	Logger   *slog.Logger
}

// Service answers description and edit requests. It is safe for concurrent
// use; requests are serialized.
type Service struct {
	session  *analysis.Session
	cfg      Config
	files    util.FileCache
	verifier Verifier
	log      *slog.Logger

	mu       sync.Mutex
	ids      *properties.IDGenerator
	registry *lru.Cache[int, *properties.Tree]
	byFile   map[string][]*properties.Tree
	// live counts the registered ids of each tree.
	live map[*properties.Tree]int
}

// NewService creates a service resolving files through session.
func NewService(session *analysis.Session, cfg Config, opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if cfg.MaxProperties <= 0 {
		cfg.MaxProperties = DefaultConfig().MaxProperties
	}
	s := &Service{
		session:  session,
		cfg:      cfg,
		files:    opts.Files,
		verifier: opts.Verifier,
		log:      opts.Logger,
		ids:      properties.NewIDGenerator(0),
		byFile:   make(map[string][]*properties.Tree),
		live:     make(map[*properties.Tree]int),
	}
	registry, err := lru.NewWithEvict[int, *properties.Tree](cfg.MaxProperties, s.evicted)
	if err != nil {
		return nil, fmt.Errorf("failed to create property registry: %w", err)
	}
	s.registry = registry
	return s, nil
}

// GetDescription describes the innermost widget creation covering offset in
// the file at path.
func (s *Service) GetDescription(ctx context.Context, path string, offset int) (*protocol.WidgetDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit, err := s.session.ResolveFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotAnalyzed, err)
	}
	return s.describe(unit, offset)
}

// DescribeSource is GetDescription for unsaved content of the file at path.
func (s *Service) DescribeSource(ctx context.Context, path, content string, offset int) (*protocol.WidgetDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit, err := s.session.ResolveSource(path, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotAnalyzed, err)
	}
	return s.describe(unit, offset)
}

func (s *Service) describe(unit *analysis.ResolvedUnit, offset int) (*protocol.WidgetDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := properties.Build(unit, offset, s.ids, s.treeOptions())
	if err != nil {
		return nil, err
	}
	s.register(tree)

	widget := tree.Widget()
	s.log.Debug("described widget",
		"file", unit.Path,
		"widget", tree.WidgetName(),
		"properties", len(tree.IDs()))
	return &protocol.WidgetDescription{
		File:       unit.Path,
		Offset:     widget.Offset(),
		Length:     widget.End() - widget.Offset(),
		Widget:     tree.WidgetName(),
		Properties: tree.Properties(),
	}, nil
}

func (s *Service) treeOptions() properties.Options {
	opts := properties.Options{MaxDepth: s.cfg.MaxDepth, Logger: s.log}
	if s.cfg.Format {
		opts.Formatter = format.New()
	}
	return opts
}

func (s *Service) register(tree *properties.Tree) {
	ids := tree.IDs()
	if len(ids) == 0 {
		return
	}
	path := tree.Unit().Path
	s.byFile[path] = append(s.byFile[path], tree)
	s.live[tree] = len(ids)
	for _, id := range ids {
		s.registry.Add(id, tree)
	}
}

// evicted is called by the registry, with s.mu held, for every id that
// leaves it. A tree is forgotten once its last id is gone.
func (s *Service) evicted(_ int, tree *properties.Tree) {
	if s.live[tree]--; s.live[tree] > 0 {
		return
	}
	delete(s.live, tree)
	path := tree.Unit().Path
	trees := slices.DeleteFunc(s.byFile[path], func(t *properties.Tree) bool { return t == tree })
	if len(trees) == 0 {
		delete(s.byFile, path)
		return
	}
	s.byFile[path] = trees
}

// SetPropertyValue returns the change that sets property id to value. A nil
// or empty value removes the property's argument.
//
// Once a non-empty change is returned every id of the same file becomes
// invalid; the client describes the widget again after applying the change.
func (s *Service) SetPropertyValue(ctx context.Context, id int, value *protocol.FlutterWidgetPropertyValue) (*change.SourceChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	prop, ok := tree.Property(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	var (
		sc  *change.SourceChange
		err error
	)
	if value.IsEmpty() {
		if prop.IsRequired {
			return nil, fmt.Errorf("%w: %s", ErrPropertyRequired, prop.Name)
		}
		sc, err = tree.RemoveValue(ctx, id)
	} else {
		if value.Expression != nil {
			if _, perr := dart.ParseExpression(*value.Expression); perr != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, perr)
			}
		}
		sc, err = tree.ChangeValue(ctx, id, value)
	}
	if err != nil {
		return nil, err
	}

	if !sc.IsEmpty() {
		path := tree.Unit().Path
		s.verify(ctx, tree, sc)
		s.invalidateLocked(path)
		s.log.Info("property edited", "file", path, "property", prop.Name, "message", sc.Message)
	}
	return sc, nil
}

// verify re-parses the edited file. Failures are logged, never returned.
func (s *Service) verify(ctx context.Context, tree *properties.Tree, sc *change.SourceChange) {
	if !s.cfg.Verify || s.verifier == nil {
		return
	}
	unit := tree.Unit()
	updated, err := sc.Apply(unit.Path, unit.Content)
	if err != nil {
		s.log.Warn("edit does not apply to analyzed content", "file", unit.Path, "error", err)
		return
	}
	if err := s.verifier.Verify(ctx, []byte(updated), unit.Path); err != nil {
		s.log.Warn("edited source has syntax errors", "file", unit.Path, "error", err)
	}
}

// InvalidateFile forgets every tree built from path and drops the file from
// the file cache.
func (s *Service) InvalidateFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(path)
	if s.files != nil {
		s.files.Invalidate(path)
	}
}

func (s *Service) invalidateLocked(path string) {
	trees := s.byFile[path]
	delete(s.byFile, path)
	for _, tree := range trees {
		for _, id := range tree.IDs() {
			s.registry.Remove(id)
		}
	}
	if len(trees) > 0 {
		s.log.Debug("invalidated property trees", "file", path, "trees", len(trees))
	}
}

// FileChanged and FileRemoved let a Service be driven by a file watcher.
func (s *Service) FileChanged(path string) { s.InvalidateFile(path) }
func (s *Service) FileRemoved(path string) { s.InvalidateFile(path) }

// WidgetLocation is one widget creation found in a file.
type WidgetLocation struct {
	Widget string `json:"widget"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Line   int    `json:"line"`
}

// ListWidgets returns the widget creations of the file at path in source
// order.
func (s *Service) ListWidgets(ctx context.Context, path string) ([]WidgetLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit, err := s.session.ResolveFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotAnalyzed, err)
	}
	var out []WidgetLocation
	dart.Inspect(unit.Unit, func(n dart.Node) bool {
		inv, ok := n.(*dart.Invocation)
		if ok && inv.IsInstanceCreation() && unit.IsWidget(inv.Constructor.Class) {
			out = append(out, WidgetLocation{
				Widget: inv.Constructor.QualifiedName(),
				Offset: inv.Offset(),
				Length: inv.End() - inv.Offset(),
				Line:   strings.Count(unit.Content[:inv.Offset()], "\n") + 1,
			})
		}
		return true
	})
	return out, nil
}

// Stats reports registry usage.
func (s *Service) Stats() ServiceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	trees := 0
	for _, ts := range s.byFile {
		trees += len(ts)
	}
	return ServiceStats{Properties: s.registry.Len(), Trees: trees, Files: len(s.byFile)}
}

// ServiceStats contains registry statistics.
type ServiceStats struct {
	Properties int
	Trees      int
	Files      int
}
