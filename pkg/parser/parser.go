// Package parser wraps tree-sitter parsers for the languages widgetprops
// reads. It is used to check that edited sources still parse before they are
// handed back to clients.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/dart"
	ts "github.com/tree-sitter/go-tree-sitter"
)

// ErrSyntax is matched by errors returned from Verify for sources whose
// parse tree contains errors.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first error in a parse tree.
type SyntaxError struct {
	// Line and Column are zero-based.
	Line   int
	Column int
	Offset int
	// Kind is the node kind, "ERROR" or the kind of a missing token.
	Kind string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d near %s", e.Line+1, e.Column+1, e.Kind)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// ParserManager manages tree-sitter parsers with lazy initialization and
// thread-safe concurrent access.
//
// Memory Management:
// - Parser pools are created lazily on first use per language
// - ParserManager owns parser pool instances and must be closed via Close()
// - Callers own Tree instances and must call tree.Close() after use
//
// Example:
//
//	manager := NewParserManager(logger)
//	defer manager.Close()
//
//	if err := manager.Verify(ctx, source, "lib/main.dart"); err != nil {
//	    return err
//	}
type ParserManager struct {
	pools map[Language]*parserPool

	// mutex provides thread-safe access to pools map and stats
	mutex sync.RWMutex

	logger *slog.Logger

	stats struct {
		parsesCalled int
	}
}

// NewParserManager creates a new ParserManager instance.
//
// The returned manager must be closed via Close() to free resources.
func NewParserManager(logger *slog.Logger) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &ParserManager{
		pools:  make(map[Language]*parserPool),
		logger: logger,
	}
}

// Parse parses source code using the specified language grammar.
//
// Returns a Tree that MUST be closed by the caller via tree.Close(). Trees
// with syntax errors are returned as well; use Verify to reject them.
//
// Thread Safety:
// - Safe for concurrent use from multiple goroutines
// - Uses a parser pool to allow true concurrent parsing
func (pm *ParserManager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pm.mutex.Lock()
	pm.stats.parsesCalled++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}
	return tree, nil
}

// ParseFile parses source with the grammar matching filePath's extension.
//
// Returns a Tree that MUST be closed by the caller via tree.Close().
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang)
}

// Verify parses source and returns a *SyntaxError, matching ErrSyntax, for
// the first error or missing node in the tree.
func (pm *ParserManager) Verify(ctx context.Context, source []byte, filePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tree, err := pm.ParseFile(source, filePath)
	if err != nil {
		return err
	}
	defer tree.Close()

	serr := CheckTree(tree)
	if serr == nil {
		return nil
	}
	pm.logger.Debug("edited source does not parse",
		"file", filePath,
		"line", serr.Line+1,
		"kind", serr.Kind)
	return serr
}

// CheckTree returns the first error of tree, or nil when it parsed cleanly.
func CheckTree(tree *ts.Tree) *SyntaxError {
	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	serr := &SyntaxError{Kind: "ERROR"}
	if n := firstError(root); n != nil {
		pos := n.StartPosition()
		serr.Line = int(pos.Row)
		serr.Column = int(pos.Column)
		serr.Offset = int(n.StartByte())
		serr.Kind = n.Kind()
	}
	return serr
}

var (
	sharedOnce    sync.Once
	sharedManager *ParserManager
)

// Shared returns a process-wide manager. It is never closed.
func Shared() *ParserManager {
	sharedOnce.Do(func() {
		sharedManager = NewParserManager(nil)
	})
	return sharedManager
}

// firstError returns the first error or missing node in document order.
func firstError(n *ts.Node) *ts.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() {
			continue
		}
		if found := firstError(c); found != nil {
			return found
		}
	}
	return nil
}

// Close releases all parser pool resources.
//
// MUST be called when ParserManager is no longer needed to avoid memory leaks.
// After Close(), the ParserManager cannot be used.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Debug("closing ParserManager", "parses_called", pm.stats.parsesCalled)

	for lang, pool := range pm.pools {
		if pool != nil {
			pool.close()
			pm.logger.Debug("closed parser pool", "language", lang.String())
		}
	}
	pm.pools = make(map[Language]*parserPool)

	return nil
}

// getOrCreatePool returns an existing parser pool or creates a new one.
// Thread-safe using double-checked locking pattern.
func (pm *ParserManager) getOrCreatePool(lang Language) (*parserPool, error) {
	pm.mutex.RLock()
	pool, exists := pm.pools[lang]
	pm.mutex.RUnlock()

	if exists {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, exists = pm.pools[lang]; exists {
		return pool, nil
	}

	langPtr, err := languagePointer(lang)
	if err != nil {
		return nil, err
	}

	poolSize := getPoolSize(0)
	pool = newParserPool(lang, langPtr, poolSize, pm.logger)
	pm.pools[lang] = pool

	pm.logger.Debug("created new parser pool",
		"language", lang.String(),
		"maxSize", poolSize)

	return pool, nil
}

// languagePointer returns the tree-sitter grammar of lang.
func languagePointer(lang Language) (unsafe.Pointer, error) {
	switch lang {
	case LanguageDart:
		return dart.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}

// GetStats returns parser usage statistics.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	totalParsers := 0
	for _, pool := range pm.pools {
		totalParsers += pool.getCreatedCount()
	}

	return ParserStats{
		ParsersCreated: totalParsers,
		ParsesCalled:   pm.stats.parsesCalled,
	}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	// ParsersCreated is the total number of parser instances created
	ParsersCreated int

	// ParsesCalled is the total number of Parse() calls
	ParsesCalled int
}
