package parser

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *ParserManager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	manager := NewParserManager(logger)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestParseDart(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse(readTestFile(t, "sample.dart"), LanguageDart)
	require.NoError(t, err)
	require.NotNil(t, tree)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
}

func TestParseFile(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.ParseFile([]byte("void main() {}"), "lib/main.dart")
	require.NoError(t, err)
	tree.Close()

	_, err = manager.ParseFile([]byte("x"), "notes.txt")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	assert.NoError(t, manager.Verify(ctx, readTestFile(t, "sample.dart"), "sample.dart"))

	err := manager.Verify(ctx, []byte("void main() {\n  print(;\n}\n"), "main.dart")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Line)
}

func TestCheckTree(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte("final x = 1;"), LanguageDart)
	require.NoError(t, err)
	assert.Nil(t, CheckTree(tree))
	tree.Close()

	tree, err = manager.Parse([]byte("final x = ;"), LanguageDart)
	require.NoError(t, err)
	defer tree.Close()
	serr := CheckTree(tree)
	require.NotNil(t, serr)
	assert.Equal(t, 0, serr.Line)
}

func TestShared(t *testing.T) {
	assert.Same(t, Shared(), Shared())
}

func TestVerify_Cancelled(t *testing.T) {
	manager := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, manager.Verify(ctx, []byte("void main() {}"), "main.dart"), context.Canceled)
}

func TestLazyInitialization(t *testing.T) {
	manager := newTestManager(t)

	stats := manager.GetStats()
	assert.Equal(t, 0, stats.ParsersCreated, "Should start with 0 parsers")

	source := []byte("final x = 1;")
	for i := 0; i < 2; i++ {
		tree, err := manager.Parse(source, LanguageDart)
		require.NoError(t, err)
		tree.Close()
	}

	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated, "Should reuse the first parser")
	assert.Equal(t, 2, stats.ParsesCalled)
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := newTestManager(t)

	tree, err := manager.Parse([]byte("some random text"), LanguageUnknown)
	assert.Error(t, err)
	assert.Nil(t, tree)
}

func TestMemoryCleanup(t *testing.T) {
	manager := NewParserManager(nil)

	tree, err := manager.Parse([]byte("final x = 1;"), LanguageDart)
	require.NoError(t, err)
	tree.Close()

	assert.NoError(t, manager.Close())
	assert.Empty(t, manager.pools, "Pools map should be empty after Close")
}

func TestLanguageDetection(t *testing.T) {
	testCases := []struct {
		filePath string
		expected Language
	}{
		{"main.dart", LanguageDart},
		{"MAIN.DART", LanguageDart},
		{"file.ts", LanguageUnknown},
		{"pubspec.yaml", LanguageUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectLanguage(tc.filePath))
		})
	}
}

func TestParseLanguageString(t *testing.T) {
	assert.Equal(t, LanguageDart, ParseLanguageString("Dart"))
	assert.Equal(t, LanguageUnknown, ParseLanguageString(""))
	assert.Equal(t, []Language{LanguageDart}, SupportedLanguages())
	assert.Equal(t, "dart", LanguageDart.String())
	assert.Equal(t, "unknown", LanguageUnknown.String())
}

func readTestFile(t *testing.T, fileName string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", fileName))
	require.NoError(t, err, "Should be able to read test file %s", fileName)
	return data
}
