package change

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/widgetprops/pkg/format"
)

// fakeScope imports everything from libraries in visible, with the given
// prefix, and places new imports at offset.
type fakeScope struct {
	visible map[string]string
	offset  int
	after   bool
}

func (s *fakeScope) ReferenceFor(sym Symbol) (string, bool) {
	prefix, ok := s.visible[sym.LibraryURI]
	return prefix, ok
}

func (s *fakeScope) ImportURIFor(sym Symbol) string { return "public:" + sym.LibraryURI }

func (s *fakeScope) ImportInsertOffset() (int, bool) { return s.offset, s.after }

func build(t *testing.T, b *Builder, content string, scope ImportScope, fn func(*FileEditBuilder)) *SourceChange {
	t.Helper()
	require.NoError(t, b.AddFileEdit("/a.dart", content, scope, func(f *FileEditBuilder) error {
		fn(f)
		return nil
	}))
	sc, err := b.SourceChange("test")
	require.NoError(t, err)
	return sc
}

func apply(t *testing.T, sc *SourceChange, content string) string {
	t.Helper()
	out, err := sc.Apply("/a.dart", content)
	require.NoError(t, err)
	return out
}

func TestBuilder_EditsSortedDescending(t *testing.T) {
	content := "abcdef"
	sc := build(t, NewBuilder(nil, nil), content, nil, func(f *FileEditBuilder) {
		f.AddSimpleInsertion(1, "X")
		f.AddDeletion(RangeStartEnd(3, 4))
		f.AddSimpleReplacement(RangeStartEnd(5, 6), "Z")
	})

	fe, ok := sc.FileEdit("/a.dart")
	require.True(t, ok)
	require.Len(t, fe.Edits, 3)
	assert.Equal(t, 5, fe.Edits[0].Offset)
	assert.Equal(t, 3, fe.Edits[1].Offset)
	assert.Equal(t, 1, fe.Edits[2].Offset)
	assert.Equal(t, "aXbceZ", apply(t, sc, content))
}

func TestBuilder_SameOffsetInsertionsKeepCallOrder(t *testing.T) {
	content := "f(x)"
	sc := build(t, NewBuilder(nil, nil), content, nil, func(f *FileEditBuilder) {
		f.AddSimpleInsertion(2, "a, ")
		f.AddInsertion(2, func(w *EditWriter) { w.Write("b, ") })
	})
	fe, _ := sc.FileEdit("/a.dart")
	require.Len(t, fe.Edits, 1)
	assert.Equal(t, "f(a, b, x)", apply(t, sc, content))
}

func TestBuilder_InsertionBeforeReplacementAtSameOffset(t *testing.T) {
	content := "Padding(x)"
	sc := build(t, NewBuilder(nil, nil), content, nil, func(f *FileEditBuilder) {
		f.AddSimpleReplacement(RangeStartEnd(0, 7), "Container")
		f.AddSimpleInsertion(0, "const ")
	})
	assert.Equal(t, "const Container(x)", apply(t, sc, content))
}

func TestBuilder_OverlappingEdits(t *testing.T) {
	b := NewBuilder(nil, nil)
	require.NoError(t, b.AddFileEdit("/a.dart", "abcdef", nil, func(f *FileEditBuilder) error {
		f.AddDeletion(RangeStartEnd(1, 4))
		f.AddSimpleInsertion(2, "X")
		return nil
	}))
	_, err := b.SourceChange("overlap")
	assert.ErrorIs(t, err, ErrOverlappingEdits)
}

func TestBuilder_EmptyChange(t *testing.T) {
	sc := build(t, NewBuilder(nil, nil), "abc", nil, func(*FileEditBuilder) {})
	assert.True(t, sc.IsEmpty())
	assert.NotNil(t, sc.Edits)
}

func TestEditWriter_WriteReference(t *testing.T) {
	content := "import 'a.dart';\n\nvar x = y;\n"
	scope := &fakeScope{
		visible: map[string]string{"lib:a": "", "lib:p": "p"},
		offset:  len("import 'a.dart';"),
		after:   true,
	}
	offset := strings.Index(content, "y")
	sc := build(t, NewBuilder(nil, nil), content, scope, func(f *FileEditBuilder) {
		f.AddReplacement(RangeStartEnd(offset, offset+1), func(w *EditWriter) {
			w.WriteReference(Symbol{LibraryURI: "lib:a", Name: "A"})
			w.Write(" + ")
			w.WriteReference(Symbol{LibraryURI: "lib:p", Name: "P"})
			w.Write(" + ")
			w.WriteReference(Symbol{LibraryURI: "lib:new", Name: "N"})
			w.Write(" + ")
			w.WriteReference(Symbol{LibraryURI: "lib:new", Name: "M"})
		})
	})
	assert.Equal(t, "import 'a.dart';\nimport 'public:lib:new';\n\nvar x = A + p.P + N + M;\n", apply(t, sc, content))
}

func TestEditWriter_ImportIntoFileWithoutDirectives(t *testing.T) {
	content := "var x = y;\n"
	scope := &fakeScope{}
	sc := build(t, NewBuilder(nil, nil), content, scope, func(f *FileEditBuilder) {
		f.AddReplacement(RangeStartEnd(8, 9), func(w *EditWriter) {
			w.WriteReference(Symbol{LibraryURI: "lib:c", Name: "C"})
		})
	})
	assert.Equal(t, "import 'public:lib:c';\n\nvar x = C;\n", apply(t, sc, content))
}

func TestBuilder_FormatProducesMinimalEdits(t *testing.T) {
	content := "import 'x.dart';\n\nWidget f() {\n  return Text('a');\n}\n"
	at := strings.Index(content, "Text")
	bodyStart := strings.Index(content, "{")
	bodyEnd := strings.LastIndex(content, "}") + 1

	sc := build(t, NewBuilder(format.New(), nil), content, nil, func(f *FileEditBuilder) {
		f.AddSimpleInsertion(at, "Center(child: ")
		f.AddSimpleInsertion(at+len("Text('a')"), ",)")
		f.Format(RangeStartEnd(bodyStart, bodyEnd))
	})

	want := "import 'x.dart';\n\nWidget f() {\n  return Center(\n    child: Text('a'),\n  );\n}\n"
	assert.Equal(t, want, apply(t, sc, content))

	fe, ok := sc.FileEdit("/a.dart")
	require.True(t, ok)
	for _, e := range fe.Edits {
		assert.GreaterOrEqual(t, e.Offset, bodyStart, "edits stay inside the formatted body")
	}
	for i := 1; i < len(fe.Edits); i++ {
		assert.Greater(t, fe.Edits[i-1].Offset, fe.Edits[i].Offset)
	}
}

func TestBuilder_FormatFailureKeepsEdits(t *testing.T) {
	content := "f() { g(); }"
	sc := build(t, NewBuilder(format.New(), nil), content, nil, func(f *FileEditBuilder) {
		f.AddSimpleInsertion(8, "(")
		f.Format(RangeStartEnd(4, len(content)))
	})
	assert.Equal(t, "f() { g((); }", apply(t, sc, content))
}

func TestMapOffset(t *testing.T) {
	edits := []SourceEdit{
		{Offset: 2, Length: 0, Replacement: "abc"},
		{Offset: 5, Length: 2, Replacement: "z"},
	}
	assert.Equal(t, 2, mapOffset(edits, 2, false))
	assert.Equal(t, 5, mapOffset(edits, 2, true))
	assert.Equal(t, 7, mapOffset(edits, 4, false))
	assert.Equal(t, 8, mapOffset(edits, 6, false))
	assert.Equal(t, 9, mapOffset(edits, 6, true))
	assert.Equal(t, 11, mapOffset(edits, 9, true))
}

func TestApplyEdits(t *testing.T) {
	out, err := ApplyEdits("hello world", []SourceEdit{
		{Offset: 6, Length: 5, Replacement: "there"},
		{Offset: 0, Length: 0, Replacement: ">> "},
	})
	require.NoError(t, err)
	assert.Equal(t, ">> hello there", out)

	_, err = ApplyEdits("abc", []SourceEdit{{Offset: 0, Length: 2}, {Offset: 1, Length: 1}})
	assert.ErrorIs(t, err, ErrOverlappingEdits)

	_, err = ApplyEdits("abc", []SourceEdit{{Offset: 2, Length: 5}})
	assert.Error(t, err)
}
