package change

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Symbol is a top-level declaration referenced from generated code.
type Symbol struct {
	LibraryURI string
	Name       string
}

// ImportScope answers how symbols can be referenced from a file.
type ImportScope interface {
	// ReferenceFor returns the import prefix to use for sym ("" for none)
	// and whether sym is already visible.
	ReferenceFor(sym Symbol) (prefix string, imported bool)
	// ImportURIFor returns the URI to import to make sym visible.
	ImportURIFor(sym Symbol) string
	// ImportInsertOffset returns where a new import directive goes and
	// whether that point follows an existing directive.
	ImportInsertOffset() (offset int, afterDirective bool)
}

// Formatter reformats the text in [offset, end) of src and returns the whole
// new source.
type Formatter interface {
	FormatRange(src string, offset, end int) (string, error)
}

// Builder accumulates the edits of one operation, possibly over several files.
type Builder struct {
	formatter Formatter
	log       *slog.Logger
	files     []*FileEditBuilder
}

// NewBuilder creates a builder. A nil formatter disables Format requests.
func NewBuilder(formatter Formatter, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{formatter: formatter, log: logger}
}

// AddFileEdit runs build against the edit builder of path. content is the
// current text of the file; scope may be nil when no references are written.
func (b *Builder) AddFileEdit(path, content string, scope ImportScope, build func(*FileEditBuilder) error) error {
	fb := b.fileBuilder(path, content, scope)
	return build(fb)
}

func (b *Builder) fileBuilder(path, content string, scope ImportScope) *FileEditBuilder {
	for _, fb := range b.files {
		if fb.path == path {
			return fb
		}
	}
	fb := &FileEditBuilder{path: path, content: content, scope: scope}
	b.files = append(b.files, fb)
	return fb
}

// SourceChange finalizes the accumulated edits.
func (b *Builder) SourceChange(message string) (*SourceChange, error) {
	sc := &SourceChange{Message: message, Edits: []SourceFileEdit{}}
	for _, fb := range b.files {
		edits, err := fb.finish(b.formatter, b.log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fb.path, err)
		}
		if len(edits) > 0 {
			sc.Edits = append(sc.Edits, SourceFileEdit{File: fb.path, Edits: edits})
		}
	}
	return sc, nil
}

type pendingEdit struct {
	offset int
	end    int
	text   string
	seq    int
}

// FileEditBuilder collects the edits of one file.
type FileEditBuilder struct {
	path    string
	content string
	scope   ImportScope
	edits   []pendingEdit
	formats []Range
	imports []string
}

// Content returns the original text of the file.
func (f *FileEditBuilder) Content() string { return f.content }

func (f *FileEditBuilder) add(offset, end int, text string) {
	f.edits = append(f.edits, pendingEdit{offset: offset, end: end, text: text, seq: len(f.edits)})
}

// AddReplacement replaces r with the text produced by write.
func (f *FileEditBuilder) AddReplacement(r Range, write func(*EditWriter)) {
	w := &EditWriter{file: f}
	write(w)
	f.add(r.Offset, r.End(), w.sb.String())
}

// AddSimpleReplacement replaces r with text.
func (f *FileEditBuilder) AddSimpleReplacement(r Range, text string) {
	f.add(r.Offset, r.End(), text)
}

// AddInsertion inserts the text produced by write at offset. Insertions at
// the same offset keep their call order.
func (f *FileEditBuilder) AddInsertion(offset int, write func(*EditWriter)) {
	w := &EditWriter{file: f}
	write(w)
	f.add(offset, offset, w.sb.String())
}

// AddSimpleInsertion inserts text at offset.
func (f *FileEditBuilder) AddSimpleInsertion(offset int, text string) {
	f.add(offset, offset, text)
}

// AddDeletion deletes r.
func (f *FileEditBuilder) AddDeletion(r Range) {
	f.add(r.Offset, r.End(), "")
}

// Format requests that r, in original offsets, be reformatted once all
// edits are applied.
func (f *FileEditBuilder) Format(r Range) {
	f.formats = append(f.formats, r)
}

func (f *FileEditBuilder) importLibrary(uri string) {
	if !slices.Contains(f.imports, uri) {
		f.imports = append(f.imports, uri)
	}
}

// EditWriter writes the text of a single edit.
type EditWriter struct {
	file *FileEditBuilder
	sb   strings.Builder
}

// Write appends s verbatim.
func (w *EditWriter) Write(s string) {
	w.sb.WriteString(s)
}

// WriteReference writes a reference to sym, prefixed as the file imports it.
// A missing import is added to the file once.
func (w *EditWriter) WriteReference(sym Symbol) {
	scope := w.file.scope
	if scope == nil || sym.LibraryURI == "" {
		w.sb.WriteString(sym.Name)
		return
	}
	prefix, imported := scope.ReferenceFor(sym)
	if !imported {
		w.file.importLibrary(scope.ImportURIFor(sym))
	}
	if prefix != "" {
		w.sb.WriteString(prefix)
		w.sb.WriteByte('.')
	}
	w.sb.WriteString(sym.Name)
}

// finish merges, checks and optionally formats the collected edits.
func (f *FileEditBuilder) finish(formatter Formatter, log *slog.Logger) ([]SourceEdit, error) {
	pending := slices.Clone(f.edits)
	if len(f.imports) > 0 && f.scope != nil {
		offset, after := f.scope.ImportInsertOffset()
		var sb strings.Builder
		for _, uri := range f.imports {
			if after {
				fmt.Fprintf(&sb, "\nimport '%s';", uri)
			} else {
				fmt.Fprintf(&sb, "import '%s';\n", uri)
			}
		}
		if !after {
			sb.WriteString("\n")
		}
		// Imports precede any other insertion at the same point.
		pending = append(pending, pendingEdit{offset: offset, end: offset, text: sb.String(), seq: -1})
	}
	if len(pending) == 0 {
		return nil, nil
	}

	merged, err := mergeEdits(pending)
	if err != nil {
		return nil, err
	}
	if formatter == nil || len(f.formats) == 0 {
		slices.Reverse(merged)
		return merged, nil
	}

	updated, err := ApplyEdits(f.content, merged)
	if err != nil {
		return nil, err
	}
	for _, r := range outermostRanges(f.formats) {
		start := mapOffset(merged, r.Offset, false)
		end := mapOffset(merged, r.End(), true)
		// Ranges are visited back to front, so earlier offsets stay valid.
		formatted, err := formatter.FormatRange(updated, start, end)
		if err != nil {
			log.Warn("format failed, keeping unformatted edits", "file", f.path, "error", err)
			continue
		}
		updated = formatted
	}
	return minimalEdits(f.content, updated), nil
}

// mergeEdits sorts edits by offset, joins insertions at the same offset in
// call order, and rejects overlaps.
func mergeEdits(pending []pendingEdit) ([]SourceEdit, error) {
	slices.SortStableFunc(pending, func(a, b pendingEdit) int {
		if c := cmp.Compare(a.offset, b.offset); c != 0 {
			return c
		}
		// Insertions come before a replacement starting at the same offset.
		ai, bi := a.offset == a.end, b.offset == b.end
		if ai != bi {
			if ai {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.seq, b.seq)
	})

	var out []SourceEdit
	for _, e := range pending {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if e.offset < last.End() {
				return nil, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlappingEdits,
					last.Offset, last.End(), e.offset, e.end)
			}
			if e.offset == e.end && last.Length == 0 && last.Offset == e.offset {
				last.Replacement += e.text
				continue
			}
		}
		out = append(out, SourceEdit{Offset: e.offset, Length: e.end - e.offset, Replacement: e.text})
	}
	return out, nil
}

// mapOffset translates an original offset into the edited text. Insertions
// exactly at pos are placed before a start position and inside an end
// position.
func mapOffset(edits []SourceEdit, pos int, isEnd bool) int {
	mapped := pos
	for _, e := range edits {
		before := e.End() <= pos && (e.Offset < pos || (isEnd && e.Offset == pos))
		if before {
			mapped += len(e.Replacement) - e.Length
			continue
		}
		if e.Offset < pos && pos < e.End() {
			if isEnd {
				mapped += e.Offset + len(e.Replacement) - pos
			} else {
				mapped += e.Offset - pos
			}
		}
	}
	return mapped
}

// outermostRanges drops ranges contained in another and orders the rest by
// descending offset.
func outermostRanges(ranges []Range) []Range {
	var out []Range
	for i, r := range ranges {
		contained := false
		for j, o := range ranges {
			if i == j {
				continue
			}
			if o.Offset <= r.Offset && r.End() <= o.End() && (o != r || j < i) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Range) int { return b.Offset - a.Offset })
	return out
}

// minimalEdits re-expresses the transformation from before to after as the
// smallest set of replacements, in descending offset order.
func minimalEdits(before, after string) []SourceEdit {
	if before == after {
		return nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var edits []SourceEdit
	offset := 0
	var cur *SourceEdit
	flush := func() {
		if cur != nil {
			edits = append(edits, *cur)
			cur = nil
		}
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &SourceEdit{Offset: offset}
			}
			cur.Length += len(d.Text)
			offset += len(d.Text)
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &SourceEdit{Offset: offset}
			}
			cur.Replacement += d.Text
		}
	}
	flush()
	slices.Reverse(edits)
	return edits
}
