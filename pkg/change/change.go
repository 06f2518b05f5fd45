// Package change describes source edits and builds them.
//
// A SourceChange groups the edits of one logical operation by file. Edits
// within a file are non-overlapping and listed in descending offset order so
// they can be applied one after another without adjusting offsets.
package change

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrOverlappingEdits is returned when two edits of a file touch the same text.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Range is a half-open byte range [Offset, Offset+Length).
type Range struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// RangeStartEnd returns the range [start, end).
func RangeStartEnd(start, end int) Range {
	return Range{Offset: start, Length: end - start}
}

// End returns the exclusive end offset.
func (r Range) End() int { return r.Offset + r.Length }

// SourceEdit replaces Length bytes at Offset with Replacement.
type SourceEdit struct {
	Offset      int    `json:"offset"`
	Length      int    `json:"length"`
	Replacement string `json:"replacement"`
}

// End returns the exclusive end offset of the replaced text.
func (e SourceEdit) End() int { return e.Offset + e.Length }

// SourceFileEdit holds the edits of a single file.
type SourceFileEdit struct {
	File  string       `json:"file"`
	Edits []SourceEdit `json:"edits"`
}

// SourceChange is the result of an edit operation.
type SourceChange struct {
	Message string           `json:"message,omitempty"`
	Edits   []SourceFileEdit `json:"edits"`
}

// IsEmpty reports whether the change has no edits.
func (c *SourceChange) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, fe := range c.Edits {
		if len(fe.Edits) > 0 {
			return false
		}
	}
	return true
}

// FileEdit returns the edits for file.
func (c *SourceChange) FileEdit(file string) (*SourceFileEdit, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Edits {
		if c.Edits[i].File == file {
			return &c.Edits[i], true
		}
	}
	return nil, false
}

// ApplyEdits applies non-overlapping edits, given in any order, to src. An
// insertion and a replacement at the same offset apply insertion first.
func ApplyEdits(src string, edits []SourceEdit) (string, error) {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b SourceEdit) int {
		if a.Offset != b.Offset {
			return a.Offset - b.Offset
		}
		return min(a.Length, 1) - min(b.Length, 1)
	})

	var sb strings.Builder
	pos := 0
	for _, e := range sorted {
		if e.Offset < pos || e.End() > len(src) || e.Length < 0 {
			return "", fmt.Errorf("%w: edit at %d+%d", ErrOverlappingEdits, e.Offset, e.Length)
		}
		sb.WriteString(src[pos:e.Offset])
		sb.WriteString(e.Replacement)
		pos = e.End()
	}
	sb.WriteString(src[pos:])
	return sb.String(), nil
}

// Apply applies the edits of file in c to src. A change without edits for
// file returns src unchanged.
func (c *SourceChange) Apply(file, src string) (string, error) {
	fe, ok := c.FileEdit(file)
	if !ok {
		return src, nil
	}
	return ApplyEdits(src, fe.Edits)
}
