// Package format lays out Dart function bodies after edits.
//
// The layout follows the conventions of Flutter code: blocks are split one
// statement per line, an argument or collection list is split one element per
// line when it ends with a trailing comma and kept on one line otherwise, and
// nesting is indented by two spaces from the line the range starts on.
// Comments are kept in place.
package format

import (
	"fmt"
	"strings"

	"github.com/gnana997/widgetprops/pkg/dart"
)

// Formatter formats ranges of Dart source.
type Formatter struct {
	// Indent is the text of one indentation level.
	Indent string
}

// New returns a formatter using two-space indentation.
func New() *Formatter {
	return &Formatter{Indent: "  "}
}

type frameKind int

const (
	frameTop frameKind = iota
	frameBlock
	frameGroup
)

type frame struct {
	kind  frameKind
	split bool
}

// FormatRange re-lays out the tokens in [offset, end) of src and returns the
// whole source with that range replaced. Text outside the range is kept
// byte for byte.
func (f *Formatter) FormatRange(src string, offset, end int) (string, error) {
	if offset < 0 || end > len(src) || offset > end {
		return "", fmt.Errorf("format range [%d,%d) out of bounds", offset, end)
	}
	tokens, comments, err := dart.Tokenize(src)
	if err != nil {
		return "", err
	}

	var toks []dart.Token
	for _, t := range tokens {
		if t.Kind != dart.TokenEOF && t.Offset >= offset && t.End <= end {
			toks = append(toks, t)
		}
	}
	var cmts []dart.Comment
	for _, c := range comments {
		if c.Offset >= offset && c.End <= end {
			cmts = append(cmts, c)
		}
	}
	if len(toks) == 0 {
		return src, nil
	}
	match, err := matchBrackets(toks)
	if err != nil {
		return "", err
	}

	p := &printer{
		src:    src,
		indent: f.Indent,
		base:   lineIndent(src, offset),
		toks:   toks,
		match:  match,
		stack:  []frame{{kind: frameTop}},
	}
	ci := 0
	for i, tok := range toks {
		for ci < len(cmts) && cmts[ci].Offset < tok.Offset {
			p.comment(cmts[ci])
			ci++
		}
		p.token(i)
	}
	for ; ci < len(cmts); ci++ {
		p.comment(cmts[ci])
	}

	start := toks[0].Offset
	if len(cmts) > 0 && cmts[0].Offset < start {
		start = cmts[0].Offset
	}
	stop := toks[len(toks)-1].End
	if len(cmts) > 0 && cmts[len(cmts)-1].End > stop {
		stop = cmts[len(cmts)-1].End
	}
	return src[:start] + p.out.String() + src[stop:], nil
}

func matchBrackets(toks []dart.Token) ([]int, error) {
	match := make([]int, len(toks))
	var open []int
	for i, t := range toks {
		match[i] = -1
		if t.Kind != dart.TokenPunct {
			continue
		}
		switch t.Lexeme {
		case "(", "[", "{":
			open = append(open, i)
		case ")", "]", "}":
			if len(open) == 0 {
				return nil, fmt.Errorf("unbalanced %q at offset %d", t.Lexeme, t.Offset)
			}
			o := open[len(open)-1]
			open = open[:len(open)-1]
			if closing(toks[o].Lexeme) != t.Lexeme {
				return nil, fmt.Errorf("mismatched %q at offset %d", t.Lexeme, t.Offset)
			}
			match[o], match[i] = i, o
		}
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("unclosed %q at offset %d", toks[open[0]].Lexeme, toks[open[0]].Offset)
	}
	return match, nil
}

func closing(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	}
	return "}"
}

type printer struct {
	src    string
	indent string
	base   string
	toks   []dart.Token
	match  []int
	stack  []frame
	out    strings.Builder

	level int
	// newlines is the number of line breaks owed before the next output.
	newlines int
	// prevEnd is the source end offset of the last written token or comment.
	prevEnd int
	written bool
}

func (p *printer) top() *frame { return &p.stack[len(p.stack)-1] }

func (p *printer) breakLine(n int) {
	p.newlines = max(p.newlines, n)
}

// write emits text, first settling owed line breaks or the separating space.
func (p *printer) write(text string, space bool) {
	if p.written {
		switch {
		case p.newlines > 0:
			for i := 0; i < p.newlines; i++ {
				p.out.WriteByte('\n')
			}
			p.out.WriteString(p.base)
			p.out.WriteString(strings.Repeat(p.indent, p.level))
		case space:
			p.out.WriteByte(' ')
		}
	}
	p.newlines = 0
	p.out.WriteString(text)
	p.written = true
}

// gap returns the original whitespace between the previous output and offset.
func (p *printer) gap(offset int) string {
	if !p.written || offset < p.prevEnd {
		return ""
	}
	return p.src[p.prevEnd:offset]
}

func (p *printer) comment(c dart.Comment) {
	gap := p.gap(c.Offset)
	owed := 0
	if p.written && strings.Contains(gap, "\n") {
		p.breakLine(blankLines(gap))
	} else {
		// A trailing comment stays on the line it follows.
		owed, p.newlines = p.newlines, 0
	}
	p.write(p.src[c.Offset:c.End], p.written)
	p.prevEnd = c.End
	p.breakLine(owed)
	if c.Line || strings.Contains(p.src[c.Offset:c.End], "\n") {
		p.breakLine(1)
	}
}

func (p *printer) token(i int) {
	tok := p.toks[i]
	text := p.src[tok.Offset:tok.End]
	gap := p.gap(tok.Offset)
	isPunct := tok.Kind == dart.TokenPunct

	if isPunct && (tok.Lexeme == ")" || tok.Lexeme == "]" || tok.Lexeme == "}") {
		fr := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		empty := p.match[i] == i-1
		if (fr.kind == frameBlock || fr.split) && !empty {
			p.level--
			p.breakLine(1)
		}
		p.write(text, false)
		p.prevEnd = tok.End
		if fr.kind == frameBlock && p.top().kind == frameBlock && !p.continuesAfterBlock(i+1) {
			p.breakLine(1)
		}
		return
	}

	if p.newlines == 0 {
		p.write(text, p.spaceBefore(i, gap))
	} else {
		if p.top().kind == frameBlock && strings.Count(gap, "\n") > 1 {
			p.breakLine(2)
		}
		p.write(text, false)
	}
	p.prevEnd = tok.End

	if !isPunct {
		return
	}
	switch tok.Lexeme {
	case "{", "(", "[":
		closer := p.match[i]
		fr := frame{kind: frameGroup}
		if tok.Lexeme == "{" && p.isBlock(i) {
			fr.kind = frameBlock
		} else {
			fr.split = closer > 0 && p.toks[closer-1].Is(",")
		}
		p.stack = append(p.stack, fr)
		if (fr.kind == frameBlock || fr.split) && closer != i+1 {
			p.level++
			p.breakLine(1)
		}
	case ",":
		if fr := p.top(); fr.split {
			p.breakLine(1)
		}
	case ";":
		if p.top().kind == frameBlock {
			p.breakLine(1)
		}
	}
}

// isBlock reports whether the brace at i opens a statement block rather than
// a set or map literal.
func (p *printer) isBlock(i int) bool {
	if i == 0 {
		return true
	}
	prev := p.toks[i-1]
	switch prev.Lexeme {
	case ")", ";", "{", "}", "else", "try", "finally", "do", "async", "sync", "*":
		return prev.Kind != dart.TokenString
	}
	return false
}

func (p *printer) continuesAfterBlock(next int) bool {
	if next >= len(p.toks) {
		return true
	}
	switch p.toks[next].Lexeme {
	case "else", "catch", "finally", "on", "while", ")", "]", ",", ";", ".":
		return p.toks[next].Kind != dart.TokenString
	}
	return false
}

// spaceBefore decides the separator between the previous token and token i
// when they end up on the same line.
func (p *printer) spaceBefore(i int, gap string) bool {
	if i == 0 || !p.written {
		return false
	}
	if !strings.Contains(gap, "\n") {
		return gap != ""
	}
	prev, cur := p.toks[i-1], p.toks[i]
	if prev.Kind == dart.TokenPunct {
		switch prev.Lexeme {
		case "(", "[", ".", "?.", "..", "?..", "@", "!", "~":
			return false
		}
	}
	if cur.Kind == dart.TokenPunct {
		switch cur.Lexeme {
		case ")", "]", ",", ";", ".", "?.", "..", "?..", ":":
			return false
		}
	}
	return true
}

func blankLines(gap string) int {
	if strings.Count(gap, "\n") > 1 {
		return 2
	}
	return 1
}

func lineIndent(src string, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[start:end]
}
