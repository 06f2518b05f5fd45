package dart

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/widgetprops/pkg/parser"
)

// parseTree runs the shared tree-sitter Dart parser over src. The caller
// closes the returned tree.
func parseTree(src string) (*ts.Tree, error) {
	tree, err := parser.Shared().Parse([]byte(src), parser.LanguageDart)
	if err != nil {
		return nil, err
	}
	if serr := parser.CheckTree(tree); serr != nil {
		tree.Close()
		msg := "unexpected input"
		if serr.Kind != "ERROR" {
			msg = fmt.Sprintf("missing %q", serr.Kind)
		}
		return nil, &SyntaxError{Offset: serr.Offset, Message: msg}
	}
	return tree, nil
}

// Tokenize splits src into tokens and comments. The returned token slice
// always ends with a TokenEOF token. A source the grammar rejects is
// reported as a *SyntaxError.
func Tokenize(src string) ([]Token, []Comment, error) {
	tree, err := parseTree(src)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()
	return scanTree(src, tree.RootNode())
}

// scanner collects the leaves of a parse tree in source order.
type scanner struct {
	src      string
	tokens   []Token
	comments []Comment
	err      error
}

func scanTree(src string, root *ts.Node) ([]Token, []Comment, error) {
	s := &scanner{src: src}
	s.collect(root)
	if s.err != nil {
		return nil, nil, s.err
	}
	s.tokens = append(s.tokens, Token{Kind: TokenEOF, Offset: len(src), End: len(src)})
	for i := range s.tokens {
		s.tokens[i].Index = i
	}
	if err := s.checkCoverage(); err != nil {
		return nil, nil, err
	}
	return s.tokens, s.comments, nil
}

func (s *scanner) collect(n *ts.Node) {
	if s.err != nil {
		return
	}
	start, end := int(n.StartByte()), int(n.EndByte())
	switch {
	case isCommentKind(n.Kind()):
		s.comment(start, end)
		return
	case n.IsMissing() || start == end:
		return
	case n.Kind() == "string_literal" || n.ChildCount() == 0:
		s.token(n.Kind(), start, end)
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			s.collect(c)
		}
	}
}

func (s *scanner) token(kind string, start, end int) {
	lexeme := s.src[start:end]
	tok := Token{Kind: tokenKind(kind, lexeme), Lexeme: lexeme, Offset: start, End: end}
	if tok.Kind == TokenString {
		value, interpolated, ok := decodeString(lexeme)
		if !ok {
			s.err = &SyntaxError{Offset: start, Message: "unterminated string"}
			return
		}
		tok.Value, tok.Interpolated = value, interpolated
	}
	s.tokens = append(s.tokens, tok)
}

// comment records a comment node. Consecutive line comments can arrive as a
// single node and are split one per line.
func (s *scanner) comment(start, end int) {
	text := s.src[start:end]
	if !strings.HasPrefix(text, "//") {
		s.comments = append(s.comments, Comment{
			Text:   text,
			Offset: start,
			End:    end,
			Doc:    strings.HasPrefix(text, "/**") && text != "/**/",
		})
		return
	}
	for offset := start; offset < end; {
		lineEnd := strings.IndexByte(s.src[offset:end], '\n')
		if lineEnd < 0 {
			lineEnd = end
		} else {
			lineEnd += offset
		}
		line := s.src[offset:lineEnd]
		if i := strings.Index(line, "//"); i >= 0 {
			body := strings.TrimRight(line[i:], "\r")
			s.comments = append(s.comments, Comment{
				Text:   body,
				Offset: offset + i,
				End:    offset + i + len(body),
				Doc:    strings.HasPrefix(body, "///") && !strings.HasPrefix(body, "////"),
				Line:   true,
			})
		}
		offset = lineEnd + 1
	}
}

// checkCoverage reports source text that no token or comment accounts for.
func (s *scanner) checkCoverage() error {
	pos, ci := 0, 0
	for _, tok := range s.tokens {
		for ci < len(s.comments) && s.comments[ci].Offset < tok.Offset {
			c := s.comments[ci]
			if err := s.gap(pos, c.Offset); err != nil {
				return err
			}
			pos = max(pos, c.End)
			ci++
		}
		if err := s.gap(pos, tok.Offset); err != nil {
			return err
		}
		pos = max(pos, tok.End)
	}
	return nil
}

func (s *scanner) gap(from, to int) error {
	for i := from; i < to; i++ {
		switch s.src[i] {
		case ' ', '\t', '\r', '\n', '\f':
		default:
			if i == 0 && strings.HasPrefix(s.src, "\uFEFF") {
				i += len("\uFEFF") - 1
				continue
			}
			return &SyntaxError{Offset: i, Message: fmt.Sprintf("unexpected %q", s.src[i])}
		}
	}
	return nil
}

func isCommentKind(kind string) bool {
	return kind == "comment" || kind == "documentation_comment"
}

func tokenKind(kind, lexeme string) TokenKind {
	switch kind {
	case "string_literal":
		return TokenString
	case "decimal_integer_literal", "hex_integer_literal":
		return TokenInteger
	case "decimal_floating_point_literal":
		return TokenDouble
	}
	r, _ := utf8.DecodeRuneInString(lexeme)
	switch {
	case r >= '0' && r <= '9':
		if strings.ContainsAny(lexeme, ".eE") && !strings.HasPrefix(lexeme, "0x") && !strings.HasPrefix(lexeme, "0X") {
			return TokenDouble
		}
		return TokenInteger
	case isIdentifierText(lexeme):
		if reservedWords[lexeme] {
			return TokenKeyword
		}
		return TokenIdentifier
	}
	return TokenPunct
}

func isIdentifierText(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// decodeString returns the unescaped value of a string literal made of one
// or more adjacent pieces. Interpolations are dropped from the value.
func decodeString(lexeme string) (value string, interpolated, ok bool) {
	var b strings.Builder
	i := 0
	for {
		i = skipSpaceAndComments(lexeme, i)
		if i >= len(lexeme) {
			return b.String(), interpolated, true
		}
		raw := false
		if lexeme[i] == 'r' || lexeme[i] == 'R' {
			raw = true
			i++
		}
		if i >= len(lexeme) || (lexeme[i] != '\'' && lexeme[i] != '"') {
			return "", false, false
		}
		quote := lexeme[i : i+1]
		if strings.HasPrefix(lexeme[i:], strings.Repeat(quote, 3)) {
			quote = strings.Repeat(quote, 3)
		}
		i += len(quote)
		closed := false
		for i < len(lexeme) {
			if strings.HasPrefix(lexeme[i:], quote) {
				i += len(quote)
				closed = true
				break
			}
			ch := lexeme[i]
			switch {
			case ch == '\\' && !raw && i+1 < len(lexeme):
				text, n := unescape(lexeme[i+1:])
				b.WriteString(text)
				i += 1 + n
			case ch == '$' && !raw:
				interpolated = true
				if i+1 < len(lexeme) && lexeme[i+1] == '{' {
					i = skipInterpolation(lexeme, i+1)
					continue
				}
				b.WriteByte(ch)
				i++
			case len(quote) == 1 && ch == '\n':
				return "", false, false
			default:
				b.WriteByte(ch)
				i++
			}
		}
		if !closed {
			return "", false, false
		}
	}
}

func skipSpaceAndComments(s string, i int) int {
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n':
			i++
		case strings.HasPrefix(s[i:], "//"):
			if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
				i += j + 1
			} else {
				i = len(s)
			}
		case strings.HasPrefix(s[i:], "/*"):
			if j := strings.Index(s[i+2:], "*/"); j >= 0 {
				i += j + 4
			} else {
				i = len(s)
			}
		default:
			return i
		}
	}
	return i
}

// skipInterpolation returns the offset after the `}` closing the
// interpolation whose `{` is at open.
func skipInterpolation(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '\'', '"':
			if j := strings.IndexByte(s[i+1:], s[i]); j >= 0 {
				i += j + 1
			}
		}
	}
	return len(s)
}

// unescape decodes the escape sequence following a backslash and returns
// the text and the number of bytes consumed.
func unescape(s string) (string, int) {
	switch s[0] {
	case 'n':
		return "\n", 1
	case 'r':
		return "\r", 1
	case 't':
		return "\t", 1
	case 'b':
		return "\b", 1
	case 'f':
		return "\f", 1
	case 'v':
		return "\v", 1
	case 'x':
		if len(s) >= 3 {
			if v, err := strconv.ParseUint(s[1:3], 16, 32); err == nil {
				return string(rune(v)), 3
			}
		}
	case 'u':
		if strings.HasPrefix(s, "u{") {
			if j := strings.IndexByte(s, '}'); j > 2 {
				if v, err := strconv.ParseUint(s[2:j], 16, 32); err == nil {
					return string(rune(v)), j + 1
				}
			}
		} else if len(s) >= 5 {
			if v, err := strconv.ParseUint(s[1:5], 16, 32); err == nil {
				return string(rune(v)), 5
			}
		}
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(r), n
}
