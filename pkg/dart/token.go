package dart

// TokenKind classifies a lexical token.
type TokenKind int

const (
	// TokenEOF marks the end of input.
	TokenEOF TokenKind = iota
	// TokenIdentifier covers identifiers and contextual keywords (show, required, get, ...).
	TokenIdentifier
	// TokenKeyword covers reserved words (class, const, return, true, ...).
	TokenKeyword
	// TokenInteger is a decimal or hexadecimal integer literal.
	TokenInteger
	// TokenDouble is a floating point literal.
	TokenDouble
	// TokenString is a complete string literal, including quotes and prefix.
	TokenString
	// TokenPunct is an operator or separator.
	TokenPunct
)

// String returns a readable name for the kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenIdentifier:
		return "identifier"
	case TokenKeyword:
		return "keyword"
	case TokenInteger:
		return "integer"
	case TokenDouble:
		return "double"
	case TokenString:
		return "string"
	case TokenPunct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is a lexical token with byte offsets into the source.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Offset int
	End    int

	// Index is the position of the token in CompilationUnit.Tokens.
	Index int

	// Value is the unescaped content of a string literal.
	Value string
	// Interpolated reports a string literal containing `$` interpolation.
	Interpolated bool
}

// Is reports whether the token is punctuation or a keyword with the given lexeme.
func (t Token) Is(lexeme string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenKeyword || t.Kind == TokenIdentifier) && t.Lexeme == lexeme
}

// Comment is a source comment. Comments are kept out of the token stream.
type Comment struct {
	Text   string
	Offset int
	End    int
	// Doc is true for `///` and `/** */` comments.
	Doc bool
	// Line is true for `//` comments.
	Line bool
}

var reservedWords = map[string]bool{
	"assert": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "default": true, "do": true, "else": true,
	"enum": true, "extends": true, "false": true, "final": true, "finally": true,
	"for": true, "if": true, "in": true, "is": true, "new": true, "null": true,
	"rethrow": true, "return": true, "super": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "var": true, "void": true,
	"while": true, "with": true,
}

// IsReservedWord reports whether word is a reserved Dart keyword.
func IsReservedWord(word string) bool {
	return reservedWords[word]
}
