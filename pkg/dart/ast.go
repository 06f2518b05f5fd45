// Package dart provides a typed syntax tree for Dart source, built from the
// tree-sitter Dart grammar. It models what widget construction needs:
// imports, class and enum declarations, functions, blocks and the full
// expression grammar. Other constructs keep their nested expressions as
// UnknownStatement and OtherExpression parts.
//
// Every node records its byte range and parent, so callers can slice the
// original source and walk from an expression up to its enclosing function
// body. Resolution of calls to constructors is done by package analysis and
// stored back into the nodes (Invocation.Constructor, ArgumentList.Parameters,
// PropertyAccess.EnumConstant).
package dart

import (
	"fmt"

	"github.com/gnana997/widgetprops/pkg/catalog"
)

// SyntaxError reports source the grammar rejects.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
}

// Node is implemented by all syntax tree nodes.
type Node interface {
	Offset() int
	End() int
	Parent() Node
	base() *nodeBase
}

type nodeBase struct {
	offset int
	end    int
	parent Node
}

func (b *nodeBase) Offset() int      { return b.offset }
func (b *nodeBase) End() int         { return b.end }
func (b *nodeBase) Parent() Node     { return b.parent }
func (b *nodeBase) base() *nodeBase  { return b }
func (b *nodeBase) setRange(o, e int) { b.offset, b.end = o, e }

// Expression is implemented by expression nodes.
type Expression interface {
	Node
	exprNode()
}

// Statement is implemented by statement nodes.
type Statement interface {
	Node
	stmtNode()
}

// Declaration is implemented by top-level declarations.
type Declaration interface {
	Node
	declNode()
}

// CompilationUnit is the root of a parsed file.
type CompilationUnit struct {
	nodeBase
	Source       string
	Tokens       []Token
	Comments     []Comment
	Directives   []*Directive
	Declarations []Declaration
}

// Directive is an import or export directive.
type Directive struct {
	nodeBase
	Export bool
	URI    string
	Prefix string
	Show   []string
	Hide   []string
}

// ClassDeclaration is a class declaration.
type ClassDeclaration struct {
	nodeBase
	Name         string
	Abstract     bool
	Supertype    string
	Doc          string
	Fields       []*FieldDeclaration
	Constructors []*ConstructorDeclaration
	Methods      []*MethodDeclaration
}

// FieldDeclaration declares one or more fields sharing a type.
type FieldDeclaration struct {
	nodeBase
	Type         string
	Names        []string
	Initializers []Expression
	Static       bool
	Final        bool
	Const        bool
	Doc          string
}

// ConstructorDeclaration is a generative or factory constructor.
type ConstructorDeclaration struct {
	nodeBase
	ClassName  string
	Name       string
	Const      bool
	Factory    bool
	Parameters *FormalParameterList
	Body       *FunctionBody
	Doc        string
}

// FormalParameterList holds declared parameters in order.
type FormalParameterList struct {
	nodeBase
	Parameters []*FormalParameter
}

// FormalParameter is a single declared parameter.
type FormalParameter struct {
	nodeBase
	Name     string
	Type     string
	Named    bool
	Optional bool
	Required bool
	// Field is true for `this.name` parameters.
	Field bool
	// Super is true for `super.name` parameters.
	Super   bool
	Default Expression
}

// MethodDeclaration is a method, getter or setter inside a class.
type MethodDeclaration struct {
	nodeBase
	ReturnType string
	Name       string
	Static     bool
	Getter     bool
	Setter     bool
	Parameters *FormalParameterList
	Body       *FunctionBody
	Doc        string
}

// FunctionDeclaration is a top-level function.
type FunctionDeclaration struct {
	nodeBase
	ReturnType string
	Name       string
	Getter     bool
	Parameters *FormalParameterList
	Body       *FunctionBody
	Doc        string
}

// TopLevelVariableDeclaration declares top-level variables.
type TopLevelVariableDeclaration struct {
	nodeBase
	Type         string
	Names        []string
	Initializers []Expression
}

// EnumDeclaration is an enum declaration.
type EnumDeclaration struct {
	nodeBase
	Name   string
	Values []*EnumConstantDeclaration
	Doc    string
}

// EnumConstantDeclaration is a single enum value.
type EnumConstantDeclaration struct {
	nodeBase
	Name string
	Doc  string
}

// FunctionBody is either a block body or an `=> expression;` body.
type FunctionBody struct {
	nodeBase
	Block      *Block
	Expression Expression
	Async      bool
}

// Block is a brace-delimited statement list.
type Block struct {
	nodeBase
	Statements []Statement
}

// ReturnStatement is `return expr;`.
type ReturnStatement struct {
	nodeBase
	Expression Expression
}

// VariableStatement declares local variables.
type VariableStatement struct {
	nodeBase
	Type         string
	Names        []string
	Initializers []Expression
}

// ExpressionStatement is `expr;`.
type ExpressionStatement struct {
	nodeBase
	Expression Expression
}

// IfStatement is `if (cond) then else otherwise`.
type IfStatement struct {
	nodeBase
	Condition Expression
	Then      Statement
	Else      Statement
}

// UnknownStatement is a statement kind the tree does not model (loops,
// try, switch, local functions). Parts holds the statements, expressions and
// function bodies found inside it.
type UnknownStatement struct {
	nodeBase
	Parts []Node
}

// IntegerLiteral is an integer literal.
type IntegerLiteral struct {
	nodeBase
	Lexeme string
	Value  int64
}

// DoubleLiteral is a floating point literal.
type DoubleLiteral struct {
	nodeBase
	Lexeme string
	Value  float64
}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	nodeBase
	Value bool
}

// NullLiteral is `null`.
type NullLiteral struct {
	nodeBase
}

// StringLiteral is one or more adjacent string tokens.
type StringLiteral struct {
	nodeBase
	Value        string
	Interpolated bool
}

// Identifier is a simple identifier, including `this` and `super`.
type Identifier struct {
	nodeBase
	Name string
}

// PropertyAccess is `target.name` or `target?.name`.
type PropertyAccess struct {
	nodeBase
	Target     Expression
	Name       string
	NameOffset int
	NullAware  bool

	// EnumConstant is set by resolution when the access names an enum value.
	EnumConstant *catalog.EnumRef
}

// Invocation is a call: a function or method invocation, or, once resolved,
// an instance creation (Constructor != nil).
type Invocation struct {
	nodeBase
	// Keyword is "const", "new" or "".
	Keyword       string
	Callee        Expression
	TypeArguments string
	Arguments     *ArgumentList

	// Constructor is set by resolution when the call creates an instance.
	Constructor *catalog.Constructor
}

// IsInstanceCreation reports whether the invocation was resolved to a constructor.
func (n *Invocation) IsInstanceCreation() bool {
	return n.Constructor != nil
}

// ConstructorNameEnd is the end offset of the callee, i.e. the text that
// names the constructor (`const EdgeInsets.all`).
func (n *Invocation) ConstructorNameEnd() int {
	return n.Callee.End()
}

// ArgumentList is a parenthesised argument list.
type ArgumentList struct {
	nodeBase
	// LeftParen and RightParen are token indices.
	LeftParen  int
	RightParen int
	Arguments  []Expression

	// Parameters is parallel to Arguments once resolved; entries are nil
	// for arguments that could not be bound.
	Parameters []*catalog.Parameter
}

// NamedExpression is a named argument `name: expression`.
type NamedExpression struct {
	nodeBase
	Name       string
	NameOffset int
	Expression Expression
}

// ListLiteral is `[a, b]`, optionally const.
type ListLiteral struct {
	nodeBase
	Const    bool
	Elements []Expression
}

// SetOrMapLiteral is `{a, b}` or `{k: v}`.
type SetOrMapLiteral struct {
	nodeBase
	Const    bool
	Elements []Expression
}

// MapEntry is `key: value` inside a map literal.
type MapEntry struct {
	nodeBase
	Key   Expression
	Value Expression
}

// ParenthesizedExpression is `(expression)`.
type ParenthesizedExpression struct {
	nodeBase
	Expression Expression
}

// PrefixExpression is a unary prefix operation such as `-x` or `!x`.
type PrefixExpression struct {
	nodeBase
	Operator string
	Operand  Expression
}

// PostfixExpression is `x!`, `x++` or `x--`.
type PostfixExpression struct {
	nodeBase
	Operand  Expression
	Operator string
}

// BinaryExpression is a binary operation, including `as` and `is`.
type BinaryExpression struct {
	nodeBase
	Left     Expression
	Operator string
	Right    Expression
}

// ConditionalExpression is `cond ? a : b`.
type ConditionalExpression struct {
	nodeBase
	Condition Expression
	Then      Expression
	Else      Expression
}

// IndexExpression is `target[index]`.
type IndexExpression struct {
	nodeBase
	Target Expression
	Index  Expression
}

// FunctionExpression is a closure.
type FunctionExpression struct {
	nodeBase
	Parameters *FormalParameterList
	Body       *FunctionBody
}

// IfElement is a collection element `if (cond) a else b`.
type IfElement struct {
	nodeBase
	Condition Expression
	Then      Expression
	Else      Expression
}

// ForElement is a collection element `for (...) element`. The loop header is
// kept as text.
type ForElement struct {
	nodeBase
	Header string
	Body   Expression
}

// OtherExpression is an expression form the tree does not model. Kind is
// the grammar node kind.
type OtherExpression struct {
	nodeBase
	Kind  string
	Parts []Node
}

// TypeName is a type used in expression position (`as T`, `is T`).
type TypeName struct {
	nodeBase
	Name string
}

func (*Directive) declNode()                   {}
func (*ClassDeclaration) declNode()            {}
func (*FunctionDeclaration) declNode()         {}
func (*TopLevelVariableDeclaration) declNode() {}
func (*EnumDeclaration) declNode()             {}

func (*Block) stmtNode()               {}
func (*ReturnStatement) stmtNode()     {}
func (*VariableStatement) stmtNode()   {}
func (*ExpressionStatement) stmtNode() {}
func (*IfStatement) stmtNode()         {}
func (*UnknownStatement) stmtNode()    {}

func (*IntegerLiteral) exprNode()          {}
func (*DoubleLiteral) exprNode()           {}
func (*BooleanLiteral) exprNode()          {}
func (*NullLiteral) exprNode()             {}
func (*StringLiteral) exprNode()           {}
func (*Identifier) exprNode()              {}
func (*PropertyAccess) exprNode()          {}
func (*Invocation) exprNode()              {}
func (*NamedExpression) exprNode()         {}
func (*ListLiteral) exprNode()             {}
func (*SetOrMapLiteral) exprNode()         {}
func (*MapEntry) exprNode()                {}
func (*ParenthesizedExpression) exprNode() {}
func (*PrefixExpression) exprNode()        {}
func (*PostfixExpression) exprNode()       {}
func (*BinaryExpression) exprNode()        {}
func (*ConditionalExpression) exprNode()   {}
func (*IndexExpression) exprNode()         {}
func (*FunctionExpression) exprNode()      {}
func (*IfElement) exprNode()               {}
func (*ForElement) exprNode()              {}
func (*TypeName) exprNode()                {}
func (*OtherExpression) exprNode()         {}
