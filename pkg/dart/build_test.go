package dart

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWidget = `import 'package:flutter/material.dart';
import 'package:flutter/widgets.dart' as w show Text, Padding;

/// A greeting card.
///
/// Shows a title.
class Greeting extends StatelessWidget {
  const Greeting({super.key, required this.title, this.size = 2.0});

  /// The title to show.
  final String title;
  final double size;

  @override
  Widget build(BuildContext context) {
    final label = title.toUpperCase();
    return Padding(
      padding: const EdgeInsets.all(8),
      child: Text(label, textAlign: TextAlign.center),
    );
  }
}

enum Mood {
  /// Cheerful.
  happy,
  sad,
}

Widget helper() => const w.Text('hi');
`

func TestParse_Declarations(t *testing.T) {
	unit, err := Parse(sampleWidget)
	require.NoError(t, err)

	require.Len(t, unit.Directives, 2)
	assert.Equal(t, "package:flutter/material.dart", unit.Directives[0].URI)
	assert.Equal(t, "w", unit.Directives[1].Prefix)
	assert.Equal(t, []string{"Text", "Padding"}, unit.Directives[1].Show)

	require.Len(t, unit.Declarations, 3)
	cls, ok := unit.Declarations[0].(*ClassDeclaration)
	require.True(t, ok)
	assert.Equal(t, "Greeting", cls.Name)
	assert.Equal(t, "StatelessWidget", cls.Supertype)
	assert.Equal(t, "/// A greeting card.\n///\n/// Shows a title.", cls.Doc)

	require.Len(t, cls.Constructors, 1)
	params := cls.Constructors[0].Parameters.Parameters
	require.Len(t, params, 3)
	assert.True(t, params[0].Super)
	assert.Equal(t, "title", params[1].Name)
	assert.True(t, params[1].Required)
	assert.True(t, params[1].Field)
	assert.True(t, params[2].Named)
	require.NotNil(t, params[2].Default)
	assert.Equal(t, "2.0", unit.Text(params[2].Default))

	require.Len(t, cls.Fields, 2)
	assert.Equal(t, "String", cls.Fields[0].Type)
	assert.Equal(t, "/// The title to show.", cls.Fields[0].Doc)
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "build", cls.Methods[0].Name)

	enum, ok := unit.Declarations[1].(*EnumDeclaration)
	require.True(t, ok)
	require.Len(t, enum.Values, 2)
	assert.Equal(t, "/// Cheerful.", enum.Values[0].Doc)

	fn, ok := unit.Declarations[2].(*FunctionDeclaration)
	require.True(t, ok)
	require.NotNil(t, fn.Body)
	inv, ok := fn.Body.Expression.(*Invocation)
	require.True(t, ok)
	assert.Equal(t, "const", inv.Keyword)
	assert.Equal(t, "w.Text", unit.Text(inv.Callee))
}

func TestParse_WidgetExpression(t *testing.T) {
	unit, err := Parse(sampleWidget)
	require.NoError(t, err)

	build := unit.Declarations[0].(*ClassDeclaration).Methods[0]
	require.NotNil(t, build.Body.Block)
	ret, ok := build.Body.Block.Statements[1].(*ReturnStatement)
	require.True(t, ok)

	padding, ok := ret.Expression.(*Invocation)
	require.True(t, ok)
	assert.Equal(t, "Padding", padding.Callee.(*Identifier).Name)
	args := padding.Arguments
	require.Len(t, args.Arguments, 2)
	assert.Equal(t, "(", unit.Token(args.LeftParen).Lexeme)
	assert.Equal(t, ")", unit.Token(args.RightParen).Lexeme)
	assert.Equal(t, ",", unit.Token(args.RightParen-1).Lexeme)

	named := args.Arguments[0].(*NamedExpression)
	assert.Equal(t, "padding", named.Name)
	insets := named.Expression.(*Invocation)
	assert.Equal(t, "const EdgeInsets.all(8)", unit.Text(insets))
	access := insets.Callee.(*PropertyAccess)
	assert.Equal(t, "all", access.Name)
	assert.Equal(t, "EdgeInsets", access.Target.(*Identifier).Name)
	lit := insets.Arguments.Arguments[0].(*IntegerLiteral)
	assert.Equal(t, int64(8), lit.Value)

	text := Unwrap(args.Arguments[1]).(*Invocation)
	assert.Equal(t, "Text(label, textAlign: TextAlign.center)", unit.Text(text))
	assert.Same(t, padding, EnclosingInvocation(text))
	assert.Same(t, build.Body, EnclosingFunctionBody(text))
}

func TestParse_Parents(t *testing.T) {
	unit, err := Parse(sampleWidget)
	require.NoError(t, err)

	Inspect(unit, func(n Node) bool {
		for _, c := range Children(n) {
			assert.Same(t, n, c.Parent())
			assert.GreaterOrEqual(t, c.Offset(), n.Offset())
			assert.LessOrEqual(t, c.End(), n.End())
		}
		return true
	})
}

func TestNodeCovering(t *testing.T) {
	unit, err := Parse(sampleWidget)
	require.NoError(t, err)

	offset := indexOf(t, sampleWidget, "Text(label")
	node := NodeCovering(unit, offset+1)
	id, ok := node.(*Identifier)
	require.True(t, ok)
	assert.Equal(t, "Text", id.Name)
	_, ok = id.Parent().(*Invocation)
	assert.True(t, ok)

	assert.Nil(t, NodeCovering(unit, len(sampleWidget)+10))
}

func TestPrecedingToken(t *testing.T) {
	src := "final x = f(a, b);"
	unit, err := Parse(src)
	require.NoError(t, err)

	tok, ok := unit.PrecedingToken(indexOf(t, src, ")"))
	require.True(t, ok)
	assert.Equal(t, "b", tok.Lexeme)
	_, ok = unit.PrecedingToken(0)
	assert.False(t, ok)
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "a ?? b ? c : d", want: "*dart.ConditionalExpression"},
		{src: "x as Foo?", want: "*dart.BinaryExpression"},
		{src: "-1.5", want: "*dart.PrefixExpression"},
		{src: "[if (a) b else c, ...d, for (final e in f) e]", want: "*dart.ListLiteral"},
		{src: "{'a': 1, 'b': 2}", want: "*dart.SetOrMapLiteral"},
		{src: "(x) => x * 2", want: "*dart.FunctionExpression"},
		{src: "() async { await f(); }", want: "*dart.FunctionExpression"},
		{src: "list<int>(1)", want: "*dart.Invocation"},
		{src: "a < b", want: "*dart.BinaryExpression"},
		{src: "a >> 2", want: "*dart.BinaryExpression"},
		{src: "paint..color = c..strokeWidth = 2", want: "*dart.BinaryExpression"},
		{src: "map['k']!.value", want: "*dart.PropertyAccess"},
		{src: "const <Widget>[]", want: "*dart.ListLiteral"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := ParseExpression(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typeName(expr))
			assert.Equal(t, 0, expr.Offset())
			assert.Equal(t, len(tt.src), expr.End())
		})
	}
}

func TestParseExpression_Precedence(t *testing.T) {
	expr, err := ParseExpression("a + b * c == d")
	require.NoError(t, err)
	eq := expr.(*BinaryExpression)
	assert.Equal(t, "==", eq.Operator)
	sum := eq.Left.(*BinaryExpression)
	assert.Equal(t, "+", sum.Operator)
	assert.Equal(t, "*", sum.Right.(*BinaryExpression).Operator)
}

func TestParse_SkipsUnsupportedStatements(t *testing.T) {
	src := `
Widget build() {
  for (var i = 0; i < 3; i++) { print(i); }
  try { risky(); } catch (e) { log(e); } finally { done(); }
  void local() {}
  int count = 2;
  return Text('$count');
}`
	unit, err := Parse(src)
	require.NoError(t, err)
	fn := unit.Declarations[0].(*FunctionDeclaration)
	stmts := fn.Body.Block.Statements
	require.Len(t, stmts, 5)
	assert.IsType(t, &UnknownStatement{}, stmts[0])
	assert.IsType(t, &UnknownStatement{}, stmts[1])
	assert.IsType(t, &UnknownStatement{}, stmts[2])
	assert.IsType(t, &VariableStatement{}, stmts[3])
	ret := stmts[4].(*ReturnStatement)
	lit := ret.Expression.(*Invocation).Arguments.Arguments[0].(*StringLiteral)
	assert.True(t, lit.Interpolated)
}

func TestParse_KeepsExpressionsInUnknownStatements(t *testing.T) {
	src := `
Widget build() {
  for (final item in items) {
    children.add(Text(item));
  }
  return Column(children: children);
}`
	unit, err := Parse(src)
	require.NoError(t, err)

	var names []string
	Inspect(unit, func(n Node) bool {
		if inv, ok := n.(*Invocation); ok {
			if id, ok := inv.Callee.(*Identifier); ok {
				names = append(names, id.Name)
			}
		}
		return true
	})
	assert.Equal(t, []string{"Text", "Column"}, names)

	text := NodeCovering(unit, indexOf(t, src, "Text(item)")+1)
	require.NotNil(t, text)
	_, ok := text.Parent().(*Invocation)
	assert.True(t, ok)
	assert.NotNil(t, EnclosingFunctionBody(text))
}

func TestParse_TopLevelVariables(t *testing.T) {
	unit, err := Parse("const double gap = 8.0, wide = 16;\nfinal label = 'x';\n")
	require.NoError(t, err)
	require.Len(t, unit.Declarations, 2)

	gap := unit.Declarations[0].(*TopLevelVariableDeclaration)
	assert.Equal(t, "double", gap.Type)
	assert.Equal(t, []string{"gap", "wide"}, gap.Names)
	require.Len(t, gap.Initializers, 2)
	assert.Equal(t, "16", unit.Text(gap.Initializers[1]))

	label := unit.Declarations[1].(*TopLevelVariableDeclaration)
	assert.Equal(t, "", label.Type)
	assert.Equal(t, "x", label.Initializers[0].(*StringLiteral).Value)
}

func TestParseExpression_Errors(t *testing.T) {
	for _, src := range []string{"1 +", "a; b", "}", ""} {
		_, err := ParseExpression(src)
		var syntaxErr *SyntaxError
		assert.ErrorAs(t, err, &syntaxErr, src)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		"Widget build() { return Text('a' }",
		"class A {",
		"var x = ;",
	} {
		_, err := Parse(src)
		var syntaxErr *SyntaxError
		assert.ErrorAs(t, err, &syntaxErr, src)
	}
}

func TestBaseTypeName(t *testing.T) {
	assert.Equal(t, "EdgeInsetsGeometry", BaseTypeName("EdgeInsetsGeometry?"))
	assert.Equal(t, "List", BaseTypeName("List<Widget>"))
	assert.Equal(t, "Text", BaseTypeName("material.Text"))
	assert.Equal(t, "void", BaseTypeName("void Function()"))
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	t.Fatalf("%q not found", sub)
	return -1
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
