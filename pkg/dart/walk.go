package dart

import "sort"

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	expr := func(e Expression) {
		if e != nil {
			out = append(out, e)
		}
	}
	params := func(l *FormalParameterList) {
		if l != nil {
			out = append(out, l)
		}
	}
	body := func(b *FunctionBody) {
		if b != nil {
			out = append(out, b)
		}
	}

	switch n := n.(type) {
	case *CompilationUnit:
		for _, d := range n.Directives {
			out = append(out, d)
		}
		for _, d := range n.Declarations {
			out = append(out, d)
		}
	case *ClassDeclaration:
		members := make([]Node, 0, len(n.Fields)+len(n.Constructors)+len(n.Methods))
		for _, f := range n.Fields {
			members = append(members, f)
		}
		for _, c := range n.Constructors {
			members = append(members, c)
		}
		for _, m := range n.Methods {
			members = append(members, m)
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Offset() < members[j].Offset() })
		out = members
	case *FieldDeclaration:
		for _, e := range n.Initializers {
			expr(e)
		}
	case *ConstructorDeclaration:
		params(n.Parameters)
		body(n.Body)
	case *FormalParameterList:
		for _, fp := range n.Parameters {
			out = append(out, fp)
		}
	case *FormalParameter:
		expr(n.Default)
	case *MethodDeclaration:
		params(n.Parameters)
		body(n.Body)
	case *FunctionDeclaration:
		params(n.Parameters)
		body(n.Body)
	case *TopLevelVariableDeclaration:
		for _, e := range n.Initializers {
			expr(e)
		}
	case *EnumDeclaration:
		for _, v := range n.Values {
			out = append(out, v)
		}
	case *FunctionBody:
		if n.Block != nil {
			out = append(out, n.Block)
		}
		expr(n.Expression)
	case *Block:
		for _, s := range n.Statements {
			out = append(out, s)
		}
	case *ReturnStatement:
		expr(n.Expression)
	case *VariableStatement:
		for _, e := range n.Initializers {
			expr(e)
		}
	case *ExpressionStatement:
		expr(n.Expression)
	case *IfStatement:
		expr(n.Condition)
		if n.Then != nil {
			out = append(out, n.Then)
		}
		if n.Else != nil {
			out = append(out, n.Else)
		}
	case *PropertyAccess:
		expr(n.Target)
	case *Invocation:
		expr(n.Callee)
		if n.Arguments != nil {
			out = append(out, n.Arguments)
		}
	case *ArgumentList:
		for _, a := range n.Arguments {
			expr(a)
		}
	case *NamedExpression:
		expr(n.Expression)
	case *ListLiteral:
		for _, e := range n.Elements {
			expr(e)
		}
	case *SetOrMapLiteral:
		for _, e := range n.Elements {
			expr(e)
		}
	case *MapEntry:
		expr(n.Key)
		expr(n.Value)
	case *ParenthesizedExpression:
		expr(n.Expression)
	case *PrefixExpression:
		expr(n.Operand)
	case *PostfixExpression:
		expr(n.Operand)
	case *BinaryExpression:
		expr(n.Left)
		expr(n.Right)
	case *ConditionalExpression:
		expr(n.Condition)
		expr(n.Then)
		expr(n.Else)
	case *IndexExpression:
		expr(n.Target)
		expr(n.Index)
	case *FunctionExpression:
		params(n.Parameters)
		body(n.Body)
	case *IfElement:
		expr(n.Condition)
		expr(n.Then)
		expr(n.Else)
	case *ForElement:
		expr(n.Body)
	case *UnknownStatement:
		out = append(out, n.Parts...)
	case *OtherExpression:
		out = append(out, n.Parts...)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

func linkParents(root Node) {
	Inspect(root, func(n Node) bool {
		for _, c := range Children(n) {
			c.base().parent = n
		}
		return true
	})
}

// NodeCovering returns the innermost node whose range contains offset
// (start and end inclusive), or nil.
func NodeCovering(root Node, offset int) Node {
	if root == nil || offset < root.Offset() || offset > root.End() {
		return nil
	}
	for _, c := range Children(root) {
		if found := NodeCovering(c, offset); found != nil {
			return found
		}
	}
	return root
}

// EnclosingFunctionBody returns the nearest function body containing n,
// or nil.
func EnclosingFunctionBody(n Node) *FunctionBody {
	for ; n != nil; n = n.Parent() {
		if body, ok := n.(*FunctionBody); ok {
			return body
		}
	}
	return nil
}

// EnclosingInvocation returns the nearest invocation that has n inside its
// argument list.
func EnclosingInvocation(n Node) *Invocation {
	for child, parent := n, n.Parent(); parent != nil; child, parent = parent, parent.Parent() {
		if inv, ok := parent.(*Invocation); ok && child == Node(inv.Arguments) {
			return inv
		}
	}
	return nil
}

// Unwrap returns the value of a named argument, or the argument itself.
func Unwrap(arg Expression) Expression {
	if named, ok := arg.(*NamedExpression); ok {
		return named.Expression
	}
	return arg
}

// Text returns the source text of n.
func (u *CompilationUnit) Text(n Node) string {
	return u.Source[n.Offset():n.End()]
}

// PrecedingToken returns the last token that ends at or before offset.
func (u *CompilationUnit) PrecedingToken(offset int) (Token, bool) {
	i := sort.Search(len(u.Tokens), func(i int) bool { return u.Tokens[i].End > offset }) - 1
	if i < 0 {
		return Token{}, false
	}
	return u.Tokens[i], true
}

// Token returns the token with the given index.
func (u *CompilationUnit) Token(index int) Token {
	return u.Tokens[index]
}

// LineIndent returns the leading whitespace of the line containing offset.
func (u *CompilationUnit) LineIndent(offset int) string {
	start := offset
	for start > 0 && u.Source[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(u.Source) && (u.Source[end] == ' ' || u.Source[end] == '\t') {
		end++
	}
	return u.Source[start:end]
}
