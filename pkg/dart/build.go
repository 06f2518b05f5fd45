package dart

import (
	"errors"
	"slices"
	"sort"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Parse parses a Dart compilation unit with the tree-sitter Dart grammar and
// builds the typed syntax tree from the concrete one. Constructs the tree
// does not model (loops, try statements, local functions, ...) are kept as
// UnknownStatement and OtherExpression nodes so the expressions inside them
// stay reachable. A source the grammar rejects is reported as a *SyntaxError.
func Parse(src string) (*CompilationUnit, error) {
	tree, err := parseTree(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	tokens, comments, err := scanTree(src, root)
	if err != nil {
		return nil, err
	}
	b := &builder{src: src, tokens: tokens, comments: comments, tokenAt: make(map[int]int, len(tokens))}
	for _, t := range tokens {
		b.tokenAt[t.Offset] = t.Index
	}
	unit := b.unit(root)
	linkParents(unit)
	return unit, nil
}

const (
	exprPrefix = "dynamic __expression() {\n  return "
	exprSuffix = "\n  ;\n}\n"
)

// ParseExpression parses a standalone expression. Offsets in the result are
// relative to src.
func ParseExpression(src string) (Expression, error) {
	unit, err := Parse(exprPrefix + src + exprSuffix)
	if err != nil {
		var serr *SyntaxError
		if errors.As(err, &serr) {
			serr.Offset = min(max(serr.Offset-len(exprPrefix), 0), len(src))
		}
		return nil, err
	}
	var ret *ReturnStatement
	if len(unit.Declarations) == 1 {
		if fn, ok := unit.Declarations[0].(*FunctionDeclaration); ok && fn.Body != nil && fn.Body.Block != nil {
			if stmts := fn.Body.Block.Statements; len(stmts) == 1 {
				ret, _ = stmts[0].(*ReturnStatement)
			}
		}
	}
	if ret == nil || ret.Expression == nil {
		return nil, &SyntaxError{Offset: 0, Message: "not a single expression"}
	}
	expr := ret.Expression
	shift := len(exprPrefix)
	Inspect(expr, func(n Node) bool {
		nb := n.base()
		nb.offset -= shift
		nb.end -= shift
		switch n := n.(type) {
		case *PropertyAccess:
			n.NameOffset -= shift
		case *NamedExpression:
			n.NameOffset -= shift
		}
		return true
	})
	expr.base().parent = nil
	return expr, nil
}

// BaseTypeName strips an import prefix, type arguments and nullability from
// a type: `material.List<int>?` -> `List`.
func BaseTypeName(typ string) string {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexAny(typ, "<? "); i >= 0 {
		typ = typ[:i]
	}
	if i := strings.LastIndexByte(typ, '.'); i >= 0 {
		typ = typ[i+1:]
	}
	return typ
}

// builder converts the concrete tree into the typed syntax tree.
type builder struct {
	src      string
	tokens   []Token
	comments []Comment
	// tokenAt maps a token start offset to its index.
	tokenAt map[int]int
}

func startOf(n *ts.Node) int { return int(n.StartByte()) }
func endOf(n *ts.Node) int   { return int(n.EndByte()) }

func (b *builder) text(n *ts.Node) string {
	return b.src[startOf(n):endOf(n)]
}

// is reports whether n is an unnamed token with the given text.
func (b *builder) is(n *ts.Node, lexeme string) bool {
	return !n.IsNamed() && b.text(n) == lexeme
}

// index returns the position of the first unnamed token lexeme in nodes at or
// after from, or -1.
func (b *builder) index(nodes []*ts.Node, lexeme string, from int) int {
	for i := from; i < len(nodes); i++ {
		if b.is(nodes[i], lexeme) {
			return i
		}
	}
	return -1
}

// children returns the children of n without comments.
func children(n *ts.Node) []*ts.Node {
	out := make([]*ts.Node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || isCommentKind(c.Kind()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// split cuts nodes at unnamed separator tokens, dropping empty pieces.
func (b *builder) split(nodes []*ts.Node, sep string) [][]*ts.Node {
	var out [][]*ts.Node
	var cur []*ts.Node
	for _, n := range nodes {
		if b.is(n, sep) {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, n)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// between returns the comma separated items enclosed by open and close.
func (b *builder) between(nodes []*ts.Node, open, close string) [][]*ts.Node {
	i := b.index(nodes, open, 0)
	j := len(nodes) - 1
	for j > i && !b.is(nodes[j], close) {
		j--
	}
	if i < 0 || j <= i {
		return nil
	}
	return b.split(nodes[i+1:j], ",")
}

func (b *builder) trimSemicolon(nodes []*ts.Node) []*ts.Node {
	for len(nodes) > 0 && b.is(nodes[len(nodes)-1], ";") {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

func (b *builder) tokenIndex(offset int) int {
	return b.tokenAt[offset]
}

// docBefore returns the raw doc comments immediately preceding offset.
func (b *builder) docBefore(offset int) string {
	i := sort.Search(len(b.comments), func(i int) bool { return b.comments[i].Offset >= offset }) - 1
	var parts []string
	next := offset
	for ; i >= 0; i-- {
		c := b.comments[i]
		if !c.Doc || strings.TrimSpace(b.src[c.End:next]) != "" {
			break
		}
		parts = append(parts, c.Text)
		next = c.Offset
	}
	slices.Reverse(parts)
	return strings.Join(parts, "\n")
}

// leaves calls f for every token of n in order. String literals count as a
// single token.
func (b *builder) leaves(n *ts.Node, f func(*ts.Node)) {
	if isCommentKind(n.Kind()) {
		return
	}
	if n.ChildCount() == 0 || n.Kind() == "string_literal" {
		f(n)
		return
	}
	for _, c := range children(n) {
		b.leaves(c, f)
	}
}

var modifierWords = map[string]bool{
	"final": true, "const": true, "var": true, "late": true, "static": true,
	"covariant": true, "external": true, "required": true, "abstract": true,
	"get": true, "set": true,
}

func isAnnotation(n *ts.Node) bool {
	return n.Kind() == "annotation" || n.Kind() == "marker_annotation"
}

// typeText returns the source text spanned by nodes, leaving out modifiers
// and annotations.
func (b *builder) typeText(nodes []*ts.Node) string {
	first, last := -1, -1
	for i, n := range nodes {
		if isAnnotation(n) || modifierWords[b.text(n)] {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return ""
	}
	return strings.TrimSpace(b.src[startOf(nodes[first]):endOf(nodes[last])])
}

// ---------------------------------------------------------------------------
// Declarations

var declaratorLists = map[string]bool{
	"initialized_identifier_list":   true,
	"static_final_declaration_list": true,
}

var skippedTopLevel = map[string]bool{
	"library_name": true, "part_directive": true, "part_of_directive": true,
	"script_tag": true, "mixin_declaration": true, "extension_declaration": true,
	"extension_type_declaration": true, "type_alias": true, "setter_signature": true,
	"function_body": true,
}

func (b *builder) unit(root *ts.Node) *CompilationUnit {
	unit := &CompilationUnit{Source: b.src, Tokens: b.tokens, Comments: b.comments}
	unit.setRange(0, len(b.src))

	parts := children(root)
	var pending []*ts.Node
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		begin := startOf(p)
		if len(pending) > 0 {
			begin = startOf(pending[0])
		}
		switch k := p.Kind(); {
		case k == "import_or_export" || k == "library_import" || k == "library_export":
			unit.Directives = append(unit.Directives, b.directive(p))
		case k == "class_definition":
			unit.Declarations = append(unit.Declarations, b.class(p, begin))
		case k == "enum_declaration":
			unit.Declarations = append(unit.Declarations, b.enum(p, begin))
		case k == "function_signature" || k == "getter_signature":
			var body *ts.Node
			if i+1 < len(parts) && parts[i+1].Kind() == "function_body" {
				i++
				body = parts[i]
			}
			unit.Declarations = append(unit.Declarations, b.function(p, body, begin))
		case declaratorLists[k]:
			v := &TopLevelVariableDeclaration{}
			v.Type, v.Names, v.Initializers = b.variables(append(pending, p))
			end := endOf(p)
			if i+1 < len(parts) && b.is(parts[i+1], ";") {
				i++
				end = endOf(parts[i])
			}
			v.setRange(begin, end)
			unit.Declarations = append(unit.Declarations, v)
		case b.is(p, ";") || skippedTopLevel[k]:
		default:
			// Annotations, modifiers and the type of a variable declaration
			// precede the node they belong to.
			pending = append(pending, p)
			continue
		}
		pending = nil
	}
	return unit
}

func (b *builder) directive(n *ts.Node) *Directive {
	d := &Directive{}
	d.setRange(startOf(n), endOf(n))
	mode := ""
	b.leaves(n, func(l *ts.Node) {
		text := b.text(l)
		switch {
		case l.Kind() == "string_literal":
			if d.URI == "" {
				d.URI, _, _ = decodeString(text)
			}
		case text == "export":
			d.Export = true
		case text == "as" || text == "show" || text == "hide":
			mode = text
		case text == "," || !isIdentifierText(text) || reservedWords[text]:
		case mode == "as":
			d.Prefix = text
			mode = ""
		case mode == "show":
			d.Show = append(d.Show, text)
		case mode == "hide":
			d.Hide = append(d.Hide, text)
		}
	})
	return d
}

func (b *builder) name(n *ts.Node) string {
	if f := n.ChildByFieldName("name"); f != nil {
		return b.text(f)
	}
	for _, c := range children(n) {
		if c.Kind() == "identifier" || c.Kind() == "type_identifier" {
			return b.text(c)
		}
	}
	return ""
}

func (b *builder) class(n *ts.Node, begin int) *ClassDeclaration {
	cls := &ClassDeclaration{Name: b.name(n), Doc: b.docBefore(begin)}
	cls.setRange(begin, endOf(n))
	for _, p := range children(n) {
		switch p.Kind() {
		case "superclass":
			cls.Supertype = b.supertype(p)
		case "class_body":
			b.members(cls, p)
		default:
			if b.text(p) == "abstract" {
				cls.Abstract = true
			}
		}
	}
	return cls
}

// supertype returns the base name of the class after `extends`.
func (b *builder) supertype(n *ts.Node) string {
	var typ []*ts.Node
	for _, p := range children(n) {
		switch {
		case b.is(p, "extends"):
		case p.Kind() == "mixins" || p.Kind() == "interfaces" || b.is(p, "with") || b.is(p, "implements"):
			return BaseTypeName(b.typeText(typ))
		default:
			typ = append(typ, p)
		}
	}
	return BaseTypeName(b.typeText(typ))
}

func (b *builder) members(cls *ClassDeclaration, body *ts.Node) {
	parts := children(body)
	begin := -1
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		if isAnnotation(p) {
			if begin < 0 {
				begin = startOf(p)
			}
			continue
		}
		if begin < 0 {
			begin = startOf(p)
		}
		switch p.Kind() {
		case "declaration":
			b.member(cls, p, nil, begin)
		case "method_signature":
			var fnBody *ts.Node
			if i+1 < len(parts) && parts[i+1].Kind() == "function_body" {
				i++
				fnBody = parts[i]
			}
			b.member(cls, p, fnBody, begin)
		}
		begin = -1
	}
}

var constructorSignatures = map[string]bool{
	"constructor_signature":                     true,
	"constant_constructor_signature":            true,
	"factory_constructor_signature":             true,
	"redirecting_factory_constructor_signature": true,
}

var functionSignatures = map[string]bool{
	"function_signature": true,
	"getter_signature":   true,
	"setter_signature":   true,
}

// signature finds the signature node of a class member, looking through
// wrappers such as method_signature.
func signature(n *ts.Node) *ts.Node {
	for _, c := range children(n) {
		if constructorSignatures[c.Kind()] || functionSignatures[c.Kind()] {
			return c
		}
		if c.Kind() == "method_signature" {
			if s := signature(c); s != nil {
				return s
			}
		}
	}
	return nil
}

// hasWord reports whether a direct child of one of nodes is the token word.
func (b *builder) hasWord(word string, nodes ...*ts.Node) bool {
	for _, n := range nodes {
		for _, c := range children(n) {
			if c.ChildCount() <= 1 && b.text(c) == word {
				return true
			}
		}
	}
	return false
}

func (b *builder) member(cls *ClassDeclaration, n, fnBody *ts.Node, begin int) {
	end := endOf(n)
	if fnBody != nil {
		end = endOf(fnBody)
	}
	doc := b.docBefore(begin)
	sig := signature(n)
	if sig == nil && (constructorSignatures[n.Kind()] || functionSignatures[n.Kind()]) {
		sig = n
	}

	switch {
	case sig != nil && (constructorSignatures[sig.Kind()] || (sig.Kind() == "function_signature" && b.name(sig) == cls.Name)):
		ctor := b.constructor(sig, cls.Name)
		ctor.Doc = doc
		if fnBody != nil {
			ctor.Body = b.body(fnBody)
		}
		ctor.setRange(begin, end)
		cls.Constructors = append(cls.Constructors, ctor)

	case sig != nil:
		m := &MethodDeclaration{
			Static: b.hasWord("static", n, sig),
			Getter: sig.Kind() == "getter_signature",
			Setter: sig.Kind() == "setter_signature",
			Doc:    doc,
		}
		m.ReturnType, m.Name, m.Parameters = b.signatureParts(sig)
		if fnBody != nil {
			m.Body = b.body(fnBody)
		}
		m.setRange(begin, end)
		cls.Methods = append(cls.Methods, m)

	default:
		parts := children(n)
		if !slices.ContainsFunc(parts, func(p *ts.Node) bool { return declaratorLists[p.Kind()] }) {
			return
		}
		f := &FieldDeclaration{
			Static: b.hasWord("static", n),
			Final:  b.hasWord("final", n),
			Const:  b.hasWord("const", n),
			Doc:    doc,
		}
		f.Type, f.Names, f.Initializers = b.variables(parts)
		f.setRange(begin, end)
		cls.Fields = append(cls.Fields, f)
	}
}

func (b *builder) constructor(sig *ts.Node, className string) *ConstructorDeclaration {
	ctor := &ConstructorDeclaration{ClassName: className}
	var names []string
	for _, p := range children(sig) {
		if p.Kind() == "formal_parameter_list" {
			ctor.Parameters = b.parameters(p)
			break
		}
		b.leaves(p, func(l *ts.Node) {
			switch text := b.text(l); {
			case text == "const":
				ctor.Const = true
			case text == "factory":
				ctor.Factory = true
			case isIdentifierText(text) && !reservedWords[text]:
				names = append(names, text)
			}
		})
	}
	if len(names) > 1 {
		ctor.Name = names[len(names)-1]
	}
	return ctor
}

// signatureParts returns the return type, name and parameters of a function,
// getter or setter signature.
func (b *builder) signatureParts(sig *ts.Node) (string, string, *FormalParameterList) {
	parts := children(sig)
	nameIdx := -1
	if f := sig.ChildByFieldName("name"); f != nil {
		nameIdx = slices.IndexFunc(parts, func(p *ts.Node) bool { return startOf(p) == startOf(f) })
	}
	var params *FormalParameterList
	for i, p := range parts {
		if p.Kind() == "formal_parameter_list" {
			params = b.parameters(p)
			if nameIdx < 0 {
				nameIdx = i - 1
			}
			break
		}
	}
	if nameIdx < 0 {
		for i := len(parts) - 1; i >= 0; i-- {
			if parts[i].Kind() == "identifier" {
				nameIdx = i
				break
			}
		}
	}
	if nameIdx < 0 {
		return "", "", params
	}
	return b.typeText(parts[:nameIdx]), b.text(parts[nameIdx]), params
}

func (b *builder) function(sig, fnBody *ts.Node, begin int) *FunctionDeclaration {
	fn := &FunctionDeclaration{Getter: sig.Kind() == "getter_signature", Doc: b.docBefore(begin)}
	fn.ReturnType, fn.Name, fn.Parameters = b.signatureParts(sig)
	end := endOf(sig)
	if fnBody != nil {
		fn.Body = b.body(fnBody)
		end = endOf(fnBody)
	}
	fn.setRange(begin, end)
	return fn
}

func (b *builder) enum(n *ts.Node, begin int) *EnumDeclaration {
	e := &EnumDeclaration{Name: b.name(n), Doc: b.docBefore(begin)}
	e.setRange(begin, endOf(n))
	for _, p := range children(n) {
		if p.Kind() != "enum_body" {
			continue
		}
		for _, c := range children(p) {
			if c.Kind() != "enum_constant" {
				continue
			}
			v := &EnumConstantDeclaration{Name: b.name(c), Doc: b.docBefore(startOf(c))}
			v.setRange(startOf(c), endOf(c))
			e.Values = append(e.Values, v)
		}
	}
	return e
}

// variables reads the type, names and initializers of a variable
// declaration from its parts.
func (b *builder) variables(parts []*ts.Node) (string, []string, []Expression) {
	for i, p := range parts {
		if declaratorLists[p.Kind()] {
			_, names, inits := b.variables(children(p))
			return b.typeText(parts[:i]), names, inits
		}
	}

	var typ string
	var names []string
	var inits []Expression
	for i, seg := range b.split(parts, ",") {
		seg = flatten(b.trimSemicolon(seg), "initialized_identifier", "static_final_declaration", "declared_identifier")
		decl := len(seg)
		eq := b.index(seg, "=", 0)
		if eq >= 0 {
			decl = eq
		}
		nameIdx := -1
		for j := decl - 1; j >= 0; j-- {
			if seg[j].Kind() == "identifier" {
				nameIdx = j
				break
			}
		}
		if nameIdx < 0 {
			continue
		}
		if i == 0 {
			typ = b.typeText(seg[:nameIdx])
		}
		names = append(names, b.text(seg[nameIdx]))
		var init Expression
		if eq >= 0 {
			init = b.expr(seg[eq+1:])
		}
		inits = append(inits, init)
	}
	return typ, names, inits
}

// flatten replaces nodes of the given kinds by their children.
func flatten(nodes []*ts.Node, kinds ...string) []*ts.Node {
	var out []*ts.Node
	for _, n := range nodes {
		if slices.Contains(kinds, n.Kind()) {
			out = append(out, flatten(children(n), kinds...)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func (b *builder) parameters(n *ts.Node) *FormalParameterList {
	list := &FormalParameterList{}
	list.setRange(startOf(n), endOf(n))
	for _, seg := range b.between(children(n), "(", ")") {
		if len(seg) == 1 && seg[0].Kind() == "optional_formal_parameters" {
			inner := children(seg[0])
			named := len(inner) > 0 && b.is(inner[0], "{")
			open, close := "[", "]"
			if named {
				open, close = "{", "}"
			}
			for _, opt := range b.between(inner, open, close) {
				list.Parameters = append(list.Parameters, b.parameter(opt, named, true))
			}
			continue
		}
		list.Parameters = append(list.Parameters, b.parameter(seg, false, false))
	}
	return list
}

var parameterWrappers = []string{
	"formal_parameter", "default_formal_parameter", "default_named_parameter",
	"normal_formal_parameter", "simple_formal_parameter", "constructor_param",
	"super_formal_parameter", "declared_identifier",
}

func (b *builder) parameter(seg []*ts.Node, named, optional bool) *FormalParameter {
	fp := &FormalParameter{Named: named, Optional: optional}
	fp.setRange(startOf(seg[0]), endOf(seg[len(seg)-1]))

	parts := flatten(seg, parameterWrappers...)
	eq := b.index(parts, "=", 0)
	if eq < 0 {
		eq = b.index(parts, ":", 0)
	}
	if eq >= 0 {
		fp.Default = b.expr(parts[eq+1:])
		parts = parts[:eq]
	}
	// A function-typed parameter ends with its own parameter list.
	if i := slices.IndexFunc(parts, func(p *ts.Node) bool { return p.Kind() == "formal_parameter_list" }); i >= 0 {
		parts = parts[:i]
	}

	var typ []*ts.Node
	nameIdx := -1
	for i, p := range parts {
		switch text := b.text(p); {
		case text == "required":
			fp.Required = true
		case text == "this":
			fp.Field = true
		case text == "super":
			fp.Super = true
		case text == ".":
		case p.Kind() == "identifier":
			nameIdx = i
		}
	}
	if nameIdx >= 0 {
		fp.Name = b.text(parts[nameIdx])
		for _, p := range parts[:nameIdx] {
			if t := b.text(p); t != "this" && t != "super" && t != "." {
				typ = append(typ, p)
			}
		}
	}
	fp.Type = b.typeText(typ)
	return fp
}

func (b *builder) body(n *ts.Node) *FunctionBody {
	fb := &FunctionBody{}
	fb.setRange(startOf(n), endOf(n))
	parts := children(n)
	for i, p := range parts {
		switch {
		case b.text(p) == "async" || b.text(p) == "async*":
			fb.Async = true
		case p.Kind() == "block":
			fb.Block = b.block(p)
		case b.is(p, "=>"):
			fb.Expression = b.expr(b.trimSemicolon(parts[i+1:]))
			return fb
		case p.Kind() == "function_expression_body" || p.Kind() == "function_body":
			inner := b.body(p)
			fb.Block, fb.Expression, fb.Async = inner.Block, inner.Expression, fb.Async || inner.Async
			return fb
		}
	}
	return fb
}

// ---------------------------------------------------------------------------
// Statements

func (b *builder) block(n *ts.Node) *Block {
	bl := &Block{}
	bl.setRange(startOf(n), endOf(n))
	for _, p := range children(n) {
		if p.IsNamed() {
			bl.Statements = append(bl.Statements, b.statement(p))
		}
	}
	return bl
}

func (b *builder) statement(n *ts.Node) Statement {
	parts := children(n)
	switch n.Kind() {
	case "block":
		return b.block(n)
	case "return_statement":
		s := &ReturnStatement{}
		if len(parts) > 1 {
			s.Expression = b.expr(b.trimSemicolon(parts[1:]))
		}
		s.setRange(startOf(n), endOf(n))
		return s
	case "expression_statement":
		if e := b.expr(b.trimSemicolon(parts)); e != nil {
			s := &ExpressionStatement{Expression: e}
			s.setRange(startOf(n), endOf(n))
			return s
		}
	case "local_variable_declaration":
		s := &VariableStatement{}
		decl := parts
		if i := slices.IndexFunc(parts, func(p *ts.Node) bool { return p.Kind() == "initialized_variable_definition" }); i >= 0 {
			decl = children(parts[i])
		}
		s.Type, s.Names, s.Initializers = b.variables(decl)
		s.setRange(startOf(n), endOf(n))
		return s
	case "if_statement":
		if s := b.ifStatement(n, parts); s != nil {
			return s
		}
	}
	s := &UnknownStatement{Parts: b.parts(n)}
	s.setRange(startOf(n), endOf(n))
	return s
}

func (b *builder) ifStatement(n *ts.Node, parts []*ts.Node) Statement {
	cond, rest := b.condition(parts)
	if cond == nil || len(rest) == 0 || !rest[0].IsNamed() {
		return nil
	}
	s := &IfStatement{Condition: cond, Then: b.statement(rest[0])}
	if len(rest) > 2 && b.is(rest[1], "else") {
		s.Else = b.statement(rest[2])
	}
	s.setRange(startOf(n), endOf(n))
	return s
}

// condition reads the parenthesized condition following an `if` keyword
// and returns it with the remaining parts.
func (b *builder) condition(parts []*ts.Node) (Expression, []*ts.Node) {
	if len(parts) < 2 {
		return nil, nil
	}
	if parts[1].Kind() == "parenthesized_expression" {
		return b.expr(b.inner(children(parts[1]), "(", ")")), parts[2:]
	}
	if !b.is(parts[1], "(") {
		return nil, nil
	}
	closing := b.index(parts, ")", 2)
	if closing < 0 {
		return nil, nil
	}
	return b.expr(parts[2:closing]), parts[closing+1:]
}

// inner returns the nodes between the first open token and the last close
// token.
func (b *builder) inner(nodes []*ts.Node, open, close string) []*ts.Node {
	i := b.index(nodes, open, 0)
	j := len(nodes) - 1
	for j > i && !b.is(nodes[j], close) {
		j--
	}
	if i < 0 || j <= i {
		return nil
	}
	return nodes[i+1 : j]
}

// parts converts the children of an unmodeled node into the statements and
// expressions they contain.
func (b *builder) parts(n *ts.Node) []Node {
	var out []Node
	for _, run := range b.runs(children(n)) {
		if len(run) == 1 {
			p := run[0]
			switch k := p.Kind(); {
			case k == "block" || k == "local_variable_declaration" || strings.HasSuffix(k, "_statement"):
				out = append(out, b.statement(p))
				continue
			case k == "function_body" || k == "function_expression_body":
				out = append(out, b.body(p))
				continue
			case p.ChildCount() == 0 || opaqueKinds[k]:
				continue
			}
		}
		if e := b.expr(run); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// opaqueKinds hold no expressions worth modelling.
var opaqueKinds = map[string]bool{
	"type_arguments": true, "type_parameters": true, "type_identifier": true,
	"nullable_type": true, "function_type": true, "void_type": true,
	"inferred_type": true, "formal_parameter_list": true, "label": true,
	"annotation": true, "marker_annotation": true, "final_builtin": true,
	"const_builtin": true, "string_literal": true,
}

var suffixKinds = map[string]bool{
	"selector": true, "argument_part": true, "arguments": true,
	"cascade_section": true, "type_cast": true, "type_test": true,
	"unconditional_assignable_selector": true, "conditional_assignable_selector": true,
	"assignable_selector": true, "index_selector": true,
}

// runs groups nodes into expressions: a primary followed by its selectors.
func (b *builder) runs(nodes []*ts.Node) [][]*ts.Node {
	var out [][]*ts.Node
	var cur []*ts.Node
	for _, n := range nodes {
		switch {
		case suffixKinds[n.Kind()] && len(cur) > 0:
			cur = append(cur, n)
			continue
		case !n.IsNamed():
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		if len(cur) > 0 {
			out = append(out, cur)
		}
		cur = []*ts.Node{n}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// ---------------------------------------------------------------------------
// Expressions

var binaryKinds = map[string]bool{
	"additive_expression": true, "multiplicative_expression": true,
	"relational_expression": true, "equality_expression": true,
	"logical_and_expression": true, "logical_or_expression": true,
	"if_null_expression": true, "bitwise_and_expression": true,
	"bitwise_or_expression": true, "bitwise_xor_expression": true,
	"shift_expression": true, "assignment_expression": true,
}

// expr converts a run of sibling nodes, a primary followed by selectors,
// into an expression.
func (b *builder) expr(run []*ts.Node) Expression {
	if len(run) == 0 {
		return nil
	}
	if len(run) > 1 && run[1].IsNamed() && !suffixKinds[run[1].Kind()] {
		return b.other(run[0], run, b.runs(run))
	}
	e := b.node(run[0])
	for _, p := range run[1:] {
		e = b.suffix(e, p)
	}
	return e
}

func (b *builder) node(n *ts.Node) Expression {
	parts := children(n)
	switch k := n.Kind(); k {
	case "identifier", "type_identifier", "this", "super":
		return b.identifier(n)
	case "decimal_integer_literal", "hex_integer_literal":
		lit := &IntegerLiteral{Lexeme: b.text(n), Value: parseInt(b.text(n))}
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "decimal_floating_point_literal":
		v, _ := strconv.ParseFloat(b.text(n), 64)
		lit := &DoubleLiteral{Lexeme: b.text(n), Value: v}
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "true", "false", "boolean_literal":
		lit := &BooleanLiteral{Value: b.text(n) == "true"}
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "null_literal":
		lit := &NullLiteral{}
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "string_literal":
		tok := b.tokens[b.tokenIndex(startOf(n))]
		lit := &StringLiteral{Value: tok.Value, Interpolated: tok.Interpolated}
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "list_literal":
		lit := &ListLiteral{Const: len(parts) > 0 && b.text(parts[0]) == "const"}
		lit.Elements = b.elements(parts, "[", "]")
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "set_or_map_literal":
		lit := &SetOrMapLiteral{Const: len(parts) > 0 && b.text(parts[0]) == "const"}
		lit.Elements = b.elements(parts, "{", "}")
		lit.setRange(startOf(n), endOf(n))
		return lit
	case "parenthesized_expression":
		if inner := b.expr(b.inner(parts, "(", ")")); inner != nil {
			pe := &ParenthesizedExpression{Expression: inner}
			pe.setRange(startOf(n), endOf(n))
			return pe
		}
	case "const_object_expression", "new_expression":
		if inv := b.creation(n, parts); inv != nil {
			return inv
		}
	case "function_expression":
		return b.closure(n, parts)
	case "conditional_expression":
		q := b.index(parts, "?", 0)
		c := b.index(parts, ":", q+1)
		if q > 0 && c > q {
			ce := &ConditionalExpression{Condition: b.expr(parts[:q]), Then: b.expr(parts[q+1 : c]), Else: b.expr(parts[c+1:])}
			ce.setRange(startOf(n), endOf(n))
			return ce
		}
	case "unary_expression", "await_expression", "throw_expression":
		if len(parts) >= 2 && isOperator(parts[0]) {
			pe := &PrefixExpression{Operator: b.text(parts[0]), Operand: b.expr(parts[1:])}
			pe.setRange(startOf(n), endOf(n))
			return pe
		}
		return b.expr(parts)
	case "postfix_expression":
		if last := len(parts) - 1; last >= 1 && isOperator(parts[last]) {
			pe := &PostfixExpression{Operand: b.expr(parts[:last]), Operator: b.text(parts[last])}
			pe.setRange(startOf(n), endOf(n))
			return pe
		}
		return b.expr(parts)
	case "assignable_expression", "argument", "type_cast_expression", "type_test_expression", "expression":
		if e := b.expr(parts); e != nil {
			return e
		}
	default:
		if binaryKinds[k] || (strings.HasSuffix(k, "_expression") && slices.ContainsFunc(parts, isOperator)) {
			if e := b.binary(parts); e != nil {
				return e
			}
		}
	}
	return b.other(n, nil, nil)
}

func (b *builder) identifier(n *ts.Node) *Identifier {
	id := &Identifier{Name: b.text(n)}
	id.setRange(startOf(n), endOf(n))
	return id
}

// other wraps a node the tree does not model. A bare word becomes a
// literal or an identifier.
func (b *builder) other(n *ts.Node, run []*ts.Node, groups [][]*ts.Node) Expression {
	if run == nil && n.ChildCount() == 0 {
		switch text := b.text(n); {
		case text == "true" || text == "false":
			lit := &BooleanLiteral{Value: text == "true"}
			lit.setRange(startOf(n), endOf(n))
			return lit
		case text == "null":
			lit := &NullLiteral{}
			lit.setRange(startOf(n), endOf(n))
			return lit
		case isIdentifierText(text):
			return b.identifier(n)
		}
	}
	o := &OtherExpression{Kind: n.Kind()}
	if run == nil {
		o.Parts = b.parts(n)
		o.setRange(startOf(n), endOf(n))
		return o
	}
	for _, g := range groups {
		if e := b.expr(g); e != nil {
			o.Parts = append(o.Parts, e)
		}
	}
	o.setRange(startOf(run[0]), endOf(run[len(run)-1]))
	return o
}

func isOperator(n *ts.Node) bool {
	return !n.IsNamed() || strings.HasSuffix(n.Kind(), "_operator")
}

// binary folds an operator chain left to right.
func (b *builder) binary(parts []*ts.Node) Expression {
	var left Expression
	op := ""
	var run []*ts.Node
	flush := func() {
		right := b.expr(run)
		run = nil
		switch {
		case right == nil:
		case left == nil:
			left = right
		default:
			be := &BinaryExpression{Left: left, Operator: op, Right: right}
			be.setRange(left.Offset(), right.End())
			left = be
		}
	}
	for _, p := range parts {
		if isOperator(p) && len(run) > 0 {
			flush()
			op = b.text(p)
			continue
		}
		run = append(run, p)
	}
	flush()
	return left
}

// suffix applies a selector, cascade or type operator to e.
func (b *builder) suffix(e Expression, p *ts.Node) Expression {
	parts := children(p)
	switch p.Kind() {
	case "argument_part", "arguments":
		return b.selector(e, []*ts.Node{p})
	case "cascade_section":
		section := b.other(p, nil, nil)
		be := &BinaryExpression{Left: e, Operator: "..", Right: section}
		if len(parts) > 0 && !parts[0].IsNamed() {
			be.Operator = b.text(parts[0])
		}
		be.setRange(e.Offset(), endOf(p))
		return be
	case "type_cast", "type_test":
		if len(parts) == 0 {
			break
		}
		op, typ := b.text(parts[0]), parts[1:]
		if len(typ) > 0 && b.is(typ[0], "!") {
			op, typ = op+"!", typ[1:]
		}
		if len(typ) == 0 {
			break
		}
		tn := &TypeName{Name: b.typeText(typ)}
		tn.setRange(startOf(typ[0]), endOf(typ[len(typ)-1]))
		be := &BinaryExpression{Left: e, Operator: op, Right: tn}
		be.setRange(e.Offset(), endOf(p))
		return be
	}
	if !p.IsNamed() || suffixKinds[p.Kind()] {
		if p.IsNamed() {
			return b.selector(e, parts)
		}
		return b.selector(e, []*ts.Node{p})
	}
	o := &OtherExpression{Kind: p.Kind(), Parts: append([]Node{e}, b.parts(p)...)}
	o.setRange(e.Offset(), endOf(p))
	return o
}

var callParts = map[string]bool{"argument_part": true, "arguments": true, "type_arguments": true}

// selector applies the parts of a selector to target in order.
func (b *builder) selector(target Expression, parts []*ts.Node) Expression {
	for i := 0; i < len(parts); {
		p := parts[i]
		switch {
		case callParts[p.Kind()]:
			j := i
			for j < len(parts) && callParts[parts[j].Kind()] {
				j++
			}
			if inv := b.call(target, parts[i:j]); inv != nil {
				target = inv
			}
			i = j
		case (b.is(p, ".") || b.is(p, "?.")) && i+1 < len(parts):
			name := parts[i+1]
			pa := &PropertyAccess{Target: target, Name: b.text(name), NameOffset: startOf(name), NullAware: b.is(p, "?.")}
			pa.setRange(target.Offset(), endOf(name))
			target = pa
			i += 2
		case b.is(p, "[") || b.is(p, "?["):
			closing := b.index(parts, "]", i+1)
			if closing < 0 {
				closing = len(parts)
			}
			ie := &IndexExpression{Target: target, Index: b.expr(parts[i+1 : closing])}
			end := endOf(parts[min(closing, len(parts)-1)])
			ie.setRange(target.Offset(), end)
			target = ie
			i = closing + 1
		case b.is(p, "!"):
			pe := &PostfixExpression{Operand: target, Operator: "!"}
			pe.setRange(target.Offset(), endOf(p))
			target = pe
			i++
		case p.IsNamed() && p.ChildCount() > 0:
			target = b.selector(target, children(p))
			i++
		default:
			i++
		}
	}
	return target
}

// call builds an invocation of target from type arguments and an argument
// list, possibly wrapped in an argument_part.
func (b *builder) call(target Expression, parts []*ts.Node) *Invocation {
	parts = flatten(parts, "argument_part")
	inv := &Invocation{Callee: target}
	for _, p := range parts {
		switch p.Kind() {
		case "type_arguments":
			inv.TypeArguments = b.text(p)
		case "arguments":
			inv.Arguments = b.arguments(p)
		}
	}
	if inv.Arguments == nil {
		return nil
	}
	inv.setRange(target.Offset(), inv.Arguments.End())
	return inv
}

func (b *builder) arguments(n *ts.Node) *ArgumentList {
	list := &ArgumentList{LeftParen: b.tokenIndex(startOf(n)), RightParen: b.tokenIndex(endOf(n) - 1)}
	list.setRange(startOf(n), endOf(n))
	for _, seg := range b.between(children(n), "(", ")") {
		if arg := b.argument(seg); arg != nil {
			list.Arguments = append(list.Arguments, arg)
		}
	}
	return list
}

func (b *builder) argument(seg []*ts.Node) Expression {
	if len(seg) == 1 {
		switch seg[0].Kind() {
		case "named_argument":
			return b.namedArgument(children(seg[0]))
		case "argument":
			return b.argument(children(seg[0]))
		}
	}
	if seg[0].Kind() == "label" {
		return b.namedArgument(seg)
	}
	return b.expr(seg)
}

// namedArgument builds `name: value` from a label and the value run.
func (b *builder) namedArgument(parts []*ts.Node) Expression {
	var name *ts.Node
	var value []*ts.Node
	switch {
	case len(parts) > 1 && parts[0].Kind() == "label":
		for _, c := range children(parts[0]) {
			if c.IsNamed() {
				name = c
				break
			}
		}
		value = parts[1:]
	case len(parts) > 2 && b.is(parts[1], ":"):
		name, value = parts[0], parts[2:]
	}
	if name == nil {
		return b.expr(parts)
	}
	ne := &NamedExpression{Name: b.text(name), NameOffset: startOf(name), Expression: b.expr(value)}
	if ne.Expression == nil {
		return nil
	}
	ne.setRange(startOf(name), ne.Expression.End())
	return ne
}

// creation builds a `const`/`new` instance creation.
func (b *builder) creation(n *ts.Node, parts []*ts.Node) *Invocation {
	if len(parts) == 0 {
		return nil
	}
	inv := &Invocation{Keyword: b.text(parts[0])}
	var callee Expression
	var walk func(nodes []*ts.Node)
	walk = func(nodes []*ts.Node) {
		for _, p := range nodes {
			switch k := p.Kind(); {
			case k == "arguments":
				inv.Arguments = b.arguments(p)
			case k == "type_arguments":
				inv.TypeArguments = b.text(p)
			case k == "identifier" || k == "type_identifier":
				if callee == nil {
					callee = b.identifier(p)
					continue
				}
				pa := &PropertyAccess{Target: callee, Name: b.text(p), NameOffset: startOf(p)}
				pa.setRange(callee.Offset(), endOf(p))
				callee = pa
			case p.IsNamed() && p.ChildCount() > 0:
				walk(children(p))
			}
		}
	}
	walk(parts[1:])
	if callee == nil || inv.Arguments == nil {
		return nil
	}
	inv.Callee = callee
	inv.setRange(startOf(n), endOf(n))
	return inv
}

func (b *builder) closure(n *ts.Node, parts []*ts.Node) Expression {
	fe := &FunctionExpression{}
	rest := parts
	for i, p := range parts {
		if p.Kind() == "formal_parameter_list" {
			fe.Parameters = b.parameters(p)
			rest = parts[i+1:]
			break
		}
	}
	fe.Body = b.bodyParts(rest)
	fe.setRange(startOf(n), endOf(n))
	return fe
}

// bodyParts builds a function body from a closure's flattened body nodes.
func (b *builder) bodyParts(parts []*ts.Node) *FunctionBody {
	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 && (parts[0].Kind() == "function_expression_body" || parts[0].Kind() == "function_body") {
		return b.body(parts[0])
	}
	fb := &FunctionBody{}
	fb.setRange(startOf(parts[0]), endOf(parts[len(parts)-1]))
	for i, p := range parts {
		switch {
		case b.text(p) == "async" || b.text(p) == "async*":
			fb.Async = true
		case p.Kind() == "block":
			fb.Block = b.block(p)
		case b.is(p, "=>"):
			fb.Expression = b.expr(parts[i+1:])
			return fb
		}
	}
	return fb
}

// elements converts the items of a collection literal.
func (b *builder) elements(parts []*ts.Node, open, close string) []Expression {
	var out []Expression
	for _, seg := range b.between(parts, open, close) {
		if e := b.element(seg); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (b *builder) element(seg []*ts.Node) Expression {
	if len(seg) == 1 {
		n := seg[0]
		parts := children(n)
		switch n.Kind() {
		case "element":
			return b.element(parts)
		case "pair":
			return b.mapEntry(parts, startOf(n), endOf(n))
		case "spread_element":
			if len(parts) > 1 {
				pe := &PrefixExpression{Operator: b.text(parts[0]), Operand: b.expr(parts[1:])}
				pe.setRange(startOf(n), endOf(n))
				return pe
			}
		case "if_element":
			return b.ifElement(n, parts)
		case "for_element":
			return b.forElement(n, parts)
		}
	}
	if b.index(seg, ":", 0) > 0 {
		return b.mapEntry(seg, startOf(seg[0]), endOf(seg[len(seg)-1]))
	}
	return b.expr(seg)
}

func (b *builder) mapEntry(parts []*ts.Node, start, end int) Expression {
	colon := b.index(parts, ":", 0)
	if colon <= 0 {
		return b.expr(parts)
	}
	me := &MapEntry{Key: b.expr(parts[:colon]), Value: b.expr(parts[colon+1:])}
	me.setRange(start, end)
	return me
}

func (b *builder) ifElement(n *ts.Node, parts []*ts.Node) Expression {
	cond, rest := b.condition(parts)
	if cond == nil {
		return b.other(n, nil, nil)
	}
	ie := &IfElement{Condition: cond}
	if k := b.index(rest, "else", 0); k >= 0 {
		ie.Then = b.element(rest[:k])
		ie.Else = b.element(rest[k+1:])
	} else {
		ie.Then = b.element(rest)
	}
	ie.setRange(startOf(n), endOf(n))
	return ie
}

func (b *builder) forElement(n *ts.Node, parts []*ts.Node) Expression {
	fe := &ForElement{}
	fe.setRange(startOf(n), endOf(n))
	open := b.index(parts, "(", 0)
	closing := b.index(parts, ")", open+1)
	switch {
	case open >= 0 && closing > open:
		fe.Header = b.src[startOf(parts[open]):endOf(parts[closing])]
		fe.Body = b.element(parts[closing+1:])
	case len(parts) > 2 && strings.HasPrefix(b.text(parts[1]), "("):
		fe.Header = b.text(parts[1])
		fe.Body = b.element(parts[2:])
	}
	return fe
}

func parseInt(lexeme string) int64 {
	if strings.HasPrefix(lexeme, "0x") || strings.HasPrefix(lexeme, "0X") {
		v, _ := strconv.ParseInt(lexeme[2:], 16, 64)
		return v
	}
	v, _ := strconv.ParseInt(lexeme, 10, 64)
	return v
}
