package properties

import (
	"log/slog"

	"github.com/gnana997/widgetprops/pkg/analysis"
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

const defaultMaxDepth = 4

// Build returns the property tree of the innermost widget creation covering
// offset. Ids are taken from ids in depth-first order.
func Build(unit *analysis.ResolvedUnit, offset int, ids *IDGenerator, opts Options) (*Tree, error) {
	inv, ok := unit.WidgetCreationAt(offset)
	if !ok {
		return nil, ErrNoWidget
	}
	return BuildFor(unit, inv, ids, opts), nil
}

// BuildFor returns the property tree of a resolved widget creation.
//
// Top-level properties are the existing arguments in source order followed
// by the remaining named parameters in declaration order. Widgets other than
// Container get a trailing "Container" group whose properties are set on the
// enclosing Container, or on a Container created around the widget.
func BuildFor(unit *analysis.ResolvedUnit, widget *dart.Invocation, ids *IDGenerator, opts Options) *Tree {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	t := &Tree{
		unit:   unit,
		widget: widget,
		opts:   opts,
		log:    log,
		byID:   make(map[int]int),
	}
	b := &treeBuilder{t: t, ids: ids}
	b.addCallProperties(noParent, widget, 0, skipKey)
	b.addContainerGroup(widget)
	log.Debug("built property tree", "widget", t.WidgetName(), "properties", len(t.nodes))
	return t
}

type treeBuilder struct {
	t   *Tree
	ids *IDGenerator
}

func skipKey(name string) bool { return name == "key" }

// addCallProperties adds the properties of an existing constructor call.
func (b *treeBuilder) addCallProperties(parent int, inv *dart.Invocation, depth int, skip func(string) bool) {
	ctor := inv.Constructor
	present := make(map[string]bool)
	for i, arg := range inv.Arguments.Arguments {
		p := inv.Arguments.Parameters[i]
		if p == nil {
			continue
		}
		present[p.Name] = true
		if skip(p.Name) {
			continue
		}
		b.addProperty(parent, ctor, p, &boundArgument{invocation: inv, arg: arg, value: dart.Unwrap(arg)}, depth)
	}
	for i := range ctor.Parameters {
		p := &ctor.Parameters[i]
		if !p.Named || present[p.Name] || skip(p.Name) {
			continue
		}
		b.addProperty(parent, ctor, p, &unsetArgument{invocation: inv}, depth)
	}
}

// addPendingProperties adds the named parameters of an object that would be
// created through ctor.
func (b *treeBuilder) addPendingProperties(parent int, ctor *catalog.Constructor, depth int, skip func(string) bool) {
	for i := range ctor.Parameters {
		p := &ctor.Parameters[i]
		if !p.Named || skip(p.Name) {
			continue
		}
		b.addProperty(parent, ctor, p, &pendingObject{ctor: ctor}, depth)
	}
}

func (b *treeBuilder) addProperty(parent int, ctor *catalog.Constructor, p *catalog.Parameter, bd binding, depth int) int {
	unit := b.t.unit
	typ := b.parameterType(ctor, p)
	n := node{
		id:       b.ids.Next(),
		name:     p.Name,
		parent:   parent,
		binding:  bd,
		ctor:     ctor,
		param:    p,
		required: p.Required,
		side:     -1,
		editor:   b.editorFor(ctor.Class.Library, typ),
	}
	n.doc, _ = unit.ParameterDocumentation(ctor, p)

	var value dart.Expression
	if ba, ok := bd.(*boundArgument); ok {
		value = ba.value
		n.expression = unit.Unit.Text(value)
		n.value = ExpressionToValue(value, n.editor)
	}
	n.safe = value == nil || n.value != nil

	idx := b.t.addNode(n)
	if depth < b.t.opts.MaxDepth {
		b.expand(idx, ctor.Class.Library, typ, value, depth+1)
	}
	return idx
}

// expand adds nested properties for structured parameter types.
func (b *treeBuilder) expand(idx int, lib, typ string, value dart.Expression, depth int) {
	cls, ok := b.t.unit.TypeClass(lib, typ)
	if !ok {
		return
	}
	if isInsetsClass(cls) {
		b.addInsets(idx, lib, cls, value)
		return
	}
	if !cls.Expandable {
		return
	}
	ctor, ok := cls.Constructor("")
	if !ok {
		return
	}
	if value == nil {
		b.addPendingProperties(idx, ctor, depth, skipKey)
		return
	}
	if inv, ok := value.(*dart.Invocation); ok && inv.IsInstanceCreation() && inv.Constructor.Class.Name == cls.Name {
		b.addCallProperties(idx, inv, depth, skipKey)
	}
}

// parameterType returns the declared type of p, looking up the field a
// `super.name` parameter forwards to when the type is omitted.
func (b *treeBuilder) parameterType(ctor *catalog.Constructor, p *catalog.Parameter) string {
	if p.Type != "" || !p.Field {
		return p.Type
	}
	seen := make(map[*catalog.Class]bool)
	for cls := ctor.Class; cls != nil && !seen[cls]; {
		seen[cls] = true
		if f, ok := cls.Field(p.Name); ok {
			return f.Type
		}
		next, ok := b.t.unit.Superclass(cls)
		if !ok {
			break
		}
		cls = next
	}
	return ""
}

func (b *treeBuilder) editorFor(lib, typ string) *protocol.FlutterWidgetPropertyEditor {
	switch dart.BaseTypeName(typ) {
	case "":
		return nil
	case "bool":
		return &protocol.FlutterWidgetPropertyEditor{Kind: protocol.EditorBool}
	case "double", "num":
		return &protocol.FlutterWidgetPropertyEditor{Kind: protocol.EditorDouble}
	case "int":
		return &protocol.FlutterWidgetPropertyEditor{Kind: protocol.EditorInt}
	case "String":
		return &protocol.FlutterWidgetPropertyEditor{Kind: protocol.EditorString}
	}
	e, ok := b.t.unit.TypeEnum(lib, typ)
	if !ok {
		return nil
	}
	editor := &protocol.FlutterWidgetPropertyEditor{Kind: protocol.EditorEnum}
	for i := range e.Values {
		editor.EnumItems = append(editor.EnumItems, EnumItem(&catalog.EnumRef{Enum: e, Value: &e.Values[i]}))
	}
	return editor
}
