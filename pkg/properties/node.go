// Package properties models the configurable properties of a widget creation
// and turns property edits into source changes.
//
// A Tree is built once for the widget creation at an offset of a resolved
// file. Each node is one property slot and is in exactly one binding state:
// bound to an existing argument, unset on an existing constructor call, or
// pending on an object that does not exist in the source yet. Editing a node
// emits the smallest edit that gives the property its new value, creating
// enclosing calls (and a wrapping Container) as needed.
//
// Trees are one-shot: once an edit has produced changes the source no longer
// matches the tree, and further edits fail with ErrStaleTree.
package properties

import (
	"errors"
	"log/slog"

	"github.com/gnana997/widgetprops/pkg/analysis"
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

var (
	// ErrNoWidget is returned when no widget creation covers the offset.
	ErrNoWidget = errors.New("no widget creation at offset")
	// ErrUnknownProperty is returned for an id the tree does not hold.
	ErrUnknownProperty = errors.New("unknown property id")
	// ErrStaleTree is returned when editing a tree whose source has been
	// changed by an earlier edit.
	ErrStaleTree = errors.New("property tree is stale")
)

// IDGenerator hands out property ids in increasing order.
type IDGenerator struct {
	next int
}

// NewIDGenerator returns a generator whose first id is first.
func NewIDGenerator(first int) *IDGenerator {
	return &IDGenerator{next: first}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// binding is the source location a property value lives at.
type binding interface {
	isBinding()
}

// boundArgument is a property whose argument exists.
type boundArgument struct {
	invocation *dart.Invocation
	// arg is the full argument, a NamedExpression for named arguments.
	arg   dart.Expression
	value dart.Expression
}

// unsetArgument is a property whose call exists but has no argument for it.
type unsetArgument struct {
	invocation *dart.Invocation
}

// pendingObject is a property of an object that is not in the source yet.
// Setting it creates the object through ctor.
type pendingObject struct {
	ctor *catalog.Constructor
}

func (*boundArgument) isBinding() {}
func (*unsetArgument) isBinding() {}
func (*pendingObject) isBinding() {}

const noParent = -1

type node struct {
	id       int
	name     string
	parent   int
	children []int
	binding  binding

	ctor  *catalog.Constructor
	param *catalog.Parameter

	required   bool
	safe       bool
	doc        string
	editor     *protocol.FlutterWidgetPropertyEditor
	expression string
	value      *protocol.FlutterWidgetPropertyValue

	// group marks a node that only holds other properties.
	group bool
	// virtual is set on the Container group of a widget without a Container.
	virtual *VirtualContainer
	// insets is set on properties decomposed into four sides.
	insets *edgeInsets
	// side is the index into the parent's insets for side properties, or -1.
	side int
}

// Options configure tree building and editing.
type Options struct {
	// Formatter lays out the enclosing function body after an edit. Nil
	// disables formatting.
	Formatter change.Formatter
	// MaxDepth bounds nested property expansion. Zero selects 4.
	MaxDepth int
	Logger   *slog.Logger
}

// Tree is the property model of one widget creation.
type Tree struct {
	unit   *analysis.ResolvedUnit
	widget *dart.Invocation
	opts   Options
	log    *slog.Logger

	nodes []node
	roots []int
	byID  map[int]int
	stale bool
}

// Unit returns the resolved file the tree was built from.
func (t *Tree) Unit() *analysis.ResolvedUnit { return t.unit }

// Widget returns the widget creation the tree describes.
func (t *Tree) Widget() *dart.Invocation { return t.widget }

// WidgetName returns the constructor name of the widget, e.g. `SizedBox.expand`.
func (t *Tree) WidgetName() string { return t.widget.Constructor.QualifiedName() }

// Stale reports whether an edit has been produced from this tree.
func (t *Tree) Stale() bool { return t.stale }

// IDs returns the ids of all properties in depth-first order.
func (t *Tree) IDs() []int {
	ids := make([]int, 0, len(t.nodes))
	var walk func(int)
	walk = func(i int) {
		ids = append(ids, t.nodes[i].id)
		for _, c := range t.nodes[i].children {
			walk(c)
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return ids
}

// Properties returns the descriptors of the top-level properties.
func (t *Tree) Properties() []*protocol.FlutterWidgetProperty {
	out := make([]*protocol.FlutterWidgetProperty, 0, len(t.roots))
	for _, r := range t.roots {
		out = append(out, t.describe(r))
	}
	return out
}

// Property returns the descriptor of the property with the given id.
func (t *Tree) Property(id int) (*protocol.FlutterWidgetProperty, bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.describe(i), true
}

func (t *Tree) describe(i int) *protocol.FlutterWidgetProperty {
	n := &t.nodes[i]
	p := &protocol.FlutterWidgetProperty{
		ID:             n.id,
		IsRequired:     n.required,
		IsSafeToUpdate: n.safe,
		Name:           n.name,
		Documentation:  n.doc,
		Editor:         n.editor,
		Expression:     n.expression,
		Value:          n.value,
	}
	for _, c := range n.children {
		p.Children = append(p.Children, t.describe(c))
	}
	return p
}

func (t *Tree) lookup(id int) (int, error) {
	i, ok := t.byID[id]
	if !ok {
		return 0, ErrUnknownProperty
	}
	return i, nil
}

func (t *Tree) addNode(n node) int {
	i := len(t.nodes)
	t.nodes = append(t.nodes, n)
	t.byID[n.id] = i
	if n.parent == noParent {
		t.roots = append(t.roots, i)
	} else {
		t.nodes[n.parent].children = append(t.nodes[n.parent].children, i)
	}
	return i
}
