package properties

import (
	"strings"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/dart"
)

const (
	containerClass = "Container"
	paddingClass   = "Padding"
)

// VirtualContainer describes how to wrap a widget in a Container the first
// time a Container property is set.
type VirtualContainer struct {
	Class  *catalog.Class
	Widget *dart.Invocation
	// Wrapper is an enclosing Padding that is renamed to Container instead
	// of adding a new call. Move is its padding argument.
	Wrapper *dart.Invocation
	Move    *dart.NamedExpression

	consumed bool
}

// Consumed reports whether the promotion has been emitted.
func (vc *VirtualContainer) Consumed() bool { return vc.consumed }

func skipKeyAndChild(name string) bool { return name == "key" || name == "child" }

// addContainerGroup adds the "Container" group of widget.
func (b *treeBuilder) addContainerGroup(widget *dart.Invocation) {
	unit := b.t.unit
	wc := widget.Constructor.Class
	if wc.Name == containerClass {
		return
	}
	cls, ok := unit.TypeClass(wc.Library, containerClass)
	if !ok {
		return
	}
	ctor, ok := cls.Constructor("")
	if !ok {
		return
	}
	group := node{
		id:     b.ids.Next(),
		name:   containerClass,
		parent: noParent,
		ctor:   ctor,
		group:  true,
		side:   -1,
		doc:    catalog.ClassDocumentation(cls),
	}

	parent := enclosingChildCall(widget)
	switch {
	case parent != nil && parent.Constructor.Class.Name == containerClass:
		group.binding = &boundArgument{invocation: parent, arg: parent, value: parent}
		idx := b.t.addNode(group)
		b.addCallProperties(idx, parent, 1, skipKeyAndChild)

	case parent != nil && parent.Constructor.Class.Name == paddingClass && namedArgument(parent, "padding") != nil:
		move := namedArgument(parent, "padding")
		group.binding = &pendingObject{ctor: ctor}
		group.virtual = &VirtualContainer{Class: cls, Widget: widget, Wrapper: parent, Move: move}
		idx := b.t.addNode(group)
		for i := range ctor.Parameters {
			p := &ctor.Parameters[i]
			if !p.Named || skipKeyAndChild(p.Name) {
				continue
			}
			if p.Name == move.Name {
				b.addProperty(idx, ctor, p, &boundArgument{invocation: parent, arg: move, value: move.Expression}, 1)
				continue
			}
			b.addProperty(idx, ctor, p, &pendingObject{ctor: ctor}, 1)
		}

	default:
		group.binding = &pendingObject{ctor: ctor}
		group.virtual = &VirtualContainer{Class: cls, Widget: widget}
		idx := b.t.addNode(group)
		b.addPendingProperties(idx, ctor, 1, skipKeyAndChild)
	}
}

// enclosingChildCall returns the constructor call that has widget as its
// `child:` argument.
func enclosingChildCall(widget *dart.Invocation) *dart.Invocation {
	named, ok := widget.Parent().(*dart.NamedExpression)
	if !ok || named.Name != "child" {
		return nil
	}
	inv := dart.EnclosingInvocation(named)
	if inv == nil || !inv.IsInstanceCreation() {
		return nil
	}
	return inv
}

func namedArgument(inv *dart.Invocation, name string) *dart.NamedExpression {
	for _, arg := range inv.Arguments.Arguments {
		if named, ok := arg.(*dart.NamedExpression); ok && named.Name == name {
			return named
		}
	}
	return nil
}

// promote wraps the widget in a Container holding the argument name, or
// renames the enclosing Padding to Container and adds the argument next to
// the moved padding argument: after it when name sorts before the moved
// name, before it otherwise.
func (t *Tree) promote(fb *change.FileEditBuilder, vc *VirtualContainer, name string, write func(*change.EditWriter)) error {
	if vc.consumed {
		return ErrStaleTree
	}
	vc.consumed = true
	sym := classSymbol(vc.Class)

	if vc.Wrapper == nil {
		dropEnclosingConst(fb, vc.Widget)
		fb.AddInsertion(vc.Widget.Offset(), func(w *change.EditWriter) {
			w.WriteReference(sym)
			w.Write("(" + name + ": ")
			write(w)
			w.Write(", child: ")
		})
		fb.AddSimpleInsertion(vc.Widget.End(), ",)")
		return nil
	}

	dropEnclosingConst(fb, vc.Wrapper)
	fb.AddReplacement(change.RangeStartEnd(vc.Wrapper.Offset(), vc.Wrapper.ConstructorNameEnd()), func(w *change.EditWriter) {
		w.WriteReference(sym)
	})
	if name < vc.Move.Name {
		fb.AddInsertion(vc.Move.End(), func(w *change.EditWriter) {
			w.Write(", " + name + ": ")
			write(w)
		})
	} else {
		fb.AddInsertion(vc.Move.Offset(), func(w *change.EditWriter) {
			w.Write(name + ": ")
			write(w)
			w.Write(", ")
		})
	}
	t.log.Debug("promoted padding to container", "property", name)
	return nil
}

// dropEnclosingConst deletes the const keyword of every constant creation
// or collection literal enclosing n up to its function body. A Container
// has no const constructor, so it cannot appear in a constant context.
func dropEnclosingConst(fb *change.FileEditBuilder, n dart.Node) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		isConst := false
		switch p := p.(type) {
		case *dart.FunctionBody:
			return
		case *dart.Invocation:
			isConst = p.Keyword == "const"
		case *dart.ListLiteral:
			isConst = p.Const
		case *dart.SetOrMapLiteral:
			isConst = p.Const
		}
		if !isConst {
			continue
		}
		src := fb.Content()
		end := p.Offset() + len("const")
		for end < len(src) && strings.ContainsRune(" \t\r\n", rune(src[end])) {
			end++
		}
		fb.AddDeletion(change.RangeStartEnd(p.Offset(), end))
	}
}

func classSymbol(cls *catalog.Class) change.Symbol {
	return change.Symbol{LibraryURI: cls.Library, Name: cls.Name}
}
