package properties

import (
	"context"
	"fmt"
	"slices"

	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

// ChangeValue returns the change that sets the property id to value.
//
// Setting a side of decomposed insets rewrites the whole insets expression.
// Setting a property of an object that is not in the source creates the
// object, and the enclosing Container when needed. Group properties produce
// an empty change.
func (t *Tree) ChangeValue(ctx context.Context, id int, value *protocol.FlutterWidgetPropertyValue) (*change.SourceChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.stale {
		return nil, ErrStaleTree
	}
	i, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	if value.IsEmpty() {
		return nil, ErrEmptyValue
	}
	n := &t.nodes[i]
	message := fmt.Sprintf("Set %s", n.name)
	return t.edit(message, func(fb *change.FileEditBuilder) error {
		switch {
		case n.group:
			return nil
		case n.side >= 0:
			return t.changeSide(fb, i, value)
		}
		if err := t.emitValue(fb, i, func(w *change.EditWriter) { t.writeValue(w, value) }); err != nil {
			return err
		}
		t.formatBody(fb)
		return nil
	})
}

// RemoveValue returns the change that removes the argument of property id.
// Removing a side of decomposed insets sets it to zero. Properties without
// an argument produce an empty change.
func (t *Tree) RemoveValue(ctx context.Context, id int) (*change.SourceChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.stale {
		return nil, ErrStaleTree
	}
	i, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	n := &t.nodes[i]
	message := fmt.Sprintf("Remove %s", n.name)
	return t.edit(message, func(fb *change.FileEditBuilder) error {
		if n.side >= 0 {
			return t.changeSide(fb, i, protocol.DoubleValue(0))
		}
		bd, ok := n.binding.(*boundArgument)
		if !ok || n.group {
			return nil
		}
		t.removeArgument(fb, bd)
		t.formatBody(fb)
		return nil
	})
}

// edit builds a single-file change and marks the tree stale when it is not empty.
func (t *Tree) edit(message string, build func(*change.FileEditBuilder) error) (*change.SourceChange, error) {
	b := change.NewBuilder(t.opts.Formatter, t.log)
	if err := b.AddFileEdit(t.unit.Path, t.unit.Content, t.unit, build); err != nil {
		return nil, err
	}
	sc, err := b.SourceChange(message)
	if err != nil {
		return nil, err
	}
	if !sc.IsEmpty() {
		t.stale = true
	}
	return sc, nil
}

func (t *Tree) writeValue(w *change.EditWriter, v *protocol.FlutterWidgetPropertyValue) {
	if item := v.EnumValue; item != nil {
		if e, ok := t.unit.LookupEnum(item.LibraryURI, item.ClassName); ok {
			w.WriteReference(change.Symbol{LibraryURI: e.Library, Name: e.Name})
			w.Write("." + item.Name)
			return
		}
		t.log.Warn("enum not found, writing value as is", "library", item.LibraryURI, "enum", item.ClassName)
	}
	code, _ := ValueToCode(v)
	w.Write(code)
}

// emitValue writes the value produced by write into the slot of node i.
func (t *Tree) emitValue(fb *change.FileEditBuilder, i int, write func(*change.EditWriter)) error {
	n := &t.nodes[i]
	name := n.name
	switch bd := n.binding.(type) {
	case *boundArgument:
		fb.AddReplacement(change.RangeStartEnd(bd.value.Offset(), bd.value.End()), write)
		return nil
	case *unsetArgument:
		t.insertArgument(fb, bd.invocation, name, write)
		return nil
	case *pendingObject:
		if n.parent == noParent {
			return fmt.Errorf("property %s has no enclosing object", name)
		}
		if vc := t.nodes[n.parent].virtual; vc != nil {
			return t.promote(fb, vc, name, write)
		}
		ctor := bd.ctor
		return t.emitValue(fb, n.parent, func(w *change.EditWriter) {
			w.WriteReference(classSymbol(ctor.Class))
			if ctor.Name != "" {
				w.Write("." + ctor.Name)
			}
			w.Write("(" + name + ": ")
			write(w)
			w.Write(", )")
		})
	}
	return fmt.Errorf("property %s has no binding", name)
}

// insertArgument adds `name: value` to inv. The argument goes before the
// first named argument that sorts after it and before child/children, or
// last.
func (t *Tree) insertArgument(fb *change.FileEditBuilder, inv *dart.Invocation, name string, write func(*change.EditWriter)) {
	args := inv.Arguments
	for _, arg := range args.Arguments {
		named, ok := arg.(*dart.NamedExpression)
		if !ok {
			continue
		}
		if named.Name > name || named.Name == "child" || named.Name == "children" {
			fb.AddInsertion(named.Offset(), func(w *change.EditWriter) {
				w.Write(name + ": ")
				write(w)
				w.Write(", ")
			})
			return
		}
	}

	closer := t.unit.Unit.Token(args.RightParen)
	prefix := ", "
	if prev, ok := t.unit.Unit.PrecedingToken(closer.Offset); ok && (prev.Is("(") || prev.Is(",")) {
		prefix = ""
	}
	fb.AddInsertion(closer.Offset, func(w *change.EditWriter) {
		w.Write(prefix + name + ": ")
		write(w)
		w.Write(",")
	})
}

// removeArgument deletes an argument together with its separator.
func (t *Tree) removeArgument(fb *change.FileEditBuilder, bd *boundArgument) {
	args := bd.invocation.Arguments
	idx := slices.Index(args.Arguments, bd.arg)
	if idx < 0 {
		return
	}
	start := bd.arg.Offset()
	if idx+1 < len(args.Arguments) {
		fb.AddDeletion(change.RangeStartEnd(start, args.Arguments[idx+1].Offset()))
		return
	}
	closer := t.unit.Unit.Token(args.RightParen)
	if prev, ok := t.unit.Unit.PrecedingToken(closer.Offset); ok && !prev.Is(",") && idx > 0 {
		start = args.Arguments[idx-1].End()
	}
	fb.AddDeletion(change.RangeStartEnd(start, closer.Offset))
}

// formatBody requests formatting of the function body around the widget.
func (t *Tree) formatBody(fb *change.FileEditBuilder) {
	if body := dart.EnclosingFunctionBody(t.widget); body != nil {
		fb.Format(change.RangeStartEnd(body.Offset(), body.End()))
	}
}
