package properties

import (
	"strings"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/dart"
	"github.com/gnana997/widgetprops/pkg/protocol"
)

const insetsClass = "EdgeInsets"

var insetSides = [4]string{"left", "top", "right", "bottom"}

// edgeInsets is an EdgeInsets value split into left, top, right and bottom.
// A nil side is absent: not a plain numeric literal, or not in the source.
type edgeInsets struct {
	class  *catalog.Class
	values [4]*float64
}

func isInsetsClass(cls *catalog.Class) bool {
	return cls.Name == insetsClass || cls.Name == "EdgeInsetsGeometry"
}

// addInsets adds the four side properties below the insets property idx.
func (b *treeBuilder) addInsets(idx int, lib string, cls *catalog.Class, value dart.Expression) {
	unit := b.t.unit
	if cls.Name != insetsClass {
		var ok bool
		if cls, ok = unit.TypeClass(lib, insetsClass); !ok {
			return
		}
	}
	only, ok := cls.Constructor("only")
	if !ok {
		return
	}
	ins := &edgeInsets{class: cls}
	exprs := ins.decompose(value)
	b.t.nodes[idx].insets = ins

	for side, name := range insetSides {
		p, _ := only.Parameter(name)
		n := node{
			id:       b.ids.Next(),
			name:     name,
			parent:   idx,
			binding:  &pendingObject{ctor: only},
			ctor:     only,
			param:    p,
			required: true,
			safe:     true,
			side:     side,
			editor:   &protocol.FlutterWidgetPropertyEditor{Kind: protocol.EditorDouble},
		}
		if p != nil {
			n.doc, _ = unit.ParameterDocumentation(only, p)
		}
		if e := exprs[side]; e != nil {
			n.expression = unit.Unit.Text(e)
		}
		if v := ins.values[side]; v != nil {
			n.value = protocol.DoubleValue(*v)
		}
		b.t.addNode(n)
	}
}

// decompose reads the sides of an EdgeInsets constructor call and returns
// the source expression of each side.
func (ins *edgeInsets) decompose(value dart.Expression) [4]dart.Expression {
	var exprs [4]dart.Expression
	inv, ok := value.(*dart.Invocation)
	if !ok || !inv.IsInstanceCreation() || inv.Constructor.Class.Name != insetsClass {
		return exprs
	}
	set := func(side int, e dart.Expression) {
		exprs[side] = e
		if v, ok := LiteralToDouble(e); ok {
			ins.values[side] = &v
		}
	}

	args := inv.Arguments.Arguments
	switch inv.Constructor.Name {
	case "all":
		if len(args) == 1 {
			for side := range insetSides {
				set(side, dart.Unwrap(args[0]))
			}
		}
	case "fromLTRB":
		if len(args) == 4 {
			for side, arg := range args {
				set(side, dart.Unwrap(arg))
			}
		}
	case "only":
		for _, arg := range args {
			named, ok := arg.(*dart.NamedExpression)
			if !ok {
				continue
			}
			for side, name := range insetSides {
				if named.Name == name {
					set(side, named.Expression)
				}
			}
		}
	case "symmetric":
		for _, arg := range args {
			named, ok := arg.(*dart.NamedExpression)
			if !ok {
				continue
			}
			switch named.Name {
			case "horizontal":
				set(0, named.Expression)
				set(2, named.Expression)
			case "vertical":
				set(1, named.Expression)
				set(3, named.Expression)
			}
		}
	}
	return exprs
}

// insetsArguments returns the constructor suffix that builds the given
// sides, e.g. `.all(8)`, or "" when every side is zero. Sides are compared
// by their written form.
func insetsArguments(values [4]float64) string {
	var f [4]string
	zero := true
	for side, v := range values {
		f[side] = FormatDouble(v)
		if f[side] != "0" {
			zero = false
		}
	}
	if zero {
		return ""
	}

	l, t, r, b := f[0], f[1], f[2], f[3]
	var parts []string
	if l == r && t == b {
		if l == t {
			return ".all(" + l + ")"
		}
		if l != "0" {
			parts = append(parts, "horizontal: "+l)
		}
		if t != "0" {
			parts = append(parts, "vertical: "+t)
		}
		return ".symmetric(" + strings.Join(parts, ", ") + ")"
	}
	for side, name := range insetSides {
		if f[side] != "0" {
			parts = append(parts, name+": "+f[side])
		}
	}
	return ".only(" + strings.Join(parts, ", ") + ")"
}

// changeSide sets one side of decomposed insets and rewrites the insets
// expression. Values without a numeric payload produce no edits. When every
// side becomes zero the insets argument is removed.
func (t *Tree) changeSide(fb *change.FileEditBuilder, i int, value *protocol.FlutterWidgetPropertyValue) error {
	n := &t.nodes[i]
	v, ok := numericValue(value)
	if !ok {
		t.log.Debug("ignoring non-numeric insets value", "side", n.name)
		return nil
	}
	parent := n.parent
	ins := t.nodes[parent].insets

	var sides [4]float64
	for side, p := range ins.values {
		if p != nil {
			sides[side] = *p
		}
	}
	sides[n.side] = v

	suffix := insetsArguments(sides)
	if suffix == "" {
		if bd, ok := t.nodes[parent].binding.(*boundArgument); ok {
			t.removeArgument(fb, bd)
			t.formatBody(fb)
		}
		return nil
	}
	write := func(w *change.EditWriter) {
		w.WriteReference(classSymbol(ins.class))
		w.Write(suffix)
	}
	// A `const` keyword on the existing call is kept.
	if inv := boundInsetsCall(t.nodes[parent].binding); inv != nil {
		fb.AddReplacement(change.RangeStartEnd(inv.Callee.Offset(), inv.End()), write)
	} else if err := t.emitValue(fb, parent, write); err != nil {
		return err
	}
	t.formatBody(fb)
	return nil
}

func boundInsetsCall(bd binding) *dart.Invocation {
	ba, ok := bd.(*boundArgument)
	if !ok {
		return nil
	}
	inv, ok := ba.value.(*dart.Invocation)
	if !ok || !inv.IsInstanceCreation() || inv.Constructor.Class.Name != insetsClass {
		return nil
	}
	return inv
}
