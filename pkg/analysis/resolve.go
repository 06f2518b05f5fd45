package analysis

import (
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/dart"
)

// resolve binds the calls, arguments and enum constants of the unit.
func (u *ResolvedUnit) resolve() {
	dart.Inspect(u.Unit, func(n dart.Node) bool {
		switch n := n.(type) {
		case *dart.Invocation:
			u.resolveInvocation(n)
		case *dart.PropertyAccess:
			u.resolveEnumConstant(n)
		}
		return true
	})
}

// resolveClass finds the class a name refers to in this file. prefix is the
// import prefix, or "" for an unprefixed name. A file without imports sees
// the whole catalog.
func (u *ResolvedUnit) resolveClass(prefix, name string) (*catalog.Class, bool) {
	if prefix == "" {
		if cls, ok := u.local.ClassByKey[u.URI+"#"+name]; ok {
			return cls, true
		}
	}
	for _, imp := range u.imports {
		if imp.directive.Prefix != prefix || !imp.allows(name) {
			continue
		}
		if cls, ok := u.Session.LookupClass(imp.uri, name); ok {
			return cls, true
		}
	}
	if prefix == "" && len(u.imports) == 0 {
		return u.Session.Query().ClassByName(name)
	}
	return nil, false
}

func (u *ResolvedUnit) resolveEnum(prefix, name string) (*catalog.Enum, bool) {
	if prefix == "" {
		if e, ok := u.local.EnumByKey[u.URI+"#"+name]; ok {
			return e, true
		}
	}
	for _, imp := range u.imports {
		if imp.directive.Prefix != prefix || !imp.allows(name) {
			continue
		}
		if e, ok := u.Session.LookupEnum(imp.uri, name); ok {
			return e, true
		}
	}
	if prefix == "" && len(u.imports) == 0 {
		return u.Session.Query().EnumByName(name)
	}
	return nil, false
}

func (u *ResolvedUnit) isPrefix(name string) bool {
	for _, imp := range u.imports {
		if imp.directive.Prefix == name {
			return true
		}
	}
	return false
}

// constructorFor resolves the callee of a call to a constructor. Accepted
// shapes: `C`, `C.named`, `p.C` and `p.C.named`.
func (u *ResolvedUnit) constructorFor(callee dart.Expression) (*catalog.Constructor, bool) {
	var prefix, class, ctor string
	switch c := callee.(type) {
	case *dart.Identifier:
		class = c.Name
	case *dart.PropertyAccess:
		switch t := c.Target.(type) {
		case *dart.Identifier:
			if u.isPrefix(t.Name) {
				prefix, class = t.Name, c.Name
			} else {
				class, ctor = t.Name, c.Name
			}
		case *dart.PropertyAccess:
			id, ok := t.Target.(*dart.Identifier)
			if !ok || !u.isPrefix(id.Name) {
				return nil, false
			}
			prefix, class, ctor = id.Name, t.Name, c.Name
		default:
			return nil, false
		}
	default:
		return nil, false
	}
	cls, ok := u.resolveClass(prefix, class)
	if !ok {
		return nil, false
	}
	return cls.Constructor(ctor)
}

func (u *ResolvedUnit) resolveInvocation(inv *dart.Invocation) {
	ctor, ok := u.constructorFor(inv.Callee)
	if !ok {
		return
	}
	inv.Constructor = ctor

	args := inv.Arguments
	args.Parameters = make([]*catalog.Parameter, len(args.Arguments))
	positional := ctor.Positional()
	next := 0
	for i, arg := range args.Arguments {
		if named, ok := arg.(*dart.NamedExpression); ok {
			if p, ok := ctor.Parameter(named.Name); ok && p.Named {
				args.Parameters[i] = p
			}
			continue
		}
		if next < len(positional) {
			args.Parameters[i] = positional[next]
		}
		next++
	}
}

// resolveEnumConstant binds `E.v` and `p.E.v`. Accesses that are the callee
// of a call are constructor names, not constants.
func (u *ResolvedUnit) resolveEnumConstant(pa *dart.PropertyAccess) {
	if inv, ok := pa.Parent().(*dart.Invocation); ok && inv.Callee == dart.Expression(pa) {
		return
	}
	var prefix, name string
	switch t := pa.Target.(type) {
	case *dart.Identifier:
		name = t.Name
	case *dart.PropertyAccess:
		id, ok := t.Target.(*dart.Identifier)
		if !ok || !u.isPrefix(id.Name) {
			return
		}
		prefix, name = id.Name, t.Name
	default:
		return
	}
	e, ok := u.resolveEnum(prefix, name)
	if !ok {
		return
	}
	if v, ok := e.Value(pa.Name); ok {
		pa.EnumConstant = &catalog.EnumRef{Enum: e, Value: v}
	}
}
