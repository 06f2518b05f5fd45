package analysis

import (
	"slices"

	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/change"
	"github.com/gnana997/widgetprops/pkg/dart"
)

type importScope struct {
	directive *dart.Directive
	uri       string
}

func (i importScope) allows(name string) bool {
	d := i.directive
	if len(d.Show) > 0 && !slices.Contains(d.Show, name) {
		return false
	}
	return !slices.Contains(d.Hide, name)
}

// ResolvedUnit is a parsed file whose calls, arguments and enum constants
// are bound to catalog declarations.
type ResolvedUnit struct {
	Session *Session
	Path    string
	URI     string
	Content string
	Unit    *dart.CompilationUnit

	// local indexes the declarations of the file itself.
	local   *catalog.CatalogIndex
	imports []importScope
}

var _ change.ImportScope = (*ResolvedUnit)(nil)

// LookupClass finds a class visible through library uri, including the
// classes declared in this file.
func (u *ResolvedUnit) LookupClass(uri, name string) (*catalog.Class, bool) {
	if cls, ok := u.local.ClassByKey[uri+"#"+name]; ok {
		return cls, true
	}
	return u.Session.LookupClass(uri, name)
}

// LookupEnum finds an enum visible through library uri, including the enums
// declared in this file.
func (u *ResolvedUnit) LookupEnum(uri, name string) (*catalog.Enum, bool) {
	if e, ok := u.local.EnumByKey[uri+"#"+name]; ok {
		return e, true
	}
	return u.Session.LookupEnum(uri, name)
}

// TypeClass resolves a declared type, as written in library from, to a class.
func (u *ResolvedUnit) TypeClass(from, typ string) (*catalog.Class, bool) {
	name := dart.BaseTypeName(typ)
	if name == "" {
		return nil, false
	}
	if cls, ok := u.LookupClass(from, name); ok {
		return cls, true
	}
	if cls, ok := u.local.ClassByKey[u.URI+"#"+name]; ok {
		return cls, true
	}
	return u.Session.Query().ClassByName(name)
}

// TypeEnum resolves a declared type, as written in library from, to an enum.
func (u *ResolvedUnit) TypeEnum(from, typ string) (*catalog.Enum, bool) {
	name := dart.BaseTypeName(typ)
	if name == "" {
		return nil, false
	}
	if e, ok := u.LookupEnum(from, name); ok {
		return e, true
	}
	if e, ok := u.local.EnumByKey[u.URI+"#"+name]; ok {
		return e, true
	}
	return u.Session.Query().EnumByName(name)
}

// Superclass returns the direct supertype of cls.
func (u *ResolvedUnit) Superclass(cls *catalog.Class) (*catalog.Class, bool) {
	if cls.Supertype == "" {
		return nil, false
	}
	if cls.Library == u.URI {
		if sup, ok := u.resolveClass("", cls.Supertype); ok {
			return sup, true
		}
	}
	return u.Session.Query().Superclass(cls)
}

// IsSubtypeOf reports whether cls is named name or extends it.
func (u *ResolvedUnit) IsSubtypeOf(cls *catalog.Class, name string) bool {
	seen := make(map[*catalog.Class]bool)
	for cur := cls; cur != nil && !seen[cur]; {
		if cur.Name == name {
			return true
		}
		seen[cur] = true
		next, ok := u.Superclass(cur)
		if !ok {
			return cur.Supertype == name
		}
		cur = next
	}
	return false
}

// IsWidget reports whether cls is a widget class.
func (u *ResolvedUnit) IsWidget(cls *catalog.Class) bool {
	return u.IsSubtypeOf(cls, catalog.WidgetBaseClass)
}

// WidgetCreationAt returns the innermost widget instance creation containing
// offset.
func (u *ResolvedUnit) WidgetCreationAt(offset int) (*dart.Invocation, bool) {
	for n := dart.NodeCovering(u.Unit, offset); n != nil; n = n.Parent() {
		inv, ok := n.(*dart.Invocation)
		if ok && inv.IsInstanceCreation() && u.IsWidget(inv.Constructor.Class) {
			return inv, true
		}
	}
	return nil, false
}

// ParameterDocumentation returns the documentation of the field param
// initializes, following supertypes declared in this file.
func (u *ResolvedUnit) ParameterDocumentation(ctor *catalog.Constructor, param *catalog.Parameter) (string, bool) {
	if param == nil || !param.Field || ctor == nil || ctor.Class == nil {
		return "", false
	}
	return u.FieldDocumentation(ctor.Class, param.Name)
}

// FieldDocumentation returns the documentation of the named field of cls or
// of its nearest supertype declaring it.
func (u *ResolvedUnit) FieldDocumentation(cls *catalog.Class, name string) (string, bool) {
	seen := make(map[*catalog.Class]bool)
	for cur := cls; cur != nil && !seen[cur]; {
		seen[cur] = true
		if _, ok := cur.Field(name); ok {
			return u.Session.Query().FieldDocumentation(cur, name)
		}
		next, ok := u.Superclass(cur)
		if !ok {
			break
		}
		cur = next
	}
	return "", false
}

// ReferenceFor implements change.ImportScope.
func (u *ResolvedUnit) ReferenceFor(sym change.Symbol) (string, bool) {
	if sym.LibraryURI == u.URI {
		return "", true
	}
	prefix, found := "", false
	for _, imp := range u.imports {
		if !imp.allows(sym.Name) || !u.Session.Query().Exports(imp.uri, sym.LibraryURI) {
			continue
		}
		if imp.directive.Prefix == "" {
			return "", true
		}
		if !found {
			prefix, found = imp.directive.Prefix, true
		}
	}
	return prefix, found
}

// ImportURIFor implements change.ImportScope.
func (u *ResolvedUnit) ImportURIFor(sym change.Symbol) string {
	if uri, ok := u.Session.Query().ExportingLibrary(sym.LibraryURI); ok {
		return uri
	}
	return sym.LibraryURI
}

// ImportInsertOffset implements change.ImportScope.
func (u *ResolvedUnit) ImportInsertOffset() (int, bool) {
	if n := len(u.Unit.Directives); n > 0 {
		return u.Unit.Directives[n-1].End(), true
	}
	return 0, false
}
