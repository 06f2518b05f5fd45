package scanner

import (
	"github.com/gnana997/widgetprops/pkg/catalog"
	"github.com/gnana997/widgetprops/pkg/dart"
)

// LibraryFromUnit converts the declarations of a parsed file into a catalog
// library identified by uri. Export directives are resolved against uri and
// doc comments are stored as plain text.
func LibraryFromUnit(unit *dart.CompilationUnit, uri string) catalog.Library {
	lib := catalog.Library{URI: uri}
	for _, d := range unit.Directives {
		if d.Export {
			lib.Exports = append(lib.Exports, catalog.ResolveURI(uri, d.URI))
		}
	}
	for _, decl := range unit.Declarations {
		switch decl := decl.(type) {
		case *dart.ClassDeclaration:
			lib.Classes = append(lib.Classes, classFromDecl(unit, decl))
		case *dart.EnumDeclaration:
			e := catalog.Enum{Name: decl.Name, Doc: catalog.PlainDocText(decl.Doc)}
			for _, v := range decl.Values {
				e.Values = append(e.Values, catalog.EnumValue{Name: v.Name, Doc: catalog.PlainDocText(v.Doc)})
			}
			lib.Enums = append(lib.Enums, e)
		}
	}
	return lib
}

func classFromDecl(unit *dart.CompilationUnit, decl *dart.ClassDeclaration) catalog.Class {
	cls := catalog.Class{
		Name:      decl.Name,
		Supertype: decl.Supertype,
		Doc:       catalog.PlainDocText(decl.Doc),
		Abstract:  decl.Abstract,
	}
	for _, f := range decl.Fields {
		if f.Static {
			continue
		}
		for _, name := range f.Names {
			cls.Fields = append(cls.Fields, catalog.Field{Name: name, Type: f.Type, Doc: catalog.PlainDocText(f.Doc)})
		}
	}
	for _, c := range decl.Constructors {
		ctor := catalog.Constructor{Name: c.Name, Const: c.Const}
		if c.Parameters != nil {
			for _, p := range c.Parameters.Parameters {
				ctor.Parameters = append(ctor.Parameters, parameterFromDecl(unit, &cls, p))
			}
		}
		cls.Constructors = append(cls.Constructors, ctor)
	}
	if len(cls.Constructors) == 0 && !decl.Abstract {
		cls.Constructors = []catalog.Constructor{{}}
	}
	return cls
}

func parameterFromDecl(unit *dart.CompilationUnit, cls *catalog.Class, p *dart.FormalParameter) catalog.Parameter {
	param := catalog.Parameter{
		Name:     p.Name,
		Type:     p.Type,
		Named:    p.Named,
		Required: p.Required || !p.Optional,
		Field:    p.Field || p.Super,
	}
	if param.Type == "" && p.Field {
		if f, ok := cls.Field(p.Name); ok {
			param.Type = f.Type
		}
	}
	if p.Default != nil {
		param.Default = unit.Text(p.Default)
	}
	return param
}
