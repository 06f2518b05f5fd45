package catalog

import (
	"slices"
	"strings"
)

// WidgetBaseClass is the root of the widget hierarchy.
const WidgetBaseClass = "Widget"

// QueryService provides read-only query methods over a loaded catalog.
type QueryService struct {
	Catalog *Catalog
	Index   *CatalogIndex
}

// NewQueryService creates a QueryService from a validated catalog and its index.
func NewQueryService(cat *Catalog, idx *CatalogIndex) *QueryService {
	return &QueryService{Catalog: cat, Index: idx}
}

// LoadAndQueryBytes loads a catalog from raw bytes and returns a ready-to-use QueryService.
func LoadAndQueryBytes(data []byte) (*QueryService, error) {
	cat, idx, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx), nil
}

// VisibleLibraries returns uri followed by every library it re-exports,
// transitively, in breadth-first order.
func (q *QueryService) VisibleLibraries(uri string) []string {
	seen := map[string]bool{uri: true}
	queue := []string{uri}
	for i := 0; i < len(queue); i++ {
		lib, ok := q.Index.LibraryByURI[queue[i]]
		if !ok {
			continue
		}
		for _, exp := range lib.Exports {
			if !seen[exp] {
				seen[exp] = true
				queue = append(queue, exp)
			}
		}
	}
	return queue
}

// Exports reports whether importing uri makes the declarations of library
// target visible.
func (q *QueryService) Exports(uri, target string) bool {
	return slices.Contains(q.VisibleLibraries(uri), target)
}

// LookupClass finds a class named name that is visible through library uri.
func (q *QueryService) LookupClass(uri, name string) (*Class, bool) {
	for _, lib := range q.VisibleLibraries(uri) {
		if cls, ok := q.Index.ClassByKey[key(lib, name)]; ok {
			return cls, true
		}
	}
	return nil, false
}

// LookupEnum finds an enum named name that is visible through library uri.
func (q *QueryService) LookupEnum(uri, name string) (*Enum, bool) {
	for _, lib := range q.VisibleLibraries(uri) {
		if e, ok := q.Index.EnumByKey[key(lib, name)]; ok {
			return e, true
		}
	}
	return nil, false
}

// ClassByName returns the first class with the given name in any library.
func (q *QueryService) ClassByName(name string) (*Class, bool) {
	if classes := q.Index.ClassesByName[name]; len(classes) > 0 {
		return classes[0], true
	}
	return nil, false
}

// EnumByName returns the first enum with the given name in any library.
func (q *QueryService) EnumByName(name string) (*Enum, bool) {
	if enums := q.Index.EnumsByName[name]; len(enums) > 0 {
		return enums[0], true
	}
	return nil, false
}

// Superclass returns the direct supertype of cls, preferring a class in the
// same library.
func (q *QueryService) Superclass(cls *Class) (*Class, bool) {
	if cls.Supertype == "" {
		return nil, false
	}
	if sup, ok := q.Index.ClassByKey[key(cls.Library, cls.Supertype)]; ok {
		return sup, true
	}
	return q.ClassByName(cls.Supertype)
}

// IsSubtypeOf reports whether cls is named superName or extends it,
// directly or transitively.
func (q *QueryService) IsSubtypeOf(cls *Class, superName string) bool {
	seen := make(map[*Class]bool)
	for cur := cls; cur != nil && !seen[cur]; {
		if cur.Name == superName {
			return true
		}
		seen[cur] = true
		next, ok := q.Superclass(cur)
		if !ok {
			return cur.Supertype == superName
		}
		cur = next
	}
	return false
}

// IsWidget reports whether cls is a widget class.
func (q *QueryService) IsWidget(cls *Class) bool {
	return q.IsSubtypeOf(cls, WidgetBaseClass)
}

// ListWidgets returns the concrete widget classes, sorted by name, filtered
// by an optional case-insensitive keyword matched against name and doc.
func (q *QueryService) ListWidgets(keyword string) []*Class {
	keyword = strings.ToLower(keyword)
	result := make([]*Class, 0)
	for i := range q.Catalog.Libraries {
		lib := &q.Catalog.Libraries[i]
		for j := range lib.Classes {
			cls := &lib.Classes[j]
			if cls.Abstract || !q.IsWidget(cls) {
				continue
			}
			if keyword != "" &&
				!strings.Contains(strings.ToLower(cls.Name), keyword) &&
				!strings.Contains(strings.ToLower(cls.Doc), keyword) {
				continue
			}
			result = append(result, cls)
		}
	}
	slices.SortStableFunc(result, func(a, b *Class) int { return strings.Compare(a.Name, b.Name) })
	return result
}

// ExportingLibrary returns the public library through which the declarations
// of uri are best imported: uri itself when it is not an implementation
// library, otherwise the exporting public library with the fewest visible
// libraries. The bool is false when no public library exports uri.
func (q *QueryService) ExportingLibrary(uri string) (string, bool) {
	if !IsPrivateURI(uri) {
		return uri, true
	}
	best, bestSize := "", 0
	for i := range q.Catalog.Libraries {
		lib := q.Catalog.Libraries[i].URI
		if IsPrivateURI(lib) {
			continue
		}
		visible := q.VisibleLibraries(lib)
		if !slices.Contains(visible, uri) {
			continue
		}
		if best == "" || len(visible) < bestSize || (len(visible) == bestSize && lib < best) {
			best, bestSize = lib, len(visible)
		}
	}
	return best, best != ""
}
