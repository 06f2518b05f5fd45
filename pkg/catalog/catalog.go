package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog holds the class, constructor and enum declarations of a UI framework.
type Catalog struct {
	Name      string    `json:"name" yaml:"name"`
	Version   string    `json:"version" yaml:"version"`
	Framework string    `json:"framework" yaml:"framework"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Libraries []Library `json:"libraries" yaml:"libraries"`
}

// CatalogIndex provides O(1) lookups into the catalog.
// Built during LoadFromFile after validation passes.
type CatalogIndex struct {
	// LibraryByURI maps library URI -> *Library.
	LibraryByURI map[string]*Library

	// ClassByKey maps "uri#Name" -> *Class.
	ClassByKey map[string]*Class

	// ClassesByName maps class name -> classes with that name, in catalog order.
	ClassesByName map[string][]*Class

	// EnumByKey maps "uri#Name" -> *Enum.
	EnumByKey map[string]*Enum

	// EnumsByName maps enum name -> enums with that name, in catalog order.
	EnumsByName map[string][]*Enum
}

func key(uri, name string) string {
	return uri + "#" + name
}

// Validate checks the catalog for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (c *Catalog) Validate() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, fmt.Errorf("catalog name is required"))
	}
	if c.Version == "" {
		errs = append(errs, fmt.Errorf("catalog version is required"))
	}

	uris := make(map[string]bool, len(c.Libraries))
	for i, lib := range c.Libraries {
		if lib.URI == "" {
			errs = append(errs, fmt.Errorf("libraries[%d]: uri is required", i))
			continue
		}
		if uris[lib.URI] {
			errs = append(errs, fmt.Errorf("libraries[%d]: duplicate library uri %q", i, lib.URI))
			continue
		}
		uris[lib.URI] = true

		for j, exp := range lib.Exports {
			if exp == "" {
				errs = append(errs, fmt.Errorf("library %q exports[%d]: uri is required", lib.URI, j))
			}
		}

		names := make(map[string]bool, len(lib.Classes)+len(lib.Enums))
		for j, cls := range lib.Classes {
			if cls.Name == "" {
				errs = append(errs, fmt.Errorf("library %q classes[%d]: name is required", lib.URI, j))
				continue
			}
			if names[cls.Name] {
				errs = append(errs, fmt.Errorf("library %q: duplicate declaration %q", lib.URI, cls.Name))
				continue
			}
			names[cls.Name] = true
			errs = append(errs, validateClass(lib.URI, &cls)...)
		}
		for j, e := range lib.Enums {
			if e.Name == "" {
				errs = append(errs, fmt.Errorf("library %q enums[%d]: name is required", lib.URI, j))
				continue
			}
			if names[e.Name] {
				errs = append(errs, fmt.Errorf("library %q: duplicate declaration %q", lib.URI, e.Name))
				continue
			}
			names[e.Name] = true
			if len(e.Values) == 0 {
				errs = append(errs, fmt.Errorf("enum %q: must have at least one value", e.Name))
			}
			for k, v := range e.Values {
				if v.Name == "" {
					errs = append(errs, fmt.Errorf("enum %q values[%d]: name is required", e.Name, k))
				}
			}
		}
	}

	for _, lib := range c.Libraries {
		for _, exp := range lib.Exports {
			if exp != "" && !uris[exp] {
				errs = append(errs, fmt.Errorf("library %q: exports unknown library %q", lib.URI, exp))
			}
		}
	}

	return errs
}

func validateClass(uri string, cls *Class) []error {
	var errs []error
	fields := make(map[string]bool, len(cls.Fields))
	for i, f := range cls.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("class %q fields[%d]: name is required", cls.Name, i))
			continue
		}
		if fields[f.Name] {
			errs = append(errs, fmt.Errorf("class %q: duplicate field %q", cls.Name, f.Name))
		}
		fields[f.Name] = true
	}

	ctors := make(map[string]bool, len(cls.Constructors))
	for i, ctor := range cls.Constructors {
		if ctors[ctor.Name] {
			errs = append(errs, fmt.Errorf("class %q constructors[%d]: duplicate constructor %q", cls.Name, i, ctor.Name))
			continue
		}
		ctors[ctor.Name] = true

		params := make(map[string]bool, len(ctor.Parameters))
		for j, p := range ctor.Parameters {
			if p.Name == "" {
				errs = append(errs, fmt.Errorf("class %q constructor %q parameters[%d]: name is required", cls.Name, ctor.Name, j))
				continue
			}
			if params[p.Name] {
				errs = append(errs, fmt.Errorf("class %q constructor %q: duplicate parameter %q", cls.Name, ctor.Name, p.Name))
			}
			params[p.Name] = true
		}
	}
	return errs
}

// BuildIndex creates lookup maps for fast access and sets the back
// references (Class.Library, Constructor.Class, Enum.Library).
// Should be called after Validate() passes.
func (c *Catalog) BuildIndex() *CatalogIndex {
	idx := &CatalogIndex{
		LibraryByURI:  make(map[string]*Library, len(c.Libraries)),
		ClassByKey:    make(map[string]*Class),
		ClassesByName: make(map[string][]*Class),
		EnumByKey:     make(map[string]*Enum),
		EnumsByName:   make(map[string][]*Enum),
	}

	for i := range c.Libraries {
		lib := &c.Libraries[i]
		idx.LibraryByURI[lib.URI] = lib

		for j := range lib.Classes {
			cls := &lib.Classes[j]
			cls.Library = lib.URI
			for k := range cls.Constructors {
				cls.Constructors[k].Class = cls
			}
			idx.ClassByKey[key(lib.URI, cls.Name)] = cls
			idx.ClassesByName[cls.Name] = append(idx.ClassesByName[cls.Name], cls)
		}
		for j := range lib.Enums {
			e := &lib.Enums[j]
			e.Library = lib.URI
			idx.EnumByKey[key(lib.URI, e.Name)] = e
			idx.EnumsByName[e.Name] = append(idx.EnumsByName[e.Name], e)
		}
	}

	return idx
}

// LoadFromFile loads a catalog from a JSON or YAML file, validates it, and builds the index.
func LoadFromFile(path string) (*Catalog, *CatalogIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a catalog from raw JSON or YAML bytes, validates it,
// and builds the index. Input starting with '{' is treated as JSON.
func LoadFromBytes(data []byte) (*Catalog, *CatalogIndex, error) {
	var catalog Catalog
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if errs := catalog.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("catalog validation failed: %w", errors.Join(errs...))
	}

	index := catalog.BuildIndex()
	return &catalog, index, nil
}

// Merge appends libraries to the catalog, replacing any library with the
// same URI. The index must be rebuilt afterwards.
func (c *Catalog) Merge(libs ...Library) {
	for _, lib := range libs {
		replaced := false
		for i := range c.Libraries {
			if c.Libraries[i].URI == lib.URI {
				c.Libraries[i] = lib
				replaced = true
				break
			}
		}
		if !replaced {
			c.Libraries = append(c.Libraries, lib)
		}
	}
}

// Encode writes the catalog as indented JSON, or YAML when asYAML is set.
func (c *Catalog) Encode(asYAML bool) ([]byte, error) {
	if asYAML {
		return yaml.Marshal(c)
	}
	return json.MarshalIndent(c, "", "  ")
}
