package catalog

// Library is a single importable library, identified by its URI
// (e.g. "package:flutter/src/widgets/container.dart").
type Library struct {
	URI string `json:"uri" yaml:"uri"`

	// Exports lists the URIs of libraries re-exported by this one.
	Exports []string `json:"exports,omitempty" yaml:"exports,omitempty"`
	Classes []Class  `json:"classes,omitempty" yaml:"classes,omitempty"`
	Enums   []Enum   `json:"enums,omitempty" yaml:"enums,omitempty"`
}

// Class describes a class declaration.
type Class struct {
	Name      string `json:"name" yaml:"name"`
	Supertype string `json:"supertype,omitempty" yaml:"supertype,omitempty"`
	Doc       string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Abstract  bool   `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Expandable marks small value classes (TextStyle, BoxDecoration) whose
	// constructor parameters are offered as nested properties.
	Expandable bool `json:"expandable,omitempty" yaml:"expandable,omitempty"`

	Fields       []Field       `json:"fields,omitempty" yaml:"fields,omitempty"`
	Constructors []Constructor `json:"constructors,omitempty" yaml:"constructors,omitempty"`

	// Library is the URI of the declaring library. Set by BuildIndex.
	Library string `json:"-" yaml:"-"`
}

// Field is an instance field.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Constructor is a generative or factory constructor. The unnamed
// constructor has an empty Name.
type Constructor struct {
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Const      bool        `json:"const,omitempty" yaml:"const,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Class is the declaring class. Set by BuildIndex.
	Class *Class `json:"-" yaml:"-"`
}

// Parameter is a constructor parameter.
type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Named    bool   `json:"named,omitempty" yaml:"named,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`

	// Field is true for field formal parameters (`this.name`).
	Field   bool   `json:"field,omitempty" yaml:"field,omitempty"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Enum describes an enum declaration.
type Enum struct {
	Name   string      `json:"name" yaml:"name"`
	Doc    string      `json:"doc,omitempty" yaml:"doc,omitempty"`
	Values []EnumValue `json:"values" yaml:"values"`

	// Library is the URI of the declaring library. Set by BuildIndex.
	Library string `json:"-" yaml:"-"`
}

// EnumValue is a single enum constant.
type EnumValue struct {
	Name string `json:"name" yaml:"name"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// EnumRef identifies one value of an enum.
type EnumRef struct {
	Enum  *Enum
	Value *EnumValue
}

// QualifiedName returns "ClassName" or "ClassName.name".
func (c *Constructor) QualifiedName() string {
	if c.Name == "" {
		return c.Class.Name
	}
	return c.Class.Name + "." + c.Name
}

// Parameter returns the parameter with the given name.
func (c *Constructor) Parameter(name string) (*Parameter, bool) {
	for i := range c.Parameters {
		if c.Parameters[i].Name == name {
			return &c.Parameters[i], true
		}
	}
	return nil, false
}

// Positional returns the positional parameters in declaration order.
func (c *Constructor) Positional() []*Parameter {
	var out []*Parameter
	for i := range c.Parameters {
		if !c.Parameters[i].Named {
			out = append(out, &c.Parameters[i])
		}
	}
	return out
}

// Constructor returns the constructor with the given name ("" for the
// unnamed constructor).
func (c *Class) Constructor(name string) (*Constructor, bool) {
	for i := range c.Constructors {
		if c.Constructors[i].Name == name {
			return &c.Constructors[i], true
		}
	}
	return nil, false
}

// Field returns the field with the given name.
func (c *Class) Field(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// Value returns the enum value with the given name.
func (e *Enum) Value(name string) (*EnumValue, bool) {
	for i := range e.Values {
		if e.Values[i].Name == name {
			return &e.Values[i], true
		}
	}
	return nil, false
}
