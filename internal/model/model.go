package model

import (
	"strings"
)

type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// MarshalText keeps the reflection dump readable.
func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Visibility) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "protected":
		*v = Protected
	case "private":
		*v = Private
	default:
		*v = Public
	}
	return nil
}

type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindTrait
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindInterface:
		return "interface"
	case ClassKindTrait:
		return "trait"
	default:
		return "class"
	}
}

func (k ClassKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ClassKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "interface":
		*k = ClassKindInterface
	case "trait":
		*k = ClassKindTrait
	default:
		*k = ClassKindClass
	}
	return nil
}

// Class is the reflection view of one PHP class, interface or trait.
// Names are fully qualified without the leading backslash.
type Class struct {
	Name       string    `yaml:"name" json:"name"`
	Kind       ClassKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Abstract   bool      `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Final      bool      `yaml:"final,omitempty" json:"final,omitempty"`
	Parent     string    `yaml:"parent,omitempty" json:"parent,omitempty"`
	Interfaces []string  `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Traits     []string  `yaml:"traits,omitempty" json:"traits,omitempty"`
	Methods    []*Method `yaml:"methods,omitempty" json:"methods,omitempty"`
	Doc        string    `yaml:"doc,omitempty" json:"doc,omitempty"`
	File       string    `yaml:"file,omitempty" json:"file,omitempty"`
	Line       int       `yaml:"line,omitempty" json:"line,omitempty"`
	Builtin    bool      `yaml:"builtin,omitempty" json:"builtin,omitempty"`
}

// Namespace returns everything before the last namespace separator.
func (c *Class) Namespace() string { return NamespaceOf(c.Name) }

// ShortName returns the unqualified class name.
func (c *Class) ShortName() string { return ShortName(c.Name) }

func (c *Class) IsInterface() bool { return c.Kind == ClassKindInterface }
func (c *Class) IsTrait() bool     { return c.Kind == ClassKindTrait }

// Instantiable reports whether a test can construct the class directly.
func (c *Class) Instantiable() bool {
	return c.Kind == ClassKindClass && !c.Abstract
}

// DeclaredMethod finds a method declared directly on the class (case-insensitive).
func (c *Class) DeclaredMethod(name string) *Method {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

// Method is one reflected method. Class is the declaring class; for trait
// methods that is the class using the trait, while Origin names the trait and
// File still points at the trait source so its imports can be recovered.
type Method struct {
	Name       string     `yaml:"name" json:"name"`
	Class      string     `yaml:"class,omitempty" json:"class,omitempty"`
	Origin     string     `yaml:"origin,omitempty" json:"origin,omitempty"`
	Visibility Visibility `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static     bool       `yaml:"static,omitempty" json:"static,omitempty"`
	Abstract   bool       `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Final      bool       `yaml:"final,omitempty" json:"final,omitempty"`
	ReturnType string     `yaml:"return_type,omitempty" json:"return_type,omitempty"`
	Params     []*Param   `yaml:"params,omitempty" json:"params,omitempty"`
	Doc        string     `yaml:"doc,omitempty" json:"doc,omitempty"`
	File       string     `yaml:"file,omitempty" json:"file,omitempty"`
	Line       int        `yaml:"line,omitempty" json:"line,omitempty"`
}

func (m *Method) IsConstructor() bool { return strings.EqualFold(m.Name, "__construct") }
func (m *Method) IsDestructor() bool  { return strings.EqualFold(m.Name, "__destruct") }
func (m *Method) IsPublic() bool      { return m.Visibility == Public }

// SourceClass is the class-like type whose source declares the method body.
func (m *Method) SourceClass() string {
	if m.Origin != "" {
		return m.Origin
	}
	return m.Class
}

// Clone returns a shallow copy with its own parameter slice.
func (m *Method) Clone() *Method {
	cp := *m
	cp.Params = append([]*Param(nil), m.Params...)
	return &cp
}

// Param is one method parameter; Type is the declared type text with class
// names already qualified, Default the default value as PHP source text.
type Param struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type,omitempty" json:"type,omitempty"`
	Default    string `yaml:"default,omitempty" json:"default,omitempty"`
	HasDefault bool   `yaml:"has_default,omitempty" json:"has_default,omitempty"`
	Variadic   bool   `yaml:"variadic,omitempty" json:"variadic,omitempty"`
	Promoted   bool   `yaml:"promoted,omitempty" json:"promoted,omitempty"`
}

// NamespaceOf returns the namespace part of a qualified name.
func NamespaceOf(name string) string {
	name = strings.TrimPrefix(name, `\`)
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[:i]
	}
	return ""
}

// ShortName returns the last segment of a qualified name.
func ShortName(name string) string {
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Qualify joins a namespace and a name.
func Qualify(namespace, name string) string {
	name = strings.TrimPrefix(name, `\`)
	namespace = strings.Trim(namespace, `\`)
	switch {
	case namespace == "":
		return name
	case name == "":
		return namespace
	}
	return namespace + `\` + name
}
