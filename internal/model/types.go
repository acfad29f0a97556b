package model

import (
	"strings"
)

// Kind tags the variant held by a ResolvedType.
type Kind int

const (
	KindInvalid   Kind = iota
	KindPrimitive      // int, string, void, ...
	KindSelf           // self, static, $this
	KindArrayOf        // X[]
	KindNamed          // class or interface
)

// Primitive enumerates the scalar and pseudo types of the host language.
type Primitive int

const (
	PrimitiveInvalid Primitive = iota
	PrimitiveInt
	PrimitiveFloat
	PrimitiveString
	PrimitiveBool
	PrimitiveArray
	PrimitiveMixed
	PrimitiveVoid
	PrimitiveObject
	PrimitiveCallable
	PrimitiveClosure
	PrimitiveNull
)

var primitiveNames = map[Primitive]string{
	PrimitiveInt:      "int",
	PrimitiveFloat:    "float",
	PrimitiveString:   "string",
	PrimitiveBool:     "bool",
	PrimitiveArray:    "array",
	PrimitiveMixed:    "mixed",
	PrimitiveVoid:     "void",
	PrimitiveObject:   "object",
	PrimitiveCallable: "callable",
	PrimitiveClosure:  "closure",
	PrimitiveNull:     "null",
}

func (p Primitive) String() string {
	if s, ok := primitiveNames[p]; ok {
		return s
	}
	return "invalid"
}

// primitiveAliases maps every spelling accepted in declarations and
// annotations to its primitive kind.
var primitiveAliases = map[string]Primitive{
	"int":      PrimitiveInt,
	"integer":  PrimitiveInt,
	"float":    PrimitiveFloat,
	"double":   PrimitiveFloat,
	"string":   PrimitiveString,
	"bool":     PrimitiveBool,
	"boolean":  PrimitiveBool,
	"true":     PrimitiveBool,
	"false":    PrimitiveBool,
	"array":    PrimitiveArray,
	"iterable": PrimitiveArray,
	"mixed":    PrimitiveMixed,
	"void":     PrimitiveVoid,
	"never":    PrimitiveVoid,
	"object":   PrimitiveObject,
	"callable": PrimitiveCallable,
	"closure":  PrimitiveClosure,
	"null":     PrimitiveNull,
}

// LookupPrimitive classifies a bare type name; Closure counts as a primitive.
func LookupPrimitive(name string) (Primitive, bool) {
	p, ok := primitiveAliases[strings.ToLower(strings.TrimPrefix(name, `\`))]
	return p, ok
}

// IsSelfName reports whether name is one of the self-referential keywords.
func IsSelfName(name string) bool {
	switch strings.ToLower(name) {
	case "self", "static", "$this":
		return true
	}
	return false
}

// ResolvedType is the closed tagged union produced by type resolution.
type ResolvedType struct {
	Kind      Kind
	Primitive Primitive     // KindPrimitive
	Elem      *ResolvedType // KindArrayOf
	Name      string        // KindNamed, and the declaring class for KindSelf
}

func Prim(p Primitive) ResolvedType { return ResolvedType{Kind: KindPrimitive, Primitive: p} }
func Self(class string) ResolvedType {
	return ResolvedType{Kind: KindSelf, Name: strings.TrimPrefix(class, `\`)}
}
func Named(fqn string) ResolvedType {
	return ResolvedType{Kind: KindNamed, Name: strings.TrimPrefix(fqn, `\`)}
}

// ArrayOf wraps elem, flattening array-of-array to Primitive(array).
func ArrayOf(elem ResolvedType) ResolvedType {
	switch {
	case elem.Kind == KindArrayOf, elem.Kind == KindInvalid:
		return Prim(PrimitiveArray)
	case elem.Kind == KindPrimitive && elem.Primitive == PrimitiveArray:
		return Prim(PrimitiveArray)
	}
	e := elem
	return ResolvedType{Kind: KindArrayOf, Elem: &e}
}

func (t ResolvedType) Is(p Primitive) bool { return t.Kind == KindPrimitive && t.Primitive == p }
func (t ResolvedType) IsVoid() bool        { return t.Is(PrimitiveVoid) }

// IsClassLike reports whether the type names a class (directly or via self).
func (t ResolvedType) IsClassLike() bool { return t.Kind == KindNamed || t.Kind == KindSelf }

// ClassName returns the class identity for Named and Self types.
func (t ResolvedType) ClassName() string {
	if t.IsClassLike() {
		return t.Name
	}
	return ""
}

// ElemClass returns the element class of an array of classes.
func (t ResolvedType) ElemClass() (string, bool) {
	if t.Kind == KindArrayOf && t.Elem != nil && t.Elem.IsClassLike() {
		return t.Elem.Name, true
	}
	return "", false
}

func (t ResolvedType) String() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindSelf:
		return "self"
	case KindArrayOf:
		if t.Elem == nil {
			return "array"
		}
		return t.Elem.String() + "[]"
	case KindNamed:
		return t.Name
	}
	return "invalid"
}

// Suffix is the type name used when composing descriptive test names.
func (t ResolvedType) Suffix() string {
	switch t.Kind {
	case KindSelf, KindNamed:
		return ShortName(t.Name)
	case KindArrayOf:
		if c, ok := t.ElemClass(); ok {
			return ShortName(c)
		}
		return "Array"
	case KindPrimitive:
		return ucfirst(t.Primitive.String())
	}
	return ""
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
