// Package model is the introspected object model: namespaces and the
// declarations they own. It is built once per run from the raw element
// tree, patched by namespace hooks, then frozen except for the two
// bounded passes the pipeline performs (reference resolution and
// conflict marking).
package model

import (
	"github.com/gircore/girbind/internal/typeexpr"
)

// DeclKind tags the class-like declarations. Classes, interfaces and
// records share one struct and are distinguished by this tag, so
// matching in the subtype checker and conflict detector stays
// exhaustive.
type DeclKind int

const (
	KindClass DeclKind = iota
	KindInterface
	KindRecord
)

func (k DeclKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindRecord:
		return "record"
	}
	return "unknown"
}

// Direction of a function parameter.
type Direction int

const (
	In Direction = iota
	Out
	InOut
)

// TypeRef is one type slot in the model: the raw reference string from
// the input tree plus, after resolution, the concrete expression.
// Every TypeRef is exclusively owned by the member that declares it.
type TypeRef struct {
	Raw        string // raw reference string, "" for untyped slots
	CType      string // secondary low-level annotation, may be ""
	ArrayDepth int
	Nullable   bool

	// Resolved is set exactly once by the resolver (or a patch hook).
	Resolved typeexpr.Expr
}

// Type returns the resolved expression, degrading to Any when the slot
// was never resolved. Callers past the resolution barrier never see a
// raw string.
func (r *TypeRef) Type() typeexpr.Expr {
	if r == nil || r.Resolved == nil {
		return typeexpr.Any{}
	}
	return r.Resolved
}

// Parameter of a function, constructor or callback.
type Parameter struct {
	Name      string
	Direction Direction
	Type      *TypeRef
}

// Function covers methods, static functions, constructors, virtual
// methods and callback signatures.
type Function struct {
	Name         string
	CIdentifier  string
	Parameters   []*Parameter // in and inout, declaration order
	OutputParams []*Parameter
	ReturnType   *TypeRef
	Static       bool
	Virtual      bool
	Variadic     bool

	// OverloadTagged is set by the conflict detector for virtual
	// interface functions whose signature diverges from an ancestor;
	// the renderer emits explicit per-signature overloads instead of
	// inheriting the shared contract.
	OverloadTagged bool

	// Omitted marks members the conflict resolution removed from the
	// rendered surface (redundant inherited collisions, functions
	// shadowed by a data member).
	Omitted bool

	// SyntheticOverloads holds trailing unreachable overloads added
	// for direct function-name conflicts.
	SyntheticOverloads []*Function
}

// Property is a named, typed accessor pair.
type Property struct {
	Name     string
	Writable bool
	Type     *TypeRef
}

// Field is a plain data member.
type Field struct {
	Name string
	Type *TypeRef
}

// Generic is one generic parameter of a class-like declaration.
type Generic struct {
	Name       string
	Constraint typeexpr.Expr // nil means unconstrained
	Default    typeexpr.Expr // nil means no default
}

// Callback is a named function signature owned either by a namespace
// (global) or by a class-like declaration (nested).
type Callback struct {
	Name      string
	CType     string
	Signature *Function
}

// Class is a class, interface or record, per its Kind tag. A class has
// at most one Parent; interfaces extend other interfaces through
// Implements.
type Class struct {
	Kind      DeclKind
	Name      string
	Namespace string
	CType     string
	Abstract  bool

	Parent     *TypeRef   // classes only, nil otherwise
	Implements []*TypeRef // ordered

	Generics     []Generic
	Constructors []*Function
	Functions    []*Function
	Properties   []*Property
	Fields       []*Field
	Callbacks    []*Callback // nested declarations
}

// NestedCallback returns the nested callback of the given name.
func (c *Class) NestedCallback(name string) (*Callback, bool) {
	for _, cb := range c.Callbacks {
		if cb.Name == name {
			return cb, true
		}
	}
	return nil, false
}

// Function returns the first function of the given name.
func (c *Class) Function(name string) (*Function, bool) {
	for _, f := range c.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Property returns the property of the given name.
func (c *Class) Property(name string) (*Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Field returns the field of the given name.
func (c *Class) Field(name string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Ident returns the identifier expression naming this declaration.
func (c *Class) Ident() typeexpr.Identifier {
	return typeexpr.Identifier{Namespace: c.Namespace, Name: c.Name}
}

// EnumMember is one value of an enumeration or bitfield.
type EnumMember struct {
	Name        string
	Value       string
	CIdentifier string
}

// Enum is an enumeration or bitfield declaration.
type Enum struct {
	Name    string
	CType   string
	Members []EnumMember
}

// Constant is a namespace-level typed constant.
type Constant struct {
	Name  string
	CType string
	Value string
	Type  *TypeRef
}

// Alias names another type.
type Alias struct {
	Name   string
	CType  string
	Target *TypeRef
}
