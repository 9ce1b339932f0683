package typeexpr

import (
	"fmt"
	"sort"
	"strings"
)

// Expr is the interface for all type expressions in the resolved model.
// Expressions are immutable once constructed; rewrites build new nodes.
type Expr interface {
	String() string
	Equal(Expr) bool
}

// Identifier references a named declaration in a given namespace.
type Identifier struct {
	Namespace string
	Name      string
}

func (t Identifier) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t Identifier) Equal(o Expr) bool {
	other, ok := o.(Identifier)
	return ok && other == t
}

// ScopedIdentifier references a declaration nested inside another named
// declaration, e.g. a callback type declared only within an interface.
// It is distinct from a same-named global declaration.
type ScopedIdentifier struct {
	Namespace string
	Container string
	Name      string
}

func (t ScopedIdentifier) String() string {
	return t.Namespace + "." + t.Container + "." + t.Name
}

func (t ScopedIdentifier) Equal(o Expr) bool {
	other, ok := o.(ScopedIdentifier)
	return ok && other == t
}

// Array is a fixed-depth array of an element type.
type Array struct {
	Element Expr
	Depth   int
}

func (t Array) String() string {
	return t.Element.String() + strings.Repeat("[]", t.Depth)
}

func (t Array) Equal(o Expr) bool {
	other, ok := o.(Array)
	return ok && other.Depth == t.Depth && other.Element.Equal(t.Element)
}

// Tuple is an ordered, fixed-arity sequence of element types.
type Tuple struct {
	Elements []Expr
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (t Tuple) Equal(o Expr) bool {
	other, ok := o.(Tuple)
	if !ok || len(other.Elements) != len(t.Elements) {
		return false
	}
	for i, e := range t.Elements {
		if !e.Equal(other.Elements[i]) {
			return false
		}
	}
	return true
}

// Union is a set of alternative types. Members are normalized:
// flattened, deduplicated and sorted, so order never matters.
type Union struct {
	Members []Expr
}

func (t Union) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (t Union) Equal(o Expr) bool {
	other, ok := o.(Union)
	if !ok || len(other.Members) != len(t.Members) {
		return false
	}
	for i, m := range t.Members {
		if !m.Equal(other.Members[i]) {
			return false
		}
	}
	return true
}

// NewUnion builds a normalized union. Nested unions are flattened,
// duplicates removed, members sorted by string form. A single
// remaining member is returned directly instead of a one-element union.
func NewUnion(members ...Expr) Expr {
	flat := make([]Expr, 0, len(members))
	for _, m := range members {
		if u, ok := m.(Union); ok {
			flat = append(flat, u.Members...)
		} else {
			flat = append(flat, m)
		}
	}

	seen := make(map[string]bool, len(flat))
	unique := flat[:0]
	for _, m := range flat {
		s := m.String()
		if !seen[s] {
			seen[s] = true
			unique = append(unique, m)
		}
	}

	if len(unique) == 1 {
		return unique[0]
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})
	return Union{Members: unique}
}

// Nullable wraps a type that may additionally be null.
type Nullable struct {
	Inner Expr
}

func (t Nullable) String() string { return t.Inner.String() + "?" }

func (t Nullable) Equal(o Expr) bool {
	other, ok := o.(Nullable)
	return ok && other.Inner.Equal(t.Inner)
}

// GenericRef references a generic parameter in scope by name.
type GenericRef struct {
	Name string
}

func (t GenericRef) String() string { return t.Name }

func (t GenericRef) Equal(o Expr) bool {
	other, ok := o.(GenericRef)
	return ok && other == t
}

// Generified is an identifier instantiated with concrete generic arguments.
type Generified struct {
	Base Identifier
	Args []Expr
}

func (t Generified) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Base.String(), strings.Join(args, ", "))
}

func (t Generified) Equal(o Expr) bool {
	other, ok := o.(Generified)
	if !ok || other.Base != t.Base || len(other.Args) != len(t.Args) {
		return false
	}
	for i, a := range t.Args {
		if !a.Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// Any is the top wildcard marker, compatible with everything.
type Any struct{}

func (Any) String() string    { return "any" }
func (Any) Equal(o Expr) bool { _, ok := o.(Any); return ok }

// Never is the bottom marker, compatible with nothing but itself.
// Used to deliberately mark an unreachable override.
type Never struct{}

func (Never) String() string    { return "never" }
func (Never) Equal(o Expr) bool { _, ok := o.(Never); return ok }

// ConflictKind classifies an incompatible member override.
type ConflictKind int

const (
	FieldNameConflict ConflictKind = iota
	AccessorPropertyConflict
	PropertyNameConflict
	FunctionNameConflict
	VFuncSignatureConflict
)

func (k ConflictKind) String() string {
	switch k {
	case FieldNameConflict:
		return "FIELD_NAME_CONFLICT"
	case AccessorPropertyConflict:
		return "ACCESSOR_PROPERTY_CONFLICT"
	case PropertyNameConflict:
		return "PROPERTY_NAME_CONFLICT"
	case FunctionNameConflict:
		return "FUNCTION_NAME_CONFLICT"
	case VFuncSignatureConflict:
		return "VFUNC_SIGNATURE_CONFLICT"
	}
	return "UNKNOWN_CONFLICT"
}

// ConflictMarker wraps a member's type once its override has been
// classified as unsafe. The original type is carried for diagnostics
// but is not exposed for further resolution.
type ConflictMarker struct {
	Inner Expr
	Kind  ConflictKind
}

func (t ConflictMarker) String() string {
	return fmt.Sprintf("conflict[%s](%s)", t.Kind, t.Inner)
}

func (t ConflictMarker) Equal(o Expr) bool {
	other, ok := o.(ConflictMarker)
	return ok && other.Kind == t.Kind && other.Inner.Equal(t.Inner)
}

// NewConflictMarker wraps inner with the given kind. A marker never
// wraps another marker: re-wrapping replaces the kind and keeps the
// innermost type.
func NewConflictMarker(inner Expr, kind ConflictKind) ConflictMarker {
	if m, ok := inner.(ConflictMarker); ok {
		inner = m.Inner
	}
	return ConflictMarker{Inner: inner, Kind: kind}
}

// Unwrap returns the type behind a ConflictMarker, or the expression
// itself when it is not wrapped.
func Unwrap(t Expr) Expr {
	if m, ok := t.(ConflictMarker); ok {
		return m.Inner
	}
	return t
}
