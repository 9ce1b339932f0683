// Package subtype implements the pure structural compatibility check
// between two type expressions. The check is total: unresolvable
// inputs behave like Any, so callers never see a partial failure.
package subtype

import (
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/typeexpr"
)

// IsSubtypeOf reports whether child can stand where parent is
// expected. childScope and parentScope are the class-like declarations
// the expressions were written in; they supply generic-parameter
// constraints and may be nil.
func IsSubtypeOf(u *model.Universe, childScope, parentScope *model.Class, child, parent typeexpr.Expr) bool {
	child = normalize(child)
	parent = normalize(parent)

	if child.Equal(parent) {
		return true
	}

	// Any is compatible with everything, in both positions.
	if _, ok := child.(typeexpr.Any); ok {
		return true
	}
	if _, ok := parent.(typeexpr.Any); ok {
		return true
	}

	// Never is compatible with nothing (reflexivity was handled above).
	if _, ok := child.(typeexpr.Never); ok {
		return false
	}
	if _, ok := parent.(typeexpr.Never); ok {
		return false
	}

	// A nullable parent accepts both shapes; a non-nullable parent
	// rejects a nullable child.
	if pn, ok := parent.(typeexpr.Nullable); ok {
		inner := child
		if cn, ok := child.(typeexpr.Nullable); ok {
			inner = cn.Inner
		}
		return IsSubtypeOf(u, childScope, parentScope, inner, pn.Inner)
	}
	if _, ok := child.(typeexpr.Nullable); ok {
		return false
	}

	// Every member of a child union must fit the parent.
	if cu, ok := child.(typeexpr.Union); ok {
		for _, m := range cu.Members {
			if !IsSubtypeOf(u, childScope, parentScope, m, parent) {
				return false
			}
		}
		return true
	}
	// A non-union child fits a union parent through any one member.
	if pu, ok := parent.(typeexpr.Union); ok {
		for _, m := range pu.Members {
			if IsSubtypeOf(u, childScope, parentScope, child, m) {
				return true
			}
		}
		return false
	}

	switch c := child.(type) {
	case typeexpr.Array:
		p, ok := parent.(typeexpr.Array)
		return ok && p.Depth == c.Depth &&
			IsSubtypeOf(u, childScope, parentScope, c.Element, p.Element)

	case typeexpr.Tuple:
		p, ok := parent.(typeexpr.Tuple)
		if !ok || len(p.Elements) != len(c.Elements) {
			return false
		}
		for i, e := range c.Elements {
			if !IsSubtypeOf(u, childScope, parentScope, e, p.Elements[i]) {
				return false
			}
		}
		return true

	case typeexpr.GenericRef:
		// Same-named refs were caught by the equality check; otherwise
		// a ref stands for whatever its constraint admits.
		if constraint, ok := constraintOf(childScope, c.Name); ok {
			return IsSubtypeOf(u, childScope, parentScope, constraint, parent)
		}
		return false

	case typeexpr.Identifier:
		return identFits(u, childScope, parentScope, c, parent)

	case typeexpr.Generified:
		if !identFits(u, childScope, parentScope, c.Base, baseOf(parent)) {
			return false
		}
		if p, ok := parent.(typeexpr.Generified); ok {
			if len(p.Args) != len(c.Args) {
				return false
			}
			for i, a := range c.Args {
				if !IsSubtypeOf(u, childScope, parentScope, a, p.Args[i]) {
					return false
				}
			}
		}
		return true

	case typeexpr.ScopedIdentifier:
		// Scoped declarations have no ancestry; equality was checked.
		return false
	}

	if p, ok := parent.(typeexpr.GenericRef); ok {
		if constraint, ok := constraintOf(parentScope, p.Name); ok {
			return IsSubtypeOf(u, childScope, parentScope, child, constraint)
		}
	}
	return false
}

// normalize strips conflict markers (the original type stays the basis
// for comparison) and treats nil as Any.
func normalize(t typeexpr.Expr) typeexpr.Expr {
	if t == nil {
		return typeexpr.Any{}
	}
	return typeexpr.Unwrap(t)
}

func baseOf(t typeexpr.Expr) typeexpr.Expr {
	if g, ok := t.(typeexpr.Generified); ok {
		return g.Base
	}
	return t
}

func identFits(u *model.Universe, childScope, parentScope *model.Class, child typeexpr.Identifier, parent typeexpr.Expr) bool {
	switch p := parent.(type) {
	case typeexpr.Identifier:
		if child == p {
			return true
		}
		return extendsOrImplements(u, child, p)
	case typeexpr.GenericRef:
		if constraint, ok := constraintOf(parentScope, p.Name); ok {
			return IsSubtypeOf(u, childScope, parentScope, child, constraint)
		}
	}
	return false
}

// extendsOrImplements walks child's superchain and every implemented
// interface chain to a fixed point, tolerating cycles in the input.
func extendsOrImplements(u *model.Universe, child, parent typeexpr.Identifier) bool {
	visited := make(map[typeexpr.Identifier]bool)
	work := []typeexpr.Identifier{child}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if cur == parent && cur != child {
			return true
		}
		decl, ok := u.LookupClass(cur.Namespace, cur.Name)
		if !ok {
			continue
		}
		if decl.Parent != nil {
			if id, ok := identOf(decl.Parent.Type()); ok {
				work = append(work, id)
			}
		}
		for _, impl := range decl.Implements {
			if id, ok := identOf(impl.Type()); ok {
				work = append(work, id)
			}
		}
	}
	return false
}

func identOf(t typeexpr.Expr) (typeexpr.Identifier, bool) {
	switch v := typeexpr.Unwrap(t).(type) {
	case typeexpr.Identifier:
		return v, true
	case typeexpr.Generified:
		return v.Base, true
	}
	return typeexpr.Identifier{}, false
}

func constraintOf(scope *model.Class, name string) (typeexpr.Expr, bool) {
	if scope == nil {
		return nil, false
	}
	for _, g := range scope.Generics {
		if g.Name == name {
			if g.Constraint == nil {
				return nil, false
			}
			return g.Constraint, true
		}
	}
	return nil, false
}
