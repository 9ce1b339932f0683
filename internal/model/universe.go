package model

import "github.com/gircore/girbind/internal/typeexpr"

// Universe is the set of namespaces participating in one run. It is
// complete before cross-namespace resolution starts and read-only from
// then on.
type Universe struct {
	namespaces map[string]*Namespace
	order      []string
}

func NewUniverse() *Universe {
	return &Universe{namespaces: make(map[string]*Namespace)}
}

// Add registers a namespace. Re-adding a name replaces the earlier
// table without disturbing the original position.
func (u *Universe) Add(ns *Namespace) {
	if _, ok := u.namespaces[ns.Name]; !ok {
		u.order = append(u.order, ns.Name)
	}
	u.namespaces[ns.Name] = ns
}

// Namespace returns the table registered under the given name.
func (u *Universe) Namespace(name string) (*Namespace, bool) {
	ns, ok := u.namespaces[name]
	return ns, ok
}

// Namespaces returns all tables in registration order.
func (u *Universe) Namespaces() []*Namespace {
	out := make([]*Namespace, 0, len(u.order))
	for _, name := range u.order {
		out = append(out, u.namespaces[name])
	}
	return out
}

// LookupClass finds a class-like declaration across the universe.
func (u *Universe) LookupClass(nsName, name string) (*Class, bool) {
	ns, ok := u.namespaces[nsName]
	if !ok {
		return nil, false
	}
	return ns.ClassLike(name)
}

// LookupIdent resolves an identifier expression to its class-like
// declaration, unwrapping conflict markers and generified bases.
func (u *Universe) LookupIdent(t typeexpr.Expr) (*Class, bool) {
	switch id := typeexpr.Unwrap(t).(type) {
	case typeexpr.Identifier:
		return u.LookupClass(id.Namespace, id.Name)
	case typeexpr.Generified:
		return u.LookupClass(id.Base.Namespace, id.Base.Name)
	}
	return nil, false
}
