// Package resolver turns raw reference strings into concrete type
// expressions. Resolution is an ordered, total function: every lookup
// produces an expression, degrading to Any with a diagnostic when no
// declaration matches. It runs once, after every participating
// namespace has been built and patched.
package resolver

import (
	"sort"
	"strings"

	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/typeexpr"
)

// primitives maps the input format's built-in type names onto fixed
// identifiers in the anonymous namespace. The renderer maps those onto
// the target runtime's primitives.
var primitives = map[string]string{
	"utf8":       "string",
	"filename":   "string",
	"gchararray": "string",
	"gunichar":   "string",
	"gboolean":   "boolean",
	"gint":       "number",
	"guint":      "number",
	"gint8":      "number",
	"guint8":     "number",
	"gint16":     "number",
	"guint16":    "number",
	"gint32":     "number",
	"guint32":    "number",
	"gint64":     "number",
	"guint64":    "number",
	"gfloat":     "number",
	"gdouble":    "number",
	"gsize":      "number",
	"gssize":     "number",
	"glong":      "number",
	"gulong":     "number",
	"none":       "void",
}

// wildcards resolve straight to Any: they carry no structure the
// bindings could express.
var wildcards = map[string]bool{
	"gpointer":      true,
	"gconstpointer": true,
	"va_list":       true,
}

// Resolution is the tagged result of one lookup.
type Resolution struct {
	Expr     typeexpr.Expr
	Fallback bool // true when the lookup degraded to Any
}

// Resolver resolves references against a complete universe.
type Resolver struct {
	universe *model.Universe
	diags    *diagnostics.Collector
}

func New(u *model.Universe, diags *diagnostics.Collector) *Resolver {
	return &Resolver{universe: u, diags: diags}
}

// ResolveAll walks every namespace and fills each type slot exactly
// once. Slots already resolved (by a patch hook) are left untouched.
func (r *Resolver) ResolveAll() {
	for _, ns := range r.universe.Namespaces() {
		r.resolveNamespace(ns)
	}
}

func (r *Resolver) resolveNamespace(ns *model.Namespace) {
	for _, name := range ns.ClassLikeNames() {
		c, _ := ns.ClassLike(name)
		r.resolveClass(ns, c)
	}
	names := sortedKeys(ns.Functions)
	for _, n := range names {
		r.resolveFunction(ns, ns.Functions[n], n)
	}
	for _, n := range sortedKeys(ns.Callbacks) {
		r.resolveFunction(ns, ns.Callbacks[n].Signature, n)
	}
	for _, n := range sortedKeys(ns.Constants) {
		r.resolveRef(ns, ns.Constants[n].Type, n)
	}
	for _, n := range sortedKeys(ns.Aliases) {
		r.resolveRef(ns, ns.Aliases[n].Target, n)
	}
}

func (r *Resolver) resolveClass(ns *model.Namespace, c *model.Class) {
	r.resolveRef(ns, c.Parent, c.Name)
	for _, impl := range c.Implements {
		r.resolveRef(ns, impl, c.Name)
	}
	for _, f := range c.Constructors {
		r.resolveFunction(ns, f, c.Name+"."+f.Name)
	}
	for _, f := range c.Functions {
		r.resolveFunction(ns, f, c.Name+"."+f.Name)
	}
	for _, p := range c.Properties {
		r.resolveRef(ns, p.Type, c.Name+"."+p.Name)
	}
	for _, f := range c.Fields {
		r.resolveRef(ns, f.Type, c.Name+"."+f.Name)
	}
	for _, cb := range c.Callbacks {
		r.resolveFunction(ns, cb.Signature, c.Name+"."+cb.Name)
	}
}

func (r *Resolver) resolveFunction(ns *model.Namespace, f *model.Function, subject string) {
	for _, p := range f.Parameters {
		r.resolveRef(ns, p.Type, subject)
	}
	for _, p := range f.OutputParams {
		r.resolveRef(ns, p.Type, subject)
	}
	r.resolveRef(ns, f.ReturnType, subject)
}

func (r *Resolver) resolveRef(ns *model.Namespace, ref *model.TypeRef, subject string) {
	if ref == nil || ref.Resolved != nil {
		return
	}
	res := r.Resolve(ns, ref.Raw, ref.CType, subject)
	expr := res.Expr
	if ref.ArrayDepth > 0 {
		expr = typeexpr.Array{Element: expr, Depth: ref.ArrayDepth}
	}
	if ref.Nullable {
		expr = typeexpr.Nullable{Inner: expr}
	}
	ref.Resolved = expr
}

// Resolve runs the ordered resolution algorithm for one raw reference
// encountered in ns. First match wins:
//
//  1. explicitly qualified Namespace.Name (or Namespace.Container.Name)
//  2. compound scoped name, longest class-name prefix wins, even when
//     a same-named global declaration exists
//  3. the secondary low-level annotation
//  4. a global declaration of that name, own namespace before declared
//     dependencies
//  5. Any, with a diagnostic
func (r *Resolver) Resolve(ns *model.Namespace, raw, ctype, subject string) Resolution {
	if raw == "" && ctype == "" {
		// Untyped slot (varargs and friends), not a failed reference.
		return Resolution{Expr: typeexpr.Any{}}
	}

	if name, ok := primitives[raw]; ok {
		return Resolution{Expr: typeexpr.Identifier{Name: name}}
	}
	if wildcards[raw] {
		return Resolution{Expr: typeexpr.Any{}}
	}

	// Step 1: explicit qualification.
	if expr, ok := r.resolveQualified(raw); ok {
		return Resolution{Expr: expr}
	}

	// Step 2: compound scoped name.
	if expr, ok := r.resolveScoped(ns, raw, subject); ok {
		return Resolution{Expr: expr}
	}

	// Step 3: secondary annotation.
	if expr, ok := r.resolveByCType(ns, ctype); ok {
		return Resolution{Expr: expr}
	}

	// Step 4: global declaration, own namespace then dependencies.
	if expr, ok := r.resolveGlobal(ns, raw); ok {
		return Resolution{Expr: expr}
	}

	r.diags.Warnf(diagnostics.CodeUnresolvedReference, ns.Name, subject,
		"reference %q could not be resolved, falling back to any", raw)
	return Resolution{Expr: typeexpr.Any{}, Fallback: true}
}

func (r *Resolver) resolveQualified(raw string) (typeexpr.Expr, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, false
	}
	target, ok := r.universe.Namespace(parts[0])
	if !ok {
		return nil, false
	}
	switch len(parts) {
	case 2:
		if target.HasGlobal(parts[1]) {
			return typeexpr.Identifier{Namespace: target.Name, Name: parts[1]}, true
		}
	case 3:
		if c, ok := target.ClassLike(parts[1]); ok {
			if _, ok := c.NestedCallback(parts[2]); ok {
				return typeexpr.ScopedIdentifier{Namespace: target.Name, Container: parts[1], Name: parts[2]}, true
			}
		}
	}
	return nil, false
}

// resolveScoped splits a compound name into a class-name prefix and a
// nested-declaration suffix. The longest matching prefix wins; a
// same-named global declaration never shadows the scoped match.
func (r *Resolver) resolveScoped(ns *model.Namespace, raw, subject string) (typeexpr.Expr, bool) {
	var best *typeexpr.ScopedIdentifier
	bestLen := 0
	for _, prefix := range ns.ClassLikeNames() {
		if len(prefix) >= len(raw) || !strings.HasPrefix(raw, prefix) {
			continue
		}
		c, _ := ns.ClassLike(prefix)
		suffix := raw[len(prefix):]
		if _, ok := c.NestedCallback(suffix); !ok {
			continue
		}
		if len(prefix) > bestLen {
			bestLen = len(prefix)
			best = &typeexpr.ScopedIdentifier{Namespace: ns.Name, Container: prefix, Name: suffix}
		}
	}
	if best == nil {
		return nil, false
	}
	if ns.HasGlobal(raw) {
		r.diags.Infof(diagnostics.CodeScopedOverGlobal, ns.Name, subject,
			"reference %q resolved to scoped %s.%s over the global declaration", raw, best.Container, best.Name)
	}
	return *best, true
}

func (r *Resolver) resolveByCType(ns *model.Namespace, ctype string) (typeexpr.Expr, bool) {
	if ctype == "" {
		return nil, false
	}
	if name, ok := ns.FindByCType(ctype); ok {
		return typeexpr.Identifier{Namespace: ns.Name, Name: name}, true
	}
	for _, other := range r.universe.Namespaces() {
		if other.Name == ns.Name {
			continue
		}
		if name, ok := other.FindByCType(ctype); ok {
			return typeexpr.Identifier{Namespace: other.Name, Name: name}, true
		}
	}
	return nil, false
}

func (r *Resolver) resolveGlobal(ns *model.Namespace, raw string) (typeexpr.Expr, bool) {
	if ns.HasGlobal(raw) {
		return typeexpr.Identifier{Namespace: ns.Name, Name: raw}, true
	}
	for _, dep := range ns.Dependencies {
		depNS, ok := r.universe.Namespace(dep.Name)
		if !ok {
			continue
		}
		if depNS.HasGlobal(raw) {
			return typeexpr.Identifier{Namespace: depNS.Name, Name: raw}, true
		}
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
