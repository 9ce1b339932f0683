// Package conflicts walks every class-like declaration's ancestry and
// classifies member collisions. Each collision is resolved to one of a
// fixed set of strategies: wrapping the member's type in a conflict
// marker, synthesizing an unreachable trailing overload, omitting the
// member, or tagging a virtual function for per-signature overload
// rendering. Detection is deterministic and idempotent: it always
// compares the pre-conflict types, which markers carry along.
package conflicts

import (
	"github.com/gircore/girbind/internal/config"
	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/subtype"
	"github.com/gircore/girbind/internal/typeexpr"
)

// Resolution names the strategy applied to a conflicting member.
type Resolution int

const (
	MarkType Resolution = iota
	SyntheticOverload
	OmitRedundant
	OmitShadowed
	TagOverloads
)

func (r Resolution) String() string {
	switch r {
	case MarkType:
		return "mark-type"
	case SyntheticOverload:
		return "synthetic-overload"
	case OmitRedundant:
		return "omit-redundant"
	case OmitShadowed:
		return "omit-shadowed"
	case TagOverloads:
		return "tag-overloads"
	}
	return "unknown"
}

// Record is one classified member conflict.
type Record struct {
	Namespace  string
	Class      string
	Member     string
	Kind       typeexpr.ConflictKind
	Ancestor   string // Ns.Name of the ancestor that triggered it, "" for forced conflicts
	Resolution Resolution
}

// Detector classifies member collisions across a complete universe.
type Detector struct {
	universe *model.Universe
	diags    *diagnostics.Collector
}

func New(u *model.Universe, diags *diagnostics.Collector) *Detector {
	return &Detector{universe: u, diags: diags}
}

// DetectAll runs the detector over every class-like declaration and
// returns the full record set, in deterministic order.
func (d *Detector) DetectAll() []Record {
	var records []Record
	for _, ns := range d.universe.Namespaces() {
		for _, name := range ns.ClassLikeNames() {
			c, _ := ns.ClassLike(name)
			records = append(records, d.Detect(c)...)
		}
	}
	return records
}

// Detect classifies and resolves every member collision of one class.
func (d *Detector) Detect(c *model.Class) []Record {
	ancestors := d.ancestry(c)
	var records []Record

	problematic := config.KnownProblematicMembers[c.Namespace]
	reservedApply := d.rootedAtUniversalBase(c)

	for _, f := range c.Fields {
		if rec, ok := d.detectField(c, f, ancestors, problematic); ok {
			records = append(records, rec)
		}
	}
	for _, p := range c.Properties {
		if rec, ok := d.detectProperty(c, p, ancestors, problematic); ok {
			records = append(records, rec)
		}
	}
	fns := make([]*model.Function, 0, len(c.Functions)+len(c.Constructors))
	fns = append(fns, c.Functions...)
	fns = append(fns, c.Constructors...)
	for _, f := range fns {
		if rec, ok := d.detectFunction(c, f, ancestors, problematic, reservedApply); ok {
			records = append(records, rec)
		}
	}

	for _, rec := range records {
		d.diags.Warnf(diagnostics.CodeMemberConflict, rec.Namespace, rec.Class+"."+rec.Member,
			"%s against %s, resolved by %s", rec.Kind, ancestorLabel(rec.Ancestor), rec.Resolution)
	}
	return records
}

func ancestorLabel(a string) string {
	if a == "" {
		return "reserved/problematic name list"
	}
	return a
}

// ancestry returns every class reachable through the superchain and
// the implemented-interface chains, nearest first, without c itself.
func (d *Detector) ancestry(c *model.Class) []*model.Class {
	var out []*model.Class
	visited := map[typeexpr.Identifier]bool{c.Ident(): true}
	queue := directAncestors(c)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		decl, ok := d.universe.LookupClass(id.Namespace, id.Name)
		if !ok {
			continue
		}
		out = append(out, decl)
		queue = append(queue, directAncestors(decl)...)
	}
	return out
}

func directAncestors(c *model.Class) []typeexpr.Identifier {
	var out []typeexpr.Identifier
	if c.Parent != nil {
		if id, ok := identOf(c.Parent.Type()); ok {
			out = append(out, id)
		}
	}
	for _, impl := range c.Implements {
		if id, ok := identOf(impl.Type()); ok {
			out = append(out, id)
		}
	}
	return out
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

func (d *Detector) rootedAtUniversalBase(c *model.Class) bool {
	base := typeexpr.Identifier{
		Namespace: config.UniversalBaseNamespace,
		Name:      config.UniversalBaseName,
	}
	if c.Ident() == base {
		return true
	}
	return subtype.IsSubtypeOf(d.universe, c, nil, c.Ident(), base)
}

func (d *Detector) detectField(c *model.Class, f *model.Field, ancestors []*model.Class, problematic map[string]bool) (Record, bool) {
	for _, anc := range ancestors {
		if _, ok := anc.Property(f.Name); ok {
			// Mixing a data member with an ancestor accessor is always
			// unsafe, compatible types or not.
			return d.markField(c, f, anc, typeexpr.AccessorPropertyConflict), true
		}
		if af, ok := anc.Field(f.Name); ok {
			if !subtype.IsSubtypeOf(d.universe, c, anc, typeexpr.Unwrap(f.Type.Type()), typeexpr.Unwrap(af.Type.Type())) {
				return d.markField(c, f, anc, typeexpr.FieldNameConflict), true
			}
		}
	}
	if problematic[f.Name] {
		rec := d.markField(c, f, nil, typeexpr.FieldNameConflict)
		return rec, true
	}
	return Record{}, false
}

func (d *Detector) markField(c *model.Class, f *model.Field, anc *model.Class, kind typeexpr.ConflictKind) Record {
	f.Type.Resolved = typeexpr.NewConflictMarker(f.Type.Type(), kind)
	return Record{
		Namespace:  c.Namespace,
		Class:      c.Name,
		Member:     f.Name,
		Kind:       kind,
		Ancestor:   ancestorName(anc),
		Resolution: MarkType,
	}
}

func (d *Detector) detectProperty(c *model.Class, p *model.Property, ancestors []*model.Class, problematic map[string]bool) (Record, bool) {
	for _, anc := range ancestors {
		if _, ok := anc.Field(p.Name); ok {
			return d.markProperty(c, p, anc, typeexpr.AccessorPropertyConflict), true
		}
		if ap, ok := anc.Property(p.Name); ok {
			if !subtype.IsSubtypeOf(d.universe, c, anc, typeexpr.Unwrap(p.Type.Type()), typeexpr.Unwrap(ap.Type.Type())) {
				return d.markProperty(c, p, anc, typeexpr.PropertyNameConflict), true
			}
		}
	}
	if problematic[p.Name] {
		return d.markProperty(c, p, nil, typeexpr.PropertyNameConflict), true
	}
	return Record{}, false
}

func (d *Detector) markProperty(c *model.Class, p *model.Property, anc *model.Class, kind typeexpr.ConflictKind) Record {
	p.Type.Resolved = typeexpr.NewConflictMarker(p.Type.Type(), kind)
	return Record{
		Namespace:  c.Namespace,
		Class:      c.Name,
		Member:     p.Name,
		Kind:       kind,
		Ancestor:   ancestorName(anc),
		Resolution: MarkType,
	}
}

func ancestorName(anc *model.Class) string {
	if anc == nil {
		return ""
	}
	return anc.Namespace + "." + anc.Name
}

func (d *Detector) detectFunction(c *model.Class, f *model.Function, ancestors []*model.Class, problematic map[string]bool, reservedApply bool) (Record, bool) {
	// A data member of the same name wins over the function, on the
	// class itself or anywhere up the chain, unless the function also
	// has a signature conflict of its own.
	shadowedBy := d.dataMemberShadow(c, f.Name, ancestors)

	var conflictAnc *model.Class
	var kind typeexpr.ConflictKind
	for _, anc := range ancestors {
		af, ok := ancestorFunction(anc, f.Name)
		if !ok {
			continue
		}
		switch {
		case d.signatureConflicts(c, anc, f, af):
			if conflictAnc == nil || kind != typeexpr.FunctionNameConflict {
				conflictAnc, kind = anc, typeexpr.FunctionNameConflict
			}
		case f.Virtual && af.Virtual && anc.Kind == model.KindInterface && !sameSignature(f, af):
			// Covariant returns do not exempt interface virtuals: two
			// virtual contracts of the same name must match exactly or
			// desugar to overloads.
			if conflictAnc == nil {
				conflictAnc, kind = anc, typeexpr.VFuncSignatureConflict
			}
		}
	}

	if conflictAnc == nil && shadowedBy != nil {
		f.Omitted = true
		return Record{
			Namespace:  c.Namespace,
			Class:      c.Name,
			Member:     f.Name,
			Kind:       typeexpr.FunctionNameConflict,
			Ancestor:   ancestorName(shadowedBy),
			Resolution: OmitShadowed,
		}, true
	}

	if conflictAnc == nil {
		forced := reservedApply && config.ReservedMemberNames[f.Name] || problematic[f.Name]
		if !forced {
			return Record{}, false
		}
		d.synthesizeOverload(f)
		return Record{
			Namespace:  c.Namespace,
			Class:      c.Name,
			Member:     f.Name,
			Kind:       typeexpr.FunctionNameConflict,
			Ancestor:   "",
			Resolution: SyntheticOverload,
		}, true
	}

	if kind == typeexpr.VFuncSignatureConflict {
		f.OverloadTagged = true
		return Record{
			Namespace:  c.Namespace,
			Class:      c.Name,
			Member:     f.Name,
			Kind:       kind,
			Ancestor:   ancestorName(conflictAnc),
			Resolution: TagOverloads,
		}, true
	}

	// The collision may already be redeclared by a nearer ancestor; in
	// that case the member is redundant and omitted.
	if d.inheritedCollision(c, f, conflictAnc, ancestors) {
		f.Omitted = true
		return Record{
			Namespace:  c.Namespace,
			Class:      c.Name,
			Member:     f.Name,
			Kind:       kind,
			Ancestor:   ancestorName(conflictAnc),
			Resolution: OmitRedundant,
		}, true
	}

	d.synthesizeOverload(f)
	return Record{
		Namespace:  c.Namespace,
		Class:      c.Name,
		Member:     f.Name,
		Kind:       kind,
		Ancestor:   ancestorName(conflictAnc),
		Resolution: SyntheticOverload,
	}, true
}

func (d *Detector) dataMemberShadow(c *model.Class, name string, ancestors []*model.Class) *model.Class {
	if _, ok := c.Field(name); ok {
		return c
	}
	if _, ok := c.Property(name); ok {
		return c
	}
	for _, anc := range ancestors {
		if _, ok := anc.Field(name); ok {
			return anc
		}
		if _, ok := anc.Property(name); ok {
			return anc
		}
	}
	return nil
}

func ancestorFunction(anc *model.Class, name string) (*model.Function, bool) {
	if f, ok := anc.Function(name); ok {
		return f, true
	}
	for _, ctor := range anc.Constructors {
		if ctor.Name == name {
			return ctor, true
		}
	}
	return nil, false
}

// signatureConflicts applies the function collision rule: the child
// exceeding the ancestor's parameter count, an incompatible return
// type, any incompatible parameter, or a mismatched output-parameter
// list. Fewer child parameters alone is a safe narrowing.
//
// Parameter compatibility deliberately runs in the same direction as
// the return type; see the variance note pinned in the test suite.
func (d *Detector) signatureConflicts(c, anc *model.Class, child, parent *model.Function) bool {
	if len(child.Parameters) > len(parent.Parameters) {
		return true
	}
	if !subtype.IsSubtypeOf(d.universe, c, anc, returnOf(child), returnOf(parent)) {
		return true
	}
	for i, p := range child.Parameters {
		if !subtype.IsSubtypeOf(d.universe, c, anc, typeexpr.Unwrap(p.Type.Type()), typeexpr.Unwrap(parent.Parameters[i].Type.Type())) {
			return true
		}
	}
	if len(child.OutputParams) != len(parent.OutputParams) {
		return true
	}
	for i, p := range child.OutputParams {
		if !subtype.IsSubtypeOf(d.universe, c, anc, typeexpr.Unwrap(p.Type.Type()), typeexpr.Unwrap(parent.OutputParams[i].Type.Type())) {
			return true
		}
	}
	return false
}

func returnOf(f *model.Function) typeexpr.Expr {
	if f.ReturnType == nil {
		return typeexpr.Any{}
	}
	return typeexpr.Unwrap(f.ReturnType.Type())
}

// sameSignature is the strict comparison used for interface virtuals:
// structural equality of every slot, no variance allowed.
func sameSignature(a, b *model.Function) bool {
	if len(a.Parameters) != len(b.Parameters) || len(a.OutputParams) != len(b.OutputParams) {
		return false
	}
	if !returnOf(a).Equal(returnOf(b)) {
		return false
	}
	for i, p := range a.Parameters {
		if !typeexpr.Unwrap(p.Type.Type()).Equal(typeexpr.Unwrap(b.Parameters[i].Type.Type())) {
			return false
		}
	}
	for i, p := range a.OutputParams {
		if !typeexpr.Unwrap(p.Type.Type()).Equal(typeexpr.Unwrap(b.OutputParams[i].Type.Type())) {
			return false
		}
	}
	return true
}

// inheritedCollision reports whether an ancestor nearer than the
// conflicting one already redeclares the same broken override, making
// the child's copy redundant.
func (d *Detector) inheritedCollision(c *model.Class, f *model.Function, conflictAnc *model.Class, ancestors []*model.Class) bool {
	for _, anc := range ancestors {
		if anc == conflictAnc {
			return false
		}
		mid, ok := ancestorFunction(anc, f.Name)
		if !ok {
			continue
		}
		if d.signatureConflicts(anc, conflictAnc, mid, mustAncestorFunction(conflictAnc, f.Name)) {
			return true
		}
	}
	return false
}

func mustAncestorFunction(anc *model.Class, name string) *model.Function {
	f, _ := ancestorFunction(anc, name)
	return f
}

// synthesizeOverload retains the member and appends one trailing
// unreachable overload: a variadic never-typed parameter list with an
// any return, keeping the declared surface syntactically valid without
// hiding the incompatibility.
func (d *Detector) synthesizeOverload(f *model.Function) {
	if len(f.SyntheticOverloads) > 0 {
		return // already resolved on an earlier pass
	}
	f.SyntheticOverloads = append(f.SyntheticOverloads, &model.Function{
		Name:     f.Name,
		Static:   f.Static,
		Virtual:  f.Virtual,
		Variadic: true,
		Parameters: []*model.Parameter{{
			Name: "args",
			Type: &model.TypeRef{Resolved: typeexpr.Never{}},
		}},
		ReturnType: &model.TypeRef{Resolved: typeexpr.Any{}},
	})
}
