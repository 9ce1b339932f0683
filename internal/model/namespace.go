package model

import (
	"sort"

	"github.com/gircore/girbind/internal/gir"
)

// Dependency is a namespace this namespace's declarations may
// reference; dependencies load first.
type Dependency struct {
	Name    string
	Version string
}

// Namespace is the per (name, version) symbol table: every declaration
// of one library, each name unique within the pair.
type Namespace struct {
	Name         string
	Version      string
	SourcePath   string
	Dependencies []Dependency

	Classes    map[string]*Class
	Interfaces map[string]*Class
	Records    map[string]*Class
	Enums      map[string]*Enum
	Functions  map[string]*Function
	Constants  map[string]*Constant
	Callbacks  map[string]*Callback
	Aliases    map[string]*Alias
}

// NewNamespace creates an empty symbol table.
func NewNamespace(name, version string) *Namespace {
	return &Namespace{
		Name:       name,
		Version:    version,
		Classes:    make(map[string]*Class),
		Interfaces: make(map[string]*Class),
		Records:    make(map[string]*Class),
		Enums:      make(map[string]*Enum),
		Functions:  make(map[string]*Function),
		Constants:  make(map[string]*Constant),
		Callbacks:  make(map[string]*Callback),
		Aliases:    make(map[string]*Alias),
	}
}

// ClassLike returns the class, interface or record of the given name.
func (ns *Namespace) ClassLike(name string) (*Class, bool) {
	if c, ok := ns.Classes[name]; ok {
		return c, true
	}
	if c, ok := ns.Interfaces[name]; ok {
		return c, true
	}
	if c, ok := ns.Records[name]; ok {
		return c, true
	}
	return nil, false
}

// ClassLikeNames lists class, interface and record names, sorted, so
// iteration order is deterministic.
func (ns *Namespace) ClassLikeNames() []string {
	names := make([]string, 0, len(ns.Classes)+len(ns.Interfaces)+len(ns.Records))
	for n := range ns.Classes {
		names = append(names, n)
	}
	for n := range ns.Interfaces {
		names = append(names, n)
	}
	for n := range ns.Records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasGlobal reports whether any global (non-scoped) declaration of the
// given name exists in this namespace.
func (ns *Namespace) HasGlobal(name string) bool {
	if _, ok := ns.ClassLike(name); ok {
		return true
	}
	if _, ok := ns.Enums[name]; ok {
		return true
	}
	if _, ok := ns.Functions[name]; ok {
		return true
	}
	if _, ok := ns.Constants[name]; ok {
		return true
	}
	if _, ok := ns.Callbacks[name]; ok {
		return true
	}
	_, ok := ns.Aliases[name]
	return ok
}

// FindByCType looks a declaration up by its secondary low-level
// annotation. Trailing pointer markers on the query are ignored.
func (ns *Namespace) FindByCType(ctype string) (string, bool) {
	for len(ctype) > 0 && ctype[len(ctype)-1] == '*' {
		ctype = ctype[:len(ctype)-1]
	}
	if ctype == "" {
		return "", false
	}
	for _, name := range ns.ClassLikeNames() {
		c, _ := ns.ClassLike(name)
		if c.CType == ctype {
			return name, true
		}
	}
	// Enums and aliases carry c:type annotations too.
	for name, e := range ns.Enums {
		if e.CType == ctype {
			return name, true
		}
	}
	for name, a := range ns.Aliases {
		if a.CType == ctype {
			return name, true
		}
	}
	for name, cb := range ns.Callbacks {
		if cb.CType == ctype {
			return name, true
		}
	}
	return "", false
}

// Build converts a decoded repository into a symbol table. Type slots
// keep their raw reference strings; nothing is resolved yet.
func Build(repo *gir.Repository) *Namespace {
	raw := repo.Namespace
	ns := NewNamespace(raw.Name, raw.Version)
	ns.SourcePath = repo.Path
	for _, inc := range repo.Includes {
		ns.Dependencies = append(ns.Dependencies, Dependency{Name: inc.Name, Version: inc.Version})
	}

	for _, rc := range raw.Classes {
		c := buildClass(ns.Name, rc, KindClass)
		ns.Classes[c.Name] = c
	}
	for _, rc := range raw.Interfaces {
		c := buildClass(ns.Name, rc, KindInterface)
		ns.Interfaces[c.Name] = c
	}
	for _, rc := range raw.Records {
		c := buildClass(ns.Name, rc, KindRecord)
		ns.Records[c.Name] = c
	}
	for _, re := range raw.Enums {
		ns.Enums[re.Name] = buildEnum(re)
	}
	for _, re := range raw.Bitfields {
		ns.Enums[re.Name] = buildEnum(re)
	}
	for _, rf := range raw.Functions {
		f := buildFunction(rf, true, false)
		ns.Functions[f.Name] = f
	}
	for _, rcb := range raw.Callbacks {
		cb := buildCallback(rcb)
		ns.Callbacks[cb.Name] = cb
	}
	for _, rc := range raw.Constants {
		ns.Constants[rc.Name] = &Constant{
			Name:  rc.Name,
			CType: rc.CType,
			Value: rc.Value,
			Type:  typeRefOf(rc.Type, nil, false),
		}
	}
	for _, ra := range raw.Aliases {
		ns.Aliases[ra.Name] = &Alias{
			Name:   ra.Name,
			CType:  ra.CType,
			Target: typeRefOf(ra.Type, nil, false),
		}
	}
	return ns
}

func buildClass(nsName string, raw gir.Class, kind DeclKind) *Class {
	c := &Class{
		Kind:      kind,
		Name:      raw.Name,
		Namespace: nsName,
		CType:     raw.CType,
		Abstract:  raw.Abstract,
	}
	if raw.Parent != "" && kind == KindClass {
		c.Parent = &TypeRef{Raw: raw.Parent}
	}
	for _, impl := range raw.Implements {
		c.Implements = append(c.Implements, &TypeRef{Raw: impl.Name})
	}
	for _, rf := range raw.Constructors {
		c.Constructors = append(c.Constructors, buildFunction(rf, false, false))
	}
	for _, rf := range raw.Methods {
		c.Functions = append(c.Functions, buildFunction(rf, false, false))
	}
	for _, rf := range raw.Functions {
		c.Functions = append(c.Functions, buildFunction(rf, true, false))
	}
	for _, rf := range raw.VirtualMethods {
		c.Functions = append(c.Functions, buildFunction(rf, false, true))
	}
	for _, rp := range raw.Properties {
		c.Properties = append(c.Properties, &Property{
			Name:     rp.Name,
			Writable: rp.Writable,
			Type:     typeRefOf(rp.Type, rp.Array, rp.Nullable),
		})
	}
	for _, rcb := range raw.Callbacks {
		c.Callbacks = append(c.Callbacks, buildCallback(rcb))
	}
	for _, rfield := range raw.Fields {
		if rfield.Callback != nil {
			// A callback-typed field is both a nested declaration and
			// a data member whose type is the compound scoped name;
			// the resolver's prefix rule turns it back into C.D.
			cb := buildCallback(*rfield.Callback)
			c.Callbacks = append(c.Callbacks, cb)
			c.Fields = append(c.Fields, &Field{
				Name: rfield.Name,
				Type: &TypeRef{Raw: raw.Name + cb.Name},
			})
			continue
		}
		c.Fields = append(c.Fields, &Field{
			Name: rfield.Name,
			Type: typeRefOf(rfield.Type, rfield.Array, false),
		})
	}
	return c
}

func buildEnum(raw gir.Enum) *Enum {
	e := &Enum{
		Name:  raw.Name,
		CType: raw.CType,
	}
	for _, m := range raw.Members {
		e.Members = append(e.Members, EnumMember{
			Name:        m.Name,
			Value:       m.Value,
			CIdentifier: m.CIdentifier,
		})
	}
	return e
}

func buildFunction(raw gir.Function, static, virtual bool) *Function {
	f := &Function{
		Name:        raw.Name,
		CIdentifier: raw.CIdentifier,
		Static:      static,
		Virtual:     virtual,
	}
	if raw.Params != nil {
		for _, rp := range raw.Params.Params {
			p := &Parameter{
				Name:      rp.Name,
				Direction: direction(rp.Direction),
				Type:      typeRefOf(rp.Type, rp.Array, rp.Nullable),
			}
			if p.Direction == Out {
				f.OutputParams = append(f.OutputParams, p)
			} else {
				f.Parameters = append(f.Parameters, p)
			}
		}
	}
	if raw.Return != nil {
		f.ReturnType = typeRefOf(raw.Return.Type, raw.Return.Array, raw.Return.Nullable)
	}
	return f
}

func buildCallback(raw gir.Callback) *Callback {
	sig := buildFunction(gir.Function{
		Name:   raw.Name,
		Return: raw.Return,
		Params: raw.Params,
	}, false, false)
	return &Callback{Name: raw.Name, CType: raw.CType, Signature: sig}
}

func direction(s string) Direction {
	switch s {
	case "out":
		return Out
	case "inout":
		return InOut
	}
	return In
}

func typeRefOf(t *gir.Type, arr *gir.Array, nullable bool) *TypeRef {
	depth := 0
	for arr != nil {
		depth++
		if arr.Array != nil {
			arr = arr.Array
			continue
		}
		t = arr.Type
		break
	}
	ref := &TypeRef{ArrayDepth: depth, Nullable: nullable}
	if t != nil {
		ref.Raw = t.Name
		ref.CType = t.CType
	}
	return ref
}
