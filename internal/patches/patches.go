// Package patches applies small, isolated per-namespace corrections
// after a namespace's symbol table exists and before cross-namespace
// resolution. Two shapes are supported: generic-parameter injection
// and scoped-symbol correction. Hooks are idempotent, never observe
// other namespaces' hooks, and a hook that cannot apply is skipped
// with a diagnostic, never aborting the run.
package patches

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/typeexpr"
)

var log = commonlog.GetLogger("girbind.patches")

// Hook is one correction, keyed by the namespace and version it
// applies to. Apply returns an error when the declaration it expects
// is absent in this version; the hook is then skipped.
type Hook struct {
	Namespace string
	Version   string
	Name      string
	Apply     func(ns *model.Namespace) error
}

// Registry holds hooks keyed by (namespace, version).
type Registry struct {
	hooks map[string][]Hook
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]Hook)}
}

func hookKey(namespace, version string) string {
	return namespace + "-" + version
}

// Register adds a hook; hooks for the same key run in registration
// order.
func (r *Registry) Register(h Hook) {
	key := hookKey(h.Namespace, h.Version)
	r.hooks[key] = append(r.hooks[key], h)
}

// Apply runs every hook registered for ns exactly once. Hook failures
// are recorded and skipped.
func (r *Registry) Apply(ns *model.Namespace, diags *diagnostics.Collector) {
	for _, h := range r.hooks[hookKey(ns.Name, ns.Version)] {
		if err := h.Apply(ns); err != nil {
			log.Warningf("hook %s skipped on %s-%s: %s", h.Name, ns.Name, ns.Version, err)
			diags.Warnf(diagnostics.CodePatchSkipped, ns.Name, h.Name,
				"patch hook skipped: %s", err)
			continue
		}
		log.Infof("hook %s applied to %s-%s", h.Name, ns.Name, ns.Version)
	}
}

// InjectGeneric appends a generic parameter to a class-like
// declaration. Re-injecting the same name is a no-op, keeping hooks
// idempotent.
func InjectGeneric(c *model.Class, g model.Generic) {
	for _, existing := range c.Generics {
		if existing.Name == g.Name {
			return
		}
	}
	c.Generics = append(c.Generics, g)
}

// SetFieldType overwrites a field's resolved type.
func SetFieldType(c *model.Class, field string, t typeexpr.Expr) error {
	f, ok := c.Field(field)
	if !ok {
		return fmt.Errorf("%s.%s has no field %q", c.Namespace, c.Name, field)
	}
	f.Type.Resolved = t
	return nil
}

// SetPropertyType overwrites a property's resolved type.
func SetPropertyType(c *model.Class, property string, t typeexpr.Expr) error {
	p, ok := c.Property(property)
	if !ok {
		return fmt.Errorf("%s.%s has no property %q", c.Namespace, c.Name, property)
	}
	p.Type.Resolved = t
	return nil
}

// SetReturnType overwrites a function's resolved return type.
func SetReturnType(c *model.Class, function string, t typeexpr.Expr) error {
	f, ok := c.Function(function)
	if !ok {
		return fmt.Errorf("%s.%s has no function %q", c.Namespace, c.Name, function)
	}
	if f.ReturnType == nil {
		f.ReturnType = &model.TypeRef{}
	}
	f.ReturnType.Resolved = t
	return nil
}

// SetParamType overwrites one parameter's resolved type on a function.
func SetParamType(c *model.Class, function, param string, t typeexpr.Expr) error {
	f, ok := c.Function(function)
	if !ok {
		return fmt.Errorf("%s.%s has no function %q", c.Namespace, c.Name, function)
	}
	for _, p := range f.Parameters {
		if p.Name == param {
			p.Type.Resolved = t
			return nil
		}
	}
	return fmt.Errorf("%s.%s.%s has no parameter %q", c.Namespace, c.Name, function, param)
}

// SetSuperGenerified rewrites a class's supertype to a generified
// identifier carrying concrete arguments, usually from another
// namespace.
func SetSuperGenerified(c *model.Class, base typeexpr.Identifier, args ...typeexpr.Expr) error {
	if c.Kind != model.KindClass {
		return fmt.Errorf("%s.%s is a %s, only classes carry a supertype", c.Namespace, c.Name, c.Kind)
	}
	if c.Parent == nil {
		c.Parent = &model.TypeRef{}
	}
	c.Parent.Resolved = typeexpr.Generified{Base: base, Args: args}
	return nil
}

// classLike fetches a class-like declaration or errors in the shape
// hooks report.
func classLike(ns *model.Namespace, name string) (*model.Class, error) {
	c, ok := ns.ClassLike(name)
	if !ok {
		return nil, fmt.Errorf("namespace %s-%s has no declaration %q", ns.Name, ns.Version, name)
	}
	return c, nil
}
