package patches

import (
	"fmt"

	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/typeexpr"
)

// Default returns the registry of shipped hooks. Callers extend it
// with their own registrations before running the pipeline.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Hook{
		Namespace: "GLib",
		Version:   "2.0",
		Name:      "container-generics",
		Apply:     glibContainerGenerics,
	})
	r.Register(Hook{
		Namespace: "Gio",
		Version:   "2.0",
		Name:      "scoped-proxy-callback",
		Apply:     gioScopedProxyCallback,
	})
	return r
}

// glibContainerGenerics injects element type parameters into the GLib
// container records and rewrites their payload slots to reference
// them. The introspection data types these slots as bare pointers.
func glibContainerGenerics(ns *model.Namespace) error {
	for _, name := range []string{"List", "SList"} {
		c, err := classLike(ns, name)
		if err != nil {
			return err
		}
		InjectGeneric(c, model.Generic{Name: "A", Default: typeexpr.Any{}})
		if err := SetFieldType(c, "data", typeexpr.GenericRef{Name: "A"}); err != nil {
			return err
		}
	}

	c, err := classLike(ns, "HashTable")
	if err != nil {
		return err
	}
	InjectGeneric(c, model.Generic{Name: "K", Default: typeexpr.Any{}})
	InjectGeneric(c, model.Generic{Name: "V", Default: typeexpr.Any{}})
	return nil
}

// gioScopedProxyCallback pins the proxy-type callback parameter to the
// nested declaration. The raw reference collides with a same-named
// global callback and the prefix rule cannot split it because the
// parameter is typed by the global's c:type annotation.
func gioScopedProxyCallback(ns *model.Namespace) error {
	c, err := classLike(ns, "DBusObjectManagerClient")
	if err != nil {
		return err
	}
	if _, ok := c.NestedCallback("ProxyTypeFunc"); !ok {
		return fmt.Errorf("namespace %s-%s: DBusObjectManagerClient has no nested callback ProxyTypeFunc", ns.Name, ns.Version)
	}
	return SetParamType(c, "new", "get_proxy_type_func", typeexpr.ScopedIdentifier{
		Namespace: ns.Name,
		Container: "DBusObjectManagerClient",
		Name:      "ProxyTypeFunc",
	})
}
