package patches

import (
	"testing"

	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/typeexpr"
)

func listNamespace() *model.Namespace {
	ns := model.NewNamespace("GLib", "2.0")
	for _, name := range []string{"List", "SList", "HashTable"} {
		ns.Records[name] = &model.Class{
			Kind: model.KindRecord, Name: name, Namespace: "GLib",
			Fields: []*model.Field{{Name: "data", Type: &model.TypeRef{Raw: "gpointer"}}},
		}
	}
	return ns
}

func TestApplyRunsMatchingHooks(t *testing.T) {
	r := NewRegistry()
	var applied []string
	hook := func(name string) Hook {
		return Hook{Namespace: "GLib", Version: "2.0", Name: name, Apply: func(ns *model.Namespace) error {
			applied = append(applied, name)
			return nil
		}}
	}
	r.Register(hook("first"))
	r.Register(hook("second"))
	r.Register(Hook{Namespace: "GLib", Version: "3.0", Name: "other-version", Apply: func(ns *model.Namespace) error {
		t.Error("hook for another version ran")
		return nil
	}})

	r.Apply(listNamespace(), diagnostics.NewCollector())
	if len(applied) != 2 || applied[0] != "first" || applied[1] != "second" {
		t.Errorf("applied = %v, want [first second] in registration order", applied)
	}
}

func TestApplySkipsFailingHook(t *testing.T) {
	r := NewRegistry()
	r.Register(Hook{Namespace: "GLib", Version: "2.0", Name: "broken", Apply: func(ns *model.Namespace) error {
		_, err := classLike(ns, "Absent")
		return err
	}})
	ran := false
	r.Register(Hook{Namespace: "GLib", Version: "2.0", Name: "after", Apply: func(ns *model.Namespace) error {
		ran = true
		return nil
	}})

	diags := diagnostics.NewCollector()
	r.Apply(listNamespace(), diags)

	if !ran {
		t.Error("a failing hook must not stop later hooks")
	}
	all := diags.All()
	if len(all) != 1 || all[0].Code != diagnostics.CodePatchSkipped {
		t.Fatalf("diagnostics = %+v, want one patch-skipped entry", all)
	}
	if all[0].Severity != diagnostics.Warning {
		t.Errorf("severity = %s, want warning", all[0].Severity)
	}
}

func TestInjectGenericIsIdempotent(t *testing.T) {
	c := &model.Class{Kind: model.KindRecord, Name: "List"}
	g := model.Generic{Name: "A", Default: typeexpr.Any{}}
	InjectGeneric(c, g)
	InjectGeneric(c, g)
	if len(c.Generics) != 1 {
		t.Errorf("Generics = %d, want 1", len(c.Generics))
	}
}

func TestSettersReportMissingDeclarations(t *testing.T) {
	c := &model.Class{Kind: model.KindRecord, Name: "List", Namespace: "GLib"}
	if err := SetFieldType(c, "data", typeexpr.Any{}); err == nil {
		t.Error("SetFieldType on a missing field must error")
	}
	if err := SetPropertyType(c, "len", typeexpr.Any{}); err == nil {
		t.Error("SetPropertyType on a missing property must error")
	}
	if err := SetReturnType(c, "next", typeexpr.Any{}); err == nil {
		t.Error("SetReturnType on a missing function must error")
	}
	if err := SetParamType(c, "next", "x", typeexpr.Any{}); err == nil {
		t.Error("SetParamType on a missing function must error")
	}

	c.Functions = []*model.Function{{Name: "next"}}
	if err := SetParamType(c, "next", "x", typeexpr.Any{}); err == nil {
		t.Error("SetParamType on a missing parameter must error")
	}
	if err := SetReturnType(c, "next", typeexpr.Never{}); err != nil {
		t.Errorf("SetReturnType should allocate the missing slot: %v", err)
	}
	if !c.Functions[0].ReturnType.Type().Equal(typeexpr.Never{}) {
		t.Errorf("return type not set: %s", c.Functions[0].ReturnType.Type())
	}
}

func TestSetSuperGenerified(t *testing.T) {
	iface := &model.Class{Kind: model.KindInterface, Name: "Iface", Namespace: "T"}
	if err := SetSuperGenerified(iface, typeexpr.Identifier{Namespace: "T", Name: "Base"}); err == nil {
		t.Error("only classes carry a supertype")
	}

	c := &model.Class{Kind: model.KindClass, Name: "Box", Namespace: "T"}
	base := typeexpr.Identifier{Namespace: "GLib", Name: "List"}
	if err := SetSuperGenerified(c, base, typeexpr.Identifier{Namespace: "T", Name: "Item"}); err != nil {
		t.Fatalf("SetSuperGenerified() error: %v", err)
	}
	got, ok := c.Parent.Type().(typeexpr.Generified)
	if !ok {
		t.Fatalf("Parent = %s, want a generified expression", c.Parent.Type())
	}
	if !got.Base.Equal(base) || len(got.Args) != 1 {
		t.Errorf("Parent = %s", got)
	}
}

func TestDefaultGLibContainerGenerics(t *testing.T) {
	ns := listNamespace()
	diags := diagnostics.NewCollector()
	Default().Apply(ns, diags)

	if diags.Len() != 0 {
		t.Fatalf("diagnostics = %+v, want none", diags.All())
	}
	for _, name := range []string{"List", "SList"} {
		c := ns.Records[name]
		if len(c.Generics) != 1 || c.Generics[0].Name != "A" {
			t.Errorf("%s generics = %+v", name, c.Generics)
		}
		field, _ := c.Field("data")
		if !field.Type.Type().Equal(typeexpr.GenericRef{Name: "A"}) {
			t.Errorf("%s.data = %s, want generic ref A", name, field.Type.Type())
		}
	}
	ht := ns.Records["HashTable"]
	if len(ht.Generics) != 2 {
		t.Errorf("HashTable generics = %+v, want K and V", ht.Generics)
	}

	// Hooks re-applied on the same table change nothing.
	Default().Apply(ns, diags)
	if len(ns.Records["List"].Generics) != 1 {
		t.Error("re-applying hooks must be idempotent")
	}
}

func TestDefaultSkipsWhenDeclarationsAbsent(t *testing.T) {
	ns := model.NewNamespace("GLib", "2.0")
	diags := diagnostics.NewCollector()
	Default().Apply(ns, diags)

	all := diags.All()
	if len(all) != 1 || all[0].Code != diagnostics.CodePatchSkipped {
		t.Fatalf("diagnostics = %+v, want one patch-skipped entry", all)
	}
}

func TestDefaultGioScopedProxyCallback(t *testing.T) {
	ns := model.NewNamespace("Gio", "2.0")
	client := &model.Class{
		Kind: model.KindClass, Name: "DBusObjectManagerClient", Namespace: "Gio",
		Callbacks: []*model.Callback{{Name: "ProxyTypeFunc", Signature: &model.Function{Name: "ProxyTypeFunc"}}},
		Functions: []*model.Function{{
			Name: "new",
			Parameters: []*model.Parameter{{
				Name: "get_proxy_type_func",
				Type: &model.TypeRef{Raw: "ProxyTypeFunc", CType: "GDBusProxyTypeFunc"},
			}},
		}},
	}
	ns.Classes[client.Name] = client

	diags := diagnostics.NewCollector()
	Default().Apply(ns, diags)
	if diags.Len() != 0 {
		t.Fatalf("diagnostics = %+v, want none", diags.All())
	}
	want := typeexpr.ScopedIdentifier{Namespace: "Gio", Container: "DBusObjectManagerClient", Name: "ProxyTypeFunc"}
	got := client.Functions[0].Parameters[0].Type.Type()
	if !got.Equal(want) {
		t.Errorf("parameter type = %s, want %s", got, want)
	}
}
