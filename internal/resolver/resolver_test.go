package resolver

import (
	"testing"

	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/model"
	"github.com/gircore/girbind/internal/typeexpr"
)

func nestedCallback(name string) *model.Callback {
	return &model.Callback{Name: name, Signature: &model.Function{Name: name}}
}

// testUniverse holds namespace N with:
//
//   - class C owning nested callback D, and a same-named global
//     callback CD (the classic shadowing pair)
//   - classes Tree and TreeView with nested callbacks chosen so the
//     compound TreeViewDropped matches both prefixes
//   - a dependency namespace Dep with class Thing
func testUniverse() *model.Universe {
	u := model.NewUniverse()

	ns := model.NewNamespace("N", "1.0")
	ns.Dependencies = []model.Dependency{{Name: "Dep", Version: "1.0"}}
	c := &model.Class{Kind: model.KindClass, Name: "C", Namespace: "N", CType: "NC"}
	c.Callbacks = append(c.Callbacks, nestedCallback("D"))
	ns.Classes["C"] = c
	ns.Callbacks["CD"] = &model.Callback{Name: "CD", CType: "NCD", Signature: &model.Function{Name: "CD"}}

	tree := &model.Class{Kind: model.KindClass, Name: "Tree", Namespace: "N"}
	tree.Callbacks = append(tree.Callbacks, nestedCallback("ViewDropped"))
	ns.Classes["Tree"] = tree
	treeView := &model.Class{Kind: model.KindClass, Name: "TreeView", Namespace: "N", CType: "NTreeView"}
	treeView.Callbacks = append(treeView.Callbacks, nestedCallback("Dropped"))
	ns.Classes["TreeView"] = treeView
	u.Add(ns)

	dep := model.NewNamespace("Dep", "1.0")
	dep.Classes["Thing"] = &model.Class{Kind: model.KindClass, Name: "Thing", Namespace: "Dep", CType: "DepThing"}
	u.Add(dep)

	return u
}

func TestScopedBeatsGlobal(t *testing.T) {
	u := testUniverse()
	diags := diagnostics.NewCollector()
	r := New(u, diags)
	ns, _ := u.Namespace("N")

	res := r.Resolve(ns, "CD", "", "C.handler")
	want := typeexpr.ScopedIdentifier{Namespace: "N", Container: "C", Name: "D"}
	if !res.Expr.Equal(want) {
		t.Fatalf("Resolve(CD) = %s, want %s", res.Expr, want)
	}
	if res.Fallback {
		t.Errorf("scoped resolution is not a fallback")
	}

	found := false
	for _, d := range diags.All() {
		if d.Code == diagnostics.CodeScopedOverGlobal {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a scoped-over-global diagnostic")
	}
}

func TestLongestPrefixWins(t *testing.T) {
	u := testUniverse()
	r := New(u, diagnostics.NewCollector())
	ns, _ := u.Namespace("N")

	res := r.Resolve(ns, "TreeViewDropped", "", "")
	want := typeexpr.ScopedIdentifier{Namespace: "N", Container: "TreeView", Name: "Dropped"}
	if !res.Expr.Equal(want) {
		t.Errorf("Resolve(TreeViewDropped) = %s, want %s", res.Expr, want)
	}
}

func TestResolutionOrder(t *testing.T) {
	u := testUniverse()
	ns, _ := u.Namespace("N")

	tests := []struct {
		name     string
		raw      string
		ctype    string
		want     typeexpr.Expr
		fallback bool
	}{
		{"primitive", "utf8", "", typeexpr.Identifier{Name: "string"}, false},
		{"wildcard pointer", "gpointer", "", typeexpr.Any{}, false},
		{"qualified", "Dep.Thing", "", typeexpr.Identifier{Namespace: "Dep", Name: "Thing"}, false},
		{"qualified scoped", "N.C.D", "", typeexpr.ScopedIdentifier{Namespace: "N", Container: "C", Name: "D"}, false},
		{"own global", "TreeView", "", typeexpr.Identifier{Namespace: "N", Name: "TreeView"}, false},
		{"dependency global", "Thing", "", typeexpr.Identifier{Namespace: "Dep", Name: "Thing"}, false},
		{"ctype fallback own", "NoSuchName", "NTreeView*", typeexpr.Identifier{Namespace: "N", Name: "TreeView"}, false},
		{"ctype fallback cross-namespace", "NoSuchName", "DepThing", typeexpr.Identifier{Namespace: "Dep", Name: "Thing"}, false},
		{"unresolved", "Mystery", "", typeexpr.Any{}, true},
		{"untyped slot", "", "", typeexpr.Any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := diagnostics.NewCollector()
			r := New(u, diags)
			res := r.Resolve(ns, tt.raw, tt.ctype, "subject")
			if !res.Expr.Equal(tt.want) {
				t.Errorf("Resolve(%q, %q) = %s, want %s", tt.raw, tt.ctype, res.Expr, tt.want)
			}
			if res.Fallback != tt.fallback {
				t.Errorf("Resolve(%q).Fallback = %v, want %v", tt.raw, res.Fallback, tt.fallback)
			}
			if tt.fallback && diags.Len() == 0 {
				t.Errorf("fallback must leave a diagnostic")
			}
		})
	}
}

func TestResolveAllWrapsAndSkips(t *testing.T) {
	u := testUniverse()
	ns, _ := u.Namespace("N")
	c := ns.Classes["C"]

	presolved := typeexpr.ScopedIdentifier{Namespace: "N", Container: "C", Name: "D"}
	c.Functions = append(c.Functions, &model.Function{
		Name: "items",
		Parameters: []*model.Parameter{
			{Name: "hooked", Type: &model.TypeRef{Raw: "ignored", Resolved: presolved}},
		},
		ReturnType: &model.TypeRef{Raw: "Thing", ArrayDepth: 1, Nullable: true},
	})

	New(u, diagnostics.NewCollector()).ResolveAll()

	got := c.Functions[0].Parameters[0].Type.Type()
	if !got.Equal(presolved) {
		t.Errorf("patched slot was overwritten: %s", got)
	}

	ret := c.Functions[0].ReturnType.Type()
	want := typeexpr.Nullable{Inner: typeexpr.Array{
		Element: typeexpr.Identifier{Namespace: "Dep", Name: "Thing"},
		Depth:   1,
	}}
	if !ret.Equal(want) {
		t.Errorf("ReturnType = %s, want %s", ret, want)
	}
}
