package model

import (
	"testing"

	"github.com/gircore/girbind/internal/gir"
)

func sampleRepository() *gir.Repository {
	return &gir.Repository{
		Path: "Gtk-4.0.gir",
		Includes: []gir.Include{
			{Name: "GObject", Version: "2.0"},
		},
		Namespace: gir.Namespace{
			Name:    "Gtk",
			Version: "4.0",
			Classes: []gir.Class{{
				Name:   "Widget",
				Parent: "GObject.InitiallyUnowned",
				CType:  "GtkWidget",
				Implements: []gir.Implement{
					{Name: "Accessible"},
				},
				Constructors: []gir.Function{{
					Name:   "new",
					Return: &gir.Return{Type: &gir.Type{Name: "Widget"}},
				}},
				Methods: []gir.Function{{
					Name: "measure",
					Params: &gir.ParamList{Params: []gir.Param{
						{Name: "orientation", Type: &gir.Type{Name: "Orientation"}},
						{Name: "minimum", Direction: "out", Type: &gir.Type{Name: "gint"}},
						{Name: "baseline", Direction: "inout", Type: &gir.Type{Name: "gint"}},
					}},
					Return: &gir.Return{Type: &gir.Type{Name: "none"}},
				}},
				VirtualMethods: []gir.Function{{
					Name:   "snapshot",
					Return: &gir.Return{Type: &gir.Type{Name: "none"}},
				}},
				Functions: []gir.Function{{
					Name:   "get_default_direction",
					Return: &gir.Return{Type: &gir.Type{Name: "TextDirection"}},
				}},
				Properties: []gir.Property{{
					Name: "name", Writable: true, Type: &gir.Type{Name: "utf8"},
				}},
				Fields: []gir.Field{
					{Name: "priv", Type: &gir.Type{Name: "WidgetPrivate"}},
				},
			}},
			Records: []gir.Class{{
				Name: "WidgetClass",
				Fields: []gir.Field{{
					Name: "show",
					Callback: &gir.Callback{
						Name:   "Show",
						Return: &gir.Return{Type: &gir.Type{Name: "none"}},
					},
				}},
			}},
			Interfaces: []gir.Class{{
				Name:   "Accessible",
				Parent: "ShouldBeDropped",
			}},
			Enums: []gir.Enum{{
				Name:    "Orientation",
				Members: []gir.EnumMember{{Name: "horizontal", Value: "0"}},
			}},
			Bitfields: []gir.Enum{{
				Name: "StateFlags",
			}},
			Functions: []gir.Function{{
				Name:   "init",
				Return: &gir.Return{Type: &gir.Type{Name: "none"}},
			}},
			Callbacks: []gir.Callback{{
				Name:   "TickCallback",
				CType:  "GtkTickCallback",
				Return: &gir.Return{Type: &gir.Type{Name: "gboolean"}},
			}},
			Constants: []gir.Constant{{
				Name: "MAJOR_VERSION", Value: "4", Type: &gir.Type{Name: "gint"},
			}},
			Aliases: []gir.Alias{{
				Name: "Allocation", Type: &gir.Type{Name: "Gdk.Rectangle"},
			}},
		},
	}
}

func TestBuildNamespace(t *testing.T) {
	ns := Build(sampleRepository())

	if ns.Name != "Gtk" || ns.Version != "4.0" || ns.SourcePath != "Gtk-4.0.gir" {
		t.Fatalf("header = %s-%s from %s", ns.Name, ns.Version, ns.SourcePath)
	}
	if len(ns.Dependencies) != 1 || ns.Dependencies[0].Name != "GObject" {
		t.Errorf("Dependencies = %+v", ns.Dependencies)
	}

	widget, ok := ns.Classes["Widget"]
	if !ok {
		t.Fatal("class Widget missing")
	}
	if widget.Kind != KindClass || widget.Namespace != "Gtk" {
		t.Errorf("widget header = %+v", widget)
	}
	if widget.Parent == nil || widget.Parent.Raw != "GObject.InitiallyUnowned" {
		t.Errorf("Parent = %+v", widget.Parent)
	}
	if len(widget.Implements) != 1 || widget.Implements[0].Raw != "Accessible" {
		t.Errorf("Implements = %+v", widget.Implements)
	}
	if len(widget.Constructors) != 1 {
		t.Errorf("Constructors = %+v", widget.Constructors)
	}

	// Methods, static functions and virtual methods all land in
	// Functions, carrying their tags.
	if len(widget.Functions) != 3 {
		t.Fatalf("Functions = %d, want 3", len(widget.Functions))
	}
	static, _ := widget.Function("get_default_direction")
	if static == nil || !static.Static {
		t.Errorf("static function not tagged: %+v", static)
	}
	virtual, _ := widget.Function("snapshot")
	if virtual == nil || !virtual.Virtual {
		t.Errorf("virtual method not tagged: %+v", virtual)
	}

	// Enumerations and bitfields share the Enums table.
	if len(ns.Enums) != 2 {
		t.Errorf("Enums = %d, want 2", len(ns.Enums))
	}
	if _, ok := ns.Interfaces["Accessible"]; !ok {
		t.Error("interface Accessible missing")
	}
	if iface := ns.Interfaces["Accessible"]; iface.Parent != nil {
		t.Errorf("interfaces must not carry a supertype slot, got %+v", iface.Parent)
	}
}

func TestBuildSplitsOutputParameters(t *testing.T) {
	ns := Build(sampleRepository())
	widget := ns.Classes["Widget"]
	measure, _ := widget.Function("measure")
	if measure == nil {
		t.Fatal("measure missing")
	}
	if len(measure.Parameters) != 2 {
		t.Errorf("Parameters = %d, want 2 (in and inout)", len(measure.Parameters))
	}
	if len(measure.OutputParams) != 1 || measure.OutputParams[0].Name != "minimum" {
		t.Errorf("OutputParams = %+v", measure.OutputParams)
	}
	if measure.Parameters[1].Direction != InOut {
		t.Errorf("inout direction = %v", measure.Parameters[1].Direction)
	}
}

// A callback-typed field becomes both a nested declaration and a data
// member whose raw type is the compound scoped name.
func TestBuildCallbackField(t *testing.T) {
	ns := Build(sampleRepository())
	rec := ns.Records["WidgetClass"]
	if rec == nil {
		t.Fatal("record WidgetClass missing")
	}
	if _, ok := rec.NestedCallback("Show"); !ok {
		t.Error("nested callback Show missing")
	}
	field, ok := rec.Field("show")
	if !ok {
		t.Fatal("field show missing")
	}
	if field.Type.Raw != "WidgetClassShow" {
		t.Errorf("field raw type = %q, want WidgetClassShow", field.Type.Raw)
	}
}

func TestBuildArrayDepth(t *testing.T) {
	repo := &gir.Repository{Namespace: gir.Namespace{
		Name:    "T",
		Version: "1.0",
		Functions: []gir.Function{{
			Name: "grid",
			Return: &gir.Return{
				Array: &gir.Array{Array: &gir.Array{Type: &gir.Type{Name: "utf8"}}},
			},
		}},
	}}
	ns := Build(repo)
	ret := ns.Functions["grid"].ReturnType
	if ret.ArrayDepth != 2 || ret.Raw != "utf8" {
		t.Errorf("ReturnType = %+v, want depth 2 of utf8", ret)
	}
}

func TestTypeRefDegradesToAny(t *testing.T) {
	var ref *TypeRef
	if got := ref.Type().String(); got != "any" {
		t.Errorf("nil ref Type() = %s, want any", got)
	}
	if got := (&TypeRef{Raw: "Widget"}).Type().String(); got != "any" {
		t.Errorf("unresolved ref Type() = %s, want any", got)
	}
}
