package typeexpr

import (
	"testing"
)

func TestNewUnionNormalizes(t *testing.T) {
	a := Identifier{Namespace: "Gtk", Name: "Widget"}
	b := Identifier{Namespace: "Gtk", Name: "Button"}
	c := Identifier{Namespace: "GLib", Name: "Variant"}

	tests := []struct {
		name    string
		members []Expr
		want    string
	}{
		{
			name:    "flattens nested unions",
			members: []Expr{a, Union{Members: []Expr{b, c}}},
			want:    "GLib.Variant | Gtk.Button | Gtk.Widget",
		},
		{
			name:    "dedupes members",
			members: []Expr{a, a, b},
			want:    "Gtk.Button | Gtk.Widget",
		},
		{
			name:    "order irrelevant",
			members: []Expr{c, b, a},
			want:    "GLib.Variant | Gtk.Button | Gtk.Widget",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUnion(tt.members...)
			if got.String() != tt.want {
				t.Errorf("NewUnion() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewUnionSingleMemberCollapses(t *testing.T) {
	a := Identifier{Namespace: "Gtk", Name: "Widget"}
	got := NewUnion(a, a)
	if _, ok := got.(Union); ok {
		t.Fatalf("NewUnion(a, a) should collapse to the member, got %T", got)
	}
	if !got.Equal(a) {
		t.Errorf("NewUnion(a, a) = %s, want %s", got, a)
	}
}

func TestUnionEqualityIsOrderInsensitive(t *testing.T) {
	a := Identifier{Namespace: "Gtk", Name: "Widget"}
	b := Identifier{Namespace: "Gtk", Name: "Button"}
	u1 := NewUnion(a, b)
	u2 := NewUnion(b, a)
	if !u1.Equal(u2) {
		t.Errorf("unions built from the same members must be equal: %s vs %s", u1, u2)
	}
}

func TestConflictMarkerNeverNests(t *testing.T) {
	inner := Identifier{Namespace: "Gtk", Name: "Widget"}
	once := NewConflictMarker(inner, FieldNameConflict)
	twice := NewConflictMarker(once, PropertyNameConflict)

	if _, ok := twice.Inner.(ConflictMarker); ok {
		t.Fatalf("marker wrapped another marker: %s", twice)
	}
	if !twice.Inner.Equal(inner) {
		t.Errorf("rewrapping lost the original type: got %s, want %s", twice.Inner, inner)
	}
	if twice.Kind != PropertyNameConflict {
		t.Errorf("rewrapping kept the stale kind %s", twice.Kind)
	}
}

func TestUnwrap(t *testing.T) {
	inner := Identifier{Namespace: "Gtk", Name: "Widget"}
	if got := Unwrap(NewConflictMarker(inner, FieldNameConflict)); !got.Equal(inner) {
		t.Errorf("Unwrap(marker) = %s, want %s", got, inner)
	}
	if got := Unwrap(inner); !got.Equal(inner) {
		t.Errorf("Unwrap(plain) = %s, want %s", got, inner)
	}
}

func TestStringForms(t *testing.T) {
	widget := Identifier{Namespace: "Gtk", Name: "Widget"}
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"identifier", widget, "Gtk.Widget"},
		{"builtin identifier", Identifier{Name: "string"}, "string"},
		{"scoped", ScopedIdentifier{Namespace: "Gtk", Container: "Widget", Name: "TickCallback"}, "Gtk.Widget.TickCallback"},
		{"array", Array{Element: widget, Depth: 2}, "Gtk.Widget[][]"},
		{"tuple", Tuple{Elements: []Expr{widget, Any{}}}, "[Gtk.Widget, any]"},
		{"nullable", Nullable{Inner: widget}, "Gtk.Widget?"},
		{"generic ref", GenericRef{Name: "A"}, "A"},
		{"generified", Generified{Base: widget, Args: []Expr{GenericRef{Name: "A"}}}, "Gtk.Widget<A>"},
		{"any", Any{}, "any"},
		{"never", Never{}, "never"},
		{"marker", NewConflictMarker(widget, FieldNameConflict), "conflict[FIELD_NAME_CONFLICT](Gtk.Widget)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEqualAcrossVariants(t *testing.T) {
	widget := Identifier{Namespace: "Gtk", Name: "Widget"}
	button := Identifier{Namespace: "Gtk", Name: "Button"}
	exprs := []Expr{
		widget,
		ScopedIdentifier{Namespace: "Gtk", Container: "Widget", Name: "TickCallback"},
		Array{Element: widget, Depth: 1},
		Tuple{Elements: []Expr{widget, button}},
		NewUnion(widget, button),
		Nullable{Inner: widget},
		GenericRef{Name: "A"},
		Generified{Base: widget, Args: []Expr{button}},
		Any{},
		Never{},
	}
	for i, a := range exprs {
		if !a.Equal(a) {
			t.Errorf("%s should equal itself", a)
		}
		for j, b := range exprs {
			if i != j && a.Equal(b) {
				t.Errorf("%s should not equal %s", a, b)
			}
		}
	}
}
