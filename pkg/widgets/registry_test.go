package widgets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		field  schema.Field
		expect string
	}{
		{name: "checkbox", field: schema.Field{Type: schema.FieldTypeCheckbox}, expect: WidgetCheckmark},
		{name: "select", field: schema.Field{Type: schema.FieldTypeSelect, Options: []string{"a"}}, expect: WidgetBadge},
		{name: "radio", field: schema.Field{Type: schema.FieldTypeRadio, Options: []string{"a"}}, expect: WidgetBadge},
		{name: "datetime", field: schema.Field{Type: schema.FieldTypeDateTime}, expect: WidgetDate},
		{name: "textarea", field: schema.Field{Type: schema.FieldTypeTextarea}, expect: WidgetMultiline},
		{name: "photo", field: schema.Field{Type: schema.FieldTypePhoto}, expect: WidgetGallery},
		{name: "signature", field: schema.Field{Type: schema.FieldTypeSignature}, expect: WidgetSignature},
		{name: "number", field: schema.Field{Type: schema.FieldTypeNumber}, expect: WidgetNumber},
		{
			name:   "computed beats number",
			field:  schema.Field{Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "a.b * 2"},
			expect: WidgetComputed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.Resolve(tc.field)
			if !ok || got != tc.expect {
				t.Fatalf("expected %q, got %q (ok=%v)", tc.expect, got, ok)
			}
		})
	}
}

func TestResolve_PlainTextFallsThrough(t *testing.T) {
	reg := NewRegistry()
	if got, ok := reg.Resolve(schema.Field{Type: schema.FieldTypeText}); ok {
		t.Fatalf("expected no widget for text, got %q", got)
	}
	if got := reg.ResolveOr(schema.Field{Type: schema.FieldTypeText}, WidgetText); got != WidgetText {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestResolve_PriorityAndOrder(t *testing.T) {
	reg := Empty()
	always := func(schema.Field) bool { return true }
	reg.Register("first", 10, always)
	reg.Register("second", 10, always)
	reg.Register("  ", 99, always)
	reg.Register("nil", 99, nil)

	if got, _ := reg.Resolve(schema.Field{}); got != "first" {
		t.Fatalf("expected registration order to break ties, got %q", got)
	}

	reg.Register("urgent", 20, always)
	if got, _ := reg.Resolve(schema.Field{}); got != "urgent" {
		t.Fatalf("expected higher priority to win, got %q", got)
	}
}

func TestResolve_EmptyAndNilRegistry(t *testing.T) {
	if _, ok := Empty().Resolve(schema.Field{Type: schema.FieldTypeCheckbox}); ok {
		t.Fatal("empty registry should not resolve")
	}
	var reg *Registry
	if _, ok := reg.Resolve(schema.Field{Type: schema.FieldTypeCheckbox}); ok {
		t.Fatal("nil registry should not resolve")
	}
}

func TestAnnotate(t *testing.T) {
	tpl := &schema.Template{
		ID: "t",
		Sections: []schema.Section{{
			ID: "s",
			Fields: []schema.Field{
				{ID: "name", Type: schema.FieldTypeText},
				{ID: "done", Type: schema.FieldTypeCheckbox},
				{ID: "notes", Type: schema.FieldTypeTextarea},
			},
		}},
	}
	want := map[string]string{"s.done": WidgetCheckmark, "s.notes": WidgetMultiline}
	if diff := cmp.Diff(want, NewRegistry().Annotate(tpl)); diff != "" {
		t.Fatalf("annotate mismatch (-want +got):\n%s", diff)
	}
}
