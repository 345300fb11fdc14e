package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

func template() *schema.Template {
	return &schema.Template{
		ID:   "tpl",
		Name: "Inspection",
		Sections: []schema.Section{{
			ID: "sec1",
			Fields: []schema.Field{
				{ID: "name", Type: schema.FieldTypeText},
				{ID: "tags", Type: schema.FieldTypeCheckbox, Options: []string{"a", "b"}},
				{ID: "photo", Type: schema.FieldTypePhoto},
			},
		}},
	}
}

func TestMapErrorPayload(t *testing.T) {
	t.Parallel()

	payload := map[string][]string{
		"/sec1/name":        {"Name is required", " Name is required "},
		"data.sec1.tags[0]": {"Unknown tag"},
		"$.sec1.photo":      {"Upload failed"},
		"non_field_errors":  {"Report rejected"},
		"sec2/missing":      {"Dangling"},
		"":                  {"  "},
	}
	mapped := render.MapErrorPayload(template(), payload)

	wantFields := map[string][]string{
		"sec1.name":  {"Name is required"},
		"sec1.tags":  {"Unknown tag"},
		"sec1.photo": {"Upload failed"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Report rejected", "Dangling"}, mapped.Form); diff != "" {
		t.Fatalf("report errors (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	t.Parallel()
	got := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	if diff := cmp.Diff([]string{"First", "Second", "third"}, got); diff != "" {
		t.Fatalf("merged (-want +got):\n%s", diff)
	}
}

func TestFieldErrorsSkipsHiddenFields(t *testing.T) {
	t.Parallel()
	state := interpreter.State{
		"sec1.name": {Path: "sec1.name", Visible: true, Errors: []string{"required"}},
		"sec1.tags": {Path: "sec1.tags", Visible: false, Errors: []string{"ignored"}},
	}
	got := render.FieldErrors(state, map[string][]string{
		"sec1.name": {"too short"},
		"sec1.tags": {"hidden"},
	})
	want := map[string][]string{"sec1.name": {"required", "too short"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestApplySubsetKeepsHeader(t *testing.T) {
	t.Parallel()
	tpl := template()
	l, err := layout.Generate(tpl)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	blocks := layout.Bind(l, tpl, nil, nil)

	photos := render.ApplySubset(blocks, render.BlockSubset{BlockTypes: []layout.BlockType{layout.BlockPhotoGrid}})
	var types []layout.BlockType
	for _, b := range photos {
		types = append(types, b.Block.BlockType)
	}
	if diff := cmp.Diff([]layout.BlockType{layout.BlockHeader, layout.BlockPhotoGrid}, types); diff != "" {
		t.Fatalf("block types (-want +got):\n%s", diff)
	}

	if got := render.ApplySubset(blocks, render.BlockSubset{}); len(got) != len(blocks) {
		t.Fatalf("empty subset should keep all blocks, got %d of %d", len(got), len(blocks))
	}
	if got := render.ApplySubset(blocks, render.BlockSubset{Sections: []string{"nothing"}}); len(got) != 0 {
		t.Fatalf("unmatched subset should render nothing, got %d", len(got))
	}
}

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, render.Document, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	reg := render.NewRegistry()
	reg.MustRegister(namedRenderer("text"))
	reg.MustRegister(namedRenderer("html"))

	if err := reg.Register(namedRenderer("text")); err == nil {
		t.Fatal("duplicate registration should fail")
	}
	if err := reg.Register(namedRenderer("")); err == nil {
		t.Fatal("unnamed renderer should fail")
	}
	if diff := cmp.Diff([]string{"html", "text"}, reg.List()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if _, err := reg.Get("pdf"); err == nil {
		t.Fatal("missing renderer should fail")
	}
	if !reg.Has("html") {
		t.Fatal("expected html to be registered")
	}
}
