package vanilla_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/vanilla"
	"github.com/goliatone/go-reportgen/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

func visitTemplate() *schema.Template {
	return &schema.Template{
		ID:      "visit",
		Name:    "Site visit",
		Version: 4,
		Sections: []schema.Section{{
			ID:          "visit",
			Name:        "Visit",
			Description: "<p>On site</p><script>alert(1)</script>",
			Fields: []schema.Field{
				{ID: "client", Name: "Client", Type: schema.FieldTypeText, Required: true},
				{ID: "status", Name: "Status", Type: schema.FieldTypeSelect, Options: []string{"approved", "rejected"}},
				{ID: "reason", Name: "Reason", Type: schema.FieldTypeTextarea, ShowIf: &schema.ShowIf{Field: "visit.status", Value: "rejected"}},
				{ID: "hours", Name: "Hours", Type: schema.FieldTypeNumber},
				{ID: "rate", Name: "Rate", Type: schema.FieldTypeNumber, DefaultValue: 40},
				{ID: "total", Name: "Total", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "visit.hours * visit.rate"},
				{ID: "done", Name: "Done", Type: schema.FieldTypeCheckbox},
				{ID: "photos", Name: "Photos", Type: schema.FieldTypePhoto},
				{ID: "sig", Name: "Signature", Type: schema.FieldTypeSignature},
			},
		}},
	}
}

func renderForm(t *testing.T, r *vanilla.Renderer, data map[string]any, opts render.RenderOptions) string {
	t.Helper()
	tpl := visitTemplate()
	state, err := interpreter.ComputeFieldState(context.Background(), tpl, data)
	if err != nil {
		t.Fatalf("ComputeFieldState: %v", err)
	}
	out, err := r.Render(context.Background(), render.Document{Template: tpl, Data: data, State: state}, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return string(out)
}

func newRenderer(t *testing.T, opts ...vanilla.Option) *vanilla.Renderer {
	t.Helper()
	r, err := vanilla.New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRenderBlankForm(t *testing.T) {
	t.Parallel()
	html := renderForm(t, newRenderer(t), nil, render.RenderOptions{})

	mustContain := []string{
		"<title>Site visit</title>",
		`<form method="post" enctype="multipart/form-data" data-template-id="visit" data-template-version="4">`,
		`<input type="hidden" name="_template_version" value="4">`,
		`<input type="text" id="field-visit-client" name="visit.client" required>`,
		`<input type="number" id="field-visit-rate" name="visit.rate" step="any" value="40">`,
		`name="visit.total" readonly`,
		`data-formula="visit.hours * visit.rate"`,
		`data-show-if-field="visit.status" data-show-if-value="rejected" hidden>`,
		`<input type="file" accept="image/*" id="field-visit-photos" name="visit.photos" multiple>`,
		"<p>On site</p>",
		"<button type=\"submit\">Save</button>",
	}
	for _, want := range mustContain {
		if !strings.Contains(html, want) {
			t.Errorf("form missing %q", want)
		}
	}
	for _, unwanted := range []string{"<script>", "is required"} {
		if strings.Contains(html, unwanted) {
			t.Errorf("blank form should not contain %q", unwanted)
		}
	}
}

func TestRenderSubmittedForm(t *testing.T) {
	t.Parallel()
	data := map[string]any{
		"visit.status": "rejected",
		"visit.reason": "Leaking gutter",
		"visit.hours":  2,
		"visit.done":   "true",
		"visit.photos": []any{"photo-1", "photo-2"},
	}
	html := renderForm(t, newRenderer(t), data, render.RenderOptions{
		Errors:     map[string][]string{"visit.hours": {"Check the timesheet"}},
		FormErrors: []string{"Review before saving"},
	})

	mustContain := []string{
		`<p class="form-error">Client is required</p>`,
		`<p class="form-error">Check the timesheet</p>`,
		"<li>Review before saving</li>",
		`<option value="rejected" selected>rejected</option>`,
		`<textarea rows="4" id="field-visit-reason" name="visit.reason">Leaking gutter</textarea>`,
		`name="visit.total" readonly step="any" value="80">`,
		`<input type="checkbox" value="true" id="field-visit-done" name="visit.done" checked>`,
		`<input type="hidden" name="visit.photos" value="photo-1">`,
		`<input type="hidden" name="visit.photos" value="photo-2">`,
	}
	for _, want := range mustContain {
		if !strings.Contains(html, want) {
			t.Errorf("form missing %q", want)
		}
	}
	if strings.Contains(html, `data-show-if-value="rejected" hidden>`) {
		t.Error("reason should be visible once the status is rejected")
	}
}

func TestRenderActionAndOverrides(t *testing.T) {
	t.Parallel()
	registry := components.NewDefaultRegistry()
	registry.MustRegister("stars", components.Descriptor{
		Renderer: func(buf *bytes.Buffer, c components.Control) error {
			buf.WriteString(`<div class="stars" data-for="` + c.Path + `"></div>`)
			return nil
		},
		Stylesheets: []string{"/assets/stars.css"},
	})
	r := newRenderer(t,
		vanilla.WithAction("/reports/visit", "PUT"),
		vanilla.WithSubmitLabel("Submit report"),
		vanilla.WithComponentRegistry(registry),
		vanilla.WithComponentOverrides(map[string]string{"hours": "stars"}),
		vanilla.WithInlineStylesheet(false),
	)
	html := renderForm(t, r, nil, render.RenderOptions{})

	for _, want := range []string{
		`<form method="put" action="/reports/visit"`,
		`<div class="stars" data-for="visit.hours"></div>`,
		`<link rel="stylesheet" href="/assets/stars.css">`,
		"Submit report",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("form missing %q", want)
		}
	}
	if strings.Contains(html, "<style>") {
		t.Error("inline stylesheet should be disabled")
	}
}

func TestRenderUnknownComponent(t *testing.T) {
	t.Parallel()
	r := newRenderer(t, vanilla.WithComponentOverrides(map[string]string{"visit.client": "missing"}))
	_, err := r.Render(context.Background(), render.Document{Template: visitTemplate()}, render.RenderOptions{})
	if err == nil || !strings.Contains(err.Error(), `component "missing" not registered`) {
		t.Fatalf("expected unknown component error, got %v", err)
	}
}

func TestRenderRequiresTemplate(t *testing.T) {
	t.Parallel()
	if _, err := newRenderer(t).Render(context.Background(), render.Document{}, render.RenderOptions{}); err == nil {
		t.Fatal("expected error without template")
	}
}
