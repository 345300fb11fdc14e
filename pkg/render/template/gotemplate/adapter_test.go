package gotemplate_test

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-reportgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-reportgen/pkg/testsupport"
)

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	files := fstest.MapFS{
		"hello.tmpl":      {Data: []byte("Hello {{ name }}")},
		"global.tmpl":     {Data: []byte("env={{ settings.env }}")},
		"field.tmpl":      {Data: []byte("{{ value|fieldtext:\"n/a\" }}")},
		"css.tmpl":        {Data: []byte("{{ token|cssvar }}")},
		"entry.tmpl":      {Data: []byte("{{ entry.label }}: {{ entry.text|trim }}")},
		"custom.text.tpl": {Data: []byte("{{ name|upper }}")},
	}
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestRenderTemplateWritesToOutputs(t *testing.T) {
	engine := newEngine(t)

	got, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	if got != "Hello Ada" || written != got {
		t.Fatalf("result %q, writer %q", got, written)
	}
}

func TestRenderDetectsInlineContent(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.Render("{{ a }}-{{ b }}", map[string]any{"a": 1, "b": "x"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "1-x" {
		t.Fatalf("got %q", got)
	}
}

func TestNumbersKeepTheirShape(t *testing.T) {
	engine := newEngine(t)
	type block struct {
		Columns int     `json:"columns"`
		Ratio   float64 `json:"ratio"`
	}
	got, err := engine.Render("{{ total }}|{{ half }}|{{ block.columns }}|{{ block.ratio }}", map[string]any{
		"total": 150.0,
		"half":  2.5,
		"block": block{Columns: 2, Ratio: 0.5},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "150|2.500000|2|0.500000" {
		t.Fatalf("got %q", got)
	}
}

func TestGlobalContext(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{"settings": map[string]any{"env": "staging"}}))
	got, err := engine.RenderTemplate("global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "env=staging" {
		t.Fatalf("got %q", got)
	}
}

func TestStructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)
	type entry struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	}
	got, err := engine.RenderTemplate("entry", map[string]any{"entry": entry{Label: "Name", Text: "  Ada  "}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Name: Ada" {
		t.Fatalf("got %q", got)
	}
}

func TestDefaultFilters(t *testing.T) {
	engine := newEngine(t)

	cases := []struct {
		name string
		tmpl string
		data map[string]any
		want string
	}{
		{"list value", "field", map[string]any{"value": []any{"gutters", "vents"}}, "gutters, vents"},
		{"empty value", "field", map[string]any{"value": nil}, "n/a"},
		{"number", "field", map[string]any{"value": 12.5}, "12.5"},
		{"css var", "css", map[string]any{"token": "color.primary"}, "--color-primary"},
	}
	for _, tc := range cases {
		got, err := engine.RenderTemplate(tc.tmpl, tc.data)
		if err != nil {
			t.Fatalf("%s: render: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRegisterFilterRejectsDuplicates(t *testing.T) {
	engine := newEngine(t)
	shout := func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	}
	if err := engine.RegisterFilter("reportgen_test_shout", shout); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := engine.RenderString("{{ name|reportgen_test_shout }}", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("got %q", got)
	}
	if err := engine.RegisterFilter("reportgen_test_shout", shout); err == nil {
		t.Fatal("expected duplicate filter to be rejected")
	}
}

func TestCustomExtension(t *testing.T) {
	engine := newEngine(t, gotemplate.WithExtension("tpl"))
	got, err := engine.RenderTemplate("custom.text", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA" {
		t.Fatalf("got %q", got)
	}
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatal("expected error without template source")
	}
}

func TestCSSVarName(t *testing.T) {
	cases := map[string]string{
		"color.primary":   "--color-primary",
		"--Spacing_Large": "--spacing-large",
		"":                "",
	}
	for in, want := range cases {
		if got := gotemplate.CSSVarName(in); got != want {
			t.Errorf("CSSVarName(%q) = %q, want %q", in, got, want)
		}
	}
}
