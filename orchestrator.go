// Package reportgen is the top-level entry point for generating report
// previews from form templates and captured data.
package reportgen

import (
	"context"

	theme "github.com/goliatone/go-theme"

	pkgloader "github.com/goliatone/go-reportgen/pkg/loader"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// RenderOptions describes per-request overrides such as server-side errors,
// a theme, or a block subset.
type RenderOptions = render.RenderOptions

// BlockSubset aliases render.BlockSubset for callers rendering part of a
// layout.
type BlockSubset = render.BlockSubset

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads the template at source, interprets data against it, and
// renders it with the named renderer. An empty renderer name selects the
// HTML preview.
func GenerateHTML(ctx context.Context, source pkgloader.Source, data map[string]any, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		Data:     data,
		Renderer: rendererName,
	})
}

// GenerateHTMLFromTemplate renders an already decoded template, bypassing
// the loader stage.
func GenerateHTMLFromTemplate(ctx context.Context, t schema.Template, data map[string]any, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Template: &t,
		Data:     data,
		Renderer: rendererName,
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator.
func WithThemeSelector(selector theme.ThemeSelector, defaultTheme, defaultVariant string) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector, defaultTheme, defaultVariant)
}

// WithDefaultThemes registers the built-in light and dark themes.
func WithDefaultThemes(variant string) orchestrator.Option {
	return orchestrator.WithThemeSelector(orchestrator.DefaultThemes(), orchestrator.DefaultThemeName, variant)
}
