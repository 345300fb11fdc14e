// Package render defines the contract between the report pipeline and the
// renderers that turn a layout plus captured data into an artifact.
package render

import (
	"context"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// Document is everything a renderer needs. Template is the source of truth
// the layout and data are joined through; State, when present, filters out
// hidden fields and supplies computed values.
type Document struct {
	Template *schema.Template
	Layout   layout.Layout
	Data     map[string]any
	State    interpreter.State
}

// Renderer converts a Document into bytes (HTML, text, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, doc Document, options RenderOptions) ([]byte, error)
}
