package template

import (
	"io"
)

// TemplateRenderer follows the github.com/goliatone/go-template engine
// contract. Renderers depend on this interface so the engine can be swapped
// in tests.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
