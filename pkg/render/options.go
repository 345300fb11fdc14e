package render

import theme "github.com/goliatone/go-theme"

// RenderOptions carry per-request settings that do not belong to the
// document itself.
type RenderOptions struct {
	// Theme is the resolved theme configuration, nil for unthemed output.
	Theme *theme.RendererConfig
	// Errors are field errors keyed by field path, merged with the errors
	// found in Document.State. Use MapErrorPayload to normalise payloads
	// from other systems.
	Errors map[string][]string
	// FormErrors are messages not tied to a single field.
	FormErrors []string
	// Subset restricts which blocks are rendered.
	Subset BlockSubset
	// ShowEmpty keeps blocks whose binding rules matched no visible field.
	ShowEmpty bool
}
