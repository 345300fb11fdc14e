// Package orchestrator wires the report pipeline: resolve a template (inline,
// stored, or loaded from a source), validate it, compute field state for the
// captured data, generate or reuse its layout, apply layout presets, resolve
// a theme, and hand the result to a renderer.
package orchestrator
