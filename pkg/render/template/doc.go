// Package template declares the engine seam renderers use to execute
// templates. The gotemplate subpackage provides the pongo2 implementation.
package template
