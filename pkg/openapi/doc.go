// Package openapi exports the captured-data contract of a template as an
// OpenAPI 3 document so hosts that accept report data over HTTP can validate
// payloads with standard tooling.
//
// The payload is the flat CapturedData map keyed by field path. Field
// metadata that JSON Schema cannot express (field type, show-if rule,
// formula, pre-fill source) is carried in x- extensions.
package openapi
