package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/fieldpath"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// Version is the OpenAPI version written by Export.
const Version = "3.0.3"

// Extension keys attached to property schemas.
const (
	ExtFieldType   = "x-field-type"
	ExtSection     = "x-section"
	ExtShowIf      = "x-show-if"
	ExtFormula     = "x-formula"
	ExtPrefillFrom = "x-prefill-from"
	ExtTemplate    = "x-template"
)

// Option configures Export.
type Option func(*exporter)

// WithServer adds a server URL to the document.
func WithServer(rawURL string) Option {
	return func(e *exporter) {
		if strings.TrimSpace(rawURL) != "" {
			e.servers = append(e.servers, rawURL)
		}
	}
}

// WithBasePath changes the prefix of the generated data endpoint. Defaults to
// "/reports".
func WithBasePath(base string) Option {
	return func(e *exporter) {
		e.basePath = "/" + strings.Trim(base, "/")
	}
}

type exporter struct {
	servers  []string
	basePath string
}

// Export builds and validates a document with one component schema (the
// template's CapturedData) and one PUT operation accepting it.
func Export(ctx context.Context, t schema.Template, opts ...Option) (*openapi3.T, error) {
	e := exporter{basePath: "/reports"}
	for _, opt := range opts {
		if opt != nil {
			opt(&e)
		}
	}

	name := SchemaName(t)
	data := DataSchema(t)

	body := openapi3.NewRequestBody().
		WithRequired(true).
		WithDescription("Captured data for " + t.Name).
		WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/"+name, data))

	op := openapi3.NewOperation()
	op.OperationID = "put" + name
	op.Summary = "Store captured data for " + t.Name
	op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(204, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Stored")}),
		openapi3.WithStatus(422, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Captured data failed validation")}),
	)

	title := t.Name
	if strings.TrimSpace(title) == "" {
		title = t.ID
	}
	path := fmt.Sprintf("%s/%s/data", strings.TrimSuffix(e.basePath, "/"), url.PathEscape(t.ID))
	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       title,
			Version:     strconv.Itoa(t.Version),
			Description: strings.TrimSpace(strings.Join([]string{t.Industry, t.Category, t.ReportType}, " ")),
		},
		Paths: openapi3.NewPaths(openapi3.WithPath(path, &openapi3.PathItem{Put: op})),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{name: openapi3.NewSchemaRef("", data)},
		},
	}
	for _, server := range e.servers {
		doc.AddServer(&openapi3.Server{URL: server})
	}

	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: export %s: %w", t.ID, err)
	}
	return doc, nil
}

// SchemaName derives the component name, e.g. "SiteInspectionData".
func SchemaName(t schema.Template) string {
	source := t.Name
	if strings.TrimSpace(source) == "" {
		source = t.ID
	}
	var b strings.Builder
	upper := true
	for _, r := range source {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		b.WriteString("Template")
	}
	return b.String() + "Data"
}

// DataSchema describes CapturedData for t: an object keyed by field path.
// Unconditionally required, user-entered fields are listed in required.
func DataSchema(t schema.Template) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = t.Name
	out.Extensions = map[string]any{ExtTemplate: map[string]any{"id": t.ID, "version": t.Version}}
	for _, section := range t.Sections {
		for _, field := range section.Fields {
			path := fieldpath.ToPath(section.ID, field.ID)
			prop := FieldSchema(field)
			prop.Extensions[ExtSection] = section.ID
			out.WithProperty(path, prop)
			if field.Required && field.ShowIf == nil && !field.AutoCalculate {
				out.Required = append(out.Required, path)
			}
		}
	}
	return out
}

// FieldSchema maps a field type onto a JSON Schema.
func FieldSchema(field schema.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Type {
	case schema.FieldTypeNumber:
		s = openapi3.NewFloat64Schema()
	case schema.FieldTypeDate:
		s = openapi3.NewStringSchema().WithFormat("date")
	case schema.FieldTypeDateTime:
		s = openapi3.NewDateTimeSchema()
	case schema.FieldTypeCheckbox:
		if len(field.Options) > 0 {
			s = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema().WithEnum(enum(field.Options)...))
		} else {
			s = openapi3.NewBoolSchema()
		}
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		s = openapi3.NewStringSchema().WithEnum(enum(field.Options)...)
	case schema.FieldTypePhoto, schema.FieldTypeSignature:
		s = openapi3.NewOneOfSchema(
			openapi3.NewStringSchema(),
			openapi3.NewObjectSchema(),
			openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
		)
	default:
		s = openapi3.NewStringSchema()
	}

	s.Title = field.Label()
	s.Description = field.Description
	s.Nullable = true
	if field.DefaultValue != nil {
		s.Default = field.DefaultValue
	}
	s.Extensions = map[string]any{ExtFieldType: string(field.Type)}
	if field.AutoCalculate {
		s.ReadOnly = true
		s.Extensions[ExtFormula] = field.Formula
	}
	if field.ShowIf != nil {
		s.Extensions[ExtShowIf] = map[string]any{"field": field.ShowIf.Field, "value": field.ShowIf.Value}
	}
	if field.PrefillFrom != "" {
		s.Extensions[ExtPrefillFrom] = string(field.PrefillFrom)
	}
	return s
}

func enum(options []string) []any {
	out := make([]any, len(options))
	for i, option := range options {
		out[i] = option
	}
	return out
}

// Marshal encodes doc as indented JSON or, when asYAML is set, YAML.
func Marshal(doc *openapi3.T, asYAML bool) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: marshal: %w", err)
	}
	if !asYAML {
		return raw, nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("openapi: marshal: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("openapi: marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
