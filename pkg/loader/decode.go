package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

// ErrDecode wraps every decoding failure.
var ErrDecode = errors.New("loader: decode template")

// Decode parses a template document in the record shape (template_name,
// contract_category, fields_schema.sections). The result is not validated.
func Decode(doc Document) (schema.Template, error) {
	return DecodeBytes(doc.Raw(), doc.Format())
}

// DecodeBytes parses raw as format.
func DecodeBytes(raw []byte, format Format) (schema.Template, error) {
	var record schema.Record
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&record); err != nil {
			return schema.Template{}, fmt.Errorf("%w: json: %v", ErrDecode, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &record); err != nil {
			return schema.Template{}, fmt.Errorf("%w: yaml: %v", ErrDecode, err)
		}
	default:
		return schema.Template{}, fmt.Errorf("%w: unsupported format %q", ErrDecode, format)
	}
	t := record.Template()
	normalizeNumbers(&t)
	return t, nil
}

// Encode serializes t in the record shape.
func Encode(t schema.Template, format Format) ([]byte, error) {
	record := schema.RecordOf(t)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(record, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(record); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("loader: unsupported format %q", format)
	}
}

// normalizeNumbers turns json.Number default/show_if values into float64 so
// both formats produce identical templates.
func normalizeNumbers(t *schema.Template) {
	for si := range t.Sections {
		fields := t.Sections[si].Fields
		for fi := range fields {
			fields[fi].DefaultValue = plainNumber(fields[fi].DefaultValue)
			if fields[fi].ShowIf != nil {
				fields[fi].ShowIf.Value = plainNumber(fields[fi].ShowIf.Value)
			}
		}
	}
}

func plainNumber(v any) any {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case int:
		return float64(n)
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = plainNumber(item)
		}
		return out
	default:
		return v
	}
}
