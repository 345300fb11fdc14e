package layout

import (
	"github.com/goliatone/go-reportgen/pkg/fieldpath"
	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/value"
)

// BoundEntry is one field joined to its captured value.
type BoundEntry struct {
	Path  string           `json:"path"`
	Label string           `json:"label"`
	Type  schema.FieldType `json:"type"`
	Value any              `json:"value"`
	Text  string           `json:"text"`
	Refs  []string         `json:"refs,omitempty"`
}

// BoundBlock is a block together with the entries its binding rules select.
type BoundBlock struct {
	Block   Block        `json:"block"`
	Entries []BoundEntry `json:"entries,omitempty"`
}

// Bind resolves every block's binding rules against data. When state is
// non-nil, fields it reports as hidden are left out. Blocks that end up with
// no entries are kept so the document structure stays stable; renderers
// decide whether to print them.
func Bind(l Layout, t *schema.Template, data map[string]any, state interpreter.State) []BoundBlock {
	out := make([]BoundBlock, 0, len(l.Sections))
	for _, block := range l.Sections {
		bound := BoundBlock{Block: block}
		for _, path := range boundPaths(block, t) {
			if state != nil {
				if fs, ok := state[path]; ok && !fs.Visible {
					continue
				}
			}
			ref, ok := t.Lookup(path)
			if !ok {
				continue
			}
			raw := data[path]
			entry := BoundEntry{
				Path:  path,
				Label: ref.Field.Label(),
				Type:  ref.Field.Type,
				Value: raw,
				Text:  value.String(raw),
			}
			if ref.Field.Type.IsEvidence() {
				entry.Refs = References(raw)
			}
			bound.Entries = append(bound.Entries, entry)
		}
		out = append(out, bound)
	}
	return out
}

func boundPaths(block Block, t *schema.Template) []string {
	rules := block.BindingRules
	switch {
	case rules.FilterByField != "":
		return []string{rules.FilterByField}
	case len(rules.Fields) > 0:
		return rules.Fields
	case rules.TemplateSection != "":
		section, ok := t.Section(rules.TemplateSection)
		if !ok {
			return nil
		}
		var paths []string
		for _, field := range section.Fields {
			if field.Type.IsEvidence() {
				continue
			}
			paths = append(paths, fieldpath.ToPath(section.ID, field.ID))
		}
		return paths
	default:
		return nil
	}
}

// References extracts evidence references from a photo or signature value.
// Objects contribute their ref, id, file_id or url key.
func References(raw any) []string {
	switch typed := raw.(type) {
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	case []string:
		return append([]string(nil), typed...)
	case []any:
		var out []string
		for _, item := range typed {
			out = append(out, References(item)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{"ref", "id", "file_id", "url"} {
			if v, ok := typed[key].(string); ok && v != "" {
				return []string{v}
			}
		}
	}
	return nil
}
