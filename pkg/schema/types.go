package schema

import (
	"github.com/goliatone/go-reportgen/pkg/fieldpath"
)

// FieldType enumerates the input kinds a template field may declare.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeTextarea  FieldType = "textarea"
	FieldTypeNumber    FieldType = "number"
	FieldTypeDate      FieldType = "date"
	FieldTypeDateTime  FieldType = "datetime"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeSelect    FieldType = "select"
	FieldTypeRadio     FieldType = "radio"
	FieldTypePhoto     FieldType = "photo"
	FieldTypeSignature FieldType = "signature"
)

// FieldTypes lists every supported type in declaration order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeDateTime,
	FieldTypeCheckbox,
	FieldTypeSelect,
	FieldTypeRadio,
	FieldTypePhoto,
	FieldTypeSignature,
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether the type requires a non-empty option list.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// IsEvidence reports whether values of this type are external references
// (photos, signatures) rather than inline data.
func (t FieldType) IsEvidence() bool {
	return t == FieldTypePhoto || t == FieldTypeSignature
}

// SectionLayout is the in-form arrangement hint for a section.
type SectionLayout string

const (
	SectionLayoutSingleColumn SectionLayout = "single_column"
	SectionLayoutTwoColumn    SectionLayout = "two_column"
	SectionLayoutThreeColumn  SectionLayout = "three_column"
	SectionLayoutGrid         SectionLayout = "grid"
)

// AttributeRef names an attribute on the contract (or equivalent record) the
// template is bound to, for example "client.name" or "site_address".
type AttributeRef string

// ShowIf makes a field visible only while the value at Field equals Value.
type ShowIf struct {
	Field string `json:"field" yaml:"field"`
	Value any    `json:"value" yaml:"value"`
}

// Field is a single input inside a section.
type Field struct {
	ID            string       `json:"field_id" yaml:"field_id"`
	Name          string       `json:"name" yaml:"name"`
	Type          FieldType    `json:"type" yaml:"type"`
	Required      bool         `json:"required" yaml:"required"`
	Placeholder   string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	DefaultValue  any          `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Description   string       `json:"description,omitempty" yaml:"description,omitempty"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	PrefillFrom   AttributeRef `json:"prefill_from,omitempty" yaml:"prefill_from,omitempty"`
	AutoCalculate bool         `json:"auto_calculate" yaml:"auto_calculate"`
	Formula       string       `json:"formula,omitempty" yaml:"formula,omitempty"`
	ShowIf        *ShowIf      `json:"show_if,omitempty" yaml:"show_if,omitempty"`
}

// Label returns the display name, falling back to the field id.
func (f Field) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}

// Section groups fields. Array order drives both form and document order.
type Section struct {
	ID          string        `json:"section_id" yaml:"section_id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Layout      SectionLayout `json:"layout,omitempty" yaml:"layout,omitempty"`
	Required    bool          `json:"required" yaml:"required"`
	Fields      []Field       `json:"fields" yaml:"fields"`
}

// Label returns the display name, falling back to the section id.
func (s Section) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Template is the versioned definition driving both data entry and the
// generated document layout.
type Template struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Version    int       `json:"version" yaml:"version"`
	Industry   string    `json:"industry,omitempty" yaml:"industry,omitempty"`
	Category   string    `json:"category,omitempty" yaml:"category,omitempty"`
	ReportType string    `json:"report_type,omitempty" yaml:"report_type,omitempty"`
	IsLocked   bool      `json:"is_locked" yaml:"is_locked"`
	IsPublic   bool      `json:"is_public" yaml:"is_public"`
	Sections   []Section `json:"sections" yaml:"sections"`
}

// FieldRef points at a field inside a template together with its path.
type FieldRef struct {
	Path    string
	Section *Section
	Field   *Field
}

// Fields returns every field in section/field array order. The returned
// pointers alias the template; callers must not retain them across mutations.
func (t *Template) Fields() []FieldRef {
	if t == nil {
		return nil
	}
	var out []FieldRef
	for si := range t.Sections {
		section := &t.Sections[si]
		for fi := range section.Fields {
			field := &section.Fields[fi]
			out = append(out, FieldRef{
				Path:    fieldpath.ToPath(section.ID, field.ID),
				Section: section,
				Field:   field,
			})
		}
	}
	return out
}

// Lookup finds a field by path. When ids are duplicated the first match wins.
func (t *Template) Lookup(path string) (FieldRef, bool) {
	if t == nil {
		return FieldRef{}, false
	}
	ref, err := fieldpath.FromPath(path)
	if err != nil {
		return FieldRef{}, false
	}
	for si := range t.Sections {
		section := &t.Sections[si]
		if section.ID != ref.SectionID {
			continue
		}
		for fi := range section.Fields {
			if section.Fields[fi].ID == ref.FieldID {
				return FieldRef{Path: path, Section: section, Field: &section.Fields[fi]}, true
			}
		}
	}
	return FieldRef{}, false
}

// Has reports whether path resolves to a field.
func (t *Template) Has(path string) bool {
	_, ok := t.Lookup(path)
	return ok
}

// Section returns the section with the given id.
func (t *Template) Section(id string) (*Section, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			return &t.Sections[i], true
		}
	}
	return nil, false
}

// FieldCount returns the number of fields across all sections.
func (t *Template) FieldCount() int {
	if t == nil {
		return 0
	}
	total := 0
	for _, section := range t.Sections {
		total += len(section.Fields)
	}
	return total
}
