package schema

// Record is the persisted/exchanged shape of a template. Field names follow
// the external record contract rather than the in-memory model.
type Record struct {
	ID               string       `json:"id" yaml:"id"`
	TemplateName     string       `json:"template_name" yaml:"template_name"`
	Version          int          `json:"version" yaml:"version"`
	Industry         string       `json:"industry,omitempty" yaml:"industry,omitempty"`
	ContractCategory string       `json:"contract_category,omitempty" yaml:"contract_category,omitempty"`
	ReportType       string       `json:"report_type,omitempty" yaml:"report_type,omitempty"`
	IsLocked         bool         `json:"is_locked" yaml:"is_locked"`
	IsPublic         bool         `json:"is_public" yaml:"is_public"`
	FieldsSchema     FieldsSchema `json:"fields_schema" yaml:"fields_schema"`
}

// FieldsSchema wraps the ordered sections of a record.
type FieldsSchema struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// Template converts the record into the in-memory model.
func (r Record) Template() Template {
	t := Template{
		ID:         r.ID,
		Name:       r.TemplateName,
		Version:    r.Version,
		Industry:   r.Industry,
		Category:   r.ContractCategory,
		ReportType: r.ReportType,
		IsLocked:   r.IsLocked,
		IsPublic:   r.IsPublic,
		Sections:   r.FieldsSchema.Sections,
	}
	return t.Clone()
}

// RecordOf converts a template into its record shape.
func RecordOf(t Template) Record {
	c := t.Clone()
	return Record{
		ID:               c.ID,
		TemplateName:     c.Name,
		Version:          c.Version,
		Industry:         c.Industry,
		ContractCategory: c.Category,
		ReportType:       c.ReportType,
		IsLocked:         c.IsLocked,
		IsPublic:         c.IsPublic,
		FieldsSchema:     FieldsSchema{Sections: c.Sections},
	}
}
