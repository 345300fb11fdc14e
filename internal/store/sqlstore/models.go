package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
)

// templateRow stores a template. Sections are kept as a JSON document so the
// record shape survives schema evolution without migrations.
type templateRow struct {
	ID         string         `gorm:"primaryKey;size:64"`
	Name       string         `gorm:"size:255;index"`
	Version    int            `gorm:"not null;default:1"`
	Industry   string         `gorm:"size:128;index"`
	Category   string         `gorm:"size:128;index"`
	ReportType string         `gorm:"size:128"`
	IsLocked   bool           `gorm:"not null;default:false"`
	IsPublic   bool           `gorm:"not null;default:false"`
	Sections   datatypes.JSON `gorm:"not null"`
	Revision   int64          `gorm:"not null;default:1"`
	Usages     int            `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (templateRow) TableName() string { return "report_templates" }

type usageRow struct {
	ID         string `gorm:"primaryKey;size:64"`
	TemplateID string `gorm:"size:64;index;not null"`
	Subject    string `gorm:"size:255;index"`
	CreatedAt  time.Time
}

func (usageRow) TableName() string { return "report_template_usages" }

type dataRow struct {
	ID              string         `gorm:"primaryKey;size:64"`
	TemplateID      string         `gorm:"size:64;index;not null"`
	TemplateVersion int            `gorm:"not null;default:0"`
	Subject         string         `gorm:"size:255;index"`
	Data            datatypes.JSON `gorm:"not null"`
	UpdatedAt       time.Time
}

func (dataRow) TableName() string { return "report_captured_data" }

type layoutRow struct {
	TemplateID string         `gorm:"primaryKey;size:64"`
	Layout     datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time
}

func (layoutRow) TableName() string { return "report_layouts" }

type attributeRow struct {
	Subject    string         `gorm:"primaryKey;size:255"`
	Attributes datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time
}

func (attributeRow) TableName() string { return "report_contract_attributes" }

func models() []any {
	return []any{&templateRow{}, &usageRow{}, &dataRow{}, &layoutRow{}, &attributeRow{}}
}

func newTemplateRow(t schema.Template) (templateRow, error) {
	sections, err := encode(t.Sections)
	if err != nil {
		return templateRow{}, fmt.Errorf("sqlstore: encode sections of %q: %w", t.ID, err)
	}
	return templateRow{
		ID:         t.ID,
		Name:       t.Name,
		Version:    t.Version,
		Industry:   t.Industry,
		Category:   t.Category,
		ReportType: t.ReportType,
		IsLocked:   t.IsLocked,
		IsPublic:   t.IsPublic,
		Sections:   sections,
		Revision:   1,
	}, nil
}

func (r templateRow) entry() (store.Entry, error) {
	var sections []schema.Section
	if len(r.Sections) > 0 {
		if err := json.Unmarshal(r.Sections, &sections); err != nil {
			return store.Entry{}, fmt.Errorf("sqlstore: decode sections of %q: %w", r.ID, err)
		}
	}
	out := store.Entry{
		Template: schema.Template{
			ID:         r.ID,
			Name:       r.Name,
			Version:    r.Version,
			Industry:   r.Industry,
			Category:   r.Category,
			ReportType: r.ReportType,
			IsLocked:   r.IsLocked,
			IsPublic:   r.IsPublic,
			Sections:   sections,
		},
		Revision:  r.Revision,
		Usages:    r.Usages,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.DeletedAt.Valid {
		ts := r.DeletedAt.Time
		out.DeletedAt = &ts
	}
	return out, nil
}

func (r usageRow) usage() store.Usage {
	return store.Usage{ID: r.ID, TemplateID: r.TemplateID, Subject: r.Subject, CreatedAt: r.CreatedAt}
}

func (r dataRow) record() (store.CapturedRecord, error) {
	data := map[string]any{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &data); err != nil {
			return store.CapturedRecord{}, fmt.Errorf("sqlstore: decode data %q: %w", r.ID, err)
		}
	}
	return store.CapturedRecord{
		ID:              r.ID,
		TemplateID:      r.TemplateID,
		TemplateVersion: r.TemplateVersion,
		Subject:         r.Subject,
		Data:            data,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func encode(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
