package layout

import (
	"errors"
	"time"

	"github.com/goliatone/go-reportgen/pkg/fieldpath"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// ErrNilTemplate is returned when Generate receives no template.
var ErrNilTemplate = errors.New("layout: template is nil")

const (
	// DenseColumns is used for sections without long-form text.
	DenseColumns = 2
	// NarrativeColumns is used for sections containing a textarea.
	NarrativeColumns = 1
	// DefaultPhotoColumns is the grid width of photo blocks.
	DefaultPhotoColumns = 2
)

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces time.Now for meta.generatedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithPhotoColumns sets the column count written on photo grid blocks.
func WithPhotoColumns(columns int) Option {
	return func(g *Generator) {
		if columns > 0 {
			g.photoColumns = columns
		}
	}
}

// WithSignatureTitle overrides the signature block title.
func WithSignatureTitle(title string) Option {
	return func(g *Generator) {
		if title != "" {
			g.signatureTitle = title
		}
	}
}

// Generator turns templates into layouts.
type Generator struct {
	now            func() time.Time
	photoColumns   int
	signatureTitle string
}

// NewGenerator constructs a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:            time.Now,
		photoColumns:   DefaultPhotoColumns,
		signatureTitle: SignatureTitle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate is a convenience wrapper around NewGenerator(opts...).Generate.
func Generate(t *schema.Template, opts ...Option) (Layout, error) {
	return NewGenerator(opts...).Generate(t)
}

// Generate emits the header block, then one detail block per section with
// regular fields, then one photo grid per photo field in cross-section
// order, then a single signature block when any signature field exists.
func (g *Generator) Generate(t *schema.Template) (Layout, error) {
	if t == nil {
		return Layout{}, ErrNilTemplate
	}

	out := Layout{
		Sections: []Block{g.header(t)},
		Meta: Meta{
			GeneratedFrom:   t.ID,
			TemplateName:    t.Name,
			TemplateVersion: t.Version,
			GeneratedAt:     g.now().UTC(),
		},
	}

	var photos []Block
	var signers []Signer

	for _, section := range t.Sections {
		var regular []string
		narrative := false

		for _, field := range section.Fields {
			path := fieldpath.ToPath(section.ID, field.ID)
			switch field.Type {
			case schema.FieldTypePhoto:
				photos = append(photos, g.photo(section, field, path))
			case schema.FieldTypeSignature:
				signers = append(signers, Signer{Path: path, Label: field.Label()})
			default:
				regular = append(regular, path)
				if field.Type == schema.FieldTypeTextarea {
					narrative = true
				}
			}
		}

		if len(regular) == 0 {
			continue
		}
		columns := DenseColumns
		if narrative {
			columns = NarrativeColumns
		}
		out.Sections = append(out.Sections, Block{
			SectionID: section.ID,
			BlockType: BlockDetailEntry,
			Content:   Content{Title: section.Label(), Description: section.Description},
			Options: Options{
				Columns:    columns,
				FieldPaths: regular,
				Layout:     section.Layout,
			},
			BindingRules: BindingRules{TemplateSection: section.ID},
		})
	}

	out.Sections = append(out.Sections, photos...)

	if len(signers) > 0 {
		paths := make([]string, len(signers))
		for i, signer := range signers {
			paths[i] = signer.Path
		}
		out.Sections = append(out.Sections, Block{
			SectionID:    SignatureSectionID,
			BlockType:    BlockSignatureBox,
			Content:      Content{Title: g.signatureTitle},
			Options:      Options{Columns: len(signers), Signers: signers},
			BindingRules: BindingRules{Fields: paths},
		})
	}

	return out, nil
}

func (g *Generator) header(t *schema.Template) Block {
	return Block{
		SectionID: HeaderSectionID,
		BlockType: BlockHeader,
		Content:   Content{Title: t.Name},
		Options: Options{
			Header: &HeaderInfo{
				TemplateName: t.Name,
				Version:      t.Version,
				Industry:     t.Industry,
				Category:     t.Category,
				ReportType:   t.ReportType,
			},
		},
	}
}

func (g *Generator) photo(section schema.Section, field schema.Field, path string) Block {
	return Block{
		SectionID: PhotoSectionPrefix + path,
		BlockType: BlockPhotoGrid,
		Content:   Content{Title: field.Label(), Description: field.Description},
		Options: Options{
			Columns:   g.photoColumns,
			FieldPath: path,
		},
		BindingRules: BindingRules{
			TemplateSection: section.ID,
			FilterByField:   path,
		},
	}
}
