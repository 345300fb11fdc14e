// Package layout generates the document layout of a template: an ordered
// list of presentation blocks that a document renderer joins back to
// captured data through each block's binding rules. Generation depends on
// the template only.
package layout

import (
	"time"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

// BlockType enumerates the presentation blocks a layout may contain.
type BlockType string

const (
	BlockHeader       BlockType = "header"
	BlockDetailEntry  BlockType = "detail_entry"
	BlockPhotoGrid    BlockType = "photo_grid"
	BlockSignatureBox BlockType = "signature_box"
)

// Generated blocks carry ids containing the path separator, which template
// section ids never do, so they cannot clash with a detail block.
const (
	// HeaderSectionID is the section_id of the header block.
	HeaderSectionID = "report.header"
	// SignatureSectionID is the section_id of the consolidated signature block.
	SignatureSectionID = "report.signatures"
	// PhotoSectionPrefix prefixes the field path in photo grid section_ids.
	PhotoSectionPrefix = "photos."
	// SignatureTitle is the default title of the signature block.
	SignatureTitle = "Signatures"
)

// Layout is the generated document description.
type Layout struct {
	Sections []Block `json:"sections" yaml:"sections"`
	Meta     Meta    `json:"meta" yaml:"meta"`
}

// Meta records where a layout came from.
type Meta struct {
	GeneratedFrom   string    `json:"generatedFrom" yaml:"generatedFrom"`
	TemplateName    string    `json:"templateName" yaml:"templateName"`
	TemplateVersion int       `json:"templateVersion,omitempty" yaml:"templateVersion,omitempty"`
	GeneratedAt     time.Time `json:"generatedAt" yaml:"generatedAt"`
}

// Block is a single presentation unit. Blocks hold no captured data.
type Block struct {
	SectionID    string       `json:"section_id" yaml:"section_id"`
	BlockType    BlockType    `json:"block_type" yaml:"block_type"`
	Content      Content      `json:"content" yaml:"content"`
	Options      Options      `json:"options" yaml:"options"`
	BindingRules BindingRules `json:"binding_rules" yaml:"binding_rules"`
}

// Content holds presentation text.
type Content struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Options carries per-block presentation settings. Only the members relevant
// to the block type are populated.
type Options struct {
	Columns    int                  `json:"columns,omitempty" yaml:"columns,omitempty"`
	FieldPaths []string             `json:"field_paths,omitempty" yaml:"field_paths,omitempty"`
	FieldPath  string               `json:"field_path,omitempty" yaml:"field_path,omitempty"`
	Signers    []Signer             `json:"signers,omitempty" yaml:"signers,omitempty"`
	Layout     schema.SectionLayout `json:"section_layout,omitempty" yaml:"section_layout,omitempty"`
	Header     *HeaderInfo          `json:"header,omitempty" yaml:"header,omitempty"`
}

// Signer is one signature field listed by the signature block.
type Signer struct {
	Path  string `json:"path" yaml:"path"`
	Label string `json:"label" yaml:"label"`
}

// HeaderInfo describes the template in the header block.
type HeaderInfo struct {
	TemplateName string `json:"template_name" yaml:"template_name"`
	Version      int    `json:"version,omitempty" yaml:"version,omitempty"`
	Industry     string `json:"industry,omitempty" yaml:"industry,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	ReportType   string `json:"report_type,omitempty" yaml:"report_type,omitempty"`
}

// BindingRules join a block to captured data. TemplateSection selects every
// regular field of a section; FilterByField selects a single path; Fields
// lists the paths of a multi-field block.
type BindingRules struct {
	TemplateSection string   `json:"template_section,omitempty" yaml:"template_section,omitempty"`
	FilterByField   string   `json:"filter_by_field,omitempty" yaml:"filter_by_field,omitempty"`
	Fields          []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Count returns the number of blocks of the given type.
func (l Layout) Count(kind BlockType) int {
	total := 0
	for _, block := range l.Sections {
		if block.BlockType == kind {
			total++
		}
	}
	return total
}

// Clone returns a deep copy of l.
func (l Layout) Clone() Layout {
	out := Layout{Meta: l.Meta}
	if l.Sections != nil {
		out.Sections = make([]Block, len(l.Sections))
		for i, block := range l.Sections {
			out.Sections[i] = block.clone()
		}
	}
	return out
}

func (b Block) clone() Block {
	out := b
	out.Options.FieldPaths = append([]string(nil), b.Options.FieldPaths...)
	out.Options.Signers = append([]Signer(nil), b.Options.Signers...)
	out.BindingRules.Fields = append([]string(nil), b.BindingRules.Fields...)
	if b.Options.Header != nil {
		header := *b.Options.Header
		out.Options.Header = &header
	}
	return out
}
