// Package validation checks the structural well-formedness of a template
// before it is persisted or rendered. Validation is pure and reports every
// problem it finds rather than stopping at the first.
package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/dependency"
	"github.com/goliatone/go-reportgen/pkg/fieldpath"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// IssueKind classifies validation issues.
type IssueKind string

const (
	IssueSectionID    IssueKind = "section_id"
	IssueFieldID      IssueKind = "field_id"
	IssueFieldType    IssueKind = "field_type"
	IssueOptions      IssueKind = "options"
	IssueFormula      IssueKind = "formula"
	IssueReference    IssueKind = "reference"
	IssueCycle        IssueKind = "cycle"
	IssueTemplateName IssueKind = "template_name"
)

// Issue is a single validation problem with optional location metadata.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Result captures validation outcomes.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Err returns nil for a valid result and a *SchemaError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &SchemaError{Issues: append([]Issue(nil), r.Issues...)}
}

// Option customises validation.
type Option func(*options)

type options struct {
	requireName bool
}

// WithRequireName additionally rejects templates with a blank name. Stores
// use it before persisting; rendering does not need it.
func WithRequireName() Option {
	return func(o *options) { o.requireName = true }
}

// Validate checks t in a fixed order: section ids, field ids and types,
// choice options, formulas and references, then cycles. All issues are
// accumulated.
func Validate(t *schema.Template, opts ...Option) Result {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	v := &validator{}
	if t == nil {
		v.add(Issue{Kind: IssueSectionID, Message: "template is nil"})
		return v.result()
	}
	if cfg.requireName && strings.TrimSpace(t.Name) == "" {
		v.add(Issue{Kind: IssueTemplateName, Message: "template name is required"})
	}

	v.checkSections(t)
	v.checkFields(t)
	v.checkOptions(t)

	graph := dependency.Build(t)
	v.checkReferences(graph)
	v.checkCycles(graph)

	return v.result()
}

type validator struct {
	issues []Issue
}

func (v *validator) add(issue Issue) {
	v.issues = append(v.issues, issue)
}

func (v *validator) result() Result {
	return Result{Valid: len(v.issues) == 0, Issues: v.issues}
}

func (v *validator) checkSections(t *schema.Template) {
	seen := make(map[string]int)
	for idx, section := range t.Sections {
		loc := fmt.Sprintf("sections[%d]", idx)
		if err := fieldpath.CheckID(section.ID); err != nil {
			v.add(Issue{Kind: IssueSectionID, Path: loc, Message: sectionIDMessage(section.ID), Err: err})
			continue
		}
		if first, dup := seen[section.ID]; dup {
			v.add(Issue{
				Kind:    IssueSectionID,
				Path:    loc,
				Message: fmt.Sprintf("section_id %q duplicates sections[%d]", section.ID, first),
			})
			continue
		}
		seen[section.ID] = idx
	}
}

func sectionIDMessage(id string) string {
	if strings.TrimSpace(id) == "" {
		return "section_id is required"
	}
	return fmt.Sprintf("section_id %q must not contain %q", id, fieldpath.Separator)
}

func (v *validator) checkFields(t *schema.Template) {
	for sidx, section := range t.Sections {
		seen := make(map[string]int)
		for fidx, field := range section.Fields {
			loc := fieldLocation(section, sidx, field, fidx)
			if err := fieldpath.CheckID(field.ID); err != nil {
				msg := "field_id is required"
				if strings.TrimSpace(field.ID) != "" {
					msg = fmt.Sprintf("field_id %q must not contain %q", field.ID, fieldpath.Separator)
				}
				v.add(Issue{Kind: IssueFieldID, Path: loc, Message: msg, Err: err})
			} else if first, dup := seen[field.ID]; dup {
				v.add(Issue{
					Kind:    IssueFieldID,
					Path:    loc,
					Message: fmt.Sprintf("field_id %q duplicates fields[%d] of the same section", field.ID, first),
				})
			} else {
				seen[field.ID] = fidx
			}

			if !field.Type.Valid() {
				v.add(Issue{Kind: IssueFieldType, Path: loc, Message: fmt.Sprintf("unsupported field type %q", field.Type)})
			}
			if field.AutoCalculate && strings.TrimSpace(field.Formula) == "" {
				v.add(Issue{Kind: IssueFormula, Path: loc, Message: "auto_calculate requires a formula"})
			}
		}
	}
}

func (v *validator) checkOptions(t *schema.Template) {
	for sidx, section := range t.Sections {
		for fidx, field := range section.Fields {
			if !field.Type.HasOptions() {
				continue
			}
			valid := 0
			for _, option := range field.Options {
				if strings.TrimSpace(option) != "" {
					valid++
				}
			}
			if valid == 0 {
				v.add(Issue{
					Kind:    IssueOptions,
					Path:    fieldLocation(section, sidx, field, fidx),
					Message: fmt.Sprintf("%s field requires at least one non-empty option", field.Type),
				})
			}
		}
	}
}

func (v *validator) checkReferences(graph *dependency.Graph) {
	for _, bad := range graph.Formulas {
		v.add(Issue{Kind: IssueFormula, Path: bad.Path, Message: bad.Err.Error(), Err: bad.Err})
	}
	for _, missing := range graph.Missing {
		err := &ReferenceError{From: missing.From, Ref: missing.Ref, Kind: missing.Kind}
		v.add(Issue{
			Kind:    IssueReference,
			Path:    missing.From,
			Message: fmt.Sprintf("%s references unknown field %q", missing.Kind, missing.Ref),
			Err:     err,
		})
	}
}

func (v *validator) checkCycles(graph *dependency.Graph) {
	for _, cycle := range graph.Cycles() {
		v.add(Issue{
			Kind:    IssueCycle,
			Path:    cycle.Cycle[0],
			Message: "dependency cycle: " + cycle.Describe(),
			Err:     cycle,
		})
	}
}

func fieldLocation(section schema.Section, sidx int, field schema.Field, fidx int) string {
	if fieldpath.CheckID(section.ID) == nil && fieldpath.CheckID(field.ID) == nil {
		return fieldpath.ToPath(section.ID, field.ID)
	}
	return fmt.Sprintf("sections[%d].fields[%d]", sidx, fidx)
}
