package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/dependency"
)

// CycleError is a dependency cycle in the show-if/formula graph. It blocks
// save.
type CycleError = dependency.CycleError

// ReferenceError reports a show-if rule or formula that points at a path
// which does not resolve to a field.
type ReferenceError struct {
	From string
	Ref  string
	Kind dependency.EdgeKind
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("validation: %s of %s references unknown field %q", e.Kind, e.From, e.Ref)
}

// SchemaError carries every issue found while validating a template. It
// unwraps to the ReferenceError and CycleError values behind the issues so
// callers can use errors.As on a specific kind.
type SchemaError struct {
	TemplateID string
	Issues     []Issue
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return "validation: template is invalid"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	prefix := "validation: template"
	if e.TemplateID != "" {
		prefix += " " + e.TemplateID
	}
	return fmt.Sprintf("%s has %d issue(s): %s", prefix, len(e.Issues), strings.Join(parts, "; "))
}

// Unwrap exposes the typed errors attached to individual issues.
func (e *SchemaError) Unwrap() []error {
	var out []error
	for _, issue := range e.Issues {
		if issue.Err != nil {
			out = append(out, issue.Err)
		}
	}
	return out
}
