package vanilla

import (
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/value"
)

func componentFor(field schema.Field) string {
	switch field.Type {
	case schema.FieldTypeTextarea:
		return components.NameTextarea
	case schema.FieldTypeSelect:
		return components.NameSelect
	case schema.FieldTypeRadio:
		return components.NameRadio
	case schema.FieldTypeCheckbox:
		return components.NameCheckbox
	case schema.FieldTypePhoto, schema.FieldTypeSignature:
		return components.NameUpload
	default:
		return components.NameInput
	}
}

// controlFor converts the current value of a field into the shape its
// component expects.
func controlFor(path string, field schema.Field, current any) components.Control {
	control := components.Control{
		Path:  path,
		Field: field.Clone(),
		Label: field.Label(),
	}

	switch field.Type {
	case schema.FieldTypeNumber:
		control.InputType = "number"
		control.Value = formatValue(current)
	case schema.FieldTypeDate:
		control.InputType = "date"
		control.Value = formatTime(current, "2006-01-02")
	case schema.FieldTypeDateTime:
		control.InputType = "datetime-local"
		control.Value = formatTime(current, "2006-01-02T15:04")
	case schema.FieldTypeCheckbox:
		if len(field.Options) > 0 {
			control.Values = stringList(current)
		} else {
			control.Checked, _ = value.Bool(current)
		}
	case schema.FieldTypePhoto:
		control.InputType = "multiple"
		control.Values = layout.References(current)
	case schema.FieldTypeSignature:
		control.Values = layout.References(current)
	default:
		control.Value = formatValue(current)
	}
	return control
}

func formatValue(raw any) string {
	if raw == nil {
		return ""
	}
	return value.String(raw)
}

// formatTime reformats parseable dates for the native date inputs. Values
// that do not parse are printed as captured.
func formatTime(raw any, format string) string {
	switch typed := raw.(type) {
	case time.Time:
		return typed.Format(format)
	case string:
		trimmed := strings.TrimSpace(typed)
		for _, candidate := range append(append([]string(nil), value.DateTimeLayouts...), value.DateLayouts...) {
			if ts, err := time.Parse(candidate, trimmed); err == nil {
				return ts.Format(format)
			}
		}
		return trimmed
	default:
		return formatValue(raw)
	}
}

func stringList(raw any) []string {
	switch typed := raw.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, value.String(item))
		}
		return out
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	default:
		return nil
	}
}

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// sanitizeMarkup keeps basic formatting in section descriptions.
func sanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	markupPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("p", "br", "strong", "em", "b", "i", "ul", "ol", "li", "code")
		markupPolicy = policy
	})
	return strings.TrimSpace(markupPolicy.Sanitize(trimmed))
}
