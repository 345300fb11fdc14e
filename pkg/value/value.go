// Package value converts loosely typed captured data into a tagged variant
// keyed by the declaring field's type, and hosts the coercion rules shared by
// the formula evaluator and show-if matching.
package value

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindTime
	KindBool
	KindList
	KindReference
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindReference:
		return "reference"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a captured value interpreted according to its field type. Only the
// member matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
	Bool   bool
	List   []string
	Ref    string
	Object map[string]any
	Raw    any
}

// Empty reports whether the value counts as missing for required checks.
func (v Value) Empty() bool {
	switch v.Kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(v.Text) == ""
	case KindBool:
		return !v.Bool
	case KindList:
		return len(v.List) == 0
	case KindReference:
		return strings.TrimSpace(v.Ref) == ""
	case KindObject:
		return len(v.Object) == 0
	default:
		return false
	}
}

var (
	// ErrNotNumber is returned when a number field holds a non-numeric value.
	ErrNotNumber = errors.New("value: not a number")
	// ErrNotTime is returned when a date or datetime field cannot be parsed.
	ErrNotTime = errors.New("value: not a valid point in time")
	// ErrNotOption is returned when a choice is outside the declared options.
	ErrNotOption = errors.New("value: not one of the allowed options")
	// ErrNotBool is returned when a plain checkbox holds a word that is neither
	// yes nor no.
	ErrNotBool = errors.New("value: not a yes or no value")
	// ErrUnsupported is returned for raw shapes a field type cannot hold.
	ErrUnsupported = errors.New("value: unsupported value shape")
)

// DateLayouts are tried in order when parsing date fields.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
}

// DateTimeLayouts are tried in order when parsing datetime fields.
var DateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// For interprets raw according to the field. Blank input always yields an
// empty value without error so required checks stay separate from type
// checks.
func For(field schema.Field, raw any) (Value, error) {
	if Blank(raw) {
		return Value{Kind: KindEmpty, Raw: raw}, nil
	}

	switch field.Type {
	case schema.FieldTypeNumber:
		n, ok := Number(raw)
		if !ok {
			return Value{Raw: raw}, fmt.Errorf("%w: %v", ErrNotNumber, raw)
		}
		return Value{Kind: KindNumber, Number: n, Raw: raw}, nil

	case schema.FieldTypeDate:
		ts, err := parseTime(raw, DateLayouts)
		if err != nil {
			return Value{Raw: raw}, err
		}
		return Value{Kind: KindTime, Time: ts, Raw: raw}, nil

	case schema.FieldTypeDateTime:
		ts, err := parseTime(raw, DateTimeLayouts)
		if err != nil {
			return Value{Raw: raw}, err
		}
		return Value{Kind: KindTime, Time: ts, Raw: raw}, nil

	case schema.FieldTypeCheckbox:
		if len(field.Options) > 0 {
			list, err := stringList(raw)
			if err != nil {
				return Value{Raw: raw}, err
			}
			for _, item := range list {
				if !contains(field.Options, item) {
					return Value{Raw: raw}, fmt.Errorf("%w: %q", ErrNotOption, item)
				}
			}
			return Value{Kind: KindList, List: list, Raw: raw}, nil
		}
		b, ok := Bool(raw)
		if !ok {
			return Value{Raw: raw}, fmt.Errorf("%w: %v", ErrNotBool, raw)
		}
		return Value{Kind: KindBool, Bool: b, Raw: raw}, nil

	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		text := String(raw)
		if len(field.Options) > 0 && !contains(field.Options, text) {
			return Value{Raw: raw}, fmt.Errorf("%w: %q", ErrNotOption, text)
		}
		return Value{Kind: KindText, Text: text, Raw: raw}, nil

	case schema.FieldTypePhoto, schema.FieldTypeSignature:
		switch typed := raw.(type) {
		case string:
			return Value{Kind: KindReference, Ref: typed, Raw: raw}, nil
		case map[string]any:
			return Value{Kind: KindObject, Object: typed, Raw: raw}, nil
		default:
			list, err := stringList(raw)
			if err != nil {
				return Value{Raw: raw}, err
			}
			return Value{Kind: KindList, List: list, Raw: raw}, nil
		}

	default:
		if obj, ok := raw.(map[string]any); ok {
			return Value{Kind: KindObject, Object: obj, Raw: raw}, nil
		}
		return Value{Kind: KindText, Text: String(raw), Raw: raw}, nil
	}
}

func parseTime(raw any, layouts []string) (time.Time, error) {
	switch typed := raw.(type) {
	case time.Time:
		return typed, nil
	case string:
		trimmed := strings.TrimSpace(typed)
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotTime, typed)
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrNotTime, raw)
	}
}

func stringList(raw any) ([]string, error) {
	switch typed := raw.(type) {
	case []string:
		return append([]string(nil), typed...), nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, String(item))
		}
		return out, nil
	case string:
		return []string{typed}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, raw)
	}
}

func contains(options []string, candidate string) bool {
	for _, option := range options {
		if option == candidate {
			return true
		}
	}
	return false
}
