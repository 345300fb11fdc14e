package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Number coerces numeric scalars and numeric strings to float64.
func Number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// String renders a value as text. Whole floats print without a fraction.
func String(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, String(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(raw)
	}
}

// Bool coerces a value to a boolean. The second result is false for nil and
// for strings that are not a recognised yes or no word.
func Bool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		word := strings.ToLower(strings.TrimSpace(v))
		switch word {
		case "yes", "y", "on", "checked":
			return true, true
		case "no", "n", "off", "":
			return false, true
		}
		parsed, err := strconv.ParseBool(word)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		if n, ok := Number(raw); ok {
			return n != 0, true
		}
		return Truthy(raw), true
	}
}

// Truthy mirrors the conditional semantics used by formulas and show-if
// rules: empty strings, zero numbers, empty collections, and nil are false.
func Truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		if n, ok := Number(raw); ok {
			return n != 0
		}
		return true
	}
}

// Blank reports whether a captured value counts as "not supplied".
func Blank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// Equal compares a captured value against a target using the target's type
// to pick the comparison: booleans compare as booleans, numbers as numbers,
// everything else as text. A list value equals the target when any element
// does.
func Equal(current, target any) bool {
	switch list := current.(type) {
	case []any:
		for _, item := range list {
			if Equal(item, target) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range list {
			if Equal(item, target) {
				return true
			}
		}
		return false
	}

	switch want := target.(type) {
	case nil:
		return Blank(current)
	case bool:
		got, ok := Bool(current)
		return ok && got == want
	case string:
		return String(current) == want
	default:
		if wantNum, ok := Number(target); ok {
			got, ok := Number(current)
			return ok && got == wantNum
		}
		return String(current) == String(target)
	}
}
