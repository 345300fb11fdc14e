package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// ErrorMapping splits an error payload into field errors keyed by field
// path and report-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates message slices, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload maps error keys written as JSON pointers ("/sec1/name"),
// bracket paths ("sec1[name]"), or wrapped paths ("data.sec1.name") onto the
// field paths of t. Keys that match no field become report-level messages.
func MapErrorPayload(t *schema.Template, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{})
	if t != nil {
		for _, ref := range t.Fields() {
			known[ref.Path] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		path := matchPath(raw, known)
		if path == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[path] = normalizeMessages(append(mapping.Fields[path], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// FieldErrors merges the errors reported by state with extra, keyed by path.
// Hidden fields never carry errors.
func FieldErrors(state interpreter.State, extra map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for path, fs := range state {
		if len(fs.Errors) > 0 && fs.Visible {
			out[path] = append([]string(nil), fs.Errors...)
		}
	}
	for path, messages := range extra {
		if fs, ok := state[path]; ok && !fs.Visible {
			continue
		}
		if merged := normalizeMessages(append(out[path], messages...)); len(merged) > 0 {
			out[path] = merged
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func matchPath(raw string, known map[string]struct{}) string {
	if isReportLevelKey(raw) {
		return ""
	}
	segments := splitSegments(raw)
	for _, candidate := range [][]string{segments, dropWrappers(segments), dropIndexes(dropWrappers(segments))} {
		// field paths are exactly two segments, anything after addresses
		// inside the value
		for start := 0; start+1 < len(candidate); start++ {
			path := candidate[start] + "." + candidate[start+1]
			if _, ok := known[path]; ok {
				return path
			}
		}
	}
	return ""
}

func splitSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":          {},
	"data":          {},
	"payload":       {},
	"captured_data": {},
	"values":        {},
}

func dropWrappers(segments []string) []string {
	for len(segments) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(segments[0])]; !ok {
			break
		}
		segments = segments[1:]
	}
	return segments
}

func dropIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isReportLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "report", "form", "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}
