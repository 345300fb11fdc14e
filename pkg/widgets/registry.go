// Package widgets picks the display widget a report renderer uses for a
// field value.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetText      = "text"
	WidgetMultiline = "multiline"
	WidgetNumber    = "number"
	WidgetComputed  = "computed"
	WidgetDate      = "date"
	WidgetCheckmark = "checkmark"
	WidgetBadge     = "badge"
	WidgetGallery   = "gallery"
	WidgetSignature = "signature"
)

// Matcher decides whether a widget should display the supplied field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects display widgets for fields from registered matchers.
// Higher priority wins; ties fall back to registration order. An empty
// registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Empty returns a registry without built-ins.
func Empty() *Registry {
	return &Registry{}
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field schema.Field) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// ResolveOr returns the resolved widget or fallback.
func (r *Registry) ResolveOr(field schema.Field, fallback string) string {
	if name, ok := r.Resolve(field); ok {
		return name
	}
	return fallback
}

// Annotate resolves every field of t keyed by its path. Fields without a
// widget are left out.
func (r *Registry) Annotate(t *schema.Template) map[string]string {
	out := make(map[string]string)
	if t == nil {
		return out
	}
	for _, ref := range t.Fields() {
		if name, ok := r.Resolve(*ref.Field); ok {
			out[ref.Path] = name
		}
	}
	return out
}

func typeIs(types ...schema.FieldType) Matcher {
	return func(field schema.Field) bool {
		for _, t := range types {
			if field.Type == t {
				return true
			}
		}
		return false
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetComputed, 100, func(field schema.Field) bool {
		return field.AutoCalculate && strings.TrimSpace(field.Formula) != ""
	})
	r.Register(WidgetSignature, 90, typeIs(schema.FieldTypeSignature))
	r.Register(WidgetGallery, 90, typeIs(schema.FieldTypePhoto))
	r.Register(WidgetCheckmark, 80, typeIs(schema.FieldTypeCheckbox))
	r.Register(WidgetBadge, 70, typeIs(schema.FieldTypeSelect, schema.FieldTypeRadio))
	r.Register(WidgetDate, 60, typeIs(schema.FieldTypeDate, schema.FieldTypeDateTime))
	r.Register(WidgetNumber, 50, typeIs(schema.FieldTypeNumber))
	r.Register(WidgetMultiline, 40, typeIs(schema.FieldTypeTextarea))
}
