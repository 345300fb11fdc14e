// Package visibility decides whether a field is shown given its show-if rule
// and the captured values computed so far.
package visibility

import (
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/value"
)

// Evaluator determines whether the field at fieldPath should be visible.
// Implementations must be pure with respect to ctx.
type Evaluator interface {
	Eval(fieldPath string, rule schema.ShowIf, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds captured data keyed
// by field path, after pre-fill and any computation already performed in
// dependency order. Extras allows callers to inject additional context such
// as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// Lookup returns the value stored at path.
func (c Context) Lookup(path string) (any, bool) {
	if c.Values == nil {
		return nil, false
	}
	v, ok := c.Values[path]
	return v, ok
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath string, rule schema.ShowIf, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath string, rule schema.ShowIf, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Equality is the default evaluator: a field is visible while the value at
// rule.Field equals rule.Value.
type Equality struct{}

// New returns the default equality evaluator.
func New() Evaluator { return Equality{} }

// Eval implements Evaluator.
func (Equality) Eval(_ string, rule schema.ShowIf, ctx Context) (bool, error) {
	current, _ := ctx.Lookup(rule.Field)
	return value.Equal(current, rule.Value), nil
}

// Visible is a convenience wrapper that treats a nil rule as always visible.
func Visible(eval Evaluator, fieldPath string, rule *schema.ShowIf, ctx Context) (bool, error) {
	if rule == nil {
		return true, nil
	}
	if eval == nil {
		eval = Equality{}
	}
	return eval.Eval(fieldPath, *rule, ctx)
}
