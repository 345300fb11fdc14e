// Package interpreter computes the live state of every field of a template
// against a captured-data map: pre-filled and default values, visibility,
// auto-calculated values, and per-field validity.
//
// Computation is a pure function of (template, data). The interpreter keeps
// no cache between calls; hosts recompute after every mutation, typically
// through a Session.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/dependency"
	"github.com/goliatone/go-reportgen/pkg/formula"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/validation"
	"github.com/goliatone/go-reportgen/pkg/value"
	"github.com/goliatone/go-reportgen/pkg/visibility"
)

// ErrNilTemplate is returned when Compute receives no template.
var ErrNilTemplate = errors.New("interpreter: template is nil")

// AttributeResolver looks up contract attributes for the pre-fill pass. The
// boolean result is false when the attribute has no value.
type AttributeResolver interface {
	Resolve(ctx context.Context, ref schema.AttributeRef) (any, bool, error)
}

// AttributeResolverFunc adapts a function into an AttributeResolver.
type AttributeResolverFunc func(ctx context.Context, ref schema.AttributeRef) (any, bool, error)

// Resolve delegates to the underlying function.
func (fn AttributeResolverFunc) Resolve(ctx context.Context, ref schema.AttributeRef) (any, bool, error) {
	return fn(ctx, ref)
}

// Attributes is a static resolver backed by a map keyed by attribute ref.
type Attributes map[string]any

// Resolve implements AttributeResolver.
func (a Attributes) Resolve(_ context.Context, ref schema.AttributeRef) (any, bool, error) {
	v, ok := a[string(ref)]
	if !ok || v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithAttributeResolver sets the resolver used by the pre-fill pass. Without
// one, prefill_from bindings are ignored.
func WithAttributeResolver(resolver AttributeResolver) Option {
	return func(i *Interpreter) {
		i.resolver = resolver
	}
}

// WithVisibilityEvaluator replaces the default equality evaluator.
func WithVisibilityEvaluator(eval visibility.Evaluator) Option {
	return func(i *Interpreter) {
		if eval != nil {
			i.visibility = eval
		}
	}
}

// WithExtras passes additional context to the visibility evaluator.
func WithExtras(extras map[string]any) Option {
	return func(i *Interpreter) {
		i.extras = extras
	}
}

// Interpreter evaluates templates against captured data.
type Interpreter struct {
	resolver   AttributeResolver
	visibility visibility.Evaluator
	extras     map[string]any
}

// New constructs an Interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{visibility: visibility.New()}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// FieldState is the computed state of one field.
type FieldState struct {
	Path      string   `json:"path"`
	Visible   bool     `json:"visible"`
	Value     any      `json:"value"`
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors,omitempty"`
	Computed  bool     `json:"computed,omitempty"`
	Prefilled bool     `json:"prefilled,omitempty"`
	Defaulted bool     `json:"defaulted,omitempty"`

	// Typed is the value interpreted according to the field type. It is the
	// zero Value when the captured value does not fit the type.
	Typed value.Value `json:"-"`
	// Degraded is set when the field could not be evaluated because of a
	// dangling reference or a dependency cycle. Degraded fields are hidden.
	Degraded error `json:"-"`
}

// State maps field paths to their computed state.
type State map[string]FieldState

// Valid reports whether every field is valid.
func (s State) Valid() bool {
	for _, fs := range s {
		if !fs.Valid {
			return false
		}
	}
	return true
}

// Errors returns the error messages of invalid fields keyed by path.
func (s State) Errors() map[string][]string {
	out := make(map[string][]string)
	for path, fs := range s {
		if len(fs.Errors) > 0 {
			out[path] = append([]string(nil), fs.Errors...)
		}
	}
	return out
}

// Visible returns the visible paths in the given order.
func (s State) Visible(order []string) []string {
	var out []string
	for _, path := range order {
		if fs, ok := s[path]; ok && fs.Visible {
			out = append(out, path)
		}
	}
	return out
}

// Computation is the result of a single Compute call.
type Computation struct {
	// Fields holds the state of every field keyed by path.
	Fields State
	// Paths lists field paths in section/field array order, the rendering
	// order.
	Paths []string
	// EvalOrder lists field paths in the dependency order used to compute
	// visibility and formulas.
	EvalOrder []string
	// Data is a copy of the input captured data with pre-filled, default,
	// and computed values applied. Values of hidden fields are retained.
	Data map[string]any
}

// Compute runs the pre-fill, visibility, auto-calculate, and validation
// passes. The input map is never modified.
func (i *Interpreter) Compute(ctx context.Context, t *schema.Template, data map[string]any) (Computation, error) {
	if t == nil {
		return Computation{}, ErrNilTemplate
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out := Computation{
		Fields: make(State),
		Data:   schema.CloneData(data),
	}
	if out.Data == nil {
		out.Data = make(map[string]any)
	}

	refs := t.Fields()
	byPath := make(map[string]schema.FieldRef, len(refs))
	for _, ref := range refs {
		if _, dup := byPath[ref.Path]; dup {
			continue
		}
		byPath[ref.Path] = ref
		out.Paths = append(out.Paths, ref.Path)
		out.Fields[ref.Path] = FieldState{Path: ref.Path}
	}

	graph := dependency.Build(t)
	order, cycleErr := graph.Order()
	out.EvalOrder = order
	degraded := degradedFields(graph, cycleErr)

	if err := i.prefill(ctx, out, refs); err != nil {
		return Computation{}, err
	}
	seedDefaults(out, refs)

	compiled := make(map[string]*formula.Expression)
	for _, path := range order {
		ref := byPath[path]
		fs := out.Fields[path]

		if err, ok := degraded[path]; ok {
			fs.Degraded = err
			fs.Visible = false
			out.Fields[path] = fs
			continue
		}

		visible, err := visibility.Visible(i.visibility, path, ref.Field.ShowIf, visibility.Context{
			Values: out.Data,
			Extras: i.extras,
		})
		if err != nil {
			fs.Degraded = fmt.Errorf("interpreter: visibility of %s: %w", path, err)
			visible = false
		}
		fs.Visible = visible

		if ref.Field.AutoCalculate && strings.TrimSpace(ref.Field.Formula) != "" {
			fs.Computed = true
			result, err := evalFormula(compiled, path, ref.Field.Formula, out.Data)
			if err != nil {
				fs.Errors = append(fs.Errors, err.Error())
				result = nil
			}
			out.Data[path] = result
		}
		out.Fields[path] = fs
	}

	for _, path := range out.Paths {
		ref := byPath[path]
		fs := out.Fields[path]
		fs.Value = out.Data[path]
		validateField(&fs, *ref.Field)
		out.Fields[path] = fs
	}

	return out, nil
}

// ComputeFieldState is a convenience wrapper returning only the field states.
func ComputeFieldState(ctx context.Context, t *schema.Template, data map[string]any, opts ...Option) (State, error) {
	result, err := New(opts...).Compute(ctx, t, data)
	if err != nil {
		return nil, err
	}
	return result.Fields, nil
}

func (i *Interpreter) prefill(ctx context.Context, out Computation, refs []schema.FieldRef) error {
	if i.resolver == nil {
		return nil
	}
	for _, ref := range refs {
		if ref.Field.PrefillFrom == "" || present(out.Data, ref.Path) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		resolved, ok, err := i.resolver.Resolve(ctx, ref.Field.PrefillFrom)
		fs := out.Fields[ref.Path]
		switch {
		case err != nil:
			fs.Errors = append(fs.Errors, fmt.Sprintf("prefill from %q failed: %v", ref.Field.PrefillFrom, err))
		case ok && resolved != nil:
			out.Data[ref.Path] = schema.CloneValue(resolved)
			fs.Prefilled = true
		}
		out.Fields[ref.Path] = fs
	}
	return nil
}

func seedDefaults(out Computation, refs []schema.FieldRef) {
	for _, ref := range refs {
		if ref.Field.DefaultValue == nil || ref.Field.AutoCalculate || present(out.Data, ref.Path) {
			continue
		}
		out.Data[ref.Path] = schema.CloneValue(ref.Field.DefaultValue)
		fs := out.Fields[ref.Path]
		fs.Defaulted = true
		out.Fields[ref.Path] = fs
	}
}

func present(data map[string]any, path string) bool {
	v, ok := data[path]
	return ok && v != nil
}

func degradedFields(graph *dependency.Graph, cycleErr error) map[string]error {
	out := make(map[string]error)
	for _, missing := range graph.Missing {
		if _, ok := out[missing.From]; ok {
			continue
		}
		out[missing.From] = &validation.ReferenceError{From: missing.From, Ref: missing.Ref, Kind: missing.Kind}
	}
	for _, bad := range graph.Formulas {
		if _, ok := out[bad.Path]; ok {
			continue
		}
		out[bad.Path] = bad.Err
	}
	if cycleErr == nil {
		return out
	}
	for _, cycle := range graph.Cycles() {
		for _, path := range cycle.Members {
			if _, ok := out[path]; !ok {
				out[path] = cycle
			}
		}
	}
	return out
}

func evalFormula(cache map[string]*formula.Expression, path, src string, data map[string]any) (any, error) {
	expr, ok := cache[path]
	if !ok {
		parsed, err := formula.Parse(src)
		if err != nil {
			return nil, err
		}
		cache[path] = parsed
		expr = parsed
	}
	return expr.Eval(formula.MapLookup(data))
}

func validateField(fs *FieldState, field schema.Field) {
	if !fs.Visible {
		// Hidden fields are never required and keep their value untouched.
		fs.Valid = true
		fs.Errors = nil
		return
	}

	typed, err := value.For(field, fs.Value)
	if err != nil {
		fs.Errors = append(fs.Errors, typeMessage(field, err))
	} else {
		fs.Typed = typed
		if field.Required && typed.Empty() {
			fs.Errors = append(fs.Errors, fmt.Sprintf("%s is required", field.Label()))
		}
	}
	fs.Valid = len(fs.Errors) == 0
}

func typeMessage(field schema.Field, err error) string {
	switch {
	case errors.Is(err, value.ErrNotNumber):
		return fmt.Sprintf("%s must be a number", field.Label())
	case errors.Is(err, value.ErrNotTime):
		return fmt.Sprintf("%s must be a valid %s", field.Label(), field.Type)
	case errors.Is(err, value.ErrNotBool):
		return fmt.Sprintf("%s must be yes or no", field.Label())
	case errors.Is(err, value.ErrNotOption):
		return fmt.Sprintf("%s must be one of: %s", field.Label(), strings.Join(field.Options, ", "))
	default:
		return fmt.Sprintf("%s: %v", field.Label(), err)
	}
}
