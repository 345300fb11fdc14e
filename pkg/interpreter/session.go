package interpreter

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

var (
	// ErrUnknownField is returned when a mutation targets a path the template
	// does not declare.
	ErrUnknownField = errors.New("interpreter: unknown field")
	// ErrComputedField is returned when a mutation targets an auto-calculated
	// field. Computed values are derived, never edited.
	ErrComputedField = errors.New("interpreter: field is computed")
)

// Session owns one captured-data map for one template and recomputes the
// field state synchronously after every mutation. A Session is not safe for
// concurrent use; each editor holds its own.
type Session struct {
	interp   *Interpreter
	template schema.Template
	current  Computation
}

// NewSession copies t and data and performs the initial computation, which
// seeds pre-filled and default values.
func NewSession(ctx context.Context, interp *Interpreter, t schema.Template, data map[string]any) (*Session, error) {
	if interp == nil {
		interp = New()
	}
	s := &Session{interp: interp, template: t.Clone()}
	if err := s.recompute(ctx, data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) recompute(ctx context.Context, data map[string]any) error {
	result, err := s.interp.Compute(ctx, &s.template, data)
	if err != nil {
		return err
	}
	s.current = result
	return nil
}

func (s *Session) field(path string) (schema.FieldRef, error) {
	ref, ok := s.template.Lookup(path)
	if !ok {
		return schema.FieldRef{}, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	return ref, nil
}

// Set stores a user-supplied value at path and recomputes.
func (s *Session) Set(ctx context.Context, path string, v any) (State, error) {
	ref, err := s.field(path)
	if err != nil {
		return nil, err
	}
	if ref.Field.AutoCalculate {
		return nil, fmt.Errorf("%w: %q", ErrComputedField, path)
	}
	next := schema.CloneData(s.current.Data)
	next[path] = schema.CloneValue(v)
	if err := s.recompute(ctx, next); err != nil {
		return nil, err
	}
	return s.State(), nil
}

// Unset removes the value at path and recomputes. Pre-fill and default
// values are seeded again because the entry is absent.
func (s *Session) Unset(ctx context.Context, path string) (State, error) {
	if _, err := s.field(path); err != nil {
		return nil, err
	}
	next := schema.CloneData(s.current.Data)
	delete(next, path)
	if err := s.recompute(ctx, next); err != nil {
		return nil, err
	}
	return s.State(), nil
}

// Refresh recomputes without a mutation, for example after the attribute
// resolver starts returning new data.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	if err := s.recompute(ctx, s.current.Data); err != nil {
		return nil, err
	}
	return s.State(), nil
}

// Template returns a copy of the session template.
func (s *Session) Template() schema.Template {
	return s.template.Clone()
}

// Values returns a copy of the captured data including computed values.
func (s *Session) Values() map[string]any {
	return schema.CloneData(s.current.Data)
}

// State returns a copy of the latest field states.
func (s *Session) State() State {
	out := make(State, len(s.current.Fields))
	for path, fs := range s.current.Fields {
		fs.Errors = append([]string(nil), fs.Errors...)
		out[path] = fs
	}
	return out
}

// Paths returns field paths in rendering order.
func (s *Session) Paths() []string {
	return append([]string(nil), s.current.Paths...)
}

// Valid reports whether every field currently validates.
func (s *Session) Valid() bool {
	return s.current.Fields.Valid()
}
