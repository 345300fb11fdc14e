package visibility

import (
	"testing"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

func TestEqualityEvaluator(t *testing.T) {
	t.Parallel()

	eval := New()
	rule := schema.ShowIf{Field: "sec1.status", Value: "rejected"}

	ok, err := eval.Eval("sec1.reason", rule, Context{Values: map[string]any{"sec1.status": "approved"}})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected hidden while status is approved")
	}

	ok, err = eval.Eval("sec1.reason", rule, Context{Values: map[string]any{"sec1.status": "rejected"}})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected visible while status is rejected")
	}
}

func TestEqualityCoercesBooleans(t *testing.T) {
	t.Parallel()

	rule := schema.ShowIf{Field: "sec1.damaged", Value: true}
	ok, err := New().Eval("sec1.details", rule, Context{Values: map[string]any{"sec1.damaged": "true"}})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected string true to match boolean target")
	}
}

func TestVisibleWithoutRule(t *testing.T) {
	t.Parallel()

	ok, err := Visible(nil, "sec1.any", nil, Context{})
	if err != nil || !ok {
		t.Fatalf("expected visible without rule, got %v %v", ok, err)
	}
}

func TestEvaluatorFunc(t *testing.T) {
	t.Parallel()

	called := false
	eval := EvaluatorFunc(func(fieldPath string, rule schema.ShowIf, ctx Context) (bool, error) {
		called = true
		_, isAdmin := ctx.Extras["admin"]
		return isAdmin, nil
	})

	ok, err := Visible(eval, "sec1.notes", &schema.ShowIf{Field: "sec1.x"}, Context{Extras: map[string]any{"admin": true}})
	if err != nil {
		t.Fatalf("Visible returned error: %v", err)
	}
	if !called || !ok {
		t.Fatalf("expected custom evaluator to run and return true")
	}
}
