package interpreter

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/validation"
	"github.com/goliatone/go-reportgen/pkg/visibility"
)

func inspectionTemplate() *schema.Template {
	return &schema.Template{
		ID:   "tpl-1",
		Name: "Inspection",
		Sections: []schema.Section{
			{
				ID: "sec1",
				Fields: []schema.Field{
					{ID: "client", Type: schema.FieldTypeText, Required: true, PrefillFrom: "client.name"},
					{ID: "status", Type: schema.FieldTypeSelect, Options: []string{"approved", "rejected"}, DefaultValue: "approved"},
					{ID: "reason", Type: schema.FieldTypeTextarea, Required: true, ShowIf: &schema.ShowIf{Field: "sec1.status", Value: "rejected"}},
					{ID: "total", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "sec1.a + sec1.b"},
					{ID: "a", Type: schema.FieldTypeNumber},
					{ID: "b", Type: schema.FieldTypeNumber},
					{ID: "visited", Type: schema.FieldTypeDate},
				},
			},
		},
	}
}

func TestComputeAutoCalculateOverwritesStrayValue(t *testing.T) {
	t.Parallel()

	data := map[string]any{"sec1.a": 3, "sec1.b": 4, "sec1.total": 99}
	result, err := New().Compute(context.Background(), inspectionTemplate(), data)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}

	total := result.Fields["sec1.total"]
	if total.Value != 7.0 || !total.Computed {
		t.Fatalf("expected computed total 7, got %+v", total)
	}
	if data["sec1.total"] != 99 {
		t.Fatalf("Compute mutated the input map: %v", data["sec1.total"])
	}
}

func TestComputeHiddenFieldIsNeverRequired(t *testing.T) {
	t.Parallel()

	data := map[string]any{"sec1.status": "approved", "sec1.client": "ACME", "sec1.reason": "kept"}
	state, err := ComputeFieldState(context.Background(), inspectionTemplate(), data)
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}

	reason := state["sec1.reason"]
	if reason.Visible {
		t.Fatalf("expected reason to be hidden")
	}
	if !reason.Valid || len(reason.Errors) != 0 {
		t.Fatalf("hidden field must be valid, got %+v", reason)
	}
	if reason.Value != "kept" {
		t.Fatalf("hidden field must keep its value, got %v", reason.Value)
	}

	data["sec1.status"] = "rejected"
	data["sec1.reason"] = ""
	state, err = ComputeFieldState(context.Background(), inspectionTemplate(), data)
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	if !state["sec1.reason"].Visible || state["sec1.reason"].Valid {
		t.Fatalf("expected visible and invalid reason, got %+v", state["sec1.reason"])
	}
}

func TestComputePrefillNeverOverwritesUserValue(t *testing.T) {
	t.Parallel()

	resolver := Attributes{"client.name": "Contract Client"}
	interp := New(WithAttributeResolver(resolver))

	result, err := interp.Compute(context.Background(), inspectionTemplate(), nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	client := result.Fields["sec1.client"]
	if client.Value != "Contract Client" || !client.Prefilled {
		t.Fatalf("expected prefilled client, got %+v", client)
	}

	edited := result.Data
	edited["sec1.client"] = "Typed by user"
	again, err := interp.Compute(context.Background(), inspectionTemplate(), edited)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if got := again.Fields["sec1.client"]; got.Value != "Typed by user" || got.Prefilled {
		t.Fatalf("prefill overwrote user value: %+v", got)
	}
}

func TestComputePrefillResolverFailureIsLocal(t *testing.T) {
	t.Parallel()

	resolver := AttributeResolverFunc(func(context.Context, schema.AttributeRef) (any, bool, error) {
		return nil, false, errors.New("contract service unavailable")
	})
	state, err := ComputeFieldState(context.Background(), inspectionTemplate(), nil, WithAttributeResolver(resolver))
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	client := state["sec1.client"]
	if client.Valid || len(client.Errors) != 2 {
		t.Fatalf("expected prefill failure and required errors, got %+v", client)
	}
	if !state["sec1.a"].Valid {
		t.Fatalf("unrelated fields must stay valid")
	}
}

func TestComputeSeedsDefaults(t *testing.T) {
	t.Parallel()

	result, err := New().Compute(context.Background(), inspectionTemplate(), map[string]any{})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	status := result.Fields["sec1.status"]
	if status.Value != "approved" || !status.Defaulted {
		t.Fatalf("expected default status, got %+v", status)
	}
	if result.Fields["sec1.reason"].Visible {
		t.Fatalf("default status should keep reason hidden")
	}
}

func TestComputeTypeChecks(t *testing.T) {
	t.Parallel()

	data := map[string]any{"sec1.client": "x", "sec1.a": "three", "sec1.visited": "2024-13-40", "sec1.status": "maybe"}
	state, err := ComputeFieldState(context.Background(), inspectionTemplate(), data)
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	for _, path := range []string{"sec1.a", "sec1.visited", "sec1.status"} {
		if state[path].Valid {
			t.Fatalf("expected %s to be invalid: %+v", path, state[path])
		}
	}
	if state.Valid() {
		t.Fatalf("expected overall state to be invalid")
	}
	if _, ok := state.Errors()["sec1.a"]; !ok {
		t.Fatalf("expected errors for sec1.a")
	}
}

func TestComputeCheckboxWords(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{{
		ID: "s",
		Fields: []schema.Field{
			{ID: "agree", Name: "Agree", Type: schema.FieldTypeCheckbox, Required: true},
			{ID: "why", Type: schema.FieldTypeText, ShowIf: &schema.ShowIf{Field: "s.agree", Value: true}},
		},
	}}}

	for _, word := range []string{"no", "off", "false", "N"} {
		state, err := ComputeFieldState(context.Background(), tpl, map[string]any{"s.agree": word})
		if err != nil {
			t.Fatalf("ComputeFieldState(%q) returned error: %v", word, err)
		}
		if state.Valid() {
			t.Fatalf("%q must not satisfy a required checkbox: %+v", word, state["s.agree"])
		}
		if diff := cmp.Diff([]string{"Agree is required"}, state["s.agree"].Errors); diff != "" {
			t.Fatalf("%q errors mismatch (-want +got):\n%s", word, diff)
		}
		if state["s.why"].Visible {
			t.Fatalf("%q must not match show_if true", word)
		}
	}

	state, err := ComputeFieldState(context.Background(), tpl, map[string]any{"s.agree": "on"})
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	if !state.Valid() || !state["s.why"].Visible {
		t.Fatalf("expected on to check the box: %+v", state)
	}

	state, err = ComputeFieldState(context.Background(), tpl, map[string]any{"s.agree": "perhaps"})
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Agree must be yes or no"}, state["s.agree"].Errors); diff != "" {
		t.Fatalf("unknown word errors mismatch (-want +got):\n%s", diff)
	}
	if state["s.why"].Visible {
		t.Fatal("unknown word must not match show_if true")
	}
}

func TestComputeVisibilityFollowsDependencyOrder(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{{
		ID: "s",
		Fields: []schema.Field{
			{ID: "alert", Type: schema.FieldTypeText, ShowIf: &schema.ShowIf{Field: "s.big", Value: true}},
			{ID: "big", Type: schema.FieldTypeCheckbox, AutoCalculate: true, Formula: "s.total > 10"},
			{ID: "total", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "s.x * 2"},
			{ID: "x", Type: schema.FieldTypeNumber},
		},
	}}}

	result, err := New().Compute(context.Background(), tpl, map[string]any{"s.x": 6})
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !result.Fields["s.alert"].Visible {
		t.Fatalf("expected alert visible once the forward chain is computed: %+v", result.Fields)
	}
	if diff := cmp.Diff([]string{"s.alert", "s.big", "s.total", "s.x"}, result.Paths); diff != "" {
		t.Fatalf("paths must follow array order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"s.x", "s.total", "s.big", "s.alert"}, result.EvalOrder); diff != "" {
		t.Fatalf("eval order mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDegradesDanglingReferences(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{{
		ID: "s",
		Fields: []schema.Field{
			{ID: "ghosted", Type: schema.FieldTypeText, Required: true, ShowIf: &schema.ShowIf{Field: "s.gone", Value: "x"}},
			{ID: "loop_a", Type: schema.FieldTypeText, Required: true, ShowIf: &schema.ShowIf{Field: "s.loop_b", Value: "x"}},
			{ID: "loop_b", Type: schema.FieldTypeText, ShowIf: &schema.ShowIf{Field: "s.loop_a", Value: "x"}},
			{ID: "ok", Type: schema.FieldTypeText},
		},
	}}}

	state, err := ComputeFieldState(context.Background(), tpl, nil)
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}

	ghosted := state["s.ghosted"]
	var refErr *validation.ReferenceError
	if ghosted.Visible || !ghosted.Valid || !errors.As(ghosted.Degraded, &refErr) {
		t.Fatalf("expected dangling reference to degrade to hidden, got %+v", ghosted)
	}
	var cycleErr *validation.CycleError
	if !errors.As(state["s.loop_a"].Degraded, &cycleErr) || state["s.loop_a"].Visible {
		t.Fatalf("expected cycle member to degrade, got %+v", state["s.loop_a"])
	}
	if !state["s.ok"].Visible {
		t.Fatalf("unrelated field must stay visible")
	}
}

func TestComputeDegradesWholeCycleGroup(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{{
		ID: "s",
		Fields: []schema.Field{
			{ID: "A", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "s.B + s.C"},
			{ID: "B", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "s.A + 1"},
			{ID: "C", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "s.B + 1"},
			{ID: "D", Type: schema.FieldTypeNumber},
		},
	}}}

	state, err := ComputeFieldState(context.Background(), tpl, map[string]any{"s.D": 2})
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	for _, path := range []string{"s.A", "s.B", "s.C"} {
		var cycleErr *validation.CycleError
		if fs := state[path]; fs.Visible || !errors.As(fs.Degraded, &cycleErr) {
			t.Fatalf("expected %s to degrade to hidden, got %+v", path, fs)
		}
	}
	if !state["s.D"].Visible {
		t.Fatal("field outside the cycle must stay visible")
	}
}

func TestComputeFormulaErrorsAreFieldErrors(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{{
		ID: "s",
		Fields: []schema.Field{
			{ID: "n", Type: schema.FieldTypeNumber},
			{ID: "d", Type: schema.FieldTypeNumber},
			{ID: "ratio", Type: schema.FieldTypeNumber, AutoCalculate: true, Formula: "s.n / s.d"},
		},
	}}}
	state, err := ComputeFieldState(context.Background(), tpl, map[string]any{"s.n": 1, "s.d": 0})
	if err != nil {
		t.Fatalf("ComputeFieldState returned error: %v", err)
	}
	ratio := state["s.ratio"]
	if ratio.Valid || ratio.Value != nil {
		t.Fatalf("expected division error on ratio, got %+v", ratio)
	}
}

func TestCustomVisibilityEvaluator(t *testing.T) {
	t.Parallel()

	onlyAdmins := visibility.EvaluatorFunc(func(_ string, _ schema.ShowIf, ctx visibility.Context) (bool, error) {
		return ctx.Extras["role"] == "admin", nil
	})
	interp := New(WithVisibilityEvaluator(onlyAdmins), WithExtras(map[string]any{"role": "admin"}))
	state, err := interp.Compute(context.Background(), inspectionTemplate(), nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !state.Fields["sec1.reason"].Visible {
		t.Fatalf("expected custom evaluator to decide visibility")
	}
}

func TestComputeNilTemplate(t *testing.T) {
	t.Parallel()

	if _, err := New().Compute(context.Background(), nil, nil); !errors.Is(err, ErrNilTemplate) {
		t.Fatalf("expected ErrNilTemplate, got %v", err)
	}
}
