package interpreter

import (
	"context"
	"errors"
	"testing"
)

func TestSessionRecomputesOnEveryMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	session, err := NewSession(ctx, New(WithAttributeResolver(Attributes{"client.name": "ACME"})), *inspectionTemplate(), nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	if got := session.Values()["sec1.client"]; got != "ACME" {
		t.Fatalf("expected prefilled client, got %v", got)
	}

	if _, err := session.Set(ctx, "sec1.a", 3); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	state, err := session.Set(ctx, "sec1.b", "4")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if state["sec1.total"].Value != 7.0 {
		t.Fatalf("expected total 7, got %v", state["sec1.total"].Value)
	}

	state, err = session.Set(ctx, "sec1.status", "rejected")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !state["sec1.reason"].Visible || session.Valid() {
		t.Fatalf("expected visible required reason to invalidate the session")
	}

	if _, err := session.Set(ctx, "sec1.reason", "Cracked beam"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !session.Valid() {
		t.Fatalf("expected session to be valid: %v", session.State().Errors())
	}

	// Hiding the reason keeps its value so toggling back restores it.
	if _, err := session.Set(ctx, "sec1.status", "approved"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := session.Values()["sec1.reason"]; got != "Cracked beam" {
		t.Fatalf("expected hidden value to be retained, got %v", got)
	}
}

func TestSessionRejectsComputedAndUnknownFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	session, err := NewSession(ctx, nil, *inspectionTemplate(), nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	if _, err := session.Set(ctx, "sec1.total", 10); !errors.Is(err, ErrComputedField) {
		t.Fatalf("expected ErrComputedField, got %v", err)
	}
	if _, err := session.Set(ctx, "sec9.nope", 1); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := session.Unset(ctx, "nope"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField on Unset, got %v", err)
	}
}

func TestSessionUnsetReseedsDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	session, err := NewSession(ctx, nil, *inspectionTemplate(), map[string]any{"sec1.status": "rejected"})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	state, err := session.Unset(ctx, "sec1.status")
	if err != nil {
		t.Fatalf("Unset returned error: %v", err)
	}
	if state["sec1.status"].Value != "approved" {
		t.Fatalf("expected default to be reseeded, got %v", state["sec1.status"].Value)
	}
	if len(session.Paths()) != 7 {
		t.Fatalf("expected 7 paths, got %d", len(session.Paths()))
	}
}

func TestSessionIsolatedFromCallerTemplate(t *testing.T) {
	t.Parallel()

	tpl := inspectionTemplate()
	session, err := NewSession(context.Background(), nil, *tpl, nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	tpl.Sections[0].Fields[3].AutoCalculate = false
	if _, err := session.Set(context.Background(), "sec1.total", 1); !errors.Is(err, ErrComputedField) {
		t.Fatalf("session must hold its own template copy, got %v", err)
	}
}
