package value

import (
	"errors"
	"testing"

	"github.com/goliatone/go-reportgen/pkg/schema"
)

func TestForDispatchesOnFieldType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		field schema.Field
		raw   any
		kind  Kind
		err   error
		empty bool
	}{
		{name: "blank text", field: schema.Field{Type: schema.FieldTypeText}, raw: "  ", kind: KindEmpty, empty: true},
		{name: "text", field: schema.Field{Type: schema.FieldTypeText}, raw: "hello", kind: KindText},
		{name: "number string", field: schema.Field{Type: schema.FieldTypeNumber}, raw: "3.5", kind: KindNumber},
		{name: "number int", field: schema.Field{Type: schema.FieldTypeNumber}, raw: 4, kind: KindNumber},
		{name: "number invalid", field: schema.Field{Type: schema.FieldTypeNumber}, raw: "abc", err: ErrNotNumber},
		{name: "date", field: schema.Field{Type: schema.FieldTypeDate}, raw: "2024-02-29", kind: KindTime},
		{name: "date invalid", field: schema.Field{Type: schema.FieldTypeDate}, raw: "2023-02-30", err: ErrNotTime},
		{name: "datetime", field: schema.Field{Type: schema.FieldTypeDateTime}, raw: "2024-05-01T10:30", kind: KindTime},
		{name: "datetime invalid", field: schema.Field{Type: schema.FieldTypeDateTime}, raw: "tomorrow", err: ErrNotTime},
		{name: "checkbox unchecked", field: schema.Field{Type: schema.FieldTypeCheckbox}, raw: false, kind: KindBool, empty: true},
		{name: "checkbox checked", field: schema.Field{Type: schema.FieldTypeCheckbox}, raw: "true", kind: KindBool},
		{name: "checkbox no", field: schema.Field{Type: schema.FieldTypeCheckbox}, raw: "no", kind: KindBool, empty: true},
		{name: "checkbox off", field: schema.Field{Type: schema.FieldTypeCheckbox}, raw: "OFF", kind: KindBool, empty: true},
		{name: "checkbox on", field: schema.Field{Type: schema.FieldTypeCheckbox}, raw: "on", kind: KindBool},
		{name: "checkbox unknown word", field: schema.Field{Type: schema.FieldTypeCheckbox}, raw: "maybe", err: ErrNotBool},
		{name: "checkbox options", field: schema.Field{Type: schema.FieldTypeCheckbox, Options: []string{"a", "b"}}, raw: []any{"a"}, kind: KindList},
		{name: "checkbox bad option", field: schema.Field{Type: schema.FieldTypeCheckbox, Options: []string{"a"}}, raw: []any{"z"}, err: ErrNotOption},
		{name: "select", field: schema.Field{Type: schema.FieldTypeSelect, Options: []string{"yes", "no"}}, raw: "no", kind: KindText},
		{name: "select bad option", field: schema.Field{Type: schema.FieldTypeRadio, Options: []string{"yes", "no"}}, raw: "maybe", err: ErrNotOption},
		{name: "photo ref", field: schema.Field{Type: schema.FieldTypePhoto}, raw: "file_123", kind: KindReference},
		{name: "photo list", field: schema.Field{Type: schema.FieldTypePhoto}, raw: []any{"f1", "f2"}, kind: KindList},
		{name: "signature object", field: schema.Field{Type: schema.FieldTypeSignature}, raw: map[string]any{"ref": "sig"}, kind: KindObject},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := For(tc.field, tc.raw)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", got.Kind, tc.kind)
			}
			if got.Empty() != tc.empty {
				t.Fatalf("Empty() = %v, want %v", got.Empty(), tc.empty)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	cases := []struct {
		current any
		target  any
		want    bool
	}{
		{"approved", "rejected", false},
		{"rejected", "rejected", true},
		{"3", 3, true},
		{3.0, 3, true},
		{"true", true, true},
		{"no", true, false},
		{"off", false, true},
		{"yes", true, true},
		{"maybe", true, false},
		{"maybe", false, false},
		{false, true, false},
		{nil, nil, true},
		{"", nil, true},
		{[]any{"a", "b"}, "b", true},
		{[]any{"a", "b"}, "c", false},
		{nil, "x", false},
	}

	for _, tc := range cases {
		if got := Equal(tc.current, tc.target); got != tc.want {
			t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.current, tc.target, got, tc.want)
		}
	}
}

func TestStringFormatsWholeNumbers(t *testing.T) {
	t.Parallel()

	if got := String(7.0); got != "7" {
		t.Fatalf("String(7.0) = %q", got)
	}
	if got := String(2.5); got != "2.5" {
		t.Fatalf("String(2.5) = %q", got)
	}
}

func TestBoolWords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    any
		want   bool
		wantOK bool
	}{
		{raw: true, want: true, wantOK: true},
		{raw: "true", want: true, wantOK: true},
		{raw: " Yes ", want: true, wantOK: true},
		{raw: "y", want: true, wantOK: true},
		{raw: "on", want: true, wantOK: true},
		{raw: "1", want: true, wantOK: true},
		{raw: "false", want: false, wantOK: true},
		{raw: "No", want: false, wantOK: true},
		{raw: "n", want: false, wantOK: true},
		{raw: "off", want: false, wantOK: true},
		{raw: "0", want: false, wantOK: true},
		{raw: "", want: false, wantOK: true},
		{raw: "maybe", want: false, wantOK: false},
		{raw: nil, want: false, wantOK: false},
		{raw: 2, want: true, wantOK: true},
		{raw: 0.0, want: false, wantOK: true},
	}

	for _, tc := range cases {
		got, ok := Bool(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("Bool(%#v) = %v, %v; want %v, %v", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}
