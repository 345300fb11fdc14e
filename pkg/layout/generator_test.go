package layout

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

var fixedClock = WithClock(func() time.Time {
	return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
})

func blockTypes(l Layout) []BlockType {
	out := make([]BlockType, 0, len(l.Sections))
	for _, block := range l.Sections {
		out = append(out, block.BlockType)
	}
	return out
}

func TestGenerateSingleSectionWithPhoto(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{
		ID:   "tpl-a",
		Name: "Scenario A",
		Sections: []schema.Section{{
			ID:   "sec1",
			Name: "Details",
			Fields: []schema.Field{
				{ID: "name", Type: schema.FieldTypeText, Required: true},
				{ID: "photo1", Type: schema.FieldTypePhoto},
			},
		}},
	}

	got, err := Generate(tpl, fixedClock)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if diff := cmp.Diff([]BlockType{BlockHeader, BlockDetailEntry, BlockPhotoGrid}, blockTypes(got)); diff != "" {
		t.Fatalf("block types mismatch (-want +got):\n%s", diff)
	}

	detail := got.Sections[1]
	if detail.Options.Columns != 2 || detail.BindingRules.TemplateSection != "sec1" {
		t.Fatalf("unexpected detail block: %+v", detail)
	}
	photo := got.Sections[2]
	if photo.BindingRules.FilterByField != "sec1.photo1" || photo.SectionID != "photos.sec1.photo1" {
		t.Fatalf("unexpected photo block: %+v", photo)
	}
	if got.Meta.GeneratedFrom != "tpl-a" || got.Meta.TemplateName != "Scenario A" {
		t.Fatalf("unexpected meta: %+v", got.Meta)
	}
}

func evidenceTemplate() *schema.Template {
	return &schema.Template{
		ID:      "tpl-b",
		Name:    "Evidence",
		Version: 3,
		Sections: []schema.Section{
			{
				ID: "intro",
				Fields: []schema.Field{
					{ID: "summary", Type: schema.FieldTypeTextarea},
					{ID: "before", Type: schema.FieldTypePhoto, Name: "Before"},
					{ID: "inspector", Type: schema.FieldTypeSignature, Name: "Inspector"},
				},
			},
			{
				ID: "evidence_only",
				Fields: []schema.Field{
					{ID: "during", Type: schema.FieldTypePhoto},
				},
			},
			{
				ID: "closing",
				Fields: []schema.Field{
					{ID: "count", Type: schema.FieldTypeNumber},
					{ID: "after", Type: schema.FieldTypePhoto},
					{ID: "client", Type: schema.FieldTypeSignature, Name: "Client"},
				},
			},
		},
	}
}

func TestGenerateDefersEvidenceToTheEnd(t *testing.T) {
	t.Parallel()

	got, err := Generate(evidenceTemplate(), fixedClock)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	want := []BlockType{
		BlockHeader,
		BlockDetailEntry,
		BlockDetailEntry,
		BlockPhotoGrid,
		BlockPhotoGrid,
		BlockPhotoGrid,
		BlockSignatureBox,
	}
	if diff := cmp.Diff(want, blockTypes(got)); diff != "" {
		t.Fatalf("block types mismatch (-want +got):\n%s", diff)
	}

	if got.Sections[1].Options.Columns != 1 {
		t.Fatalf("textarea section must use one column, got %d", got.Sections[1].Options.Columns)
	}
	if got.Sections[2].Options.Columns != 2 {
		t.Fatalf("regular section must use two columns, got %d", got.Sections[2].Options.Columns)
	}

	var photoPaths []string
	for _, block := range got.Sections[3:6] {
		photoPaths = append(photoPaths, block.BindingRules.FilterByField)
	}
	if diff := cmp.Diff([]string{"intro.before", "evidence_only.during", "closing.after"}, photoPaths); diff != "" {
		t.Fatalf("photo order mismatch (-want +got):\n%s", diff)
	}

	signature := got.Sections[6]
	wantSigners := []Signer{{Path: "intro.inspector", Label: "Inspector"}, {Path: "closing.client", Label: "Client"}}
	if diff := cmp.Diff(wantSigners, signature.Options.Signers); diff != "" {
		t.Fatalf("signers mismatch (-want +got):\n%s", diff)
	}
	if got.Count(BlockPhotoGrid) != 3 || got.Count(BlockSignatureBox) != 1 {
		t.Fatalf("unexpected counts: photos=%d signatures=%d", got.Count(BlockPhotoGrid), got.Count(BlockSignatureBox))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(fixedClock)
	first, err := gen.Generate(evidenceTemplate())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	second, err := gen.Generate(evidenceTemplate())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("layouts differ (-first +second):\n%s", diff)
	}
}

func TestGenerateWithoutSignaturesOrRegularFields(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{{
		ID:     "gallery",
		Fields: []schema.Field{{ID: "p", Type: schema.FieldTypePhoto}},
	}}}
	got, err := Generate(tpl, fixedClock)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if diff := cmp.Diff([]BlockType{BlockHeader, BlockPhotoGrid}, blockTypes(got)); diff != "" {
		t.Fatalf("block types mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateBlockIDsAreUnique(t *testing.T) {
	t.Parallel()

	tpl := &schema.Template{Sections: []schema.Section{
		{ID: "a_b", Fields: []schema.Field{{ID: "c", Type: schema.FieldTypePhoto}}},
		{ID: "a", Fields: []schema.Field{{ID: "b_c", Type: schema.FieldTypePhoto}}},
		{ID: "header", Fields: []schema.Field{{ID: "note", Type: schema.FieldTypeText}}},
		{ID: "signatures", Fields: []schema.Field{{ID: "sig", Type: schema.FieldTypeSignature}, {ID: "who", Type: schema.FieldTypeText}}},
	}}

	got, err := Generate(tpl, fixedClock)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, block := range got.Sections {
		if seen[block.SectionID] {
			t.Fatalf("duplicate section_id %q", block.SectionID)
		}
		seen[block.SectionID] = true
		ids = append(ids, block.SectionID)
	}
	want := []string{HeaderSectionID, "header", "signatures", "photos.a_b.c", "photos.a.b_c", SignatureSectionID}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("section ids mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateNilTemplate(t *testing.T) {
	t.Parallel()

	if _, err := Generate(nil); !errors.Is(err, ErrNilTemplate) {
		t.Fatalf("expected ErrNilTemplate, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	original, err := Generate(evidenceTemplate(), fixedClock)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	copied := original.Clone()
	copied.Sections[6].Options.Signers[0].Label = "changed"
	copied.Sections[0].Options.Header.TemplateName = "changed"
	if original.Sections[6].Options.Signers[0].Label != "Inspector" || original.Sections[0].Options.Header.TemplateName != "Evidence" {
		t.Fatalf("Clone shared nested state with the original")
	}
}

func TestBindJoinsCapturedData(t *testing.T) {
	t.Parallel()

	tpl := evidenceTemplate()
	l, err := Generate(tpl, fixedClock)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	data := map[string]any{
		"intro.summary":   "All good",
		"closing.count":   4,
		"intro.before":    []any{"file_1", map[string]any{"ref": "file_2"}},
		"intro.inspector": "sig_1",
	}
	state := interpreter.State{"closing.count": {Path: "closing.count", Visible: false}}

	bound := Bind(l, tpl, data, state)
	if len(bound) != len(l.Sections) {
		t.Fatalf("expected one bound block per block")
	}
	if len(bound[0].Entries) != 0 {
		t.Fatalf("header binds no fields")
	}
	if bound[1].Entries[0].Text != "All good" {
		t.Fatalf("unexpected detail entry: %+v", bound[1].Entries)
	}
	if len(bound[2].Entries) != 0 {
		t.Fatalf("hidden field must be left out, got %+v", bound[2].Entries)
	}
	if diff := cmp.Diff([]string{"file_1", "file_2"}, bound[3].Entries[0].Refs); diff != "" {
		t.Fatalf("photo refs mismatch (-want +got):\n%s", diff)
	}
	if len(bound[6].Entries) != 2 || bound[6].Entries[0].Refs[0] != "sig_1" {
		t.Fatalf("unexpected signature entries: %+v", bound[6].Entries)
	}
}
