package orchestrator

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

func sampleLayout() layout.Layout {
	return layout.Layout{Sections: []layout.Block{
		{SectionID: layout.HeaderSectionID, BlockType: layout.BlockHeader, Content: layout.Content{Title: "Report"}},
		{SectionID: "general", BlockType: layout.BlockDetailEntry, Content: layout.Content{Title: "General"}, Options: layout.Options{Columns: 2}},
		{SectionID: "photos.general.roof", BlockType: layout.BlockPhotoGrid, Content: layout.Content{Title: "Roof"}},
		{SectionID: layout.SignatureSectionID, BlockType: layout.BlockSignatureBox, Content: layout.Content{Title: layout.SignatureTitle}},
	}}
}

func TestPresetTransformerAppliesPatches(t *testing.T) {
	t.Parallel()
	preset, err := NewPresetTransformer([]byte(`
signature_title: Approvals
blocks:
  general:
    title: Site details
    description: Captured on arrival
    columns: 1
  photos.general.roof:
    hide: true
`))
	if err != nil {
		t.Fatalf("NewPresetTransformer: %v", err)
	}

	l := sampleLayout()
	if err := preset.Transform(context.Background(), nil, &l); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	var ids []string
	for _, block := range l.Sections {
		ids = append(ids, block.SectionID)
	}
	if diff := cmp.Diff([]string{layout.HeaderSectionID, "general", layout.SignatureSectionID}, ids); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	general := l.Sections[1]
	if general.Content.Title != "Site details" || general.Content.Description != "Captured on arrival" || general.Options.Columns != 1 {
		t.Fatalf("patch not applied: %#v", general)
	}
	if l.Sections[2].Content.Title != "Approvals" {
		t.Fatalf("signature title not applied: %q", l.Sections[2].Content.Title)
	}
}

func TestPresetTransformerAcceptsJSON(t *testing.T) {
	t.Parallel()
	preset, err := NewPresetTransformer([]byte(`{"blocks":{"general":{"columns":3}}}`))
	if err != nil {
		t.Fatalf("NewPresetTransformer: %v", err)
	}
	l := sampleLayout()
	if err := preset.Transform(context.Background(), nil, &l); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if l.Sections[1].Options.Columns != 3 {
		t.Fatalf("expected 3 columns, got %d", l.Sections[1].Options.Columns)
	}
}

func TestPresetTransformerUnknownBlock(t *testing.T) {
	t.Parallel()
	preset, err := NewPresetTransformer([]byte("blocks:\n  removed_section:\n    hide: true\n"))
	if err != nil {
		t.Fatalf("NewPresetTransformer: %v", err)
	}
	l := sampleLayout()
	err = preset.Transform(context.Background(), nil, &l)
	if err == nil || !strings.Contains(err.Error(), "removed_section") {
		t.Fatalf("expected unknown block error, got %v", err)
	}
}

func TestPresetTransformerFromFS(t *testing.T) {
	t.Parallel()
	files := fstest.MapFS{"presets/compact.yaml": {Data: []byte("blocks:\n  general:\n    columns: 1\n")}}

	preset, err := NewPresetTransformerFromFS(files, "presets/compact.yaml")
	if err != nil {
		t.Fatalf("NewPresetTransformerFromFS: %v", err)
	}
	l := sampleLayout()
	if err := preset.Transform(context.Background(), nil, &l); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if l.Sections[1].Options.Columns != 1 {
		t.Fatal("preset from fs not applied")
	}

	if _, err := NewPresetTransformerFromFS(files, "presets/missing.yaml"); err == nil {
		t.Fatal("expected error for missing preset")
	}
}

func TestPresetTransformerRejectsEmptyDocument(t *testing.T) {
	t.Parallel()
	if _, err := NewPresetTransformer([]byte("  \n")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestTransformerFunc(t *testing.T) {
	t.Parallel()
	var fn TransformerFunc = func(_ context.Context, _ *schema.Template, l *layout.Layout) error {
		l.Sections = l.Sections[:1]
		return nil
	}
	l := sampleLayout()
	if err := fn.Transform(context.Background(), nil, &l); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(l.Sections) != 1 {
		t.Fatalf("expected 1 block, got %d", len(l.Sections))
	}
}
