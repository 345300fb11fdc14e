// Package storetest holds the behaviour every store.Store implementation
// must share. Implementation packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

// Fixture returns a small valid template.
func Fixture(id string) schema.Template {
	return schema.Template{
		ID:       id,
		Name:     "Site inspection",
		Version:  1,
		Industry: "construction",
		Category: "inspection",
		Sections: []schema.Section{{
			ID:   "sec1",
			Name: "General",
			Fields: []schema.Field{
				{ID: "name", Name: "Name", Type: schema.FieldTypeText, Required: true},
				{ID: "status", Type: schema.FieldTypeSelect, Options: []string{"approved", "rejected"}},
				{ID: "photo", Type: schema.FieldTypePhoto},
			},
		}},
	}
}

// Run executes the shared suite.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) { testCreateGet(t, factory(t)) })
	t.Run("replace is conditional", func(t *testing.T) { testReplace(t, factory(t)) })
	t.Run("usage locks", func(t *testing.T) { testUsageLocks(t, factory(t)) })
	t.Run("soft delete", func(t *testing.T) { testSoftDelete(t, factory(t)) })
	t.Run("list filters", func(t *testing.T) { testList(t, factory(t)) })
	t.Run("data and layouts", func(t *testing.T) { testDataAndLayouts(t, factory(t)) })
	t.Run("attributes", func(t *testing.T) { testAttributes(t, factory(t)) })
}

func testCreateGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.CreateTemplate(ctx, Fixture("tpl-1"))
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if created.Revision != 1 || created.Usages != 0 {
		t.Fatalf("unexpected bookkeeping: %+v", created)
	}
	if _, err := s.CreateTemplate(ctx, Fixture("tpl-1")); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetTemplate(ctx, "tpl-1")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if diff := cmp.Diff(Fixture("tpl-1"), got.Template); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.GetTemplate(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testReplace(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.CreateTemplate(ctx, Fixture("tpl-r"))
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	next := created.Template.Clone()
	next.Name = "Renamed"
	replaced, err := s.ReplaceTemplate(ctx, next, created.Revision)
	if err != nil {
		t.Fatalf("ReplaceTemplate: %v", err)
	}
	if replaced.Revision <= created.Revision || replaced.Template.Name != "Renamed" {
		t.Fatalf("unexpected replace result: %+v", replaced)
	}

	stale := created.Template.Clone()
	stale.Name = "Stale"
	if _, err := s.ReplaceTemplate(ctx, stale, created.Revision); !errors.Is(err, store.ErrRevisionMismatch) {
		t.Fatalf("expected ErrRevisionMismatch, got %v", err)
	}

	if _, _, err := s.AddUsage(ctx, "tpl-r", "contract-1"); err != nil {
		t.Fatalf("AddUsage: %v", err)
	}
	current, err := s.GetTemplate(ctx, "tpl-r")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	locked := current.Template.Clone()
	locked.Name = "Edit while locked"
	if _, err := s.ReplaceTemplate(ctx, locked, current.Revision); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	after, err := s.GetTemplate(ctx, "tpl-r")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if after.Template.Name != "Renamed" {
		t.Fatalf("rejected replace changed the stored template: %q", after.Template.Name)
	}
}

func testUsageLocks(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.CreateTemplate(ctx, Fixture("tpl-u")); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, err := s.SetLocked(ctx, "tpl-u", true); !errors.Is(err, store.ErrUnused) {
		t.Fatalf("expected ErrUnused, got %v", err)
	}

	usage, entry, err := s.AddUsage(ctx, "tpl-u", "contract-1")
	if err != nil {
		t.Fatalf("AddUsage: %v", err)
	}
	if !entry.Template.IsLocked || entry.Usages != 1 {
		t.Fatalf("expected locked template with one usage, got %+v", entry)
	}
	if _, _, err := s.AddUsage(ctx, "tpl-u", "contract-2"); err != nil {
		t.Fatalf("AddUsage: %v", err)
	}
	count, err := s.CountUsages(ctx, "tpl-u")
	if err != nil || count != 2 {
		t.Fatalf("CountUsages = %d, %v", count, err)
	}
	usages, err := s.ListUsages(ctx, "tpl-u")
	if err != nil || len(usages) != 2 {
		t.Fatalf("ListUsages = %d, %v", len(usages), err)
	}

	if _, err := s.SetLocked(ctx, "tpl-u", false); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	if _, err := s.ReleaseUsage(ctx, usage.ID); err != nil {
		t.Fatalf("ReleaseUsage: %v", err)
	}
	if _, err := s.ReleaseUsage(ctx, usage.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for released usage, got %v", err)
	}
	for _, other := range usages {
		if other.ID == usage.ID {
			continue
		}
		if _, err := s.ReleaseUsage(ctx, other.ID); err != nil {
			t.Fatalf("ReleaseUsage: %v", err)
		}
	}

	entry, err = s.GetTemplate(ctx, "tpl-u")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if entry.Usages != 0 || !entry.Template.IsLocked {
		t.Fatalf("expected unused but still locked template, got %+v", entry)
	}
	unlocked, err := s.SetLocked(ctx, "tpl-u", false)
	if err != nil {
		t.Fatalf("SetLocked(false): %v", err)
	}
	if unlocked.Template.IsLocked {
		t.Fatalf("expected unlocked template")
	}

	public, err := s.SetPublic(ctx, "tpl-u", true)
	if err != nil || !public.Template.IsPublic {
		t.Fatalf("SetPublic = %+v, %v", public, err)
	}
}

func testSoftDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.CreateTemplate(ctx, Fixture("tpl-d")); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	usage, _, err := s.AddUsage(ctx, "tpl-d", "contract-1")
	if err != nil {
		t.Fatalf("AddUsage: %v", err)
	}
	if err := s.SoftDelete(ctx, "tpl-d"); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if _, err := s.ReleaseUsage(ctx, usage.ID); err != nil {
		t.Fatalf("ReleaseUsage: %v", err)
	}
	if err := s.SoftDelete(ctx, "tpl-d"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := s.GetTemplate(ctx, "tpl-d"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted template to be hidden, got %v", err)
	}
	all, err := s.ListTemplates(ctx, store.ListOptions{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(all) != 1 || all[0].DeletedAt == nil {
		t.Fatalf("expected deleted entry when IncludeDeleted is set, got %+v", all)
	}
}

func testList(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := Fixture("tpl-a")
	b := Fixture("tpl-b")
	b.Industry = "energy"
	b.IsPublic = true
	for _, tpl := range []schema.Template{a, b} {
		if _, err := s.CreateTemplate(ctx, tpl); err != nil {
			t.Fatalf("CreateTemplate: %v", err)
		}
	}

	all, err := s.ListTemplates(ctx, store.ListOptions{})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListTemplates = %d, %v", len(all), err)
	}
	energy, err := s.ListTemplates(ctx, store.ListOptions{Industry: "energy"})
	if err != nil || len(energy) != 1 || energy[0].Template.ID != "tpl-b" {
		t.Fatalf("industry filter = %+v, %v", energy, err)
	}
	public, err := s.ListTemplates(ctx, store.ListOptions{PublicOnly: true})
	if err != nil || len(public) != 1 {
		t.Fatalf("public filter = %+v, %v", public, err)
	}
}

func testDataAndLayouts(t *testing.T, s store.Store) {
	ctx := context.Background()
	saved, err := s.SaveData(ctx, store.CapturedRecord{
		TemplateID:      "tpl-1",
		TemplateVersion: 1,
		Data:            map[string]any{"sec1.name": "ACME", "sec1.photo": []any{"f1"}},
	})
	if err != nil {
		t.Fatalf("SaveData: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	loaded, err := s.LoadData(ctx, saved.ID)
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if diff := cmp.Diff(saved.Data, loaded.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	list, err := s.ListData(ctx, "tpl-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListData = %d, %v", len(list), err)
	}

	tpl := Fixture("tpl-1")
	l, err := layout.Generate(&tpl)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := s.SaveLayout(ctx, "tpl-1", l); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	got, err := s.LoadLayout(ctx, "tpl-1")
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	if len(got.Sections) != len(l.Sections) || !got.Meta.GeneratedAt.Equal(l.Meta.GeneratedAt) {
		t.Fatalf("layout mismatch: %+v", got)
	}
	if _, err := s.LoadLayout(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testAttributes(t *testing.T, s store.Store) {
	ctx := context.Background()
	attrs := map[string]any{"client": map[string]any{"name": "ACME"}, "site_address": "1 Main St"}
	if err := s.PutAttributes(ctx, "contract-1", attrs); err != nil {
		t.Fatalf("PutAttributes: %v", err)
	}

	resolver := store.AttributeResolver(s, "contract-1")
	got, ok, err := resolver.Resolve(ctx, "client.name")
	if err != nil || !ok || got != "ACME" {
		t.Fatalf("Resolve(client.name) = %v, %v, %v", got, ok, err)
	}
	got, ok, err = resolver.Resolve(ctx, "site_address")
	if err != nil || !ok || got != "1 Main St" {
		t.Fatalf("Resolve(site_address) = %v, %v, %v", got, ok, err)
	}
	if _, ok, _ := resolver.Resolve(ctx, "missing"); ok {
		t.Fatalf("expected missing attribute to resolve to nothing")
	}

	unknown := store.AttributeResolver(s, "contract-404")
	if _, ok, err := unknown.Resolve(ctx, "client.name"); ok || err != nil {
		t.Fatalf("unknown subject should resolve to nothing, got %v %v", ok, err)
	}
}
