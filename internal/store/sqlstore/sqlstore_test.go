package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/goliatone/go-reportgen/pkg/store"
	"github.com/goliatone/go-reportgen/pkg/store/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	// Each :memory: connection is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

func TestReplaceLeavesRowUntouchedWhenLocked(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTemplate(ctx, storetest.Fixture("tpl-1"))
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, _, err := s.AddUsage(ctx, "tpl-1", "contract-1"); err != nil {
		t.Fatalf("AddUsage: %v", err)
	}

	edited := created.Template.Clone()
	edited.Sections[0].Fields = edited.Sections[0].Fields[:1]
	if _, err := s.ReplaceTemplate(ctx, edited, created.Revision); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	var row templateRow
	if err := s.DB().Where("id = ?", "tpl-1").First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	got, err := row.entry()
	if err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if len(got.Template.Sections[0].Fields) != 3 {
		t.Fatalf("locked template was modified: %+v", got.Template.Sections[0].Fields)
	}
}

func TestNewRejectsNilDB(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
