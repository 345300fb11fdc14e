// Package sqlstore implements store.Store on gorm. SQLite (pure Go driver)
// is the default dialect; MySQL is selected with the "mysql" type.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"k8s.io/klog/v2"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
)

// Store is a gorm-backed store.Store.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and migrates the schema. dbType is "mysql"
// or anything else for SQLite.
func Open(dbType, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dbType, err)
	}
	s, err := New(db)
	if err != nil {
		return nil, err
	}
	klog.V(2).Infof("sqlstore: opened %s database", dialector.Name())
	return s, nil
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is nil")
	}
	if err := db.AutoMigrate(models()...); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB { return s.db }

// Close implements store.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", store.ErrNotFound, kind, id)
}

func loadTemplate(tx *gorm.DB, id string) (templateRow, error) {
	var row templateRow
	if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return templateRow{}, notFound("template", id)
		}
		return templateRow{}, err
	}
	return row, nil
}

func bump(now time.Time, updates map[string]any) map[string]any {
	updates["revision"] = gorm.Expr("revision + 1")
	updates["updated_at"] = now
	return updates
}

// CreateTemplate implements store.TemplateStore.
func (s *Store) CreateTemplate(ctx context.Context, t schema.Template) (store.Entry, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row, err := newTemplateRow(t)
	if err != nil {
		return store.Entry{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Unscoped().Model(&templateRow{}).Where("id = ?", t.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: template %q", store.ErrDuplicate, t.ID)
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			klog.Errorf("sqlstore: create template %s: %v", t.ID, err)
		}
		return store.Entry{}, err
	}
	return row.entry()
}

// GetTemplate implements store.TemplateStore.
func (s *Store) GetTemplate(ctx context.Context, id string) (store.Entry, error) {
	row, err := loadTemplate(s.db.WithContext(ctx), id)
	if err != nil {
		return store.Entry{}, err
	}
	return row.entry()
}

// ListTemplates implements store.TemplateStore.
func (s *Store) ListTemplates(ctx context.Context, opts store.ListOptions) ([]store.Entry, error) {
	q := s.db.WithContext(ctx).Model(&templateRow{})
	if opts.IncludeDeleted {
		q = q.Unscoped()
	}
	if opts.Industry != "" {
		q = q.Where("industry = ?", opts.Industry)
	}
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	if opts.PublicOnly {
		q = q.Where("is_public = ?", true)
	}

	var rows []templateRow
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// ReplaceTemplate implements store.TemplateStore with a single conditional
// UPDATE guarded by the lock flag and the revision.
func (s *Store) ReplaceTemplate(ctx context.Context, t schema.Template, expectedRevision int64) (store.Entry, error) {
	sections, err := encode(t.Sections)
	if err != nil {
		return store.Entry{}, fmt.Errorf("sqlstore: encode sections of %q: %w", t.ID, err)
	}

	var out templateRow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&templateRow{}).
			Where("id = ? AND is_locked = ? AND revision = ?", t.ID, false, expectedRevision).
			Updates(bump(s.timestamp(), map[string]any{
				"name":        t.Name,
				"version":     t.Version,
				"industry":    t.Industry,
				"category":    t.Category,
				"report_type": t.ReportType,
				"is_public":   t.IsPublic,
				"sections":    sections,
			}))
		if res.Error != nil {
			return res.Error
		}

		current, err := loadTemplate(tx, t.ID)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			if current.IsLocked {
				return fmt.Errorf("%w: template %q", store.ErrLocked, t.ID)
			}
			return fmt.Errorf("%w: template %q at revision %d, expected %d", store.ErrRevisionMismatch, t.ID, current.Revision, expectedRevision)
		}
		out = current
		return nil
	})
	if err != nil {
		return store.Entry{}, err
	}
	return out.entry()
}

// SetLocked implements store.TemplateStore. The usage condition is part of
// the UPDATE so a usage created concurrently cannot be missed.
func (s *Store) SetLocked(ctx context.Context, id string, locked bool) (store.Entry, error) {
	var out templateRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cond := "id = ? AND usages = 0"
		if locked {
			cond = "id = ? AND usages > 0"
		}
		res := tx.Model(&templateRow{}).Where(cond, id).
			Updates(bump(s.timestamp(), map[string]any{"is_locked": locked}))
		if res.Error != nil {
			return res.Error
		}
		current, err := loadTemplate(tx, id)
		if err != nil {
			return err
		}
		out = current
		if res.RowsAffected > 0 {
			return nil
		}
		if locked {
			return fmt.Errorf("%w: template %q", store.ErrUnused, id)
		}
		return fmt.Errorf("%w: template %q has %d", store.ErrInUse, id, current.Usages)
	})
	if err != nil {
		if out.ID == "" {
			return store.Entry{}, err
		}
		entry, decodeErr := out.entry()
		if decodeErr != nil {
			return store.Entry{}, decodeErr
		}
		return entry, err
	}
	return out.entry()
}

// SetPublic implements store.TemplateStore.
func (s *Store) SetPublic(ctx context.Context, id string, public bool) (store.Entry, error) {
	var out templateRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&templateRow{}).Where("id = ?", id).
			Updates(bump(s.timestamp(), map[string]any{"is_public": public}))
		if res.Error != nil {
			return res.Error
		}
		current, err := loadTemplate(tx, id)
		if err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return store.Entry{}, err
	}
	return out.entry()
}

// SoftDelete implements store.TemplateStore.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND usages = 0", id).Delete(&templateRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		current, err := loadTemplate(tx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: template %q has %d", store.ErrInUse, id, current.Usages)
	})
}

// AddUsage implements store.UsageStore.
func (s *Store) AddUsage(ctx context.Context, templateID, subject string) (store.Usage, store.Entry, error) {
	usage := usageRow{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Subject:    subject,
		CreatedAt:  s.timestamp(),
	}
	var out templateRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&templateRow{}).Where("id = ?", templateID).
			Updates(bump(s.timestamp(), map[string]any{
				"usages":    gorm.Expr("usages + 1"),
				"is_locked": true,
			}))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("template", templateID)
		}
		if err := tx.Create(&usage).Error; err != nil {
			return err
		}
		current, err := loadTemplate(tx, templateID)
		if err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return store.Usage{}, store.Entry{}, err
	}
	entry, err := out.entry()
	if err != nil {
		return store.Usage{}, store.Entry{}, err
	}
	return usage.usage(), entry, nil
}

// ReleaseUsage implements store.UsageStore. The template stays locked.
func (s *Store) ReleaseUsage(ctx context.Context, usageID string) (store.Entry, error) {
	var out templateRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var usage usageRow
		if err := tx.Where("id = ?", usageID).First(&usage).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("usage", usageID)
			}
			return err
		}
		if err := tx.Delete(&usage).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Model(&templateRow{}).
			Where("id = ? AND usages > 0", usage.TemplateID).
			Updates(bump(s.timestamp(), map[string]any{"usages": gorm.Expr("usages - 1")}))
		if res.Error != nil {
			return res.Error
		}
		current, err := loadTemplate(tx, usage.TemplateID)
		if err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return store.Entry{}, err
	}
	return out.entry()
}

// CountUsages implements store.UsageStore.
func (s *Store) CountUsages(ctx context.Context, templateID string) (int, error) {
	row, err := loadTemplate(s.db.WithContext(ctx), templateID)
	if err != nil {
		return 0, err
	}
	return row.Usages, nil
}

// ListUsages implements store.UsageStore.
func (s *Store) ListUsages(ctx context.Context, templateID string) ([]store.Usage, error) {
	var rows []usageRow
	if err := s.db.WithContext(ctx).Where("template_id = ?", templateID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.Usage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.usage())
	}
	return out, nil
}

// SaveData implements store.DataStore. Records are upserted by id.
func (s *Store) SaveData(ctx context.Context, record store.CapturedRecord) (store.CapturedRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	data, err := encode(record.Data)
	if err != nil {
		return store.CapturedRecord{}, fmt.Errorf("sqlstore: encode data %q: %w", record.ID, err)
	}
	row := dataRow{
		ID:              record.ID,
		TemplateID:      record.TemplateID,
		TemplateVersion: record.TemplateVersion,
		Subject:         record.Subject,
		Data:            data,
		UpdatedAt:       s.timestamp(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		klog.Errorf("sqlstore: save data %s: %v", record.ID, err)
		return store.CapturedRecord{}, err
	}
	record.Data = schema.CloneData(record.Data)
	record.UpdatedAt = row.UpdatedAt
	return record, nil
}

// LoadData implements store.DataStore.
func (s *Store) LoadData(ctx context.Context, id string) (store.CapturedRecord, error) {
	var row dataRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.CapturedRecord{}, notFound("data", id)
		}
		return store.CapturedRecord{}, err
	}
	return row.record()
}

// ListData implements store.DataStore.
func (s *Store) ListData(ctx context.Context, templateID string) ([]store.CapturedRecord, error) {
	var rows []dataRow
	if err := s.db.WithContext(ctx).Where("template_id = ?", templateID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.CapturedRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// SaveLayout implements store.LayoutStore.
func (s *Store) SaveLayout(ctx context.Context, templateID string, l layout.Layout) error {
	raw, err := encode(l)
	if err != nil {
		return fmt.Errorf("sqlstore: encode layout for %q: %w", templateID, err)
	}
	row := layoutRow{TemplateID: templateID, Layout: raw, UpdatedAt: s.timestamp()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// LoadLayout implements store.LayoutStore.
func (s *Store) LoadLayout(ctx context.Context, templateID string) (layout.Layout, error) {
	var row layoutRow
	if err := s.db.WithContext(ctx).Where("template_id = ?", templateID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return layout.Layout{}, notFound("layout for", templateID)
		}
		return layout.Layout{}, err
	}
	var out layout.Layout
	if err := json.Unmarshal(row.Layout, &out); err != nil {
		return layout.Layout{}, fmt.Errorf("sqlstore: decode layout for %q: %w", templateID, err)
	}
	return out, nil
}

// PutAttributes implements store.AttributeStore.
func (s *Store) PutAttributes(ctx context.Context, subject string, attrs map[string]any) error {
	raw, err := encode(attrs)
	if err != nil {
		return fmt.Errorf("sqlstore: encode attributes of %q: %w", subject, err)
	}
	row := attributeRow{Subject: subject, Attributes: raw, UpdatedAt: s.timestamp()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Attributes implements store.AttributeStore.
func (s *Store) Attributes(ctx context.Context, subject string) (map[string]any, error) {
	var row attributeRow
	if err := s.db.WithContext(ctx).Where("subject = ?", subject).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("attributes of", subject)
		}
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(row.Attributes, &out); err != nil {
		return nil, fmt.Errorf("sqlstore: decode attributes of %q: %w", subject, err)
	}
	return out, nil
}
