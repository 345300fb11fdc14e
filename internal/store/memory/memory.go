// Package memory is an in-process store.Store used by tests, the CLI when no
// database is configured, and embedding hosts that persist elsewhere.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps every record in maps guarded by a single mutex, which makes
// each conditional write trivially atomic.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	templates  map[string]*store.Entry
	usages     map[string]store.Usage
	data       map[string]store.CapturedRecord
	layouts    map[string]layout.Layout
	attributes map[string]map[string]any
}

var _ store.Store = (*Store)(nil)

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		templates:  make(map[string]*store.Entry),
		usages:     make(map[string]store.Usage),
		data:       make(map[string]store.CapturedRecord),
		layouts:    make(map[string]layout.Layout),
		attributes: make(map[string]map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func copyEntry(e *store.Entry) store.Entry {
	out := *e
	out.Template = e.Template.Clone()
	if e.DeletedAt != nil {
		ts := *e.DeletedAt
		out.DeletedAt = &ts
	}
	return out
}

func (s *Store) live(id string) (*store.Entry, error) {
	entry, ok := s.templates[id]
	if !ok || entry.DeletedAt != nil {
		return nil, fmt.Errorf("%w: template %q", store.ErrNotFound, id)
	}
	return entry, nil
}

func (s *Store) touch(entry *store.Entry) {
	entry.Revision++
	entry.UpdatedAt = s.timestamp()
}

// CreateTemplate implements store.TemplateStore.
func (s *Store) CreateTemplate(ctx context.Context, t schema.Template) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.templates[t.ID]; exists {
		return store.Entry{}, fmt.Errorf("%w: template %q", store.ErrDuplicate, t.ID)
	}
	now := s.timestamp()
	entry := &store.Entry{
		Template:  t.Clone(),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.templates[t.ID] = entry
	return copyEntry(entry), nil
}

// GetTemplate implements store.TemplateStore.
func (s *Store) GetTemplate(ctx context.Context, id string) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(id)
	if err != nil {
		return store.Entry{}, err
	}
	return copyEntry(entry), nil
}

// ListTemplates implements store.TemplateStore. Entries are ordered by
// creation time, then id.
func (s *Store) ListTemplates(ctx context.Context, opts store.ListOptions) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Entry
	for _, entry := range s.templates {
		if opts.Match(*entry) {
			out = append(out, copyEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Template.ID < out[j].Template.ID
	})
	return out, nil
}

// ReplaceTemplate implements store.TemplateStore.
func (s *Store) ReplaceTemplate(ctx context.Context, t schema.Template, expectedRevision int64) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(t.ID)
	if err != nil {
		return store.Entry{}, err
	}
	if entry.Template.IsLocked {
		return store.Entry{}, fmt.Errorf("%w: template %q", store.ErrLocked, t.ID)
	}
	if entry.Revision != expectedRevision {
		return store.Entry{}, fmt.Errorf("%w: template %q at revision %d, expected %d", store.ErrRevisionMismatch, t.ID, entry.Revision, expectedRevision)
	}

	next := t.Clone()
	next.IsLocked = entry.Template.IsLocked
	entry.Template = next
	s.touch(entry)
	return copyEntry(entry), nil
}

// SetLocked implements store.TemplateStore.
func (s *Store) SetLocked(ctx context.Context, id string, locked bool) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(id)
	if err != nil {
		return store.Entry{}, err
	}
	if locked && entry.Usages == 0 {
		return copyEntry(entry), fmt.Errorf("%w: template %q", store.ErrUnused, id)
	}
	if !locked && entry.Usages > 0 {
		return copyEntry(entry), fmt.Errorf("%w: template %q has %d", store.ErrInUse, id, entry.Usages)
	}
	entry.Template.IsLocked = locked
	s.touch(entry)
	return copyEntry(entry), nil
}

// SetPublic implements store.TemplateStore. Visibility is not structural so
// it is allowed on locked templates.
func (s *Store) SetPublic(ctx context.Context, id string, public bool) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(id)
	if err != nil {
		return store.Entry{}, err
	}
	entry.Template.IsPublic = public
	s.touch(entry)
	return copyEntry(entry), nil
}

// SoftDelete implements store.TemplateStore.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(id)
	if err != nil {
		return err
	}
	if entry.Usages > 0 {
		return fmt.Errorf("%w: template %q has %d", store.ErrInUse, id, entry.Usages)
	}
	now := s.timestamp()
	entry.DeletedAt = &now
	s.touch(entry)
	return nil
}

// AddUsage implements store.UsageStore.
func (s *Store) AddUsage(ctx context.Context, templateID, subject string) (store.Usage, store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Usage{}, store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(templateID)
	if err != nil {
		return store.Usage{}, store.Entry{}, err
	}
	usage := store.Usage{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Subject:    subject,
		CreatedAt:  s.timestamp(),
	}
	s.usages[usage.ID] = usage
	entry.Usages++
	entry.Template.IsLocked = true
	s.touch(entry)
	return usage, copyEntry(entry), nil
}

// ReleaseUsage implements store.UsageStore. The template stays locked.
func (s *Store) ReleaseUsage(ctx context.Context, usageID string) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	usage, ok := s.usages[usageID]
	if !ok {
		return store.Entry{}, fmt.Errorf("%w: usage %q", store.ErrNotFound, usageID)
	}
	delete(s.usages, usageID)

	entry, ok := s.templates[usage.TemplateID]
	if !ok {
		return store.Entry{}, fmt.Errorf("%w: template %q", store.ErrNotFound, usage.TemplateID)
	}
	if entry.Usages > 0 {
		entry.Usages--
	}
	s.touch(entry)
	return copyEntry(entry), nil
}

// CountUsages implements store.UsageStore.
func (s *Store) CountUsages(ctx context.Context, templateID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.live(templateID)
	if err != nil {
		return 0, err
	}
	return entry.Usages, nil
}

// ListUsages implements store.UsageStore.
func (s *Store) ListUsages(ctx context.Context, templateID string) ([]store.Usage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Usage
	for _, usage := range s.usages {
		if usage.TemplateID == templateID {
			out = append(out, usage)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveData implements store.DataStore.
func (s *Store) SaveData(ctx context.Context, record store.CapturedRecord) (store.CapturedRecord, error) {
	if err := ctx.Err(); err != nil {
		return store.CapturedRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Data = schema.CloneData(record.Data)
	record.UpdatedAt = s.timestamp()
	s.data[record.ID] = record

	out := record
	out.Data = schema.CloneData(record.Data)
	return out, nil
}

// LoadData implements store.DataStore.
func (s *Store) LoadData(ctx context.Context, id string) (store.CapturedRecord, error) {
	if err := ctx.Err(); err != nil {
		return store.CapturedRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data[id]
	if !ok {
		return store.CapturedRecord{}, fmt.Errorf("%w: data %q", store.ErrNotFound, id)
	}
	record.Data = schema.CloneData(record.Data)
	return record, nil
}

// ListData implements store.DataStore.
func (s *Store) ListData(ctx context.Context, templateID string) ([]store.CapturedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.CapturedRecord
	for _, record := range s.data {
		if record.TemplateID != templateID {
			continue
		}
		record.Data = schema.CloneData(record.Data)
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveLayout implements store.LayoutStore.
func (s *Store) SaveLayout(ctx context.Context, templateID string, l layout.Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layouts[templateID] = l.Clone()
	return nil
}

// LoadLayout implements store.LayoutStore.
func (s *Store) LoadLayout(ctx context.Context, templateID string) (layout.Layout, error) {
	if err := ctx.Err(); err != nil {
		return layout.Layout{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.layouts[templateID]
	if !ok {
		return layout.Layout{}, fmt.Errorf("%w: layout for %q", store.ErrNotFound, templateID)
	}
	return l.Clone(), nil
}

// PutAttributes implements store.AttributeStore.
func (s *Store) PutAttributes(ctx context.Context, subject string, attrs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attributes[subject] = schema.CloneData(attrs)
	return nil
}

// Attributes implements store.AttributeStore.
func (s *Store) Attributes(ctx context.Context, subject string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs, ok := s.attributes[subject]
	if !ok {
		return nil, fmt.Errorf("%w: attributes of %q", store.ErrNotFound, subject)
	}
	return schema.CloneData(attrs), nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }
