// Package lifecycle manages template versioning, locking, cloning, usage
// accounting, and soft deletion on top of a store.
//
// Structural edits go through an EditSession: the session holds a private,
// revision-stamped copy of the template and commits it with a single
// replace-if-unlocked-and-revision-matches call, so an edit racing with a
// lock transition fails with a LockConflictError instead of overwriting.
package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator replaces the UUID generator used for new template ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// Manager coordinates template lifecycle operations.
type Manager struct {
	templates store.TemplateStore
	usages    store.UsageStore
	newID     func() string
}

// New constructs a Manager. The same value commonly implements both stores.
func New(templates store.TemplateStore, usages store.UsageStore, opts ...Option) *Manager {
	m := &Manager{
		templates: templates,
		usages:    usages,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Create validates t and stores it unlocked at version 1 when no version is
// set. A blank id is replaced with a fresh one.
func (m *Manager) Create(ctx context.Context, t schema.Template) (store.Entry, error) {
	next := t.Clone()
	if strings.TrimSpace(next.ID) == "" {
		next.ID = m.newID()
	}
	if next.Version <= 0 {
		next.Version = 1
	}
	next.IsLocked = false

	if err := checkTemplate(&next); err != nil {
		return store.Entry{}, err
	}
	entry, err := m.templates.CreateTemplate(ctx, next)
	if err != nil {
		return store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: created template %s (%s)", entry.Template.ID, entry.Template.Name)
	return entry, nil
}

// Get returns the stored template.
func (m *Manager) Get(ctx context.Context, id string) (store.Entry, error) {
	return m.templates.GetTemplate(ctx, id)
}

// List returns stored templates matching opts.
func (m *Manager) List(ctx context.Context, opts store.ListOptions) ([]store.Entry, error) {
	return m.templates.ListTemplates(ctx, opts)
}

// Begin opens an edit session on an unlocked template.
func (m *Manager) Begin(ctx context.Context, id string) (*EditSession, error) {
	entry, err := m.templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Template.IsLocked {
		return nil, m.conflict(entry, ReasonLocked, store.ErrLocked)
	}
	return &EditSession{
		manager:  m,
		template: entry.Template.Clone(),
		revision: entry.Revision,
	}, nil
}

// Update applies mutate to the template and commits it in one call.
func (m *Manager) Update(ctx context.Context, id string, mutate func(*schema.Template) error) (store.Entry, error) {
	session, err := m.Begin(ctx, id)
	if err != nil {
		return store.Entry{}, err
	}
	if err := session.Mutate(mutate); err != nil {
		return store.Entry{}, err
	}
	return session.Commit(ctx)
}

// Clone copies the template (locked or not) into a new unlocked template.
func (m *Manager) Clone(ctx context.Context, id, newName string) (store.Entry, error) {
	source, err := m.templates.GetTemplate(ctx, id)
	if err != nil {
		return store.Entry{}, err
	}
	clone := CloneTemplate(source.Template, newName, m.newID())
	entry, err := m.templates.CreateTemplate(ctx, clone)
	if err != nil {
		return store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: cloned template %s into %s", id, entry.Template.ID)
	return entry, nil
}

// CloneTemplate deep-copies t under a fresh id and name. The copy is
// unlocked, private, and restarts at version 1; usages are never copied.
func CloneTemplate(t schema.Template, newName, newID string) schema.Template {
	out := t.Clone()
	out.ID = newID
	if strings.TrimSpace(newName) != "" {
		out.Name = newName
	} else {
		out.Name = t.Name + " (copy)"
	}
	out.Version = 1
	out.IsLocked = false
	out.IsPublic = false
	return out
}

// Lock locks a template that has at least one active usage. Locking an
// unused template would desynchronize the flag from the usage count.
func (m *Manager) Lock(ctx context.Context, id string) (store.Entry, error) {
	entry, err := m.templates.SetLocked(ctx, id, true)
	if errors.Is(err, store.ErrUnused) {
		return store.Entry{}, m.conflict(entry, ReasonUnused, err)
	}
	if err != nil {
		return store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: locked template %s", id)
	return entry, nil
}

// Unlock unlocks a template with no active usages.
func (m *Manager) Unlock(ctx context.Context, id string) (store.Entry, error) {
	entry, err := m.templates.SetLocked(ctx, id, false)
	if errors.Is(err, store.ErrInUse) {
		return store.Entry{}, m.conflict(entry, ReasonInUse, err)
	}
	if err != nil {
		return store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: unlocked template %s", id)
	return entry, nil
}

// Publish toggles is_public. Visibility is not structural, so locked
// templates may be published.
func (m *Manager) Publish(ctx context.Context, id string, public bool) (store.Entry, error) {
	entry, err := m.templates.SetPublic(ctx, id, public)
	if err != nil {
		return store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: template %s public=%t", id, public)
	return entry, nil
}

// Delete soft-deletes a template. It is rejected with an *InUseError while
// usages are active.
func (m *Manager) Delete(ctx context.Context, id string) error {
	err := m.templates.SoftDelete(ctx, id)
	if errors.Is(err, store.ErrInUse) {
		count, countErr := m.usages.CountUsages(ctx, id)
		if countErr != nil {
			return countErr
		}
		klog.V(2).Infof("lifecycle: refused to delete template %s with %d usage(s)", id, count)
		return &InUseError{TemplateID: id, Usages: count}
	}
	if err != nil {
		return err
	}
	klog.V(4).Infof("lifecycle: deleted template %s", id)
	return nil
}

// AddUsage binds the template to subject and locks it in the same step.
func (m *Manager) AddUsage(ctx context.Context, id, subject string) (store.Usage, store.Entry, error) {
	usage, entry, err := m.usages.AddUsage(ctx, id, subject)
	if err != nil {
		return store.Usage{}, store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: template %s used by %s (%d usage(s))", id, subject, entry.Usages)
	return usage, entry, nil
}

// ReleaseUsage removes a usage. The template stays locked; call Unlock once
// the count reaches zero to allow edits again.
func (m *Manager) ReleaseUsage(ctx context.Context, usageID string) (store.Entry, error) {
	entry, err := m.usages.ReleaseUsage(ctx, usageID)
	if err != nil {
		return store.Entry{}, err
	}
	klog.V(4).Infof("lifecycle: released usage %s of template %s (%d left)", usageID, entry.Template.ID, entry.Usages)
	return entry, nil
}

// Usages returns the active usage count.
func (m *Manager) Usages(ctx context.Context, id string) (int, error) {
	return m.usages.CountUsages(ctx, id)
}

func (m *Manager) conflict(entry store.Entry, reason ConflictReason, cause error) error {
	err := &LockConflictError{
		TemplateID: entry.Template.ID,
		Usages:     entry.Usages,
		Locked:     entry.Template.IsLocked,
		Reason:     reason,
		Err:        cause,
	}
	klog.V(2).Infof("%v", err)
	return err
}

func checkTemplate(t *schema.Template) error {
	result := validation.Validate(t, validation.WithRequireName())
	if result.Valid {
		return nil
	}
	return &validation.SchemaError{TemplateID: t.ID, Issues: result.Issues}
}
