// Package store defines the persistence collaborator used by the lifecycle
// manager and the orchestrator: templates with their revision and usage
// bookkeeping, captured data records, generated layouts, and the contract
// attributes consulted by pre-fill.
//
// Implementations live under internal/store. Every conditional write
// (replace, lock, unlock, delete) must be atomic with respect to the usage
// count so callers never act on a stale lock state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

var (
	// ErrNotFound is returned when a record does not exist or was deleted.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when creating a record whose id is taken.
	ErrDuplicate = errors.New("store: record already exists")
	// ErrRevisionMismatch is returned when a conditional replace observed a
	// different revision than the caller expected.
	ErrRevisionMismatch = errors.New("store: revision mismatch")
	// ErrLocked is returned when a structural write targets a locked template.
	ErrLocked = errors.New("store: template is locked")
	// ErrInUse is returned when unlocking or deleting a template that still
	// has active usages.
	ErrInUse = errors.New("store: template has active usages")
	// ErrUnused is returned when locking a template that has no usages.
	ErrUnused = errors.New("store: template has no active usages")
)

// Entry is a stored template together with its bookkeeping. Revision changes
// on every write, including lock transitions.
type Entry struct {
	Template  schema.Template `json:"template"`
	Revision  int64           `json:"revision"`
	Usages    int             `json:"usages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

// Usage binds a template to a subject such as a contract.
type Usage struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"template_id"`
	Subject    string    `json:"subject"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListOptions filters ListTemplates. Empty members match everything.
type ListOptions struct {
	Industry       string
	Category       string
	PublicOnly     bool
	IncludeDeleted bool
}

// Match reports whether e passes the filter.
func (o ListOptions) Match(e Entry) bool {
	if e.DeletedAt != nil && !o.IncludeDeleted {
		return false
	}
	if o.Industry != "" && e.Template.Industry != o.Industry {
		return false
	}
	if o.Category != "" && e.Template.Category != o.Category {
		return false
	}
	if o.PublicOnly && !e.Template.IsPublic {
		return false
	}
	return true
}

// TemplateStore persists templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t schema.Template) (Entry, error)
	GetTemplate(ctx context.Context, id string) (Entry, error)
	ListTemplates(ctx context.Context, opts ListOptions) ([]Entry, error)
	// ReplaceTemplate stores t only if the current template is unlocked and
	// its revision equals expectedRevision, as one atomic step. It returns
	// ErrLocked or ErrRevisionMismatch otherwise.
	ReplaceTemplate(ctx context.Context, t schema.Template, expectedRevision int64) (Entry, error)
	// SetLocked transitions the lock flag. Locking requires at least one
	// usage (ErrUnused); unlocking requires none (ErrInUse). Concurrent
	// transitions resolve as last writer wins.
	SetLocked(ctx context.Context, id string, locked bool) (Entry, error)
	SetPublic(ctx context.Context, id string, public bool) (Entry, error)
	// SoftDelete marks the template deleted. It returns ErrInUse while any
	// usage is active.
	SoftDelete(ctx context.Context, id string) error
}

// UsageStore tracks active usages. AddUsage locks the template in the same
// atomic step that records the usage.
type UsageStore interface {
	AddUsage(ctx context.Context, templateID, subject string) (Usage, Entry, error)
	ReleaseUsage(ctx context.Context, usageID string) (Entry, error)
	CountUsages(ctx context.Context, templateID string) (int, error)
	ListUsages(ctx context.Context, templateID string) ([]Usage, error)
}

// CapturedRecord is one filled-in form.
type CapturedRecord struct {
	ID              string         `json:"id"`
	TemplateID      string         `json:"template_id"`
	TemplateVersion int            `json:"template_version"`
	Subject         string         `json:"subject,omitempty"`
	Data            map[string]any `json:"data"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DataStore persists captured data.
type DataStore interface {
	SaveData(ctx context.Context, record CapturedRecord) (CapturedRecord, error)
	LoadData(ctx context.Context, id string) (CapturedRecord, error)
	ListData(ctx context.Context, templateID string) ([]CapturedRecord, error)
}

// LayoutStore persists the latest generated layout per template.
type LayoutStore interface {
	SaveLayout(ctx context.Context, templateID string, l layout.Layout) error
	LoadLayout(ctx context.Context, templateID string) (layout.Layout, error)
}

// AttributeStore exposes contract attributes keyed by subject.
type AttributeStore interface {
	PutAttributes(ctx context.Context, subject string, attrs map[string]any) error
	Attributes(ctx context.Context, subject string) (map[string]any, error)
}

// Store aggregates every collaborator.
type Store interface {
	TemplateStore
	UsageStore
	DataStore
	LayoutStore
	AttributeStore
	Close() error
}
