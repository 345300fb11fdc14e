package lifecycle

import (
	"context"
	"errors"
	"sync"

	"k8s.io/klog/v2"

	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
)

// EditSession is an exclusive, in-memory edit of one template. Nothing is
// written until Commit.
type EditSession struct {
	mu       sync.Mutex
	manager  *Manager
	template schema.Template
	revision int64
	dirty    bool
	closed   bool
}

// Template returns a copy of the working template.
func (s *EditSession) Template() schema.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template.Clone()
}

// Revision returns the store revision the session started from.
func (s *EditSession) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Mutate applies fn to the working copy. The template id cannot be changed
// and a failed fn leaves the working copy untouched.
func (s *EditSession) Mutate(fn func(*schema.Template) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if fn == nil {
		return nil
	}
	next := s.template.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.ID = s.template.ID
	next.IsLocked = s.template.IsLocked
	s.template = next
	s.dirty = true
	return nil
}

// Commit validates the working copy, bumps its version, and writes it only if
// the stored template is still unlocked and at the session's revision. The
// session is closed afterwards whatever the outcome, except for validation
// failures which leave it open for correction.
func (s *EditSession) Commit(ctx context.Context) (store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Entry{}, ErrSessionClosed
	}

	next := s.template.Clone()
	if err := checkTemplate(&next); err != nil {
		return store.Entry{}, err
	}
	if !s.dirty {
		s.closed = true
		return s.manager.templates.GetTemplate(ctx, next.ID)
	}
	next.Version++

	m := s.manager
	entry, err := m.templates.ReplaceTemplate(ctx, next, s.revision)
	switch {
	case err == nil:
		s.closed = true
		klog.V(4).Infof("lifecycle: committed template %s version %d", entry.Template.ID, entry.Template.Version)
		return entry, nil
	case errors.Is(err, store.ErrLocked), errors.Is(err, store.ErrRevisionMismatch):
		s.closed = true
		current, getErr := m.templates.GetTemplate(ctx, next.ID)
		if getErr != nil {
			return store.Entry{}, getErr
		}
		reason := ReasonStale
		if current.Template.IsLocked {
			reason = ReasonLocked
		}
		return store.Entry{}, m.conflict(current, reason, err)
	default:
		return store.Entry{}, err
	}
}

// Discard abandons the session.
func (s *EditSession) Discard() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
