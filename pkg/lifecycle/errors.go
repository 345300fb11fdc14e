package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInUse is returned by Delete while the template has active usages.
	// The InUseError carrying it reports the count.
	ErrInUse = errors.New("lifecycle: template has active usages")
	// ErrSessionClosed is returned when an edit session is reused after
	// Commit or Discard.
	ErrSessionClosed = errors.New("lifecycle: edit session is closed")
)

// ConflictReason explains a LockConflictError.
type ConflictReason string

const (
	// ReasonLocked: a structural write targeted a locked template.
	ReasonLocked ConflictReason = "locked"
	// ReasonStale: the template changed (possibly its lock state) since the
	// edit session began.
	ReasonStale ConflictReason = "stale"
	// ReasonInUse: unlock requested while usages are active.
	ReasonInUse ConflictReason = "in_use"
	// ReasonUnused: lock requested while no usage exists.
	ReasonUnused ConflictReason = "unused"
)

// LockConflictError is returned when a mutation or lock transition would
// desynchronize the template from its usage count. It is never resolved
// automatically.
type LockConflictError struct {
	TemplateID string
	Usages     int
	Locked     bool
	Reason     ConflictReason
	Err        error
}

func (e *LockConflictError) Error() string {
	switch e.Reason {
	case ReasonLocked:
		return fmt.Sprintf("lifecycle: template %s is locked (%d active usage(s)); clone it to make changes", e.TemplateID, e.Usages)
	case ReasonStale:
		return fmt.Sprintf("lifecycle: template %s changed since the edit began; reload and retry", e.TemplateID)
	case ReasonInUse:
		return fmt.Sprintf("lifecycle: template %s cannot be unlocked with %d active usage(s)", e.TemplateID, e.Usages)
	case ReasonUnused:
		return fmt.Sprintf("lifecycle: template %s cannot be locked without an active usage", e.TemplateID)
	default:
		return fmt.Sprintf("lifecycle: lock conflict on template %s", e.TemplateID)
	}
}

func (e *LockConflictError) Unwrap() error { return e.Err }

// InUseError is returned by Delete with the number of active usages so the
// caller can redirect them first.
type InUseError struct {
	TemplateID string
	Usages     int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("lifecycle: template %s has %d active usage(s)", e.TemplateID, e.Usages)
}

func (e *InUseError) Unwrap() error { return ErrInUse }
