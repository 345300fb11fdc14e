// Package fieldpath owns the addressing scheme used to key captured data,
// formula references, show-if rules, and layout bindings. A path is the
// section id and the field id joined by a single dot ("inspection.status").
//
// Every caller that builds or parses a path goes through this package so the
// join and split directions cannot drift apart.
package fieldpath

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins a section id and a field id.
const Separator = "."

var (
	// ErrEmptyID is returned when a section or field id is blank.
	ErrEmptyID = errors.New("fieldpath: id is empty")
	// ErrSeparatorInID is returned when an id contains the path separator.
	ErrSeparatorInID = errors.New("fieldpath: id contains '.'")
	// ErrMalformedPath is returned when a path does not split into two ids.
	ErrMalformedPath = errors.New("fieldpath: malformed path")
)

// Ref is the parsed form of a field path.
type Ref struct {
	SectionID string `json:"section_id"`
	FieldID   string `json:"field_id"`
}

// Path returns the joined form of the reference.
func (r Ref) Path() string {
	return ToPath(r.SectionID, r.FieldID)
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	return r.Path()
}

// ToPath joins a section id and a field id. It performs no validation; use
// CheckID when the ids come from untrusted input.
func ToPath(sectionID, fieldID string) string {
	return sectionID + Separator + fieldID
}

// FromPath splits a path on its first separator. Both halves must be
// non-empty.
func FromPath(path string) (Ref, error) {
	idx := strings.Index(path, Separator)
	if idx <= 0 || idx == len(path)-1 {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}
	return Ref{
		SectionID: path[:idx],
		FieldID:   path[idx+1:],
	}, nil
}

// MustFromPath is FromPath for statically known paths. It panics on error.
func MustFromPath(path string) Ref {
	ref, err := FromPath(path)
	if err != nil {
		panic(err)
	}
	return ref
}

// IsPath reports whether the value looks like a section/field path.
func IsPath(value string) bool {
	_, err := FromPath(value)
	return err == nil
}

// CheckID reports whether id is usable as a section or field id.
func CheckID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if strings.Contains(id, Separator) {
		return fmt.Errorf("%w: %q", ErrSeparatorInID, id)
	}
	return nil
}
