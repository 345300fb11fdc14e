package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrIncomplete is returned by Fill when required visible fields are
	// still invalid after every prompt was answered.
	ErrIncomplete = errors.New("tui: captured data is incomplete")
)
