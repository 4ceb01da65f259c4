package logger

import (
	"errors"
	"fmt"
)

// Sentinel errors, usable with errors.Is.
//
// GroupNotFound, UnknownLevelName and GroupOverride are configuration errors and
// are returned from constructors. Formatter and SinkWrite errors happen on the
// logging path and are reported through the logger's ErrorHandler.
var (
	// ErrGroupNotFound indicates a group was referenced by a name that is not registered.
	ErrGroupNotFound = errors.New("group not found")

	// ErrUnknownLevelName indicates a level name that is not registered.
	ErrUnknownLevelName = errors.New("unknown level name")

	// ErrFormatter indicates a template references a field that cannot be resolved
	// or applies a format spec the value does not support.
	ErrFormatter = errors.New("formatter error")

	// ErrSinkWrite indicates a sink failed to write a record.
	ErrSinkWrite = errors.New("sink write failed")

	// ErrSinkClosed indicates a write to a sink that was already closed.
	ErrSinkClosed = errors.New("sink is closed")

	// ErrGroupOverride indicates formatter, colors or sinks were given to a
	// group that has a parent, or to a logger bound to a group.
	ErrGroupOverride = errors.New("configuration is inherited from the group and cannot be overridden")

	// ErrMissingFallbackColor indicates a color set without the "all" type entry.
	ErrMissingFallbackColor = errors.New(`color set has no "all" fallback color`)

	// ErrEmptyName indicates a group or level registered with an empty name.
	ErrEmptyName = errors.New("name is empty")
)

// GroupNotFoundError is returned when a group name cannot be resolved.
type GroupNotFoundError struct {
	Name string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("unknown group %q", e.Name)
}

// Is reports whether target is ErrGroupNotFound.
func (e *GroupNotFoundError) Is(target error) bool { return target == ErrGroupNotFound }

// UnknownLevelNameError is returned when a level name cannot be resolved.
type UnknownLevelNameError struct {
	Name string
}

func (e *UnknownLevelNameError) Error() string {
	return fmt.Sprintf("unknown level name %q", e.Name)
}

// Is reports whether target is ErrUnknownLevelName.
func (e *UnknownLevelNameError) Is(target error) bool { return target == ErrUnknownLevelName }

// FormatterError describes a template that could not be rendered.
type FormatterError struct {
	Template string
	Reason   string
}

func (e *FormatterError) Error() string {
	return fmt.Sprintf("format %q: %s", e.Template, e.Reason)
}

// Is reports whether target is ErrFormatter.
func (e *FormatterError) Is(target error) bool { return target == ErrFormatter }

// SinkWriteError wraps the failure of a single sink write.
type SinkWriteError struct {
	Err error
}

func (e *SinkWriteError) Error() string {
	return "sink write: " + e.Err.Error()
}

// Unwrap returns the underlying write error.
func (e *SinkWriteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSinkWrite.
func (e *SinkWriteError) Is(target error) bool { return target == ErrSinkWrite }
