package models

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrFileRead      = errors.New("file read error")
	ErrMalformedRow  = errors.New("malformed lookup row")
	ErrMalformedLine = errors.New("malformed flow log line")
	ErrDuplicateKey  = errors.New("duplicate lookup key")
	ErrOutputWrite   = errors.New("output write error")
)

// PathError ties a failure to the file it happened on. It unwraps to both
// the category sentinel and the underlying cause.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Path, e.Kind, e.Err)
}

func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewPathError(op, path string, kind, err error) error {
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}

// LineError reports a malformed row or line in strict mode.
type LineError struct {
	Source string
	Line   int
	Reason AnomalyReason
	Kind   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %s (%s)", e.Source, e.Line, e.Kind, e.Reason)
}

func (e *LineError) Unwrap() error {
	return e.Kind
}
