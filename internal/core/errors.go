package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for run-aborting conditions. Callers test them with errors.Is.
var (
	ErrMissingInput      = errors.New("missing input")
	ErrEmptyInput        = errors.New("empty input")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEncoding          = errors.New("encoding error")
	ErrUnknownTable      = errors.New("unknown table")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrConnection        = errors.New("connection failed")
)

// FatalError aborts the whole run. Table import failures are never fatal;
// they are recorded in the TableReport instead.
type FatalError struct {
	Op   string // extract, load, plan
	Path string // offending file, if any
	Err  error
}

func (e *FatalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err aborts the run.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
