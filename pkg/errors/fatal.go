package errors

import (
	pkgerrors "github.com/pkg/errors"
)

// FatalError wraps a failure from one of the I/O collaborators (grid load,
// row-write, rule store). Nothing inside the reconciliation phase raises
// these; they abort the run and surface to the caller with a stack trace.
type FatalError struct {
	Op    string
	Cause error
}

func (e *FatalError) Error() string {
	return e.Op + ": " + e.Cause.Error()
}

func (e *FatalError) Unwrap() error { return e.Cause }

// Fatal wraps err as a run-aborting failure of the named operation. Returns
// nil when err is nil.
func Fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Op: op, Cause: pkgerrors.WithStack(err)}
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return pkgerrors.As(err, &fe)
}
