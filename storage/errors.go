package storage

import (
	"errors"
	"fmt"
)

// Fault is an I/O failure against the staging, final or ledger tables.
// It is fatal to the category run in progress.
type Fault struct {
	Op  string
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("storage: %s: %v", f.Op, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Op: op, Err: err}
}

// IsFault reports whether err wraps a storage Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// ErrNoActiveRun is returned when staging is used before BeginRun.
var ErrNoActiveRun = errors.New("no active run: BeginRun was not called")

// ErrRunNotFound is returned when a ledger row does not exist.
var ErrRunNotFound = errors.New("run not found")
