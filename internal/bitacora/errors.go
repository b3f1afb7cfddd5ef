package bitacora

import (
	"fmt"

	"github.com/snarg/bitacora/internal/database"
)

// ValidationError rejects a submission before any resource is allocated.
// Message is safe to return to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PersistenceError is returned when the analyzed entry could not be stored.
// Entry holds the computed record so the caller does not lose the work.
type PersistenceError struct {
	Entry *database.BitacoraRow
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist bitacora: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
