/*
errors.go - Centralized error types for the compliance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine itself fails only on precondition violations; everything
  else (missing limits, malformed rents) degrades to a fallback result.
  Storage and import layers add not-found and validation errors.

ERROR CATEGORIES:
  1. Precondition errors - Input the engine cannot classify at all
  2. Lookup errors - Property or snapshot absent from a store
  3. Import errors - Snapshot documents that fail validation

USAGE:
  if errors.Is(err, generic.ErrMissingSnapshotDate) {
      // caller assembled the snapshot without a date
  }

SEE ALSO:
  - rentroll/engine.go: Raises precondition errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingUnitID is returned when a unit has no identifier.
	ErrMissingUnitID = errors.New("missing unit identifier")

	// ErrMissingSnapshotDate is returned when the rent roll snapshot has no date.
	// Lease selection is meaningless without it.
	ErrMissingSnapshotDate = errors.New("missing snapshot date")

	// ErrUnknownStandard is returned when a compliance option name is not recognized.
	ErrUnknownStandard = errors.New("unknown compliance standard")

	// ErrPropertyNotFound is returned when a referenced property doesn't exist.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrSnapshotNotFound is returned when a referenced rent roll snapshot doesn't exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot is returned when an imported snapshot document is malformed.
	ErrInvalidSnapshot = errors.New("invalid snapshot document")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PreconditionError identifies which record violated an engine precondition.
type PreconditionError struct {
	PropertyID string
	UnitID     string
	UnitNumber string
	Err        error
}

func (e *PreconditionError) Error() string {
	switch {
	case e.UnitNumber != "":
		return fmt.Sprintf("unit %s: %v", e.UnitNumber, e.Err)
	case e.UnitID != "":
		return fmt.Sprintf("unit %s: %v", e.UnitID, e.Err)
	case e.PropertyID != "":
		return fmt.Sprintf("property %s: %v", e.PropertyID, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// ValidationError lists the fields of an import document that failed validation.
type ValidationError struct {
	Fields []string
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 && e.Cause != nil {
		return fmt.Sprintf("%v: %v", ErrInvalidSnapshot, e.Cause)
	}
	return fmt.Sprintf("%v: invalid fields %v", ErrInvalidSnapshot, e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingUnitID) ||
		errors.Is(err, ErrMissingSnapshotDate) ||
		errors.Is(err, ErrUnknownStandard) ||
		errors.Is(err, ErrInvalidSnapshot)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPropertyNotFound) ||
		errors.Is(err, ErrSnapshotNotFound)
}
