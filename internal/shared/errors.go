package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rejected user input.
	ErrValidation = errors.New("validation failed")
	// ErrPrecondition marks an operation attempted in a state that does not allow it.
	ErrPrecondition = errors.New("precondition failed")
	// ErrStorageRead indicates a durable store could not be read or decoded.
	ErrStorageRead = errors.New("storage read failed")
	// ErrStorageWrite indicates a durable store could not be written.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrDocumentWrite indicates a rendered document could not be written.
	ErrDocumentWrite = errors.New("document write failed")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PreconditionError is returned when an operation cannot start, e.g. invoicing an empty cart.
type PreconditionError struct {
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// NewPreconditionError builds a PreconditionError.
func NewPreconditionError(field, reason string) error {
	return &PreconditionError{Field: field, Reason: reason}
}

// StorageReadError wraps a failure to read or decode a store.
type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() []error { return []error{ErrStorageRead, e.Err} }

// StorageWriteError wraps a failure to persist a store.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() []error { return []error{ErrStorageWrite, e.Err} }

// DocumentWriteError wraps a failure to write a rendered invoice document.
type DocumentWriteError struct {
	Path string
	Err  error
}

func (e *DocumentWriteError) Error() string {
	return fmt.Sprintf("write document %s: %v", e.Path, e.Err)
}

func (e *DocumentWriteError) Unwrap() []error { return []error{ErrDocumentWrite, e.Err} }

// UserSafeMessage renders err for display. Validation and precondition
// failures keep the field name so the user knows what to fix; other errors,
// including not-found lookups, keep the message naming the item.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("invalid %s: %s", verr.Field, verr.Reason)
	}
	var perr *PreconditionError
	if errors.As(err, &perr) {
		return fmt.Sprintf("missing %s: %s", perr.Field, perr.Reason)
	}
	var derr *DocumentWriteError
	if errors.As(err, &derr) {
		return fmt.Sprintf("could not save invoice to %s: %v", derr.Path, derr.Err)
	}
	var werr *StorageWriteError
	if errors.As(err, &werr) {
		return fmt.Sprintf("could not save %s: %v", werr.Path, werr.Err)
	}
	return err.Error()
}
