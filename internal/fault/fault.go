package fault

import (
	"errors"
	"fmt"
)

// Sentinel errors for the capture core. Extraction failures are handled
// locally by degrading confidence and are not part of this taxonomy.
var (
	ErrNotFound = errors.New("not found")
)

// ValidationError marks a client-correctable precondition failure,
// e.g. decision mapping requested before any theory exists.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError marks a retryable store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
