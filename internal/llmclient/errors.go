package llmclient

import "errors"

var (
	// ErrServiceUnavailable indicates the provider could not be reached
	// or returned a retryable server error.
	ErrServiceUnavailable = errors.New("completion service unavailable")
	// ErrInvalidResponse indicates the provider answered with an empty
	// or unusable payload.
	ErrInvalidResponse = errors.New("invalid response from completion service")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
