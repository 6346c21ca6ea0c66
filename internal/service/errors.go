package service

import "errors"

// ValidationError rejects an operation before any persistence or network
// call happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError anywhere in its
// chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrPublishInProgress = errors.New("post publish already in progress")
)
