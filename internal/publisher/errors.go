package publisher

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPlatform = errors.New("platform not supported")
	ErrRefreshNotSupported = errors.New("token refresh not supported for platform")
)

// PreconditionError marks a target that cannot be published with the content
// it has, detected before any network call.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// UpstreamError carries a platform API rejection through to the stored
// per-target error message.
type UpstreamError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

// NetworkError is a transport-level failure before any platform response was
// read.
type NetworkError struct {
	Platform string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Platform, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
