package youtube

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVideoID indicates the upload completed without error
	// status, but the final response carried no video ID.
	ErrMissingVideoID = errors.New("upload response did not contain a video id")

	// ErrMalformedResponse covers responses which violate the resumable
	// upload protocol at the HTTP level (e.g. a garbled status line).
	ErrMalformedResponse = errors.New("malformed response from upload server")

	// ErrEmptyMedia is returned before any network activity if the
	// media file is missing or has no content.
	ErrEmptyMedia = errors.New("media file is missing or empty")
)

type (
	// AuthError is returned when no usable credentials could be
	// obtained. The engine never retries authentication.
	AuthError struct {
		Err error
	}

	// PermanentError wraps a failure the engine will not retry: a
	// non-retriable HTTP status, or a malformed success response.
	PermanentError struct {
		Err error
	}
)

func (err *AuthError) Error() string {
	return fmt.Sprintf("youtube authentication failed: %v", err.Err)
}

func (err *AuthError) Unwrap() error { return err.Err }

func (err *PermanentError) Error() string {
	return fmt.Sprintf("youtube upload failed permanently: %v", err.Err)
}

func (err *PermanentError) Unwrap() error { return err.Err }
