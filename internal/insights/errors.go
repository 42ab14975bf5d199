package insights

import "errors"

var (
	// ErrRemoteUnavailable indicates the text-generation service is unreachable
	ErrRemoteUnavailable = errors.New("text-generation service unavailable")

	// ErrEmptyCompletion indicates the service returned no usable content
	ErrEmptyCompletion = errors.New("no content received from text-generation service")

	// ErrMissingAPIKey indicates remote generation was requested without credentials
	ErrMissingAPIKey = errors.New("text-generation api key not configured")
)
