package port

import "errors"

var (
	// ErrEmptyResponse is returned when the reasoning service answers with no usable payload
	ErrEmptyResponse = errors.New("reasoning service returned an empty response")

	// ErrMalformedResponse is returned when a structured payload does not parse against its schema
	ErrMalformedResponse = errors.New("reasoning service returned a malformed response")

	// ErrUnsupportedDocument is returned for uploads that are neither an image nor a PDF
	ErrUnsupportedDocument = errors.New("unsupported document type")
)
