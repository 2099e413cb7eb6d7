package store

import "errors"

var (
	// ErrNotFound is returned when a case, document, chunk, template, or
	// report does not exist or is not visible to the caller.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyProcessing is returned by ClaimDocument when another
	// ingestion run holds the document.
	ErrAlreadyProcessing = errors.New("document already processing")

	// ErrDimensionMismatch is returned when an embedding write carries a
	// vector of the wrong dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidQuery is returned when a similarity query vector is
	// malformed or of the wrong dimension.
	ErrInvalidQuery = errors.New("invalid query vector")
)
