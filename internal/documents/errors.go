package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist or is not owned by
	// the caller.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed ingestion request.
	ErrInvalidInput = errors.New("invalid input")
)
