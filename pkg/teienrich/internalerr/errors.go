package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidSelector  = errors.New("invalid xpath selector")
	ErrMissingAttribute = errors.New("missing required attribute")
	ErrNoTextRoot       = errors.New("document has no tei:text element")
	ErrNoInsertPoint    = errors.New("insertion point not found")

	// ErrHandleExists marks an attempt to insert a handle into a document that
	// already carries one. It is an invariant violation, never a skip.
	ErrHandleExists = errors.New("handle already exists")
)
