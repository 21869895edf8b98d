package sargam

import "errors"

// Error kinds returned by the engine. Callers match with errors.Is.
var (
	// ErrNotFound is an unknown raga or degree. Caller-correctable.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is an option outside its documented range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataIntegrity means the static catalog is corrupt.
	ErrDataIntegrity = errors.New("data integrity defect")
)
