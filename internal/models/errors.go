package models

import "errors"

var (
	// ErrValidation marks malformed input rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateMapping marks an attempt to map a content item to a node it
	// is already mapped to.
	ErrDuplicateMapping = errors.New("duplicate mapping")

	// ErrNotFound marks a missing content item, certification, or mapping.
	ErrNotFound = errors.New("not found")
)
