package service

import "errors"

var (
	// ErrEmptyInput is returned when embedding is requested for blank text.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch is returned when two vectors of different lengths
	// are compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnsupportedFormat is returned for MIME types no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction wraps downstream parser and storage failures during text
	// extraction.
	ErrExtraction = errors.New("text extraction failed")
)
