package formstream

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFraming is returned when the multipart framing itself is
	// broken: the source ended before the closing delimiter, or a header
	// block is empty where at least one header line is required.
	ErrMalformedFraming = errors.New("formstream: malformed framing")

	// ErrMalformedHeader is returned when a part's header block cannot be
	// parsed: a line without ':', a missing or malformed
	// Content-Disposition, or a missing "name" parameter.
	ErrMalformedHeader = errors.New("formstream: malformed header")

	// ErrTooManyParts is returned when the stream yields more parts than
	// WithMaxParts allows.
	ErrTooManyParts = errors.New("formstream: too many parts")

	// ErrTooManyHeaders is returned when the total header-line count across
	// all parts exceeds WithMaxHeaders.
	ErrTooManyHeaders = errors.New("formstream: too many headers")

	// ErrHeaderTooLarge is returned when a single part's header block
	// exceeds WithMaxHeaderBytes.
	ErrHeaderTooLarge = errors.New("formstream: header block too large")

	// ErrTooLargeForm is returned when eager collection (IterateMultipart,
	// ParseMultipart) would keep a body in memory beyond the remaining
	// WithMaxMemSize budget. Bodies spilled to a temp file are not counted
	// against that budget, and the temp file has no size cap.
	ErrTooLargeForm = errors.New("formstream: too large form")
)

// TransformError wraps an error returned by a caller-supplied FilterFunc or
// TransformFunc during re-emission.
type TransformError struct {
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("formstream: transform error: %v", e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
