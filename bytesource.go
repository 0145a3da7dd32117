package formstream

import (
	"errors"
	"fmt"
	"io"
)

// ByteSource is a pull-based source of owned byte chunks. NextChunk returns
// io.EOF once the source is exhausted; any other error is fatal. A
// ByteSource has exactly one reader at a time and is read linearly; a
// second concurrent reader is undefined behavior.
type ByteSource interface {
	NextChunk() ([]byte, error)
}

// SourceError wraps an error returned by the caller's ByteSource, so parser
// consumers can tell "the input stream failed" apart from a malformed
// framing or header.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("formstream: source error: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

const defaultChunkSize = 32 * 1024

// readerSource adapts an io.Reader into a ByteSource, reading up to
// chunkSize bytes per call. Zero-length reads from the underlying reader are
// tolerated and simply retried.
type readerSource struct {
	r         io.Reader
	chunkSize int
	done      bool
}

// NewReaderSource wraps r as a ByteSource, pulling chunkSize bytes at a
// time. A chunkSize <= 0 selects a default of 32KiB.
func NewReaderSource(r io.Reader, chunkSize int) ByteSource {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	return &readerSource{r: r, chunkSize: chunkSize}
}

func (s *readerSource) NextChunk() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}

	buf := make([]byte, s.chunkSize)
	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				s.done = true
				return buf[:n], &SourceError{Err: err}
			}
			if errors.Is(err, io.EOF) {
				s.done = true
			}
			return buf[:n], nil
		}
		if err != nil {
			s.done = true
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, &SourceError{Err: err}
		}
		// n == 0, err == nil: a well-behaved reader shouldn't do this
		// forever, but tolerate it per the zero-length-chunk invariant.
	}
}
