package myio

import "io"

type nopSeekCloser struct {
	io.ReadSeeker
}

// NopSeekCloser adapts r into an io.ReadSeekCloser whose Close is a no-op.
// Used for temp-file-backed part bodies, whose lifetime is tied to the
// collector that created the temp file rather than to any individual Part.
func NopSeekCloser(r io.ReadSeeker) io.ReadSeekCloser {
	return nopSeekCloser{r}
}

func (nopSeekCloser) Close() error { return nil }
