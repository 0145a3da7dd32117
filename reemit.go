package formstream

import (
	"errors"
	"io"
	"strings"
)

// FilterFunc decides whether a Part survives into the re-emitted stream.
// When keep is false the part is drained and skipped. When stop is true,
// processing ends after this part is disposed of (dropped or, if kept,
// serialized).
type FilterFunc func(*Part) (keep, stop bool, err error)

// TransformFunc may rewrite a kept Part before it is serialized. Returning a
// nil Part discards it. When stop is true, processing ends after this part
// is serialized (or discarded, if out is nil).
type TransformFunc func(part *Part) (out *Part, stop bool, err error)

// ReemitOptions configures Reemit.
type ReemitOptions struct {
	// OutputBoundary is the boundary used to serialize the output stream.
	// Empty reuses the input boundary.
	OutputBoundary string
	Filter         FilterFunc
	Transform      TransformFunc
	// Options are passed through to the underlying StreamMultipart call.
	Options []Option
}

// Reemit parses src as multipart/form-data with inputBoundary, applies
// opts.Filter then opts.Transform to each part in input order, and returns
// an io.Reader streaming the re-serialized result along with the boundary
// it was written with. Bytes become available on the returned reader as
// soon as each kept part has been serialized; the whole input is never
// buffered.
func Reemit(src ByteSource, inputBoundary string, opts ReemitOptions) (io.Reader, string, error) {
	outputBoundary := opts.OutputBoundary
	if outputBoundary == "" {
		outputBoundary = inputBoundary
	}

	pr, pw := io.Pipe()

	go func() {
		err := reemitLoop(pw, src, inputBoundary, outputBoundary, opts)
		pw.CloseWithError(err)
	}()

	return pr, outputBoundary, nil
}

func reemitLoop(w io.Writer, src ByteSource, inputBoundary, outputBoundary string, opts ReemitOptions) error {
	it := StreamMultipart(src, inputBoundary, opts.Options...)

	wroteAny := false
	for {
		part, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		keep, stop := true, false
		if opts.Filter != nil {
			k, s, ferr := opts.Filter(part)
			if ferr != nil {
				return &TransformError{Err: ferr}
			}
			keep, stop = k, s
		}

		if !keep {
			if stop {
				if _, derr := io.Copy(io.Discard, part.Body); derr != nil {
					return derr
				}
				break
			}
			continue
		}

		out := part
		if opts.Transform != nil {
			newPart, s, terr := opts.Transform(part)
			if terr != nil {
				return &TransformError{Err: terr}
			}
			out = newPart
			stop = stop || s
		}

		if out != nil {
			if err := writePart(w, out, outputBoundary, !wroteAny); err != nil {
				return err
			}
			wroteAny = true
		}

		if stop {
			break
		}
	}

	_, err := io.WriteString(w, "\r\n--"+outputBoundary+"--")
	return err
}

func writePart(w io.Writer, part *Part, boundary string, first bool) error {
	prefix := "\r\n"
	if first {
		prefix = ""
	}

	if _, err := io.WriteString(w, prefix+"--"+boundary+"\r\n"); err != nil {
		return err
	}

	lines := part.HeaderLines
	if lines != nil {
		// Fixed fields win over the received lines: if they no longer agree
		// (a transform changed a field), the lines are rebuilt.
		orig, err := parseHeaderLines(lines)
		if err != nil || orig.Name != part.Name || orig.Filename != part.Filename ||
			orig.ContentType != part.ContentType || orig.ContentLength != part.ContentLength ||
			orig.ContentTransferEncoding != part.ContentTransferEncoding {
			lines = nil
		}
	}
	if lines == nil {
		lines = BuildHeaderLines(part)
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\r\n")); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\r\n\r\n"); err != nil {
		return err
	}

	if part.Body != nil {
		if _, err := io.Copy(w, part.Body); err != nil {
			return err
		}
	}

	return nil
}
