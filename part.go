package formstream

import "io"

// Part describes one section of a multipart/form-data payload. A Part is
// created the instant its header block has been fully read; Body is
// single-consumer and non-restartable, and becomes unusable once the
// enclosing iterator advances past this part.
//
// Optional fields use the Go zero value to mean "absent": an empty
// Filename/ContentType/ContentLength/ContentTransferEncoding was never sent
// on the wire.
type Part struct {
	// Name is the "name" parameter of Content-Disposition. Always non-empty
	// for a successfully parsed Part.
	Name string

	// Filename is the optional "filename" parameter of Content-Disposition.
	Filename string

	// ContentType is the verbatim Content-Type header value, trimmed.
	ContentType string

	// ContentLength is the verbatim Content-Length header value. It is
	// passed through unvalidated; the parser never checks it against the
	// actual body length.
	ContentLength string

	// ContentTransferEncoding is the verbatim Content-Transfer-Encoding
	// header value. No decoding is performed regardless of its value.
	ContentTransferEncoding string

	// HeaderLines holds the original header lines exactly as received
	// (minus the terminating CRLF), in wire order. On re-emission they are
	// serialized as-is while they still agree with the fixed fields above;
	// when HeaderLines is nil, or a transform changed Name, Filename,
	// ContentType, ContentLength or ContentTransferEncoding, the lines are
	// rebuilt from the fixed fields with BuildHeaderLines. A change made
	// only to ExtraHeaders does not trigger a rebuild.
	HeaderLines []string

	// ExtraHeaders holds any header beyond the fixed fields above, keyed by
	// lower-cased header name.
	ExtraHeaders map[string]string

	// Body is this part's content. In streaming mode it reads lazily off
	// the shared scanner; in eager mode it is a *bytes.Reader (or a
	// temp-file-backed reader, see WithMaxMemFileSize) over an
	// already-collected buffer. Exactly one consumer may read it, and it
	// must be exhausted or explicitly abandoned before the enclosing
	// iterator's next call.
	Body io.Reader
}
