package formstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var crlf = []byte("\r\n")

// boundaryScanner drives one StreamSearch (needle "--"+boundary) over one
// ByteSource, exposing the bytes between two successive matches as an
// io.Reader. Read returns io.EOF exactly when the next match is reached
// (normal end of this segment); if the source itself is exhausted first,
// Read returns a wrapped ErrMalformedFraming instead of a bare io.EOF,
// since the two cases must be distinguishable to callers parsing a header
// block. advance consumes the pending match and reports whether
// the stream has reached its closing delimiter.
type boundaryScanner struct {
	src    ByteSource
	search *StreamSearch

	queue      []Token
	sourceDone bool
	atMatch    bool
	err        error
}

func newBoundaryScanner(src ByteSource, boundary string) *boundaryScanner {
	return &boundaryScanner{
		src:    src,
		search: NewStreamSearch(append([]byte("--"), boundary...)),
	}
}

// nextToken pulls the next Token from the scanner, reading more chunks from
// src as needed and flushing the trailing lookbehind as a final Data token
// once the source is exhausted.
func (b *boundaryScanner) nextToken() (Token, error) {
	for len(b.queue) == 0 {
		if b.sourceDone {
			return Token{}, io.EOF
		}

		chunk, err := b.src.NextChunk()
		if len(chunk) > 0 {
			b.queue = append(b.queue, b.search.Feed(chunk)...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.sourceDone = true
				if tail := b.search.End(); len(tail) > 0 {
					b.queue = append(b.queue, Token{Kind: TokenData, Data: tail})
				}
				continue
			}
			var se *SourceError
			if !errors.As(err, &se) {
				err = &SourceError{Err: err}
			}
			return Token{}, err
		}
	}

	t := b.queue[0]
	b.queue = b.queue[1:]
	return t, nil
}

// Read implements io.Reader for the current inter-match segment.
func (b *boundaryScanner) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.atMatch {
		return 0, io.EOF
	}

	for {
		tok, err := b.nextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.err = fmt.Errorf("%w: source ended before the closing delimiter", ErrMalformedFraming)
				return 0, b.err
			}
			b.err = err
			return 0, err
		}

		if tok.Kind == TokenMatch {
			b.atMatch = true
			return 0, io.EOF
		}

		if len(tok.Data) == 0 {
			continue
		}
		n := copy(p, tok.Data)
		if n < len(tok.Data) {
			b.queue = append([]Token{{Kind: TokenData, Data: tok.Data[n:]}}, b.queue...)
		}
		return n, nil
	}
}

// drain discards the remainder of the current segment, stopping exactly at
// the next match.
func (b *boundaryScanner) drain() error {
	buf := make([]byte, defaultChunkSize)
	for {
		_, err := b.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// advance consumes the pending match and reports whether the two bytes
// immediately following it are "--", meaning the closing delimiter has been
// reached. Per the documented lenient-termination behavior, anything may
// follow those two bytes.
func (b *boundaryScanner) advance() (terminated bool, err error) {
	if b.err != nil {
		return false, b.err
	}
	if !b.atMatch {
		if err := b.drain(); err != nil {
			return false, err
		}
	}
	b.atMatch = false

	peek, err := b.peek(2)
	if err != nil {
		return false, err
	}

	return bytes.Equal(peek, []byte("--")), nil
}

// peek returns up to n bytes from the start of the next segment without
// consuming them from the segment's eventual Read calls.
func (b *boundaryScanner) peek(n int) ([]byte, error) {
	var collected []byte
	for len(collected) < n {
		tok, err := b.nextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if tok.Kind == TokenMatch {
			b.queue = append([]Token{{Kind: TokenMatch}}, b.queue...)
			break
		}
		if len(tok.Data) == 0 {
			continue
		}
		collected = append(collected, tok.Data...)
	}

	take := collected
	if len(take) > n {
		take = take[:n]
	}

	if len(take) > 0 {
		rest := collected[len(take):]
		front := []Token{{Kind: TokenData, Data: take}}
		if len(rest) > 0 {
			front = append(front, Token{Kind: TokenData, Data: rest})
		}
		b.queue = append(front, b.queue...)
	}

	return take, nil
}

// lineStream runs a single CRLF-needle StreamSearch over a segment's bytes,
// pulled one token at a time. A part's header block and body share one
// lineStream: header parsing consumes tokens up to the blank line, and body
// forwarding resumes pulling from the exact same queue and search instance
// afterwards, so no byte is ever double-scanned or dropped at the
// header/body seam.
type lineStream struct {
	r      io.Reader
	search *StreamSearch
	queue  []Token
	done   bool
}

func newLineStream(r io.Reader) *lineStream {
	return &lineStream{r: r, search: NewStreamSearch(crlf)}
}

func (ls *lineStream) next() (Token, error) {
	for len(ls.queue) == 0 {
		if ls.done {
			return Token{}, io.EOF
		}

		buf := make([]byte, defaultChunkSize)
		n, err := ls.r.Read(buf)
		if n > 0 {
			ls.queue = append(ls.queue, ls.search.Feed(buf[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				ls.done = true
				if tail := ls.search.End(); len(tail) > 0 {
					ls.queue = append(ls.queue, Token{Kind: TokenData, Data: tail})
				}
				continue
			}
			return Token{}, err
		}
	}

	t := ls.queue[0]
	ls.queue = ls.queue[1:]
	return t, nil
}

// readHeaderLines pulls tokens until a blank line (two CRLFs back to back)
// terminates the header block. The segment starts with the CRLF that ends
// the boundary delimiter line itself; that first, empty line is skipped. A
// blank line reached after it, before any real header line was read, means
// the header block is empty, which is malformed. The accumulated size of
// the header block (every line's bytes plus its terminating CRLF) is
// tracked against maxHeaderBytes; exceeding it aborts with
// ErrHeaderTooLarge before the whole block is even read.
func readHeaderLines(ls *lineStream, maxHeaderBytes DataSize) ([]string, error) {
	var lines []string
	var cur []byte
	var size DataSize
	delimLineEnded := false

	for {
		tok, err := ls.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: next boundary reached before the header block was terminated", ErrMalformedFraming)
			}
			return nil, err
		}

		switch tok.Kind {
		case TokenData:
			cur = append(cur, tok.Data...)
			size += DataSize(len(tok.Data))
			if size > maxHeaderBytes {
				return nil, fmt.Errorf("%w: exceeds %d bytes", ErrHeaderTooLarge, maxHeaderBytes)
			}
		case TokenMatch:
			if !delimLineEnded && len(cur) == 0 && len(lines) == 0 {
				delimLineEnded = true
				continue
			}
			size += DataSize(len(crlf))
			if size > maxHeaderBytes {
				return nil, fmt.Errorf("%w: exceeds %d bytes", ErrHeaderTooLarge, maxHeaderBytes)
			}
			if len(cur) == 0 {
				if len(lines) == 0 {
					return nil, fmt.Errorf("%w: empty header block", ErrMalformedFraming)
				}
				return lines, nil
			}
			lines = append(lines, string(cur))
			cur = nil
		}
	}
}

// crlfForwarder wraps a lineStream (already past the header block) to
// implement the "hold the most recent CRLF pending" rule: it strips
// exactly the trailing CRLF the RFC mandates before every boundary, never
// buffering more than one pending CRLF.
type crlfForwarder struct {
	ls      *lineStream
	pending bool
	err     error
}

func newCRLFForwarder(ls *lineStream) *crlfForwarder {
	return &crlfForwarder{ls: ls}
}

func (f *crlfForwarder) Read(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}

	for {
		tok, err := f.ls.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A pending CRLF at this point is exactly the trailing
				// CRLF the RFC mandates before the boundary: drop it.
				f.pending = false
				return 0, io.EOF
			}
			f.err = err
			return 0, err
		}

		if tok.Kind == TokenMatch {
			if f.pending {
				// Two CRLFs back to back: forward the earlier one, keep
				// this one pending.
				n := copy(p, crlf)
				return n, nil
			}
			f.pending = true
			continue
		}

		if f.pending {
			f.pending = false
			f.ls.queue = append([]Token{tok}, f.ls.queue...)
			n := copy(p, crlf)
			return n, nil
		}

		if len(tok.Data) == 0 {
			continue
		}
		n := copy(p, tok.Data)
		if n < len(tok.Data) {
			f.ls.queue = append([]Token{{Kind: TokenData, Data: tok.Data[n:]}}, f.ls.queue...)
		}
		return n, nil
	}
}

// PartIterator yields successive Parts from a multipart/form-data stream,
// driven entirely by pull: nothing is read from the underlying ByteSource
// until Next is called. A PartIterator is not safe for concurrent use, and
// a Part's Body becomes terminal once the enclosing PartIterator's Next is
// called again.
type PartIterator struct {
	scanner *boundaryScanner
	cfg     config

	started     bool
	terminated  bool
	partsLeft   uint
	headerLines uint

	curBody *crlfForwarder
	err     error
}

// StreamMultipart begins parsing src as a multipart/form-data payload with
// the given boundary (without the leading "--"). Each yielded Part's Body
// is a lazy io.Reader that must be consumed (or explicitly abandoned, by
// calling Next again) before reading the next Part.
func StreamMultipart(src ByteSource, boundary string, opts ...Option) *PartIterator {
	cfg := newConfig(opts)
	return &PartIterator{
		scanner:   newBoundaryScanner(src, boundary),
		cfg:       cfg,
		partsLeft: cfg.maxParts,
	}
}

// Next reads the next Part's header block and returns it with a lazy Body.
// It returns io.EOF once the closing delimiter has been reached. Calling
// Next again before the previous Part's Body is exhausted drains that body
// automatically. Once Next has returned an error other than io.EOF, every
// later call returns that same error.
func (it *PartIterator) Next() (_ *Part, retErr error) {
	if it.terminated {
		return nil, io.EOF
	}
	if it.err != nil {
		return nil, it.err
	}
	defer func() {
		if retErr != nil && !errors.Is(retErr, io.EOF) {
			it.err = retErr
		}
	}()

	if it.curBody != nil {
		if err := it.drainCurrentBody(); err != nil {
			return nil, err
		}
		it.curBody = nil
	}

	if !it.started {
		it.started = true
		// PROLOGUE: discard everything up to the first boundary match.
		if err := it.scanner.drain(); err != nil {
			return nil, err
		}
	}

	terminated, err := it.scanner.advance()
	if err != nil {
		return nil, err
	}
	if terminated {
		it.terminated = true
		return nil, io.EOF
	}

	if it.partsLeft == 0 {
		return nil, ErrTooManyParts
	}
	it.partsLeft--

	ls := newLineStream(it.scanner)
	lines, err := readHeaderLines(ls, it.cfg.maxHeaderBytes)
	if err != nil {
		return nil, err
	}

	it.headerLines += uint(len(lines))
	if it.headerLines > it.cfg.maxHeaders {
		return nil, ErrTooManyHeaders
	}

	part, err := parseHeaderLines(lines)
	if err != nil {
		return nil, err
	}

	fwd := newCRLFForwarder(ls)
	it.curBody = fwd
	part.Body = fwd

	return part, nil
}

func (it *PartIterator) drainCurrentBody() error {
	buf := make([]byte, defaultChunkSize)
	for {
		_, err := it.curBody.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// EagerPartIterator wraps a PartIterator, fully collecting each Part's Body
// into memory (or, past WithMaxMemFileSize, a temp file) before returning
// it.
type EagerPartIterator struct {
	it   *PartIterator
	coll *collector
}

// IterateMultipart is a convenience wrapper over StreamMultipart that
// collects each Part's body eagerly, matching the resource budgets in opts.
func IterateMultipart(src ByteSource, boundary string, opts ...Option) *EagerPartIterator {
	cfg := newConfig(opts)
	return &EagerPartIterator{
		it:   StreamMultipart(src, boundary, opts...),
		coll: newCollector(cfg),
	}
}

// Next returns the next Part with its Body fully collected. It returns
// io.EOF once the stream is exhausted.
func (it *EagerPartIterator) Next() (*Part, error) {
	part, err := it.it.Next()
	if err != nil {
		return nil, err
	}

	body, err := it.coll.collect(part.Body)
	if err != nil {
		return nil, err
	}
	part.Body = body

	return part, nil
}

// Close releases any temp file created while collecting part bodies. It
// must be called once the caller is done with every Part this iterator
// produced.
func (it *EagerPartIterator) Close() error {
	return it.coll.Close()
}

// ParseMultipart collects every part of src into memory up front. The
// returned close func must be called once the caller is done with the
// parts, to release any temp file created for oversized bodies.
func ParseMultipart(src ByteSource, boundary string, opts ...Option) (parts []*Part, closeFn func() error, err error) {
	it := IterateMultipart(src, boundary, opts...)

	for {
		part, nextErr := it.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			_ = it.Close()
			return nil, nil, nextErr
		}
		parts = append(parts, part)
	}

	return parts, it.Close, nil
}
