// Package formstream implements a streaming parser and re-emitter for
// multipart/form-data payloads (RFC 7578 / RFC 2046 §5.1.1). Parts are
// discovered without ever buffering a whole part: headers are available the
// instant a part's header block has been read, and a part's body is exposed
// as a lazy io.Reader driven by the same underlying byte source.
package formstream

// DataSize is a byte count used to size the memory/temp-file budgets that
// bound eager part collection.
type DataSize int64

const (
	_ DataSize = 1 << (iota * 10)
	KB
	MB
	GB
)

const (
	defaultMaxParts       = 10000
	defaultMaxHeaders     = 10000
	defaultMaxHeaderBytes = 1 * MB
	defaultMaxMemSize     = 32 * MB
	defaultMaxMemFileSize = 32 * MB
)

// config bounds resource usage across a single parse/re-emit run. newConfig
// applies the defaults below before Options are applied.
type config struct {
	maxParts       uint
	maxHeaders     uint
	maxHeaderBytes DataSize
	maxMemSize     DataSize
	maxMemFileSize DataSize
}

func newConfig(opts []Option) config {
	c := config{
		maxParts:       defaultMaxParts,
		maxHeaders:     defaultMaxHeaders,
		maxHeaderBytes: defaultMaxHeaderBytes,
		maxMemSize:     defaultMaxMemSize,
		maxMemFileSize: defaultMaxMemFileSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures resource limits for StreamMultipart, IterateMultipart,
// ParseMultipart and Reemit.
type Option func(*config)

// WithMaxParts caps the number of parts a single parse will yield.
// default: 10000
func WithMaxParts(maxParts uint) Option {
	return func(c *config) { c.maxParts = maxParts }
}

// WithMaxHeaders caps the total number of header lines across all parts.
// default: 10000
func WithMaxHeaders(maxHeaders uint) Option {
	return func(c *config) { c.maxHeaders = maxHeaders }
}

// WithMaxHeaderBytes caps the size of any single part's header block
// (readHeaderLines rejects a part once its accumulated header bytes
// exceed this, returning ErrHeaderTooLarge).
// default: 1MB
func WithMaxHeaderBytes(maxHeaderBytes DataSize) Option {
	return func(c *config) { c.maxHeaderBytes = maxHeaderBytes }
}

// WithMaxMemSize caps the total bytes IterateMultipart/ParseMultipart will
// hold in memory before spilling further part bodies to a temp file.
// default: 32MB
func WithMaxMemSize(maxMemSize DataSize) Option {
	return func(c *config) { c.maxMemSize = maxMemSize }
}

// WithMaxMemFileSize caps how much of any single part body is held in
// memory before that part spills to a temp file.
// default: 32MB
func WithMaxMemFileSize(maxMemFileSize DataSize) Option {
	return func(c *config) { c.maxMemFileSize = maxMemFileSize }
}
