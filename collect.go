package formstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/janwilmake/multipart-formdata-stream-js/internal/myio"
)

// collector collects part bodies into memory up to WithMaxMemFileSize,
// spilling anything beyond that to a single shared temp file (opened lazily,
// on first spill) whose sections are handed out per part. It bounds total
// memory use to WithMaxMemSize across every part it collects.
type collector struct {
	cfg      config
	offset   int64
	file     *os.File
	filePath string
}

func newCollector(cfg config) *collector {
	return &collector{cfg: cfg}
}

// collect reads body to completion, returning a re-readable io.Reader over
// its contents: a *bytes.Reader while under the memory budget, or a
// temp-file-backed section once a single body exceeds WithMaxMemFileSize.
func (c *collector) collect(body io.Reader) (io.Reader, error) {
	memLimit := c.cfg.maxMemFileSize
	if c.cfg.maxMemSize < memLimit {
		memLimit = c.cfg.maxMemSize
	}

	buf := new(bytes.Buffer)
	n, err := io.CopyN(buf, body, int64(memLimit)+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("formstream: failed to collect part body: %w", err)
	}

	if DataSize(n) <= memLimit {
		if DataSize(n) > c.cfg.maxMemSize {
			return nil, ErrTooLargeForm
		}
		c.cfg.maxMemSize -= DataSize(n)
		return bytes.NewReader(buf.Bytes()), nil
	}

	if c.file == nil {
		f, ferr := os.CreateTemp("", "formstream-")
		if ferr != nil {
			return nil, fmt.Errorf("formstream: failed to create temp file: %w", ferr)
		}
		c.file = f
		c.filePath = f.Name()
	}

	bufSize, err := io.Copy(c.file, buf)
	if err != nil {
		return nil, fmt.Errorf("formstream: failed to spill part body: %w", err)
	}

	remainSize, err := io.Copy(c.file, body)
	if err != nil {
		return nil, fmt.Errorf("formstream: failed to spill part body: %w", err)
	}

	size := bufSize + remainSize
	section := io.NewSectionReader(c.file, c.offset, size)
	c.offset += size

	return myio.NopSeekCloser(section), nil
}

// Close removes the shared temp file, if one was created.
func (c *collector) Close() error {
	if c.file == nil {
		return nil
	}

	closeErr := c.file.Close()
	removeErr := os.Remove(c.filePath)

	if closeErr != nil || removeErr != nil {
		return errors.Join(closeErr, removeErr)
	}

	return nil
}
