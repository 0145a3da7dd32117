package echoform

import (
	"mime"
	"net/http"

	"github.com/janwilmake/multipart-formdata-stream-js"
	"github.com/labstack/echo/v4"
)

// Parser wraps a formstream.HookParser bound to an echo.Context's request
// body and boundary, extracted from its Content-Type header.
type Parser struct {
	*formstream.HookParser
	src formstream.ByteSource
}

// NewParser builds a Parser for c, failing if the request is not a
// well-formed multipart/form-data request.
func NewParser(c echo.Context, options ...formstream.Option) (*Parser, error) {
	contentType := c.Request().Header.Get("Content-Type")
	d, params, err := mime.ParseMediaType(contentType)
	if err != nil || d != "multipart/form-data" {
		return nil, http.ErrNotMultipart
	}

	boundary, ok := params["boundary"]
	if !ok {
		return nil, http.ErrMissingBoundary
	}

	return &Parser{
		HookParser: formstream.NewHookParser(boundary, options...),
		src:        formstream.NewReaderSource(c.Request().Body, 0),
	}, nil
}

// Parse runs the registered hooks against the request body.
func (p *Parser) Parse() error {
	return p.HookParser.Run(p.src)
}
