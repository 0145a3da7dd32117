package formstream

import (
	"fmt"
	"sort"
	"strings"
)

// BuildHeaderLines rebuilds a part's header lines from its fixed fields:
// Content-Disposition (always), Content-Type (if set),
// Content-Transfer-Encoding (if set), any extra headers whose lower-cased
// name starts with "x-" (sorted for determinism), then Content-Length (if
// set). It is used by Reemit whenever a Part reaches serialization with
// HeaderLines nil or out of step with its fixed fields. In the name and
// filename parameters, '"' and '\' are backslash-escaped.
func BuildHeaderLines(p *Part) []string {
	var lines []string

	disposition := fmt.Sprintf(`form-data; name="%s"`, escapeParamValue(p.Name))
	if p.Filename != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, escapeParamValue(p.Filename))
	}
	lines = append(lines, "Content-Disposition: "+disposition)

	if p.ContentType != "" {
		lines = append(lines, "Content-Type: "+p.ContentType)
	}

	if p.ContentTransferEncoding != "" {
		lines = append(lines, "Content-Transfer-Encoding: "+p.ContentTransferEncoding)
	}

	var xHeaderNames []string
	for name := range p.ExtraHeaders {
		if strings.HasPrefix(name, "x-") {
			xHeaderNames = append(xHeaderNames, name)
		}
	}
	sort.Strings(xHeaderNames)
	for _, name := range xHeaderNames {
		lines = append(lines, canonicalHeaderName(name)+": "+p.ExtraHeaders[name])
	}

	if p.ContentLength != "" {
		lines = append(lines, "Content-Length: "+p.ContentLength)
	}

	return lines
}

func escapeParamValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// canonicalHeaderName title-cases each '-'-separated segment of a
// lower-cased header name, e.g. "x-request-id" -> "X-Request-Id".
func canonicalHeaderName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}
