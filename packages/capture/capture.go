package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Capture is a parsed extraction expression.
type Capture struct {
	Source Source
	Path   string
}

// Parse reads an extraction expression. It never fails; anything that is not
// a known source is a body path.
func Parse(expr string) Capture {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "status":
		return Capture{Source: SourceStatus}
	case expr == "duration":
		return Capture{Source: SourceDuration}
	case expr == "body":
		return Capture{Source: SourceBody}
	case strings.HasPrefix(expr, "header."):
		return Capture{Source: SourceHeader, Path: strings.TrimPrefix(expr, "header.")}
	case strings.HasPrefix(expr, "body."):
		return Capture{Source: SourceBody, Path: strings.TrimPrefix(expr, "body.")}
	default:
		return Capture{Source: SourceBody, Path: expr}
	}
}

type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
	isJSON   bool
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if gjson.Valid(resp.Body) {
		e.bodyJSON = gjson.Parse(resp.Body)
		e.isJSON = true
	}
	return e
}

// Extract returns the captured value as text. JSON strings come back
// unquoted, other JSON values raw.
func (e *Extractor) Extract(c Capture) (string, error) {
	switch c.Source {
	case SourceBody:
		return e.extractFromBody(c.Path)
	case SourceHeader:
		return e.extractFromHeader(c.Path)
	case SourceStatus:
		return strconv.Itoa(e.response.Status), nil
	case SourceDuration:
		return strconv.FormatInt(e.response.DurationMs(), 10), nil
	default:
		return "", fmt.Errorf("unknown capture source %d", c.Source)
	}
}

func (e *Extractor) extractFromBody(path string) (string, error) {
	if path == "" {
		return e.response.Body, nil
	}
	if !e.isJSON {
		return "", fmt.Errorf("response body is not valid JSON")
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return "", fmt.Errorf("no value at path %q", path)
	}
	if result.Type == gjson.String {
		return result.String(), nil
	}
	return result.Raw, nil
}

func (e *Extractor) extractFromHeader(name string) (string, error) {
	values := e.response.Values(name)
	if len(values) == 0 {
		return "", fmt.Errorf("no header %q", name)
	}
	return strings.Join(values, ", "), nil
}

// Extract is a shorthand for NewExtractor(resp).Extract(Parse(expr)).
func Extract(resp *http.Response, expr string) (string, error) {
	return NewExtractor(resp).Extract(Parse(expr))
}
