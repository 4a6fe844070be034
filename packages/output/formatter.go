package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/sendhttp/packages/capture"
	"github.com/abdul-hamid-achik/sendhttp/packages/core/runner"
	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

// Formatter renders the results of a run.
type Formatter interface {
	FormatResult(result *runner.Result)
	FormatSummary(summary runner.Summary)
	FormatError(err error)
	Flush() error
}

// New returns the formatter named by format.
func New(format string, opts ...Option) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "console":
		return NewConsoleFormatter(opts...), nil
	case "json":
		return NewJSONFormatter(opts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected console or json)", format)
	}
}

type options struct {
	writer         io.Writer
	query          string
	includeHeaders bool
	verbose        bool
	noColor        bool
}

type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{writer: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithQuery prints only the value matched by a capture expression
func WithQuery(path string) Option {
	return func(o *options) {
		o.query = path
	}
}

// WithHeaders includes response headers in the output
func WithHeaders(include bool) Option {
	return func(o *options) {
		o.includeHeaders = include
	}
}

func WithVerbose(v bool) Option {
	return func(o *options) {
		o.verbose = v
	}
}

func WithNoColor(nc bool) Option {
	return func(o *options) {
		o.noColor = nc
	}
}

// Query extracts one value from a response; see package capture for the
// expression syntax.
func Query(resp *http.Response, expr string) (string, error) {
	return capture.Extract(resp, expr)
}

// PrettyBody indents a JSON body and returns other bodies unchanged.
func PrettyBody(body string) string {
	if body == "" || !gjson.Valid(body) {
		return body
	}
	return strings.TrimRight(gjson.Get(body, "@pretty").Raw, "\n")
}
