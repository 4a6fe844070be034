package output

import (
	"encoding/json"
	"sync"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/runner"
	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Results []JSONResult    `json:"results"`
	Summary *runner.Summary `json:"summary,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// JSONResult is one sent document
type JSONResult struct {
	Name       string         `json:"name"`
	Source     string         `json:"source,omitempty"`
	Iteration  int            `json:"iteration"`
	Method     string         `json:"method"`
	URL        string         `json:"url"`
	DurationMs int64          `json:"duration_ms"`
	Response   *http.Response `json:"response,omitempty"`
	Query      *string        `json:"query,omitempty"`
	Error      string         `json:"error,omitempty"`
	ErrorKind  string         `json:"error_kind,omitempty"`
}

// JSONFormatter buffers results and writes them as one document on Flush
type JSONFormatter struct {
	opts *options

	mu     sync.Mutex
	output JSONOutput
}

func NewJSONFormatter(opts ...Option) *JSONFormatter {
	return &JSONFormatter{
		opts:   newOptions(opts),
		output: JSONOutput{Results: make([]JSONResult, 0)},
	}
}

func (f *JSONFormatter) FormatResult(result *runner.Result) {
	entry := JSONResult{
		Name:      result.Document.DisplayName(),
		Source:    result.Document.Source,
		Iteration: result.Iteration,
		Method:    result.Request.Method,
		URL:       result.Request.URL,
	}

	if result.Error != nil {
		entry.Error = result.Error.Error()
		if kind, ok := http.KindOf(result.Error); ok {
			entry.ErrorKind = kind.String()
		}
	} else {
		entry.Response = result.Response
		entry.DurationMs = result.Response.DurationMs()
		if f.opts.query != "" {
			value, err := Query(result.Response, f.opts.query)
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.Query = &value
			}
		}
	}

	f.mu.Lock()
	f.output.Results = append(f.output.Results, entry)
	f.mu.Unlock()
}

func (f *JSONFormatter) FormatSummary(summary runner.Summary) {
	f.mu.Lock()
	f.output.Summary = &summary
	f.mu.Unlock()
}

func (f *JSONFormatter) FormatError(err error) {
	f.mu.Lock()
	f.output.Errors = append(f.output.Errors, err.Error())
	f.mu.Unlock()
}

// Flush writes the buffered output and resets the formatter.
func (f *JSONFormatter) Flush() error {
	f.mu.Lock()
	out := f.output
	f.output = JSONOutput{Results: make([]JSONResult, 0)}
	f.mu.Unlock()

	enc := json.NewEncoder(f.opts.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
