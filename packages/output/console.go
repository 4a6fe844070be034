package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/runner"
	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

type ConsoleFormatter struct {
	opts *options

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
	bold   func(a ...any) string
	dim    func(a ...any) string
}

func NewConsoleFormatter(opts ...Option) *ConsoleFormatter {
	o := newOptions(opts)
	f := &ConsoleFormatter{
		opts:   o,
		green:  colorFunc(o.noColor, color.FgGreen),
		red:    colorFunc(o.noColor, color.FgRed),
		yellow: colorFunc(o.noColor, color.FgYellow),
		cyan:   colorFunc(o.noColor, color.FgCyan),
		bold:   colorFunc(o.noColor, color.Bold),
		dim:    colorFunc(o.noColor, color.Faint),
	}
	return f
}

func colorFunc(noColor bool, attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if noColor {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (f *ConsoleFormatter) statusColor(status int) func(a ...any) string {
	switch {
	case status >= 500:
		return f.red
	case status >= 400:
		return f.yellow
	case status >= 300:
		return f.cyan
	default:
		return f.green
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.Result) {
	w := f.opts.writer
	name := result.Document.DisplayName()
	if result.Iteration > 1 {
		name = fmt.Sprintf("%s #%d", name, result.Iteration)
	}

	if result.Error != nil {
		fmt.Fprintf(w, "%s %s\n", f.red("✗"), f.bold(name))
		fmt.Fprintf(w, "  %s\n", f.red(result.Error.Error()))
		return
	}

	resp := result.Response
	status := fmt.Sprintf("%d %s", resp.Status, resp.StatusText)
	fmt.Fprintf(w, "%s %s %s\n",
		f.statusColor(resp.Status)(strings.TrimSpace(status)),
		f.bold(name),
		f.dim(fmt.Sprintf("(%dms, %s)", resp.DurationMs(), formatSize(resp.Size()))),
	)

	if f.opts.verbose {
		fmt.Fprintf(w, "%s %s\n", f.dim(result.Request.Method), f.dim(result.Request.URL))
	}

	if f.opts.includeHeaders {
		for _, h := range resp.Headers {
			fmt.Fprintf(w, "%s: %s\n", f.cyan(h.Name), h.Value)
		}
		fmt.Fprintln(w)
	}

	f.writeBody(resp)
}

func (f *ConsoleFormatter) writeBody(resp *http.Response) {
	w := f.opts.writer
	if f.opts.query != "" {
		value, err := Query(resp, f.opts.query)
		if err != nil {
			fmt.Fprintf(w, "%s\n", f.yellow(err.Error()))
			return
		}
		fmt.Fprintln(w, value)
		return
	}

	if resp.Body == "" {
		return
	}
	fmt.Fprintln(w, PrettyBody(resp.Body))
}

func (f *ConsoleFormatter) FormatSummary(summary runner.Summary) {
	w := f.opts.writer
	fmt.Fprintf(w, "\n%s %d sent, %s, %s\n",
		f.bold("Summary:"),
		summary.Total,
		f.green(fmt.Sprintf("%d succeeded", summary.Succeeded)),
		f.failedColor(summary.Failed)(fmt.Sprintf("%d failed", summary.Failed)),
	)
	for kind, n := range summary.Errors {
		fmt.Fprintf(w, "  %s: %d\n", kind, n)
	}
	if summary.Succeeded > 0 {
		l := summary.Latency
		fmt.Fprintf(w, "  latency min %s  p50 %s  p90 %s  p99 %s  max %s\n", l.Min, l.P50, l.P90, l.P99, l.Max)
	}
}

func (f *ConsoleFormatter) failedColor(failed int) func(a ...any) string {
	if failed > 0 {
		return f.red
	}
	return f.dim
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.opts.writer, "%s %s\n", f.red("error:"), err.Error())
}

func (f *ConsoleFormatter) Flush() error {
	return nil
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
