package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

var execCmd = &cobra.Command{
	Use:   "exec [file|-]",
	Short: "Execute a JSON request payload and print the JSON response",
	Long: `Execute one request given as a JSON payload and print the normalized
response as JSON. With no argument, or "-", the payload is read from stdin.

Payload:
  {"method": "POST", "url": "https://example.com",
   "headers": [["Accept", "application/json"]],
   "body_type": "raw", "body": "{}",
   "form_data": [{"key": "a", "value": "1", "enabled": true}],
   "settings": {"follow_redirects": true, "verify_ssl": true}}

Both settings flags are required; a payload without them is rejected.
On failure the output is {"error": "...", "kind": "..."} and the exit code
reflects the error kind.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return withExitCode(ExitUsageError, err)
			}
			defer f.Close()
			in = f
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runExec(ctx, in, cmd.OutOrStdout(), newExecutor())
	},
}

// execError is the JSON shape of a failed exec.
type execError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// runExec decodes a Payload from r, executes it and writes the Response or
// an execError to w.
func runExec(ctx context.Context, r io.Reader, w io.Writer, executor *http.Executor) error {
	var payload http.Payload
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		err = fmt.Errorf("decode payload: %w", err)
		_ = writeJSON(w, execError{Error: err.Error(), Kind: "InvalidPayload"})
		return withExitCode(ExitParseError, err)
	}

	resp, err := executor.Execute(ctx, payload.Request())
	if err != nil {
		kind, _ := http.KindOf(err)
		if werr := writeJSON(w, execError{Error: err.Error(), Kind: kind.String()}); werr != nil {
			return werr
		}
		return withExitCode(exitCodeFor(err), err)
	}
	return writeJSON(w, resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
