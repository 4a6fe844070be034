package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/document"
	"github.com/abdul-hamid-achik/sendhttp/packages/core/env"
	"github.com/abdul-hamid-achik/sendhttp/packages/core/runner"
	"github.com/abdul-hamid-achik/sendhttp/packages/http"
	"github.com/abdul-hamid-achik/sendhttp/packages/output"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	varFlags         []string
	insecureFlag     bool
	noFollowFlag     bool
	timeoutFlag      time.Duration
	maxRedirectsFlag int
	proxyFlag        string
	outputFlag       string
	queryFlag        string
	includeFlag      bool
	repeatFlag       int
	concurrencyFlag  int
	rateFlag         float64
	watchFlag        bool
	verboseFlag      bool
)

var sendCmd = &cobra.Command{
	Use:   "send <file|directory>...",
	Short: "Send the requests described in documents",
	Long: `Send one or more HTTP requests described in YAML or JSON documents.

A file may hold several documents separated by "---". Directories are
searched for .yaml, .yml and .json files.

Examples:
  sendhttp send api.yaml
  sendhttp send requests/ --var host=localhost:8080
  sendhttp send login.yaml -q token
  sendhttp send health.yaml -n 100 -c 10 --rate 20
  sendhttp send self-signed.yaml --insecure --no-follow`,
	Args: cobra.MinimumNArgs(1),
	RunE: sendCommand,
}

func init() {
	sendCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (name=value), repeatable")
	sendCmd.Flags().BoolVar(&insecureFlag, "insecure", false, "Skip TLS certificate verification by default (env: SENDHTTP_VERIFY_SSL=false)")
	sendCmd.Flags().BoolVar(&noFollowFlag, "no-follow", false, "Do not follow redirects by default (env: SENDHTTP_FOLLOW_REDIRECTS=false)")
	sendCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Per-request timeout (env: SENDHTTP_TIMEOUT)")
	sendCmd.Flags().IntVar(&maxRedirectsFlag, "max-redirects", 0, "Maximum redirects to follow (env: SENDHTTP_MAX_REDIRECTS)")
	sendCmd.Flags().StringVar(&proxyFlag, "proxy", "", "Proxy URL for all requests (env: SENDHTTP_PROXY)")
	sendCmd.Flags().StringVarP(&outputFlag, "output", "o", "console", "Output format: console, json")
	sendCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "Print only one value: a gjson body path, status, duration or header.<Name>")
	sendCmd.Flags().BoolVarP(&includeFlag, "include", "i", false, "Include response headers in the output")
	sendCmd.Flags().IntVarP(&repeatFlag, "repeat", "n", 1, "Send each request this many times")
	sendCmd.Flags().IntVarP(&concurrencyFlag, "concurrency", "c", 0, "Maximum requests in flight (env: SENDHTTP_CONCURRENCY)")
	sendCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum requests per second, 0 for unlimited (env: SENDHTTP_RATE)")
	sendCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-send")
	sendCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show the request line and headers")
}

func sendCommand(cmd *cobra.Command, args []string) error {
	files, err := document.CollectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no request documents found in %s", strings.Join(args, ", ")))
	}

	vars, err := parseVars(varFlags)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if repeatFlag < 1 {
		return withExitCode(ExitUsageError, fmt.Errorf("--repeat must be at least 1, got %d", repeatFlag))
	}

	dotenv, err := env.LoadOptionalDotEnv(cfg.EnvFile)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	resolver := env.NewResolver()
	resolver.SetVariables(env.MergeVariables(dotenv, vars))
	resolver.SetWarnFunc(func(format string, args ...any) {
		log.Warn(fmt.Sprintf(format, args...))
	})

	executor := newExecutor()
	r := runner.NewRunner(executor, resolver, &runner.Config{
		Concurrency: cfg.Concurrency,
		Rate:        cfg.Rate,
		Repeat:      repeatFlag,
		Defaults: http.Settings{
			FollowRedirects: cfg.FollowRedirects,
			VerifySSL:       cfg.VerifySSL,
		},
	}, runner.WithLogger(log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sendOnce := func() error {
		formatter, err := newFormatter(cmd)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		return sendFiles(ctx, r, files, formatter)
	}

	runErr := sendOnce()
	if !watchFlag {
		return runErr
	}
	return watchFiles(ctx, cmd, args, files, sendOnce)
}

func newExecutor() *http.Executor {
	opts := []http.ExecutorOption{
		http.WithTimeout(cfg.Timeout),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithLogger(log),
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	return http.NewExecutor(opts...)
}

func newFormatter(cmd *cobra.Command) (output.Formatter, error) {
	return output.New(outputFlag,
		output.WithWriter(cmd.OutOrStdout()),
		output.WithQuery(queryFlag),
		output.WithHeaders(includeFlag),
		output.WithVerbose(verboseFlag),
		output.WithNoColor(cfg.NoColor),
	)
}

// sendFiles loads and sends every document in files. The first
// failure decides the returned error.
func sendFiles(ctx context.Context, r *runner.Runner, files []string, formatter output.Formatter) error {
	var docs []*document.Document
	for _, file := range files {
		loaded, err := document.LoadFile(file)
		if err != nil {
			formatter.FormatError(err)
			_ = formatter.Flush()
			return withExitCode(ExitParseError, err)
		}
		docs = append(docs, loaded...)
	}

	log.Debug("sending documents", zap.Int("documents", len(docs)), zap.Int("files", len(files)))

	results, summary := r.Run(ctx, docs)

	var firstErr error
	for _, res := range results {
		formatter.FormatResult(res)
		if firstErr == nil && res.Error != nil {
			firstErr = res.Error
		}
	}
	if len(results) > 1 {
		formatter.FormatSummary(summary)
	}
	if err := formatter.Flush(); err != nil {
		return err
	}

	if firstErr != nil {
		return withExitCode(exitCodeFor(firstErr), firstErr)
	}
	return nil
}

func watchFiles(ctx context.Context, cmd *cobra.Command, args, files []string, rerun func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// fsnotify watches directories; editors often replace files on save
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				log.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
			}
			watchedDirs[dir] = true
		}
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() && !watchedDirs[arg] {
			_ = watcher.Add(arg)
			watchedDirs[arg] = true
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// debounced reruns fire on timer goroutines; only one may print at a time
	var serial serialRunner
	resend := func(name string) error {
		fmt.Fprintf(out, "\n\nFile changed: %s\nRe-sending...\n\n", name)
		err := rerun()
		fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")
		return err
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !document.IsDocumentFile(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				if err := serial.run(func() error { return resend(name) }); err != nil {
					log.Warn("re-send failed", zap.Error(err))
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}

// serialRunner runs functions one at a time.
type serialRunner struct {
	mu sync.Mutex
}

func (s *serialRunner) run(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// parseVars turns name=value flags into a map. The value may contain '='.
func parseVars(flags []string) (map[string]string, error) {
	vars := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", f)
		}
		vars[name] = value
	}
	return vars, nil
}
