package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/config"
	"github.com/abdul-hamid-achik/sendhttp/packages/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	noColorFlag   bool
	envFileFlag   string

	// set by loadRuntime before any subcommand runs
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sendhttp",
	Short: "Describe an HTTP request, get back a normalized response.",
	Long: `sendhttp sends HTTP requests described in YAML or JSON documents and
prints the normalized response: status, headers and body.

Each request carries its own transport policy (redirects, TLS verification),
so documents can mix strict and lenient calls in one run.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	err := rootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.code != ExitSuccess {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: .sendhttp.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (env: SENDHTTP_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: console, json (env: SENDHTTP_LOG_FORMAT)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output (env: SENDHTTP_NO_COLOR)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Path to .env file for {{variables}} (default: .env)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagKeys maps flag names to the config keys they override when set
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"log-format":    "log_format",
	"no-color":      "no_color",
	"env-file":      "env_file",
	"timeout":       "timeout",
	"max-redirects": "max_redirects",
	"proxy":         "proxy",
	"concurrency":   "concurrency",
	"rate":          "rate",
}

func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)
	flags := cmd.Flags()

	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = f.Value.String()
	}

	if f := flags.Lookup("insecure"); f != nil && f.Changed {
		insecure, _ := flags.GetBool("insecure")
		overrides["verify_ssl"] = !insecure
	}
	if f := flags.Lookup("no-follow"); f != nil && f.Changed {
		noFollow, _ := flags.GetBool("no-follow")
		overrides["follow_redirects"] = !noFollow
	}
	return overrides
}

func loadRuntime(cmd *cobra.Command, args []string) error {
	dotenv := envFileFlag
	if dotenv == "" {
		dotenv = config.DefaultEnvFile
	}

	loaded, err := config.Load(config.Options{
		Path:      configFlag,
		DotEnv:    dotenv,
		Overrides: flagOverrides(cmd),
	})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	l, err := logger.New(loaded.LogLevel, loaded.LogFormat)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	cfg = loaded
	log = l
	if cfg.File != "" {
		log.Debug("loaded config", zap.String("file", cfg.File))
	}
	return nil
}
