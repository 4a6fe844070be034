package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/sendhttp/packages/import/curl"
)

var (
	importOutputFlag     string
	importKeepFollowFlag bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert other request formats to sendhttp documents",
}

var importCurlCmd = &cobra.Command{
	Use:   "curl [file|-|command]",
	Short: "Convert curl commands to request documents",
	Long: `Convert curl commands to YAML request documents.

The argument is a file of curl commands (one per line, backslash
continuations allowed), "-" for stdin, or a quoted curl command.

Examples:
  sendhttp import curl commands.txt -o requests.yaml
  sendhttp import curl "curl -X POST -d 'a=1' https://example.com"
  pbpaste | sendhttp import curl -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []curl.Option
		if importKeepFollowFlag {
			opts = append(opts, curl.WithExplicitRedirects(false))
		}
		converter := curl.NewConverter(opts...)

		var in io.Reader
		switch arg := args[0]; {
		case arg == "-":
			in = cmd.InOrStdin()
		case strings.HasPrefix(strings.TrimSpace(arg), "curl "):
			in = strings.NewReader(arg)
		default:
			f, err := os.Open(arg)
			if err != nil {
				return withExitCode(ExitUsageError, err)
			}
			defer f.Close()
			in = f
		}

		docs, err := converter.ConvertReader(in)
		if err != nil {
			return withExitCode(ExitParseError, err)
		}

		out := cmd.OutOrStdout()
		if importOutputFlag != "" {
			f, err := os.Create(importOutputFlag)
			if err != nil {
				return fmt.Errorf("create %s: %w", importOutputFlag, err)
			}
			defer f.Close()
			out = f
		}

		if err := curl.WriteYAML(out, docs); err != nil {
			return err
		}
		log.Debug("imported curl commands", zap.Int("documents", len(docs)))
		return nil
	},
}

func init() {
	importCurlCmd.Flags().StringVarP(&importOutputFlag, "output", "o", "", "Write documents to this file instead of stdout")
	importCurlCmd.Flags().BoolVar(&importKeepFollowFlag, "default-redirects", false, "Leave follow_redirects unset when -L is absent")
	importCmd.AddCommand(importCurlCmd)
}
