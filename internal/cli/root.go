package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/volley/internal/output"
	"github.com/wesleyorama2/volley/request"
)

var version = "0.1.0"

// NewRootCmd builds the volley command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:     "volley",
		Short:   "A terminal HTTP client built around a fluent request builder",
		Version: version,
		Long: `Volley sends HTTP requests from the command line. Requests can be typed
directly (volley get, volley post, ...) or described in a JSON or YAML file
and run one at a time or as suites with extraction, schema validation and
latency summaries.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addGlobalFlags(root, g)

	root.AddCommand(
		newMethodCmd(g, request.MethodGet, "get"),
		newMethodCmd(g, request.MethodHead, "head"),
		newMethodCmd(g, request.MethodDelete, "delete", "del"),
		newMethodCmd(g, request.MethodPost, "post"),
		newMethodCmd(g, request.MethodPut, "put"),
		newMethodCmd(g, request.MethodPatch, "patch"),
		newMethodCmd(g, request.MethodMerge, "merge"),
		newRequestCmd(g),
		newRunCmd(g),
	)

	return root
}

// Execute runs the root command with the process arguments.
// This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// newClient builds a request client from the global flags
func (g *globalFlags) newClient(stderr io.Writer) *request.Client {
	options := []request.ClientOption{request.WithTimeout(g.timeout)}
	if g.debug {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		options = append(options, request.WithLogger(logger))
	}
	return request.NewClient(options...)
}

// newFormatter picks the output formatter. Color is only used when stdout
// is a terminal.
func (g *globalFlags) newFormatter(stdout io.Writer) (output.FormatProvider, error) {
	format, err := output.ParseFormat(g.output)
	if err != nil {
		return nil, err
	}

	return output.GetFormatter(format, g.verbose, g.colorOff(stdout)), nil
}

// colorOff reports whether output written to stdout must be plain
func (g *globalFlags) colorOff(stdout io.Writer) bool {
	f, _ := stdout.(*os.File)
	return !output.UseColor(f, g.noColor)
}
