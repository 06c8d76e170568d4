package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/volley/internal/config"
	"github.com/wesleyorama2/volley/internal/output"
	"github.com/wesleyorama2/volley/internal/pace"
	"github.com/wesleyorama2/volley/internal/stats"
	"github.com/wesleyorama2/volley/pkg/jsonpath"
	"github.com/wesleyorama2/volley/pkg/jsonschema"
	"github.com/wesleyorama2/volley/request"
)

// ErrChecksFailed is returned when a response fails its expectations or
// schema, or a suite step could not be sent.
var ErrChecksFailed = errors.New("checks failed")

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		configFile  string
		environment string
		requestName string
		suiteName   string
		repeat      int
		rate        float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run requests or suites from a configuration file",
		Example: `  volley run -c api.yaml -e dev -r getUser
  volley run -c api.json -e staging -s smoke --repeat 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if requestName == "" && suiteName == "" {
				return errors.New("either --request or --suite is required")
			}
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			env, ok := cfg.Environments[environment]
			if !ok {
				return fmt.Errorf("environment not found: %s", environment)
			}

			formatter, err := g.newFormatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			r := &runner{
				cfg:       cfg,
				env:       env,
				client:    g.newClient(cmd.ErrOrStderr()),
				formatter: formatter,
				out:       cmd.OutOrStdout(),
				verbose:   g.verbose,
				noColor:   g.colorOff(cmd.OutOrStdout()),
				recorder:  stats.NewRecorder(),
				pacer:     pace.New(rate),
			}

			if requestName != "" {
				if _, ok := cfg.Requests[requestName]; !ok {
					return fmt.Errorf("request not found: %s", requestName)
				}
				return r.runRequestOnly(cmd.Context(), requestName, repeat)
			}

			suite, ok := cfg.Suites[suiteName]
			if !ok {
				return fmt.Errorf("suite not found: %s", suiteName)
			}
			return r.runSuite(cmd.Context(), suiteName, suite, repeat)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file, JSON or YAML (required)")
	flags.StringVarP(&environment, "environment", "e", "", "Environment to use (required)")
	flags.StringVarP(&requestName, "request", "r", "", "Request to run")
	flags.StringVarP(&suiteName, "suite", "s", "", "Suite to run")
	flags.IntVarP(&repeat, "repeat", "n", 1, "Number of times to run the request or suite")
	flags.Float64Var(&rate, "rate", 0, "Maximum requests per second (0 for unlimited)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("environment")
	cmd.MarkFlagsMutuallyExclusive("request", "suite")

	return cmd
}

// runner executes configured requests and keeps the variables extracted
// along the way.
type runner struct {
	cfg       *config.Config
	env       config.Environment
	client    *request.Client
	formatter output.FormatProvider
	out       io.Writer
	verbose   bool
	noColor   bool
	recorder  *stats.Recorder
	pacer     *pace.Pacer
	vars      map[string]string
}

func (r *runner) runRequestOnly(ctx context.Context, name string, repeat int) error {
	var errs []error
	for i := 0; i < repeat; i++ {
		r.vars = config.MergeVars(r.env.Vars)
		if err := r.runRequest(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}

	if repeat > 1 {
		fmt.Fprint(r.out, r.formatter.FormatSummary(name, r.recorder.Overall()))
	}
	return errors.Join(errs...)
}

func (r *runner) runSuite(ctx context.Context, name string, suite config.Suite, repeat int) error {
	var errs []error
	for i := 0; i < repeat; i++ {
		r.vars = config.MergeVars(r.env.Vars)
		r.vars = config.MergeVars(r.vars, config.SubstituteMap(suite.Vars, r.vars))

		for _, reqName := range suite.Requests {
			if r.verbose {
				fmt.Fprintf(r.out, "\n=== Executing request: %s ===\n\n", reqName)
			}
			if err := r.runRequest(ctx, reqName); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, reqName := range r.recorder.Names() {
		summary, _ := r.recorder.Named(reqName)
		fmt.Fprint(r.out, r.formatter.FormatSummary(reqName, summary))
	}
	fmt.Fprint(r.out, r.formatter.FormatSummary(name, r.recorder.Overall()))

	return errors.Join(errs...)
}

// runRequest sends one configured request, then applies its extractions,
// schema and expectations. Failed checks are reported and returned.
func (r *runner) runRequest(ctx context.Context, name string) error {
	reqCfg := r.cfg.Requests[name]

	b := config.Build(r.client, r.env, reqCfg, r.vars)
	if err := b.Err(); err != nil {
		r.recorder.Record(name, 0, true)
		return fmt.Errorf("%s: %w", name, err)
	}

	fmt.Fprint(r.out, r.formatter.FormatRequest(b.Options()))

	if err := r.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	resp, err := b.Send(ctx)
	elapsed := time.Since(start)
	if err != nil {
		r.recorder.Record(name, elapsed, true)
		return fmt.Errorf("%s: %w", name, err)
	}

	fmt.Fprint(r.out, r.formatter.FormatResponse(resp))

	if len(reqCfg.Extract) > 0 {
		extracted, err := jsonpath.ExtractAll(resp.RawBody, reqCfg.Extract)
		for _, varName := range sortedNames(extracted) {
			r.vars[varName] = extracted[varName]
			if r.verbose {
				fmt.Fprintf(r.out, "Extracted variable %s = %s\n", varName, extracted[varName])
			}
		}
		if err != nil {
			fmt.Fprintf(r.out, "Warning: variable extraction partial or failed: %v\n", err)
		}
	}

	failures := r.check(reqCfg, resp)
	for _, failure := range failures {
		fmt.Fprintf(r.out, "%s %v\n", output.ErrorIcon(r.noColor), failure)
	}
	if len(failures) == 0 && r.verbose && (reqCfg.Expect != nil || reqCfg.Validate != nil) {
		fmt.Fprintf(r.out, "%s All checks passed\n", output.SuccessIcon(r.noColor))
	}

	r.recorder.Record(name, resp.Timing.TotalTime, len(failures) > 0)

	if len(failures) > 0 {
		return fmt.Errorf("%s: %w: %w", name, ErrChecksFailed, errors.Join(failures...))
	}
	return nil
}

// check applies the schema and expectations of reqCfg to resp
func (r *runner) check(reqCfg config.Request, resp *request.Response) []error {
	var failures []error

	if reqCfg.Validate != nil {
		schema, err := jsonschema.Compile(reqCfg.Validate)
		if err != nil {
			failures = append(failures, err)
		} else if err := schema.Check(resp.Body); err != nil {
			failures = append(failures, fmt.Errorf("schema validation failed: %w", err))
		}
	}

	expect := reqCfg.Expect
	if expect == nil {
		return failures
	}

	if expect.Status != 0 && expect.Status != resp.StatusCode {
		failures = append(failures, fmt.Errorf("expected status %d, got %d", expect.Status, resp.StatusCode))
	}

	for _, key := range sortedNames(expect.Headers) {
		want := config.Substitute(expect.Headers[key], r.vars)
		if got := resp.GetHeader(key); got != want {
			failures = append(failures, fmt.Errorf("expected header %s to be %q, got %q", key, want, got))
		}
	}

	for _, path := range sortedNames(expect.Body) {
		want := config.Substitute(expect.Body[path], r.vars)
		got, err := jsonpath.Extract(resp.RawBody, path)
		if err != nil {
			failures = append(failures, fmt.Errorf("body %s: %w", path, err))
			continue
		}
		if got != want {
			failures = append(failures, fmt.Errorf("expected body %s to be %q, got %q", path, want, got))
		}
	}

	return failures
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
