package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/volley/pkg/jsonpath"
	"github.com/wesleyorama2/volley/request"
)

// newMethodCmd creates a command that sends one request with a fixed verb
func newMethodCmd(g *globalFlags, method, name string, aliases ...string) *cobra.Command {
	f := &requestFlags{}

	cmd := &cobra.Command{
		Use:     name + " URL",
		Aliases: aliases,
		Short:   fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendOnce(cmd, g, f, method, args[0])
		},
	}
	addRequestFlags(cmd, f)
	return cmd
}

// newRequestCmd creates the generic command that takes the verb from -X
func newRequestCmd(g *globalFlags) *cobra.Command {
	f := &requestFlags{}
	var method string

	cmd := &cobra.Command{
		Use:   "request URL",
		Short: "Make a request with any HTTP verb",
		Example: `  volley request -X PURGE https://cache.example.com/item/1
  volley request -X OPTIONS localhost:8080/users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendOnce(cmd, g, f, strings.ToUpper(method), args[0])
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", request.MethodGet, "HTTP verb")
	addRequestFlags(cmd, f)
	return cmd
}

// sendOnce builds, prints and sends a single request from command flags
func sendOnce(cmd *cobra.Command, g *globalFlags, f *requestFlags, method, rawURL string) error {
	out := cmd.OutOrStdout()

	formatter, err := g.newFormatter(out)
	if err != nil {
		return err
	}

	extract, err := f.extractions()
	if err != nil {
		return err
	}

	client := g.newClient(cmd.ErrOrStderr())
	b := client.New(normalizeURL(rawURL)).WithMethod(method)
	if err := f.apply(b); err != nil {
		return err
	}

	fmt.Fprint(out, formatter.FormatRequest(b.Options()))

	resp, err := b.Send(cmd.Context())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	fmt.Fprint(out, formatter.FormatResponse(resp))

	if len(extract) > 0 {
		return printExtracted(out, resp, extract)
	}
	return nil
}

func printExtracted(out io.Writer, resp *request.Response, paths map[string]string) error {
	values, err := jsonpath.ExtractAll(resp.RawBody, paths)
	for _, name := range sortedNames(values) {
		fmt.Fprintf(out, "%s = %s\n", name, values[name])
	}
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return nil
}
