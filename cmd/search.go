package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/form"
)

var searchField string

var searchCmd = &cobra.Command{
	Use:   "search [address]",
	Short: "Look up coverage for an address",
	Long: "Looks up coverage for the given address and prints the result. " +
		"Without an argument, reads one address per line from stdin.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		f := form.New(newCoverageClient(cfg.Coverage))
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			f.SetAddress(args[0])
			return printOutcome(out, f.Search(cmd.Context()), searchField)
		}
		return searchLines(cmd.Context(), f, cmd.InOrStdin(), out, searchField)
	},
}

// searchLines runs one search per input line against a single form, so the
// displayed outcome is always that of the latest line.
func searchLines(ctx context.Context, f *form.Form, in io.Reader, out io.Writer, field string) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.SetAddress(scanner.Text())
		if err := printOutcome(out, f.Search(ctx), field); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "search: read stdin")
	}
	return nil
}

// printOutcome writes the rendered outcome. With field set, payloads are
// reduced to the value at that gjson path.
func printOutcome(w io.Writer, o form.Outcome, field string) error {
	text := o.Render()
	if p, ok := o.Payload(); ok && field != "" {
		v := p.Get(field)
		if !v.Exists() {
			text = fmt.Sprintf("%s: not found", field)
		} else {
			text = v.String()
		}
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return eris.Wrap(err, "search: write output")
	}
	return nil
}

func init() {
	searchCmd.Flags().StringVar(&searchField, "field", "", `print only this path of the result, e.g. "Orange.4G"`)
	rootCmd.AddCommand(searchCmd)
}
