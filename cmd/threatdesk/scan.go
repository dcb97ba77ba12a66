package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appscans "github.com/bryanwahyu/threatdesk/internal/application/scans"
	"github.com/bryanwahyu/threatdesk/internal/middleware"
)

var errUnknownFormat = errors.New("unknown output format")

// checkFormat rejects an -o value the command cannot print.
func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("%w %q (want %s)", errUnknownFormat, format, strings.Join(allowed, "|"))
}

func newScanCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Analyze a URL or script snippet once and record the verdict",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, "text", "yaml"); err != nil {
				return err
			}
			target, err := middleware.ValidateTarget(strings.Join(args, " "))
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), root.cfg, root.logger, true)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.ErrOrStderr(), "Scanning...")
			rep, err := a.console.Submit(cmd.Context(), target)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), output, rep)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text|yaml")
	return cmd
}

func printReport(w io.Writer, format string, rep appscans.Report) error {
	if format == "yaml" {
		return yaml.NewEncoder(w).Encode(rep)
	}
	verdict := "THREAT"
	if rep.Analysis.IsSafe {
		verdict = "SAFE"
	}
	fmt.Fprintf(w, "%s  %s (%s)\n", rep.Result.Timestamp, verdict, rep.Analysis.ThreatLevel)
	fmt.Fprintf(w, "  %s\n", rep.Analysis.Message)
	for _, d := range rep.Analysis.Details {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	if rep.Fallback {
		fmt.Fprintln(w, "  (analysis service unavailable, conservative verdict shown)")
	}
	return nil
}
