package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/threatdesk/internal/domain/scans"
	"github.com/bryanwahyu/threatdesk/internal/middleware"
	"github.com/bryanwahyu/threatdesk/internal/report"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		clearAll bool
		limit    int
		output   string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans and the safety score, or clear them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(output, "text", "yaml", "markdown", "md"); err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), root.cfg, root.logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if clearAll {
				if err := a.console.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}

			list := a.console.Results()
			list = list[:middleware.ValidateLimit(limit, len(list))]
			stats := a.console.Stats()
			switch output {
			case "yaml":
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stats":   stats,
					"results": list,
				})
			case "markdown", "md":
				return report.WriteMarkdown(cmd.OutOrStdout(), report.Data{
					Profile:   a.console.Profile(),
					Stats:     stats,
					Results:   list,
					Generated: time.Now(),
				})
			}
			return printHistory(cmd.OutOrStdout(), stats, list)
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every recorded scan")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 = all)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text|yaml|markdown")
	return cmd
}

func printHistory(w io.Writer, st scans.Stats, list []scans.Result) error {
	fmt.Fprintf(w, "total %d  malicious %d  safety score %d%%\n\n", st.Total, st.Malicious, st.SafetyScore)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSTATUS\tANALYSIS")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Timestamp, r.Type, r.Status, r.Analysis)
	}
	return tw.Flush()
}
