package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatusResult holds the integrity report for one domain.
type StatusResult struct {
	Domain   string         `json:"domain"`
	OK       bool           `json:"ok"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Stats    map[string]any `json:"stats,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <domain>",
		Short: "Check domain integrity",
		Long: `Check a domain's on-disk state and report errors and warnings.

Errors mean the domain needs attention (missing active revision, unreadable
index); warnings are inconsistencies that repair can fix automatically.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, domain string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	report := opts.openDomain(domain).Validate()
	result := StatusResult{
		Domain:   domain,
		OK:       report.OK(),
		Errors:   report.Errors,
		Warnings: report.Warnings,
		Stats:    report.Stats,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		if result.OK {
			fmt.Fprintf(formatter.Writer, "✓ domain %s ok (%d warning(s))\n", domain, len(result.Warnings))
		} else {
			fmt.Fprintf(formatter.Writer, "✗ domain %s has %d error(s)\n", domain, len(result.Errors))
		}
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
		}
		if formatter.Verbose {
			for _, k := range sortedStatKeys(result.Stats) {
				fmt.Fprintf(formatter.Writer, "  %s: %v\n", k, result.Stats[k])
			}
		}
	}

	if !result.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("domain %s has %d error(s)", domain, len(result.Errors)))
	}
	return nil
}
