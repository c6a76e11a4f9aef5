package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRepairCommand creates the repair command.
func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair <domain>",
		Short: "Repair domain inconsistencies",
		Long: `Conservatively fix a domain's on-disk state.

Seeds an initial revision if none exist, repoints the active pointer at the
latest revision when the recorded one is missing, and raises the id counter
when it lags existing files. Revision files are never deleted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runRepair(opts *RootOptions, domain string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	report, err := opts.openDomain(domain).Repair(cmd.Context())
	if err != nil {
		return domainError(formatter, err)
	}

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
	} else if result.OK {
		fmt.Fprintf(formatter.Writer, "✓ domain %s repaired\n", domain)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ domain %s still has %d error(s) after repair\n", domain, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  error: %s\n", e)
		}
	}

	if !result.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("repair left %d error(s)", len(result.Errors)))
	}
	return nil
}
