package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PruneResult reports which revisions were deleted.
type PruneResult struct {
	Domain  string   `json:"domain"`
	Deleted []string `json:"deleted"`
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var keepLast int
	var keepActive bool

	cmd := &cobra.Command{
		Use:   "prune <domain>",
		Short: "Delete old revisions",
		Long: `Delete old revision files, keeping the newest --keep-last revisions.

The active revision is kept regardless of age unless --keep-active=false.
The index audit history is untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keep := keepLast
			if !cmd.Flags().Changed("keep-last") {
				keep = rootOpts.cfg.KeepLast
			}
			return runPrune(rootOpts, args[0], keep, keepActive, cmd)
		},
	}

	cmd.Flags().IntVar(&keepLast, "keep-last", 10, "number of newest revisions to keep")
	cmd.Flags().BoolVar(&keepActive, "keep-active", true, "always keep the active revision")

	return cmd
}

func runPrune(opts *RootOptions, domain string, keepLast int, keepActive bool, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	deleted, err := opts.openDomain(domain).Prune(keepLast, keepActive)
	if err != nil {
		return domainError(formatter, err)
	}
	if deleted == nil {
		deleted = []string{}
	}

	if formatter.Format == "json" {
		return formatter.Success(PruneResult{Domain: domain, Deleted: deleted})
	}
	fmt.Fprintf(formatter.Writer, "pruned %d revision(s)\n", len(deleted))
	for _, id := range deleted {
		formatter.VerboseLog("deleted %s", id)
	}
	return nil
}
