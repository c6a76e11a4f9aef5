package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "promote <domain> <selector>",
		Short: "Make a revision active",
		Long: `Flip the domain's active pointer to the given revision.

The selector is a 4-digit revision id, "latest", or "active". The revision
file must exist; promoting never writes document content.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(rootOpts, args[0], args[1], note, cmd)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "audit note recorded with the promotion")

	return cmd
}

func runPromote(opts *RootOptions, domain, selector, note string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	d := opts.openDomain(domain)

	docID, err := d.ResolveDocID(selector)
	if err != nil {
		return domainError(formatter, err)
	}
	if _, err := d.GetDocInfo(docID); err != nil {
		return domainError(formatter, err)
	}
	if note == "" {
		note = "promote " + docID
	}
	if err := d.SetActive(cmd.Context(), docID, note); err != nil {
		return domainError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"domain": domain, "active_id": docID})
	}
	fmt.Fprintf(formatter.Writer, "active revision is now %s\n", docID)
	return nil
}
