package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmerritt/revdoc/internal/persist"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "import <domain> <archive.zip>",
		Short: "Import a domain from a zip archive",
		Long: `Extract a domain previously exported with the export command.

The --strategy flag controls collisions with an existing domain:
  merge       extract over the existing domain (default)
  replace     delete the existing domain first
  new-domain  import under <domain>_1, <domain>_2, ...`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], args[1], strategy, cmd)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "merge", "import strategy (merge|replace|new-domain)")

	return cmd
}

func runImport(opts *RootOptions, domain, zipPath, strategy string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	target, err := persist.ImportZip(opts.Root, zipPath, domain, persist.ImportStrategy(strategy))
	if err != nil {
		return domainError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"domain": target, "archive": zipPath})
	}
	fmt.Fprintf(formatter.Writer, "imported %s into domain %s\n", zipPath, target)
	return nil
}
