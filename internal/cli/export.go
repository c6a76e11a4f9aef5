package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export <domain> <archive.zip>",
		Short: "Export a domain to a zip archive",
		Long: `Pack the domain directory into a zip archive for backup or transfer.
The transient lock file is excluded.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], args[1], overwrite, cmd)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing archive")

	return cmd
}

func runExport(opts *RootOptions, domain, zipPath string, overwrite bool, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	if err := opts.openDomain(domain).ExportZip(zipPath, overwrite); err != nil {
		return domainError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"domain": domain, "archive": zipPath})
	}
	fmt.Fprintf(formatter.Writer, "exported %s to %s\n", domain, zipPath)
	return nil
}
