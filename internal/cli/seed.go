package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmerritt/revdoc/internal/tree"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed <domain>",
		Short: "Seed a domain with an initial revision",
		Long: `Create the domain if it does not exist, writing revision 0001 and a
fresh index. An already-seeded domain is left untouched.

With --file, the given JSON document becomes the seed content; otherwise an
empty object is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], file, cmd)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file to use as the seed document")

	return cmd
}

func runSeed(opts *RootOptions, domain, file string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	var seed tree.Value
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "read seed file", err)
		}
		seed, err = tree.Decode(data)
		if err != nil {
			return WrapExitError(ExitCommandError, "parse seed file", err)
		}
	}

	d := opts.openDomain(domain)
	if err := d.EnsureSeeded(cmd.Context(), seed); err != nil {
		return domainError(formatter, err)
	}
	idx, err := d.ReadIndex()
	if err != nil {
		return domainError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"domain": domain, "active_id": idx.ActiveID})
	}
	fmt.Fprintf(formatter.Writer, "domain %s seeded, active revision %s\n", domain, idx.ActiveID)
	return nil
}
