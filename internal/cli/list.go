package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmerritt/revdoc/internal/persist"
)

// RevisionRow is one revision in the list output.
type RevisionRow struct {
	DocID      string `json:"doc_id"`
	Active     bool   `json:"active"`
	ModifiedAt string `json:"modified_at"`
	SizeBytes  int64  `json:"size_bytes"`
	Note       string `json:"note,omitempty"`
}

// ListResult holds the revisions of one domain, or the domain names
// under the root when no domain is given.
type ListResult struct {
	Domain    string        `json:"domain,omitempty"`
	Revisions []RevisionRow `json:"revisions,omitempty"`
	Domains   []string      `json:"domains,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [domain]",
		Short: "List domains or a domain's revisions",
		Long: `Without arguments, list the domains under the persist root.
With a domain, list its revisions with the active one marked.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListDomains(rootOpts, cmd)
			}
			return runListRevisions(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runListDomains(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	names, err := persist.DomainNames(opts.Root)
	if err != nil {
		return domainError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ListResult{Domains: names})
	}
	if len(names) == 0 {
		fmt.Fprintf(formatter.Writer, "no domains under %s\n", opts.Root)
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(formatter.Writer, n)
	}
	return nil
}

func runListRevisions(opts *RootOptions, domain string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	infos, err := opts.openDomain(domain).ListDocs()
	if err != nil {
		return domainError(formatter, err)
	}

	rows := make([]RevisionRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, RevisionRow{
			DocID:      info.DocID,
			Active:     info.IsActive,
			ModifiedAt: info.ModifiedAt.Format(time.RFC3339),
			SizeBytes:  info.SizeBytes,
			Note:       info.Note,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(ListResult{Domain: domain, Revisions: rows})
	}
	for _, row := range rows {
		marker := " "
		if row.Active {
			marker = "*"
		}
		fmt.Fprintf(formatter.Writer, "%s %s  %s  %6d", marker, row.DocID, row.ModifiedAt, row.SizeBytes)
		if row.Note != "" {
			fmt.Fprintf(formatter.Writer, "  %s", row.Note)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

// sortedStatKeys returns map keys in stable order for text output.
func sortedStatKeys(stats map[string]any) []string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
