package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bmerritt/revdoc/internal/persist"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Root       string // persist root directory
	ConfigPath string // optional YAML config file

	cfg Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the revdoc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "revdoc",
		Short: "revdoc - revisioned document store",
		Long:  "Manage revisioned JSON document domains: seed, promote, prune, repair, and archive.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			opts.cfg = DefaultConfig()
			if opts.ConfigPath != "" {
				cfg, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				opts.cfg = cfg
			}
			// Flags win over the config file.
			if !cmd.Flags().Changed("root") {
				opts.Root = opts.cfg.Root
			}

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "data", "persist root directory")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")

	// Add subcommands
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewRepairCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewPruneCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openDomain opens a domain handle under the configured root with the
// configured lock timeout.
func (o *RootOptions) openDomain(name string) *persist.Domain {
	return persist.Open(o.Root, name,
		persist.WithLockOptions(persist.LockOptions{Timeout: o.cfg.LockTimeout.Std()}))
}

// newFormatter builds the output formatter for a command invocation.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// domainError renders a persist failure and maps it to an exit code.
func domainError(formatter *OutputFormatter, err error) error {
	var derr *persist.DomainError
	if errors.As(err, &derr) {
		_ = formatter.Error(string(derr.Code), derr.Error(), derr.Path)
		code := ExitCommandError
		if derr.Code == persist.ErrCodeCorrupt {
			code = ExitFailure
		}
		return WrapExitError(code, string(derr.Code), err)
	}
	_ = formatter.Error("ERROR", err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}
