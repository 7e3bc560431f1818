// Package cli implements the contacts command-line tool.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kittclouds/contactkitt/internal/config"
	"github.com/kittclouds/contactkitt/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DSN     string
	Backend string

	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the contacts CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage a local contact list",
		Long:  "Create, list, edit and delete contacts kept in an embedded SQLite database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.loadConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "SQLite database path (overrides CONTACTS_SQLITE_DSN)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend: sqlite|memory (overrides CONTACTS_BACKEND)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.DSN != "" {
		cfg.SQLiteDSN = o.DSN
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.Config = cfg
	return nil
}

// openStore opens the configured backend, logging to the command's stderr.
// Callers must Close the returned store.
func (o *RootOptions) openStore(cmd *cobra.Command) (store.Storer, error) {
	logger := o.Config.Logger(cmd.ErrOrStderr())
	s, err := o.Config.OpenStore(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := s.Init(cmd.Context()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return o.Config.Logger(cmd.ErrOrStderr())
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
