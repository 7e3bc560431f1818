package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/contactkitt/internal/snapshot"
)

// SnapshotOptions holds flags for export and import.
type SnapshotOptions struct {
	*RootOptions
	As string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every contact to stdout as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snapshot.ParseFormat(opts.As)
			if err != nil {
				return err
			}

			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			return snapshot.Export(cmd.Context(), s, cmd.OutOrStdout(), f)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "json", "snapshot format (json|yaml)")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load contacts from a JSON or YAML snapshot",
		Long: `Load contacts from a snapshot written by export.
Contacts with an id replace whatever is stored at that id; contacts without one are added.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snapshot.ParseFormat(opts.As)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open snapshot: %w", err)
			}
			defer file.Close()

			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := snapshot.Import(cmd.Context(), s, file, f)
			if err != nil {
				return err
			}
			rootOpts.logger(cmd).Debug("snapshot imported", "file", args[0], "count", n)

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]int{"imported": n}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "✓ Imported %d contacts\n", n)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "json", "snapshot format (json|yaml)")

	return cmd
}
