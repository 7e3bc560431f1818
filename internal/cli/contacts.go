package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittclouds/contactkitt/internal/store"
)

// ContactOptions holds the field flags shared by add and update.
type ContactOptions struct {
	*RootOptions
	Name    string
	Email   string
	Phone   string
	Profile string
}

func (o *ContactOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&o.Email, "email", "", "email address")
	cmd.Flags().StringVar(&o.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&o.Profile, "profile", "", "profile label or image reference")
}

func (o *ContactOptions) contact(id int64) *store.Contact {
	return &store.Contact{ID: id, Name: o.Name, Email: o.Email, Phone: o.Phone, Profile: o.Profile}
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the contact database if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]int{"schemaVersion": store.SchemaVersion}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "✓ Database ready (schema v%d)\n", store.SchemaVersion)
				return err
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			contacts, err := s.List(cmd.Context())
			if err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(contacts, func(w io.Writer) error {
				return writeContactTable(w, contacts)
			})
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ContactOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Long: `Add a contact. The database assigns its id.

Example:
  contacts add --name Ada --email ada@x.com --phone 555-0100 --profile eng`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.contact(0)
			if err := c.Validate(); err != nil {
				return err
			}

			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.Insert(cmd.Context(), c)
			if err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(c, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "✓ Added contact %d\n", id)
				return err
			})
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ContactOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a contact",
		Long: `Replace every field of the contact at <id>. Fields not given are cleared.
If no contact has that id, one is created there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := opts.contact(id)
			if err := c.Validate(); err != nil {
				return err
			}

			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Update(cmd.Context(), c); err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(c, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "✓ Saved contact %d\n", id)
				return err
			})
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), id); err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]int64{"id": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "✓ Deleted contact %d\n", id)
				return err
			})
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}
