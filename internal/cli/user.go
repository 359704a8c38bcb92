package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage authorized users",
		Long:  "Manage who may sign in. Editors can search and edit listings; administrators can also export.",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var name, role string

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Authorize a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "" && !auth.ValidRole(role) {
				return fmt.Errorf("invalid role: %s (use editor or administrator)", role)
			}

			users, closeFn, err := newUserStore()
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := users.Add(args[0], name, auth.Role(role))
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(out(cmd), u)
			}
			fmt.Fprintf(out(cmd), "User %s added as %s.\n", u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleEditor), "editor|administrator")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorized users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, closeFn, err := newUserStore()
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := users.List()
			if err != nil {
				return err
			}

			if isJSON() {
				if list == nil {
					list = []*auth.User{}
				}
				return printJSON(out(cmd), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out(cmd), "No users. The configured admin email can always sign in.")
				return nil
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE")
			for _, u := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
			}
			return tw.Flush()
		},
	}
}

// newUserStore opens the database and returns the user store with the
// configured admin email.
func newUserStore() (*auth.UserStore, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewUserStore(database, cfg.Auth.AdminEmail), func() { closeDB(database) }, nil
}
