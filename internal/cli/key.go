package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/auth"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
		Long:  "API keys sign users in to the web UI and authenticate Bearer requests.",
	}
	cmd.AddCommand(newKeyCreateCmd(), newKeyListCmd())
	return cmd
}

func newKeyCreateCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(database)

			if !auth.NewUserStore(database, cfg.Auth.AdminEmail).IsAuthorized(email) {
				return fmt.Errorf("%s is not an authorized user (run 'pl user add %s' first)", email, email)
			}

			raw, key, err := auth.NewAPIKeyStore(database).Create(name, email)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(out(cmd), map[string]interface{}{"key": raw, "api_key": key})
			}
			fmt.Fprintf(out(cmd), "API key for %s (shown once):\n\n  %s\n", key.Email, raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user the key acts as")
	cmd.Flags().StringVar(&name, "name", "CLI", "label for the key")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(database)

			keys, err := auth.NewAPIKeyStore(database).List()
			if err != nil {
				return err
			}

			if isJSON() {
				if keys == nil {
					keys = []auth.APIKey{}
				}
				return printJSON(out(cmd), keys)
			}
			if len(keys) == 0 {
				fmt.Fprintln(out(cmd), "No API keys.")
				return nil
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPREFIX\tLAST USED")
			for _, k := range keys {
				last := "never"
				if k.LastUsedAt != nil {
					last = k.LastUsedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s…\t%s\n", k.ID, k.Name, k.Email, k.KeyPrefix, last)
			}
			return tw.Flush()
		},
	}
}
