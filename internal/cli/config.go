package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
		Long:  "Settings come from the YAML config file, overridden by PL_ environment variables (e.g. PL_SERVER_PORT).",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd())
	return cmd
}

// configFilePath returns --config or the default location.
func configFilePath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	var adminEmail string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			cfg := config.Default()
			cfg.Auth.AdminEmail = adminEmail
			if err := config.WriteFile(path, cfg, force); err != nil {
				return err
			}

			fmt.Fprintf(out(cmd), "Config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "email that is always an administrator")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.NonceSecret != "" {
				cfg.Auth.NonceSecret = "********"
			}

			if isJSON() {
				return printJSON(out(cmd), cfg)
			}

			data, err := config.Marshal(*cfg)
			if err != nil {
				return err
			}
			_, err = out(cmd).Write(data)
			return err
		},
	}
}
