package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/property"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Move a listing to the trash",
		Long:  "Move a listing to the trash. Trashed listings keep their data and can be restored with 'pl status <id> draft'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return setStatus(cmd, id, property.StatusTrashed)
		},
	}
}
