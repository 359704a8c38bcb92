package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/property"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <draft|published|trashed>",
		Short: "Change a listing's publication status",
		Long:  "Change a listing's status. Only published listings appear in search, the public grid and exports.",
		Args:  cobra.ExactArgs(2),
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !property.ValidStatus(args[1]) {
		return fmt.Errorf("invalid status: %s (use draft, published or trashed)", args[1])
	}

	return setStatus(cmd, id, property.Status(args[1]))
}

func setStatus(cmd *cobra.Command, id int64, status property.Status) error {
	repo, database, err := newPropertyRepo()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := repo.UpdateStatus(id, status); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]interface{}{
			"id":     id,
			"status": status,
		})
	}

	fmt.Fprintf(out(cmd), "Property #%d is now %s.\n", id, status)
	return nil
}
