package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/property"
)

func newListCmd() *cobra.Command {
	var agent, bedrooms string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published listings",
		Long:  "List every published listing, newest first, like the public grid. Agent and bedrooms match exactly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, agent, bedrooms)
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "exact agent name")
	cmd.Flags().StringVar(&bedrooms, "bedrooms", "", "exact bedroom count")

	return cmd
}

func runList(cmd *cobra.Command, agent, bedrooms string) error {
	repo, database, err := newPropertyRepo()
	if err != nil {
		return err
	}
	defer closeDB(database)

	page, err := repo.Query(context.Background(), property.Query{
		Status:   property.StatusPublished,
		Agent:    property.SanitizeText(agent),
		Bedrooms: property.SanitizeText(bedrooms),
	})
	if err != nil {
		return err
	}

	rows := rowsOf(page.Properties)
	if isJSON() {
		return printJSON(out(cmd), rows)
	}

	if err := printRowTable(out(cmd), rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		fmt.Fprintf(out(cmd), "\nTotal: %d properties\n", len(rows))
	}
	return nil
}
