package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List agent names",
		Long:  "List the distinct agent names on record, sorted, as offered by the admin agent filter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, database, err := newPropertyRepo()
			if err != nil {
				return err
			}
			defer closeDB(database)

			agents, err := repo.Agents()
			if err != nil {
				return err
			}

			if isJSON() {
				if agents == nil {
					agents = []string{}
				}
				return printJSON(out(cmd), agents)
			}
			if len(agents) == 0 {
				fmt.Fprintln(out(cmd), "No agents.")
				return nil
			}
			for _, a := range agents {
				fmt.Fprintln(out(cmd), a)
			}
			return nil
		},
	}
}
