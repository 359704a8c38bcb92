package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/property"
)

func newSetCmd() *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "set <id> <field> [value]",
		Short: "Set or clear one listing attribute",
		Long: "Set one attribute of a listing. The value is sanitized before it is stored.\n" +
			"Fields: " + fieldList() + ".",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args, unset)
		},
	}

	cmd.Flags().BoolVar(&unset, "unset", false, "delete the attribute instead of setting it")

	return cmd
}

func fieldList() string {
	names := make([]string, 0, len(property.Fields))
	for _, f := range property.Fields {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func runSet(cmd *cobra.Command, args []string, unset bool) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !property.ValidField(args[1]) {
		return fmt.Errorf("unknown field: %s (use one of %s)", args[1], fieldList())
	}
	field := property.Field(args[1])

	var value *string
	switch {
	case unset && len(args) == 3:
		return fmt.Errorf("--unset takes no value")
	case unset:
	case len(args) == 3:
		clean := property.SanitizeText(args[2])
		value = &clean
	default:
		return fmt.Errorf("value is required (or pass --unset)")
	}

	repo, database, err := newPropertyRepo()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := repo.Patch(id, map[property.Field]*string{field: value}); err != nil {
		return err
	}

	p, err := repo.GetByID(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out(cmd), p)
	}

	printListing(out(cmd), p)
	return nil
}
