package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/property"
)

func newAddCmd() *cobra.Command {
	var status, body string
	values := make(map[property.Field]*string, len(property.Fields))

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a listing",
		Long:  "Create a listing. Attribute flags are sanitized and stored like the web meta form; omitted flags leave the attribute unset.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			submitted := make(map[property.Field]string)
			for _, f := range property.Fields {
				if cmd.Flags().Changed(string(f)) {
					submitted[f] = *values[f]
				}
			}
			return runAdd(cmd, strings.Join(args, " "), body, status, submitted)
		},
	}

	cmd.Flags().StringVar(&status, "status", string(property.StatusDraft), "draft|published|trashed")
	cmd.Flags().StringVar(&body, "body", "", "listing description")
	for _, f := range property.Fields {
		values[f] = cmd.Flags().String(string(f), "", "listing "+string(f))
	}

	return cmd
}

func runAdd(cmd *cobra.Command, title, body, status string, submitted map[property.Field]string) error {
	if !property.ValidStatus(status) {
		return fmt.Errorf("invalid status: %s (use draft, published or trashed)", status)
	}

	repo, database, err := newPropertyRepo()
	if err != nil {
		return err
	}
	defer closeDB(database)

	svc := property.NewService(repo, nil)
	p, err := svc.Create(title, body, property.Status(status), submitted)
	if err != nil {
		return fmt.Errorf("adding property: %w", err)
	}

	if isJSON() {
		return printJSON(out(cmd), p)
	}

	fmt.Fprintln(out(cmd), "Property added successfully!")
	printListing(out(cmd), p)
	return nil
}
