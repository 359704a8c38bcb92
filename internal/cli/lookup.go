package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/geo"
	"github.com/evcraddock/listing-desk/internal/property"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <zip>",
		Short: "Look up a US ZIP code",
		Long:  "Resolve a 5-digit or ZIP+4 code to city, state and country without changing any listing.",
		Args:  cobra.ExactArgs(1),
		RunE:  runLookup,
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loc, err := newGeoClient(cfg).Lookup(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", geo.Message(err), err)
	}

	if isJSON() {
		return printJSON(out(cmd), loc)
	}
	printLocation(out(cmd), loc)
	return nil
}

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <id>",
		Short: "Fill a listing's city, state and country from its ZIP",
		Long:  "Look up the listing's stored ZIP code and save the resolved city, state and country.",
		Args:  cobra.ExactArgs(1),
		RunE:  runLocate,
	}
}

func runLocate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	svc := property.NewService(property.NewRepository(database), newGeoClient(cfg))
	loc, err := svc.FillLocation(context.Background(), id)
	if errors.Is(err, property.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%s: %w", geo.Message(err), err)
	}

	if isJSON() {
		return printJSON(out(cmd), loc)
	}
	if !loc.Found {
		fmt.Fprintln(out(cmd), geo.NotFoundMessage)
		return nil
	}
	fmt.Fprintf(out(cmd), "Property #%d updated.\n", id)
	printLocation(out(cmd), loc)
	return nil
}

func printLocation(w io.Writer, loc geo.Location) {
	if !loc.Found {
		fmt.Fprintln(w, geo.NotFoundMessage)
		return
	}
	fmt.Fprintf(w, "  ZIP:      %s\n", loc.ZIP)
	fmt.Fprintf(w, "  City:     %s\n", loc.City)
	fmt.Fprintf(w, "  State:    %s\n", loc.State)
	fmt.Fprintf(w, "  Country:  %s\n", loc.Country)
}
