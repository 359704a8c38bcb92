// Package cli defines the cobra command tree for listing-desk.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/config"
	"github.com/evcraddock/listing-desk/internal/db"
	"github.com/evcraddock/listing-desk/internal/geo"
	"github.com/evcraddock/listing-desk/internal/property"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pl",
		Short:         "Manage real-estate listings",
		Long:          "A listing desk for real-estate listings. Search, edit, export and geocode listings from the CLI or serve the admin and public web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.listing-desk/listings.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.listing-desk/config.yaml)")

	root.AddCommand(
		newAddCmd(),
		newSetCmd(),
		newStatusCmd(),
		newRemoveCmd(),
		newShowCmd(),
		newListCmd(),
		newSearchCmd(),
		newExportCmd(),
		newLookupCmd(),
		newLocateCmd(),
		newAgentsCmd(),
		newUserCmd(),
		newKeyCmd(),
		newConfigCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the --config file (or the default) with env overrides.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}

// openDB opens the SQLite database from --db, the config, or the default path.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = cfg.Database.Path
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newPropertyRepo loads the config and opens the listing store.
func newPropertyRepo() (*property.Repository, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return property.NewRepository(database), database, nil
}

// newGeoClient builds the ZIP lookup client from config.
func newGeoClient(cfg *config.Config) *geo.Client {
	return geo.NewClient(geo.Options{
		BaseURL:       cfg.Geo.BaseURL,
		Timeout:       cfg.Geo.Timeout,
		RatePerSecond: cfg.Geo.RatePerSecond,
	})
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// parseID parses a listing ID argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid property ID: %s", s)
	}
	return id, nil
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// out is where a command writes its results.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
