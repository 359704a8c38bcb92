package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/export"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export published listings as CSV",
		Long: "Write every published listing as CSV, newest first. Filters do not apply.\n" +
			"Use -o - for stdout; the default file name is properties-YYYY-MM-DD.csv.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")

	return cmd
}

func runExport(cmd *cobra.Command, output string) (err error) {
	repo, database, err := newPropertyRepo()
	if err != nil {
		return err
	}
	defer closeDB(database)

	exporter := export.NewExporter(repo)

	if output == "-" {
		_, err := exporter.WriteCSV(context.Background(), out(cmd))
		return err
	}

	if output == "" {
		output = export.Filename(time.Now())
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", output, cerr)
		}
	}()

	n, err := exporter.WriteCSV(context.Background(), f)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out(cmd), map[string]interface{}{"file": output, "rows": n})
	}
	fmt.Fprintf(out(cmd), "Exported %d %s to %s\n", n, plural(n, "property", "properties"), output)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
