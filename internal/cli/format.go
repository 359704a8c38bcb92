package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/listing-desk/internal/property"
	"github.com/evcraddock/listing-desk/internal/search"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListing prints a single listing in text format. Unset fields are
// skipped.
func printListing(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Property #%d\n", p.ID)
	fmt.Fprintf(w, "  Title:    %s\n", p.Title)
	fmt.Fprintf(w, "  Status:   %s\n", p.Status)
	fmt.Fprintf(w, "  Added:    %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	for _, f := range property.Fields {
		v := p.Get(f)
		if v == "" {
			continue
		}
		if f == property.FieldPrice {
			v = search.FormatPrice(p)
		}
		fmt.Fprintf(w, "  %-9s %s\n", string(f)+":", v)
	}
}

// printRowTable prints display rows as a formatted table.
func printRowTable(w io.Writer, rows []search.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No properties found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tAGENT\tLOCATION\tPRICE\tBED\tBATH\tZIP"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----\t-----\t--------\t-----\t---\t----\t---"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, truncate(r.Title, 40), truncate(r.Agent, 20), truncate(r.Location, 30),
			r.Price, r.Bedrooms, r.Bathrooms, r.ZIP); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// rowsOf shapes listings for display.
func rowsOf(props []*property.Property) []search.Row {
	rows := make([]search.Row, 0, len(props))
	for _, p := range props {
		rows = append(rows, search.NewRow(p))
	}
	return rows
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
