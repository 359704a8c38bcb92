// Package export writes every published listing as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/evcraddock/listing-desk/internal/property"
)

// Header is the fixed first row of every export.
var Header = []string{
	"Property Name", "Agent", "City", "State", "Price", "Bedrooms",
	"Bathrooms", "ZIP", "Address", "Country", "Date Added",
}

// ContentType is the media type of the export.
const ContentType = "text/csv; charset=utf-8"

// Source iterates the listings to export.
type Source interface {
	Each(ctx context.Context, q property.Query, fn func(*property.Property) error) error
}

// Exporter streams listings as CSV.
type Exporter struct {
	src Source
}

// NewExporter creates an exporter reading from src.
func NewExporter(src Source) *Exporter {
	return &Exporter{src: src}
}

// Filename returns the attachment name for an export taken at now.
func Filename(now time.Time) string {
	return "properties-" + now.Format("2006-01-02") + ".csv"
}

// WriteCSV writes the header and one row per published listing, newest
// first, flushing as it goes. It returns the number of data rows written.
// Filters do not apply; the export always covers every published listing.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer) (n int, err error) {
	ctx, span := otel.Tracer("listing-desk/export").Start(ctx, "export.WriteCSV")
	defer func() {
		span.SetAttributes(attribute.Int("rows", n))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	q := property.Query{Status: property.StatusPublished}
	err = e.src.Each(ctx, q, func(p *property.Property) error {
		if err := cw.Write(Record(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", p.ID, err)
		}
		n++
		if n%100 == 0 {
			cw.Flush()
			return cw.Error()
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("exporting properties: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flushing csv: %w", err)
	}
	return n, nil
}

// Record returns the raw export columns for one listing.
func Record(p *property.Property) []string {
	return []string{
		p.Title,
		p.Get(property.FieldAgent),
		p.Get(property.FieldCity),
		p.Get(property.FieldState),
		p.Get(property.FieldPrice),
		p.Get(property.FieldBedrooms),
		p.Get(property.FieldBathrooms),
		p.Get(property.FieldZIP),
		p.Get(property.FieldAddress),
		p.Get(property.FieldCountry),
		p.CreatedAt.UTC().Format("2006-01-02"),
	}
}
