package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evcraddock/listing-desk/internal/property"
)

// Placeholder is shown in place of an unset price, bedroom or bathroom value.
const Placeholder = "—"

// Row is one listing shaped for the admin results table.
type Row struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Agent     string `json:"agent"`
	Location  string `json:"location"`
	Price     string `json:"price"`
	Bedrooms  string `json:"bedrooms"`
	Bathrooms string `json:"bathrooms"`
	ZIP       string `json:"zip"`
	EditLink  string `json:"edit_link"`
}

// NewRow shapes a listing for display.
func NewRow(p *property.Property) Row {
	return Row{
		ID:        p.ID,
		Title:     p.Title,
		Agent:     p.Get(property.FieldAgent),
		Location:  Location(p),
		Price:     FormatPrice(p),
		Bedrooms:  orPlaceholder(p.Get(property.FieldBedrooms)),
		Bathrooms: orPlaceholder(p.Get(property.FieldBathrooms)),
		ZIP:       p.Get(property.FieldZIP),
		EditLink:  EditLink(p.ID),
	}
}

// EditLink returns the admin edit page for a listing.
func EditLink(id int64) string {
	return fmt.Sprintf("/admin/properties/%d/edit", id)
}

// Location joins the non-empty city and state with ", ".
func Location(p *property.Property) string {
	var parts []string
	for _, f := range []property.Field{property.FieldCity, property.FieldState} {
		if v := p.Get(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// FormatPrice renders the price as "$1,234.00", or the placeholder when the
// listing has no positive price.
func FormatPrice(p *property.Property) string {
	if !p.HasPrice() {
		return Placeholder
	}
	return "$" + formatAmount(p.PriceAmount())
}

func orPlaceholder(v string) string {
	if v == "" || v == "0" {
		return Placeholder
	}
	return v
}

// formatAmount formats a non-negative amount with two decimals and
// thousands separators.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String() + frac
}
