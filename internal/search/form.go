package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/evcraddock/listing-desk/internal/property"
)

// FiltersFromForm reads the admin search form. Text inputs are sanitized like
// every stored field; missing or unparsable numbers are left unset.
func FiltersFromForm(form url.Values) Filters {
	f := Filters{
		Search:    property.SanitizeText(form.Get("search")),
		Agent:     property.SanitizeText(form.Get("agent")),
		StartDate: property.SanitizeText(form.Get("start_date")),
		EndDate:   property.SanitizeText(form.Get("end_date")),
		MinPrice:  parsePrice(form.Get("min_price")),
		MaxPrice:  parsePrice(form.Get("max_price")),
		Page:      1,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(form.Get("paged"))); err == nil {
		f.Page = n
	}
	return f
}

func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
