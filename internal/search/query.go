// Package search turns admin filter input into record store queries and
// shapes one page of matching listings for display.
package search

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/evcraddock/listing-desk/internal/property"
)

const (
	// PerPage is the fixed page size of the admin search.
	PerPage = 10
	// MaxPage is the highest page a search asks the store for. Larger
	// requests are clamped so the row offset cannot overflow.
	MaxPage = math.MaxInt32
	// DefaultMaxPrice is the upper bound of the price window when none is given.
	DefaultMaxPrice = 10_000_000

	dateLayout = "2006-01-02"
)

// Filters is the raw filter set submitted by the admin search form.
// Nil prices mean the bound was not supplied.
type Filters struct {
	Search    string
	Agent     string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	MinPrice  *float64
	MaxPrice  *float64
	Page      int
}

// PriceRange is an inclusive window on the parsed listing price.
type PriceRange struct {
	Min float64
	Max float64
}

// Contains reports whether the listing's price falls inside the window.
// Unset or unparsable prices count as 0.
func (r PriceRange) Contains(p *property.Property) bool {
	amount := p.PriceAmount()
	return amount >= r.Min && amount <= r.Max
}

// Plan is a store query plus the residual price predicate the store
// cannot evaluate.
type Plan struct {
	Query property.Query
	Price PriceRange
}

// Apply drops the listings outside the price window, in place, keeping order.
func (p Plan) Apply(props []*property.Property) []*property.Property {
	kept := props[:0]
	for _, prop := range props {
		if p.Price.Contains(prop) {
			kept = append(kept, prop)
		}
	}
	return kept
}

// ValidationError is a filter value the search refuses to run with.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Build translates filters into a plan for the published listings.
// Page is clamped to [1, MaxPage], prices are clamped to zero and swapped when reversed,
// and a date range needs both ends.
func Build(f Filters) (Plan, error) {
	q := property.Query{
		Status:  property.StatusPublished,
		Search:  strings.TrimSpace(f.Search),
		Agent:   strings.TrimSpace(f.Agent),
		Page:    f.Page,
		PerPage: PerPage,
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}

	created, err := dateRange(strings.TrimSpace(f.StartDate), strings.TrimSpace(f.EndDate))
	if err != nil {
		return Plan{}, err
	}
	q.Created = created

	return Plan{Query: q, Price: priceRange(f.MinPrice, f.MaxPrice)}, nil
}

func dateRange(start, end string) (*property.DateRange, error) {
	switch {
	case start == "" && end == "":
		return nil, nil
	case start == "":
		return nil, &ValidationError{Field: "start_date", Message: "both start and end dates are required"}
	case end == "":
		return nil, &ValidationError{Field: "end_date", Message: "both start and end dates are required"}
	}

	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, &ValidationError{Field: "start_date", Message: "expected YYYY-MM-DD"}
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, &ValidationError{Field: "end_date", Message: "expected YYYY-MM-DD"}
	}
	if from.After(to) {
		from, to = to, from
	}

	return &property.DateRange{From: from, To: to}, nil
}

func priceRange(lo, hi *float64) PriceRange {
	r := PriceRange{Min: 0, Max: DefaultMaxPrice}
	if lo != nil && !math.IsNaN(*lo) {
		r.Min = math.Max(*lo, 0)
	}
	if hi != nil && !math.IsNaN(*hi) {
		r.Max = math.Max(*hi, 0)
	}
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}
