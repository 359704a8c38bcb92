package property

import (
	"context"
	"fmt"

	"github.com/evcraddock/listing-desk/internal/geo"
)

// Locator resolves a ZIP code to a location.
type Locator interface {
	Lookup(ctx context.Context, zip string) (geo.Location, error)
}

// Service provides listing business logic that spans the store and
// external lookups.
type Service struct {
	repo    *Repository
	locator Locator
}

// NewService creates a property service.
func NewService(repo *Repository, locator Locator) *Service {
	return &Service{repo: repo, locator: locator}
}

// Create stores a new listing from a title, body and submitted form fields.
// Fields go through the same sanitize-and-store contract as the meta form.
func (s *Service) Create(title, body string, status Status, submitted map[Field]string) (*Property, error) {
	p := &Property{
		Title:  SanitizeText(title),
		Body:   body,
		Status: status,
	}
	for f, v := range submitted {
		clean := SanitizeText(v)
		p.Set(f, &clean)
	}

	saved, err := s.repo.Insert(p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	return saved, nil
}

// FillLocation looks up the listing's stored ZIP and saves the resolved
// city, state and country. This is the only operation that hits external APIs.
// A ZIP with no known places leaves the listing unchanged and returns a
// Location with Found set to false.
func (s *Service) FillLocation(ctx context.Context, id int64) (geo.Location, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return geo.Location{}, err
	}

	loc, err := s.locator.Lookup(ctx, p.Get(FieldZIP))
	if err != nil {
		return geo.Location{}, fmt.Errorf("looking up location: %w", err)
	}
	if !loc.Found {
		return loc, nil
	}

	err = s.repo.Patch(id, map[Field]*string{
		FieldCity:    &loc.City,
		FieldState:   &loc.State,
		FieldCountry: &loc.Country,
	})
	if err != nil {
		return geo.Location{}, fmt.Errorf("saving location: %w", err)
	}

	return loc, nil
}
