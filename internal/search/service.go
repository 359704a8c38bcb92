package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/evcraddock/listing-desk/internal/property"
)

// Store is the record store the search runs against.
type Store interface {
	Query(ctx context.Context, q property.Query) (*property.Page, error)
	Each(ctx context.Context, q property.Query, fn func(*property.Property) error) error
}

// PagingMode selects how the page count is computed.
type PagingMode int

const (
	// PagingStore reports the store's page count, computed before the price
	// filter runs. A page may come back short while later pages still exist.
	PagingStore PagingMode = iota
	// PagingFiltered applies the price filter to every match and paginates
	// the survivors, so the page count matches what can be shown.
	PagingFiltered
)

func (m PagingMode) String() string {
	if m == PagingFiltered {
		return "filtered"
	}
	return "store"
}

// StoreError is a record store failure during a search.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Result is one page of display rows.
type Result struct {
	Rows       []Row  `json:"rows"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Links      []Link `json:"links,omitempty"`
}

// Service runs admin searches.
type Service struct {
	store Store
	mode  PagingMode
}

// NewService creates a search service.
func NewService(store Store, mode PagingMode) *Service {
	return &Service{store: store, mode: mode}
}

// Mode returns the paging mode the service was built with.
func (s *Service) Mode() PagingMode {
	return s.mode
}

// Search returns the requested page of published listings that match f.
func (s *Service) Search(ctx context.Context, f Filters) (res *Result, err error) {
	plan, err := Build(f)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("listing-desk/search").Start(ctx, "search.Search")
	span.SetAttributes(
		attribute.Int("page", plan.Query.Page),
		attribute.String("paging", s.mode.String()),
		attribute.Bool("has_search", plan.Query.Search != ""),
		attribute.Bool("has_agent", plan.Query.Agent != ""),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var props []*property.Property
	var totalPages int
	if s.mode == PagingFiltered {
		props, totalPages, err = s.filteredPage(ctx, plan)
	} else {
		props, totalPages, err = s.storePage(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(props))
	for _, p := range props {
		rows = append(rows, NewRow(p))
	}

	return &Result{
		Rows:       rows,
		Page:       plan.Query.Page,
		TotalPages: totalPages,
		Links:      Links(plan.Query.Page, totalPages),
	}, nil
}

func (s *Service) storePage(ctx context.Context, plan Plan) ([]*property.Property, int, error) {
	page, err := s.store.Query(ctx, plan.Query)
	if err != nil {
		return nil, 0, &StoreError{Op: "query", Err: err}
	}
	return plan.Apply(page.Properties), page.TotalPages, nil
}

func (s *Service) filteredPage(ctx context.Context, plan Plan) ([]*property.Property, int, error) {
	all := plan.Query
	all.Page, all.PerPage = 1, 0

	var matches []*property.Property
	err := s.store.Each(ctx, all, func(p *property.Property) error {
		if plan.Price.Contains(p) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, &StoreError{Op: "scan", Err: err}
	}

	totalPages := (len(matches) + PerPage - 1) / PerPage
	start := (plan.Query.Page - 1) * PerPage
	if start >= len(matches) {
		return nil, totalPages, nil
	}
	end := start + PerPage
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], totalPages, nil
}
