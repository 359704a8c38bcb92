// Package geo resolves US ZIP codes to city, state and country using the
// zippopotam.us API.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public zippopotam.us endpoint.
	DefaultBaseURL = "https://api.zippopotam.us"
	// DefaultTimeout bounds a whole lookup, including rate-limit waits.
	DefaultTimeout = 10 * time.Second
	// DefaultRate is the outbound request budget per second.
	DefaultRate = 2.0

	userAgent = "listing-desk/1.0"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

var (
	// ErrInvalidZIP is returned before any network call for malformed input.
	ErrInvalidZIP = errors.New("invalid ZIP code")
	// ErrNotFound is returned when the API answers 404 for the ZIP.
	ErrNotFound = errors.New("ZIP code not found")
	// ErrTimeout is returned when the lookup exceeds its deadline.
	ErrTimeout = errors.New("location lookup timed out")
)

// StatusError is an unexpected HTTP status from the API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Location is the result of a ZIP lookup.
// Found is false when the API knows the ZIP but returned no places.
type Location struct {
	Found     bool   `json:"found"`
	ZIP       string `json:"zip"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	StateAbbr string `json:"state_abbr,omitempty"`
	StateName string `json:"state_name,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client looks up ZIP codes.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration

	// Overridable for testing.
	baseURL string
}

// NewClient creates a lookup client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = DefaultRate
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		timeout:    opts.Timeout,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
	}
}

// ValidZIP reports whether zip is a 5-digit or ZIP+4 US code.
func ValidZIP(zip string) bool {
	return zipPattern.MatchString(zip)
}

// Lookup resolves a ZIP code. ZIP+4 codes are looked up by their 5-digit
// prefix. Only the first returned place is used.
func (c *Client) Lookup(ctx context.Context, zip string) (loc Location, err error) {
	zip = strings.TrimSpace(zip)
	if !ValidZIP(zip) {
		return Location{}, fmt.Errorf("%q: %w", zip, ErrInvalidZIP)
	}
	zip5 := zip[:5]

	ctx, span := otel.Tracer("listing-desk/geo").Start(ctx, "geo.Lookup", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("zip", zip5))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return Location{}, fmt.Errorf("waiting for rate limit: %w", err)
		}
		// Deadline passed, or the next token comes after it.
		return Location{}, fmt.Errorf("waiting for rate limit: %w", ErrTimeout)
	}

	resp, err := c.fetch(ctx, zip5)
	if err != nil {
		return Location{}, err
	}

	loc = Location{ZIP: zip5, Country: resp.Country}
	if len(resp.Places) == 0 {
		return loc, nil
	}

	place := resp.Places[0]
	loc.Found = true
	loc.City = place.Name
	loc.StateAbbr = place.StateAbbr
	loc.StateName = place.State
	loc.State = fmt.Sprintf("%s (%s)", place.StateAbbr, place.State)
	return loc, nil
}

// placesResponse is the response from GET /us/{zip}.
type placesResponse struct {
	Country string `json:"country"`
	Places  []struct {
		Name      string `json:"place name"`
		StateAbbr string `json:"state abbreviation"`
		State     string `json:"state"`
	} `json:"places"`
}

func (c *Client) fetch(ctx context.Context, zip5 string) (result *placesResponse, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/us/"+zip5, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("sending request: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", zip5, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("reading response: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Message returns the user-facing text for a lookup outcome.
func Message(err error) string {
	switch {
	case err == nil:
		return "Location details fetched successfully!"
	case errors.Is(err, ErrInvalidZIP):
		return "Please enter a valid US ZIP code (5 digits)"
	case errors.Is(err, ErrTimeout):
		return "Request timeout. Please check your internet connection and try again."
	case errors.Is(err, ErrNotFound):
		return "Invalid ZIP code. Please enter a valid US ZIP code."
	}
	return "Error fetching location data. Please try again or enter manually."
}

// NotFoundMessage is shown when the API returned no places for a ZIP.
const NotFoundMessage = "No location data found for this ZIP code. Please verify it is correct."
