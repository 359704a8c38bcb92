// Package property provides the listing domain model and the SQLite-backed
// record store that holds it.
package property

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Status is the publication state of a listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusTrashed   Status = "trashed"
)

// ValidStatus returns true if s is a known status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusDraft, StatusPublished, StatusTrashed:
		return true
	}
	return false
}

// Field names one listing attribute.
type Field string

const (
	FieldAgent     Field = "agent"
	FieldPrice     Field = "price"
	FieldBedrooms  Field = "bedrooms"
	FieldBathrooms Field = "bathrooms"
	FieldZIP       Field = "zip"
	FieldAddress   Field = "address"
	FieldCity      Field = "city"
	FieldState     Field = "state"
	FieldCountry   Field = "country"
)

// Fields lists every attribute in form order.
var Fields = []Field{
	FieldAgent, FieldPrice, FieldBedrooms, FieldBathrooms, FieldZIP,
	FieldAddress, FieldCity, FieldState, FieldCountry,
}

// ValidField returns true if s names a known attribute.
func ValidField(s string) bool {
	for _, f := range Fields {
		if string(f) == s {
			return true
		}
	}
	return false
}

// Attributes holds the optional, editor-mutable values of a listing.
// Values are stored as the sanitized text the editor entered; nil means unset.
type Attributes struct {
	Agent     *string `json:"agent,omitempty"`
	Price     *string `json:"price,omitempty"`
	Bedrooms  *string `json:"bedrooms,omitempty"`
	Bathrooms *string `json:"bathrooms,omitempty"`
	ZIP       *string `json:"zip,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// ref returns the slot holding field f.
func (a *Attributes) ref(f Field) **string {
	switch f {
	case FieldAgent:
		return &a.Agent
	case FieldPrice:
		return &a.Price
	case FieldBedrooms:
		return &a.Bedrooms
	case FieldBathrooms:
		return &a.Bathrooms
	case FieldZIP:
		return &a.ZIP
	case FieldAddress:
		return &a.Address
	case FieldCity:
		return &a.City
	case FieldState:
		return &a.State
	case FieldCountry:
		return &a.Country
	}
	return nil
}

// Get returns the value of f, or "" when unset.
func (a *Attributes) Get(f Field) string {
	if r := a.ref(f); r != nil && *r != nil {
		return **r
	}
	return ""
}

// Set stores v for f. A nil v clears the field.
func (a *Attributes) Set(f Field, v *string) {
	if r := a.ref(f); r != nil {
		*r = v
	}
}

// PriceAmount parses the price as a non-negative number.
// Absent, unparsable or negative prices count as 0.
func (a *Attributes) PriceAmount() float64 {
	return parseAmount(a.Get(FieldPrice))
}

// HasPrice reports whether the price is set to a positive amount.
func (a *Attributes) HasPrice() bool {
	return a.PriceAmount() > 0
}

func parseAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Property is one real-estate listing.
type Property struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Attributes
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var status string
	var attrs [9]sql.NullString

	err := row.Scan(
		&p.ID, &p.Title, &p.Body, &status,
		&attrs[0], &attrs[1], &attrs[2], &attrs[3], &attrs[4],
		&attrs[5], &attrs[6], &attrs[7], &attrs[8],
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = Status(status)
	for i, f := range Fields {
		if attrs[i].Valid {
			v := attrs[i].String
			p.Set(f, &v)
		}
	}

	return &p, nil
}
