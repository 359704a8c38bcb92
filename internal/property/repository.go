package property

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a listing does not exist.
var ErrNotFound = errors.New("property not found")

// timeLayout is the layout of created_at/updated_at, matching CURRENT_TIMESTAMP.
const timeLayout = "2006-01-02 15:04:05"

// Repository is the record store for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties
	(title, body, status, agent, price, bedrooms, bathrooms, zip, address, city, state, country, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, title, body, status, agent, price, bedrooms, bathrooms, zip, address, city, state, country, created_at, updated_at`

// Insert adds a new listing and returns it with its generated ID.
// A zero CreatedAt is set to the current time; an empty Status becomes draft.
func (r *Repository) Insert(p *Property) (*Property, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	status := p.Status
	if status == "" {
		status = StatusDraft
	}
	if !ValidStatus(string(status)) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	stamp := created.UTC().Format(timeLayout)

	result, err := r.db.Exec(insertSQL,
		p.Title, p.Body, string(status),
		p.Agent, p.Price, p.Bedrooms, p.Bathrooms, p.ZIP,
		p.Address, p.City, p.State, p.Country,
		stamp, stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a listing by its ID.
func (r *Repository) GetByID(id int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// UpdateStatus moves a listing to the given status.
func (r *Repository) UpdateStatus(id int64, status Status) error {
	if !ValidStatus(string(status)) {
		return fmt.Errorf("invalid status: %s", status)
	}

	result, err := r.db.Exec(
		"UPDATE properties SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return expectOneRow(result, id)
}

// SaveForm applies the meta form write contract: every field present in
// submitted is sanitized and stored, every field absent from it is deleted.
func (r *Repository) SaveForm(id int64, submitted map[Field]string) error {
	values := make(map[Field]*string, len(Fields))
	for _, f := range Fields {
		v, ok := submitted[f]
		if !ok {
			values[f] = nil
			continue
		}
		clean := SanitizeText(v)
		values[f] = &clean
	}
	return r.Patch(id, values)
}

// Patch updates only the fields present in values. A nil value clears the field.
func (r *Repository) Patch(id int64, values map[Field]*string) error {
	if len(values) == 0 {
		return nil
	}

	for f := range values {
		if !ValidField(string(f)) {
			return fmt.Errorf("unknown field: %s", f)
		}
	}

	var sets []string
	var args []interface{}
	for _, f := range Fields {
		v, ok := values[f]
		if !ok {
			continue
		}
		sets = append(sets, string(f)+" = ?")
		args = append(args, v)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := r.db.Exec(
		"UPDATE properties SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating attributes: %w", err)
	}
	return expectOneRow(result, id)
}

// Agents returns the distinct non-empty agent names, sorted ascending.
func (r *Repository) Agents() (agents []string, err error) {
	rows, err := r.db.Query(
		"SELECT DISTINCT agent FROM properties WHERE agent IS NOT NULL AND agent != '' ORDER BY agent ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agents: %w", err)
	}

	return agents, nil
}

func expectOneRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	return nil
}
