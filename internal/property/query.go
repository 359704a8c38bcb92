package property

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateRange is an inclusive range of calendar days on created_at.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Query selects listings from the store. Results are always ordered by
// creation time, newest first.
type Query struct {
	Status   Status // empty = any status
	Search   string // every whitespace-separated term must appear in title or body
	Agent    string // exact match
	Bedrooms string // exact match
	Created  *DateRange
	Page     int // 1-based; values below 1 are treated as 1
	PerPage  int // <= 0 returns every match on a single page
}

// Page is one page of query results.
type Page struct {
	Properties []*Property
	Page       int
	Total      int
	TotalPages int
}

// where builds the WHERE clause and its arguments.
func (q Query) where() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(q.Status))
	}

	for _, term := range strings.Fields(q.Search) {
		like := "%" + escapeLike(term) + "%"
		conditions = append(conditions, `(title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}

	if q.Agent != "" {
		conditions = append(conditions, "agent = ?")
		args = append(args, q.Agent)
	}

	if q.Bedrooms != "" {
		conditions = append(conditions, "bedrooms = ?")
		args = append(args, q.Bedrooms)
	}

	if q.Created != nil {
		from := startOfDay(q.Created.From)
		to := startOfDay(q.Created.To).Add(24*time.Hour - time.Second)
		conditions = append(conditions, "created_at >= ?", "created_at <= ?")
		args = append(args, from.Format(timeLayout), to.Format(timeLayout))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Query returns one page of listings matching q, plus the total match count
// and page count.
func (r *Repository) Query(ctx context.Context, q Query) (*Page, error) {
	where, args := q.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting properties: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	result := &Page{Page: page, Total: total, TotalPages: totalPages(total, q.PerPage)}
	if total == 0 || (q.PerPage > 0 && page > result.TotalPages) {
		return result, nil
	}

	err := r.each(ctx, q, page, func(p *Property) error {
		result.Properties = append(result.Properties, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Each calls fn for every listing matching q, in result order, without
// buffering the result set. q.Page and q.PerPage select a window as in Query.
// Iteration stops at the first error returned by fn.
func (r *Repository) Each(ctx context.Context, q Query, fn func(*Property) error) error {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return r.each(ctx, q, page, fn)
}

func (r *Repository) each(ctx context.Context, q Query, page int, fn func(*Property) error) (err error) {
	if q.PerPage > 0 && page-1 > math.MaxInt/q.PerPage {
		return nil
	}

	where, args := q.where()
	query := fmt.Sprintf("SELECT %s FROM properties%s ORDER BY created_at DESC, id DESC", selectColumns, where)
	if q.PerPage > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.PerPage, (page-1)*q.PerPage)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return fmt.Errorf("scanning property: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating properties: %w", err)
	}
	return nil
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	if perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// escapeLike escapes LIKE wildcards using backslash.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
