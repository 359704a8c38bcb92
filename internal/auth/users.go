package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Capability names a privileged operation.
type Capability string

const (
	// CapEditPosts allows searching, editing and looking up listings.
	CapEditPosts Capability = "edit_posts"
	// CapManageOptions allows exporting listings.
	CapManageOptions Capability = "manage_options"
)

// Role is a named set of capabilities.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
)

// ValidRole returns true if r is a known role.
func ValidRole(r string) bool {
	return Role(r) == RoleAdministrator || Role(r) == RoleEditor
}

// Can reports whether the role grants c.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleAdministrator:
		return c == CapEditPosts || c == CapManageOptions
	case RoleEditor:
		return c == CapEditPosts
	}
	return false
}

// ErrForbidden is returned when the caller lacks a capability.
var ErrForbidden = errors.New("forbidden")

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// User represents an authorized user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages authorized users in SQLite. The configured admin email
// is always an administrator, whether or not it has a row.
type UserStore struct {
	db         *sql.DB
	adminEmail string
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

// IsAdmin checks if an email is the configured admin.
func (s *UserStore) IsAdmin(email string) bool {
	return s.adminEmail != "" && strings.ToLower(email) == s.adminEmail
}

// RoleOf returns the role of email. The boolean is false for unknown users.
func (s *UserStore) RoleOf(email string) (Role, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", false
	}
	if s.IsAdmin(email) {
		return RoleAdministrator, true
	}

	var role string
	err := s.db.QueryRow(
		"SELECT role FROM authorized_users WHERE LOWER(email) = ?", email,
	).Scan(&role)
	if err != nil {
		return "", false
	}
	return Role(role), true
}

// IsAuthorized checks if an email is allowed to log in.
func (s *UserStore) IsAuthorized(email string) bool {
	_, ok := s.RoleOf(email)
	return ok
}

// Can reports whether email holds capability c. Unknown users hold none.
func (s *UserStore) Can(email string, c Capability) bool {
	role, ok := s.RoleOf(email)
	return ok && role.Can(c)
}

// Authorize returns an error wrapping ErrForbidden unless email holds c.
func (s *UserStore) Authorize(email string, c Capability) error {
	if !s.Can(email, c) {
		return fmt.Errorf("%q lacks %s: %w", email, c, ErrForbidden)
	}
	return nil
}

// Add creates a new authorized user.
func (s *UserStore) Add(email, name string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if role == "" {
		role = RoleEditor
	}
	if !ValidRole(string(role)) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	result, err := s.db.Exec(
		"INSERT INTO authorized_users (email, name, role) VALUES (?, ?, ?)",
		email, name, string(role),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("user already exists: %s", email)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(id)
}

// List returns all authorized users.
func (s *UserStore) List() (users []*User, err error) {
	rows, err := s.db.Query(
		"SELECT id, email, name, role, created_at FROM authorized_users ORDER BY email",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRow(
		"SELECT id, email, name, role, created_at FROM authorized_users WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// Delete removes an authorized user by ID.
func (s *UserStore) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM authorized_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}

	return nil
}

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}
