package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/listing-desk/internal/auth"
)

func userRequest(t *testing.T, srv *Server, email, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.AddCookie(sessionCookie(t, srv, email))
	return do(srv, r)
}

func TestListUsersAdmin(t *testing.T) {
	srv := testServer(t)

	w := userRequest(t, srv, adminEmail, "GET", "/api/users", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var users []auth.User
	if err := json.NewDecoder(w.Body).Decode(&users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 1 || users[0].Email != editorEmail {
		t.Errorf("users = %+v, want the seeded editor", users)
	}
}

func TestUsersForbiddenForEditor(t *testing.T) {
	srv := testServer(t)

	w := userRequest(t, srv, editorEmail, "GET", "/api/users", "")

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAddUser(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"editor default", `{"email":"new@example.com","name":"New"}`, http.StatusCreated},
		{"administrator", `{"email":"boss@example.com","role":"administrator"}`, http.StatusCreated},
		{"duplicate", `{"email":"new@example.com"}`, http.StatusConflict},
		{"missing email", `{"name":"Nobody"}`, http.StatusBadRequest},
		{"bad role", `{"email":"x@example.com","role":"owner"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := userRequest(t, srv, adminEmail, "POST", "/api/users", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}

	if !srv.users.Can("boss@example.com", auth.CapManageOptions) {
		t.Error("added administrator should be able to export")
	}
	if srv.users.Can("new@example.com", auth.CapManageOptions) {
		t.Error("added editor should not be able to export")
	}
}

func TestDeleteUser(t *testing.T) {
	srv := testServer(t)
	u, err := srv.users.Add("gone@example.com", "", auth.RoleEditor)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	path := fmt.Sprintf("/api/users/%d", u.ID)
	if w := userRequest(t, srv, adminEmail, "DELETE", path, ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w := userRequest(t, srv, adminEmail, "DELETE", path, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
	if w := userRequest(t, srv, adminEmail, "DELETE", "/api/users/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}
