package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/listing-desk/internal/auth"
)

type loginData struct {
	Title string
	Email string
	Next  string
	Error string
}

// handleLoginPage renders the login form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", loginData{Title: "Log in", Next: safeNext(r.URL.Query().Get("next"))})
}

// handleLoginSubmit exchanges an API key for a browser session.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	data := loginData{Title: "Log in", Next: safeNext(r.PostForm.Get("next"))}

	ip := auth.ClientIP(r)
	if s.limiter.Blocked(ip) {
		data.Error = "Too many failed attempts. Try again in a minute."
		s.renderStatus(w, "login.html", data, http.StatusTooManyRequests)
		return
	}

	key := strings.TrimSpace(r.PostForm.Get("api_key"))
	if key == "" {
		data.Error = "API key is required"
		s.renderStatus(w, "login.html", data, http.StatusBadRequest)
		return
	}

	email, err := s.apiKeys.Validate(key)
	if err != nil {
		slog.Error("validating api key", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if email == "" {
		s.limiter.Fail(ip)
		slog.Warn("login failed", "ip", ip)
		data.Error = "Invalid API key"
		s.renderStatus(w, "login.html", data, http.StatusUnauthorized)
		return
	}
	if !s.users.IsAuthorized(email) {
		data.Error = "This account is not authorized"
		s.renderStatus(w, "login.html", data, http.StatusForbidden)
		return
	}

	if _, err := s.sessions.Create(w, email); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login", "email", email)
	http.Redirect(w, r, data.Next, http.StatusSeeOther)
}

// handleLogout destroys the session and returns to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin/properties"
	}
	return next
}
