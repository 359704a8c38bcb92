// Package web provides the HTTP server for the listing desk: the admin
// search shell, the admin-ajax action endpoint, the listing editor and the
// public listing grid.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/listing-desk/internal/auth"
	"github.com/evcraddock/listing-desk/internal/export"
	"github.com/evcraddock/listing-desk/internal/logging"
	"github.com/evcraddock/listing-desk/internal/property"
	"github.com/evcraddock/listing-desk/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Deps are the components the server is built from. They are constructed
// once by the caller and shared by every request.
type Deps struct {
	Properties *property.Repository
	Search     *search.Service
	Exporter   *export.Exporter
	Locator    property.Locator
	Nonces     *auth.Nonces
	Sessions   *auth.SessionStore
	APIKeys    *auth.APIKeyStore
	Users      *auth.UserStore
	Limiter    *auth.LoginLimiter

	// Now defaults to time.Now. It dates export filenames.
	Now func() time.Time
}

// Server is the web UI HTTP server.
type Server struct {
	props     *property.Repository
	search    *search.Service
	exporter  *export.Exporter
	locator   property.Locator
	nonces    *auth.Nonces
	sessions  *auth.SessionStore
	apiKeys   *auth.APIKeyStore
	users     *auth.UserStore
	limiter   *auth.LoginLimiter
	now       func() time.Time
	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates a web server from its dependencies.
func NewServer(d Deps) (*Server, error) {
	if d.Properties == nil || d.Search == nil || d.Exporter == nil || d.Locator == nil {
		return nil, fmt.Errorf("listing components are required")
	}
	if d.Nonces == nil || d.Sessions == nil || d.APIKeys == nil || d.Users == nil {
		return nil, fmt.Errorf("auth components are required")
	}
	if d.Limiter == nil {
		d.Limiter = auth.DefaultLoginLimiter()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	funcMap := template.FuncMap{
		"shown":     tmplShown,
		"fieldName": tmplFieldName,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		props:     d.Properties,
		search:    d.Search,
		exporter:  d.Exporter,
		locator:   d.Locator,
		nonces:    d.Nonces,
		sessions:  d.Sessions,
		apiKeys:   d.APIKeys,
		users:     d.Users,
		limiter:   d.Limiter,
		now:       d.Now,
		templates: tmpl,
		mux:       http.NewServeMux(),
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	keys := &apikeyHandlers{apiKeys: d.APIKeys, users: d.Users}
	users := &userHandlers{users: d.Users}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLoginSubmit)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/properties", http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /properties", s.handleGrid)
	s.mux.HandleFunc("POST /admin-ajax", s.handleAjax)

	s.mux.Handle("GET /admin/properties", s.require(auth.CapEditPosts, s.handleAdmin))
	s.mux.Handle("GET /admin/properties/{id}/edit", s.require(auth.CapEditPosts, s.handleEdit))
	s.mux.Handle("POST /admin/properties/{id}", s.require(auth.CapEditPosts, s.handleSaveMeta))

	s.mux.Handle("GET /api/keys", s.require(auth.CapEditPosts, keys.handleListKeys))
	s.mux.Handle("POST /api/keys", s.require(auth.CapEditPosts, keys.handleCreateKey))
	s.mux.Handle("DELETE /api/keys/{id}", s.require(auth.CapEditPosts, keys.handleDeleteKey))

	s.mux.Handle("GET /api/users", s.require(auth.CapManageOptions, users.listUsers))
	s.mux.Handle("POST /api/users", s.require(auth.CapManageOptions, users.addUser))
	s.mux.Handle("DELETE /api/users/{id}", s.require(auth.CapManageOptions, users.deleteUser))

	s.handler = logging.RequestLogger(auth.Authenticate(d.Sessions, d.APIKeys, d.Limiter, s.mux))

	return s, nil
}

func (s *Server) require(c auth.Capability, h http.HandlerFunc) http.Handler {
	return auth.RequireCapability(s.users, c, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	slog.Info("starting web UI", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// render executes a page template into a buffer so a template error never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	s.renderStatus(w, name, data, http.StatusOK)
}

func (s *Server) renderStatus(w http.ResponseWriter, name string, data interface{}, code int) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("writing response", "template", name, "error", err)
	}
}

// renderPartial executes a template fragment to a string.
func (s *Server) renderPartial(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// Template helper functions

// tmplShown reports whether a display value carries data.
func tmplShown(v string) bool {
	return v != "" && v != search.Placeholder
}

func tmplFieldName(f property.Field) string {
	return string(f)
}
