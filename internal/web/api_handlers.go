package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/listing-desk/internal/auth"
	"github.com/evcraddock/listing-desk/internal/export"
	"github.com/evcraddock/listing-desk/internal/geo"
	"github.com/evcraddock/listing-desk/internal/property"
	"github.com/evcraddock/listing-desk/internal/search"
)

// admin-ajax actions.
const (
	actionSearch = "search_properties"
	actionExport = "export_properties_csv"
	actionLookup = "lookup_location"
)

const (
	securityCheckFailed = "Security check failed"
	exportForbidden     = "You do not have permission to export data"
	pageForbidden       = "You do not have permission to access this page"
	searchFailed        = "Search failed. Please try again."
	exportFailed        = "Export failed. Please try again."
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// ajaxResponse is the envelope of every admin-ajax JSON answer.
type ajaxResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func ajaxSuccess(w http.ResponseWriter, data interface{}) {
	apiJSON(w, ajaxResponse{Success: true, Data: data}, http.StatusOK)
}

func ajaxError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, ajaxResponse{Success: false, Message: msg}, code)
}

// searchResponse carries both the rendered table and the rows it was built
// from. Seq echoes the caller's request counter so stale answers can be
// dropped client side.
type searchResponse struct {
	HTML       string        `json:"html"`
	Rows       []search.Row  `json:"rows"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Links      []search.Link `json:"links,omitempty"`
	Seq        string        `json:"seq,omitempty"`
}

type lookupResponse struct {
	geo.Location
	Message string `json:"message"`
}

// handleAjax dispatches a POST /admin-ajax request on its action field.
func (s *Server) handleAjax(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ajaxError(w, "Bad request", http.StatusBadRequest)
		return
	}

	switch r.PostForm.Get("action") {
	case actionSearch:
		s.ajaxSearch(w, r)
	case actionExport:
		s.ajaxExport(w, r)
	case actionLookup:
		s.ajaxLookup(w, r)
	default:
		ajaxError(w, "Unknown action", http.StatusBadRequest)
	}
}

// ajaxSearch answers one page of the admin search. Anonymous callers may
// search; only the nonce is checked.
func (s *Server) ajaxSearch(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFrom(r.Context())
	if !s.nonces.Verify(r.PostForm.Get("nonce"), auth.ActionAjax, email) {
		ajaxError(w, securityCheckFailed, http.StatusForbidden)
		return
	}

	res, err := s.search.Search(r.Context(), search.FiltersFromForm(r.PostForm))
	if err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			ajaxError(w, verr.Message, http.StatusBadRequest)
			return
		}
		slog.Error("searching listings", "error", err)
		ajaxError(w, searchFailed, http.StatusInternalServerError)
		return
	}

	html, err := s.renderPartial("results", newResultsData(res))
	if err != nil {
		slog.Error("rendering results", "error", err)
		ajaxError(w, searchFailed, http.StatusInternalServerError)
		return
	}

	ajaxSuccess(w, searchResponse{
		HTML:       html,
		Rows:       res.Rows,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Links:      res.Links,
		Seq:        r.PostForm.Get("seq"),
	})
}

// ajaxExport streams every published listing as a CSV attachment.
func (s *Server) ajaxExport(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFrom(r.Context())
	if !s.nonces.Verify(r.PostForm.Get("nonce"), auth.ActionAjax, email) {
		http.Error(w, securityCheckFailed, http.StatusForbidden)
		return
	}
	if err := s.users.Authorize(email, auth.CapManageOptions); err != nil {
		slog.Warn("export denied", "error", err)
		http.Error(w, exportForbidden, http.StatusForbidden)
		return
	}

	filename := export.Filename(s.now())
	aw := &attachmentWriter{w: w, commit: func(h http.Header) {
		h.Set("Content-Type", export.ContentType)
		h.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	}}

	n, err := s.exporter.WriteCSV(r.Context(), aw)
	if err != nil {
		slog.Error("exporting listings", "rows", n, "started", aw.started, "error", err)
		if !aw.started {
			http.Error(w, exportFailed, http.StatusInternalServerError)
		}
		// Otherwise the headers are sent and the client sees a truncated file.
		return
	}
	slog.Info("listings exported", "rows", n, "by", email)
}

// attachmentWriter sets the download headers on the first write, so a
// failure before any CSV byte is produced can still answer with an error.
type attachmentWriter struct {
	w       http.ResponseWriter
	commit  func(http.Header)
	started bool
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		a.commit(a.w.Header())
	}
	return a.w.Write(p)
}

// ajaxLookup resolves a ZIP code for the listing editor.
func (s *Server) ajaxLookup(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFrom(r.Context())
	if !s.nonces.Verify(r.PostForm.Get("nonce"), auth.ActionAjax, email) {
		ajaxError(w, securityCheckFailed, http.StatusForbidden)
		return
	}
	if err := s.users.Authorize(email, auth.CapEditPosts); err != nil {
		slog.Warn("lookup denied", "error", err)
		ajaxError(w, pageForbidden, http.StatusForbidden)
		return
	}

	loc, err := s.locator.Lookup(r.Context(), property.SanitizeText(r.PostForm.Get("zip")))
	if err != nil {
		ajaxError(w, geo.Message(err), lookupStatus(err))
		return
	}
	if !loc.Found {
		ajaxError(w, geo.NotFoundMessage, http.StatusNotFound)
		return
	}

	ajaxSuccess(w, lookupResponse{Location: loc, Message: geo.Message(nil)})
}

func lookupStatus(err error) int {
	switch {
	case errors.Is(err, geo.ErrInvalidZIP):
		return http.StatusBadRequest
	case errors.Is(err, geo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, geo.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
