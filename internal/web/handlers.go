package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/listing-desk/internal/auth"
	"github.com/evcraddock/listing-desk/internal/property"
	"github.com/evcraddock/listing-desk/internal/search"
)

// NoGridResults is shown by the public grid when nothing matches.
const NoGridResults = "No properties found matching your criteria."

type adminData struct {
	Title     string
	Email     string
	Nonce     string
	Agents    []string
	CanExport bool
	MaxPrice  int
	Results   resultsData
}

// resultsData feeds the "results" fragment shared by the admin page and
// the search action.
type resultsData struct {
	Rows       []search.Row
	Page       int
	TotalPages int
	Links      []search.Link
}

func newResultsData(res *search.Result) resultsData {
	return resultsData{
		Rows:       res.Rows,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Links:      res.Links,
	}
}

type gridData struct {
	Title    string
	Email    string
	Agent    string
	Bedrooms string
	Rows     []search.Row
	Empty    string
}

type fieldView struct {
	Field property.Field
	Label string
	Value string
}

type editData struct {
	Title     string
	Email     string
	Property  *property.Property
	Fields    []fieldView
	MetaNonce string
	AjaxNonce string
	Saved     bool
}

var fieldLabels = map[property.Field]string{
	property.FieldAgent:     "Agent",
	property.FieldPrice:     "Price",
	property.FieldBedrooms:  "Bedrooms",
	property.FieldBathrooms: "Bathrooms",
	property.FieldZIP:       "ZIP Code",
	property.FieldAddress:   "Address",
	property.FieldCity:      "City",
	property.FieldState:     "State",
	property.FieldCountry:   "Country",
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAdmin renders the admin search shell with the first page of results.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFrom(r.Context())

	agents, err := s.props.Agents()
	if err != nil {
		slog.Error("loading agents", "error", err)
		http.Error(w, "Error loading agents", http.StatusInternalServerError)
		return
	}

	res, err := s.search.Search(r.Context(), search.Filters{Page: 1})
	if err != nil {
		slog.Error("loading listings", "error", err)
		http.Error(w, "Error loading properties", http.StatusInternalServerError)
		return
	}

	s.render(w, "admin.html", adminData{
		Title:     "Property Listings",
		Email:     email,
		Nonce:     s.nonces.Create(auth.ActionAjax, email),
		Agents:    agents,
		CanExport: s.users.Can(email, auth.CapManageOptions),
		MaxPrice:  search.DefaultMaxPrice,
		Results:   newResultsData(res),
	})
}

// handleGrid renders every published listing, optionally narrowed to an
// exact agent and bedroom count. It is public and never paginated.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	agent := property.SanitizeText(r.URL.Query().Get("agent"))
	bedrooms := property.SanitizeText(r.URL.Query().Get("bedrooms"))

	page, err := s.props.Query(r.Context(), property.Query{
		Status:   property.StatusPublished,
		Agent:    agent,
		Bedrooms: bedrooms,
	})
	if err != nil {
		slog.Error("loading grid", "error", err)
		http.Error(w, "Error loading properties", http.StatusInternalServerError)
		return
	}

	rows := make([]search.Row, 0, len(page.Properties))
	for _, p := range page.Properties {
		rows = append(rows, search.NewRow(p))
	}

	s.render(w, "grid.html", gridData{
		Title:    "Properties",
		Email:    auth.EmailFrom(r.Context()),
		Agent:    agent,
		Bedrooms: bedrooms,
		Rows:     rows,
		Empty:    NoGridResults,
	})
}

// handleEdit renders the listing editor.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, err := s.props.GetByID(id)
	if errors.Is(err, property.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("loading listing", "id", id, "error", err)
		http.Error(w, "Error loading property", http.StatusInternalServerError)
		return
	}

	fields := make([]fieldView, 0, len(property.Fields))
	for _, f := range property.Fields {
		fields = append(fields, fieldView{Field: f, Label: fieldLabels[f], Value: p.Get(f)})
	}

	email := auth.EmailFrom(r.Context())
	s.render(w, "edit.html", editData{
		Title:     "Edit " + p.Title,
		Email:     email,
		Property:  p,
		Fields:    fields,
		MetaNonce: s.nonces.Create(auth.ActionSaveMeta, email),
		AjaxNonce: s.nonces.Create(auth.ActionAjax, email),
		Saved:     r.URL.Query().Get("saved") == "1",
	})
}

// handleSaveMeta applies the meta form write contract: submitted fields are
// sanitized and stored, fields missing from the form are deleted.
func (s *Server) handleSaveMeta(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := auth.EmailFrom(r.Context())
	if !s.nonces.Verify(r.PostForm.Get("nonce"), auth.ActionSaveMeta, email) {
		http.Error(w, securityCheckFailed, http.StatusForbidden)
		return
	}

	submitted := make(map[property.Field]string)
	for _, f := range property.Fields {
		if values, ok := r.PostForm[string(f)]; ok && len(values) > 0 {
			submitted[f] = values[0]
		}
	}

	err = s.props.SaveForm(id, submitted)
	if errors.Is(err, property.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("saving listing", "id", id, "error", err)
		http.Error(w, "Error saving property", http.StatusInternalServerError)
		return
	}

	slog.Info("listing saved", "id", id, "fields", len(submitted), "by", email)
	http.Redirect(w, r, "/admin/properties/"+strconv.FormatInt(id, 10)+"/edit?saved=1", http.StatusSeeOther)
}

// parsePropertyID reads the {id} path segment.
func parsePropertyID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
