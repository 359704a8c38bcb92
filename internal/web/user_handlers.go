package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/listing-desk/internal/auth"
)

// userHandlers manages authorized users. Routes are gated on manage_options.
type userHandlers struct {
	users *auth.UserStore
}

func (h *userHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		apiError(w, "listing users: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	apiJSON(w, users, http.StatusOK)
}

func (h *userHandlers) addUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		apiError(w, "email is required", http.StatusBadRequest)
		return
	}
	if req.Role != "" && !auth.ValidRole(req.Role) {
		apiError(w, "invalid role: "+req.Role, http.StatusBadRequest)
		return
	}

	user, err := h.users.Add(req.Email, req.Name, auth.Role(req.Role))
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			apiError(w, err.Error(), http.StatusConflict)
			return
		}
		apiError(w, "adding user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apiJSON(w, user, http.StatusCreated)
}

func (h *userHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apiError(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			apiError(w, "user not found", http.StatusNotFound)
			return
		}
		apiError(w, "deleting user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "deleted": true}, http.StatusOK)
}
